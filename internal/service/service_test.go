package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"coldwatch/internal/alerting"
	"coldwatch/internal/config"
	"coldwatch/internal/forecast"
	"coldwatch/internal/storage"
)

type captureNotifier struct {
	notes []alerting.Notification
}

func (c *captureNotifier) Notify(ctx context.Context, note alerting.Notification) error {
	c.notes = append(c.notes, note)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Forecast: config.ForecastConfig{
			SafeMin:        2.0,
			SafeMax:        8.0,
			HorizonMinutes: 120,
			SampleInterval: 5,
			SmoothingAlpha: 0.3,
			WarningMargin:  0.5,
			RidgeLambda:    1.0,
			MinHistory:     20,
			MinAfterLag:    5,
			MaxLag:         12,
			LookbackHours:  24,
		},
		Alerting: config.AlertingConfig{Enabled: true},
	}
}

func testService(cfg *config.Config, store *storage.MemoryStore, notifier alerting.Notifier) *Service {
	clock := func() time.Time {
		return time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)
	}
	engine := forecast.NewEngineAt(EngineConfig(cfg), clock)
	return New(cfg, nil, engine, store, store, store, notifier, zerolog.Nop())
}

func submitRising(t *testing.T, svc *Service, deviceID string) {
	t.Helper()
	base := time.Date(2026, 1, 15, 6, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		req := SubmitRequest{
			DeviceID:    deviceID,
			Temperature: 5.0 + 3.3*float64(i)/24.0,
			Timestamp:   base.Add(time.Duration(i) * 5 * time.Minute),
		}
		if _, err := svc.Submit(context.Background(), req); err != nil {
			t.Fatalf("submit reading %d: %v", i, err)
		}
	}
}

func TestSubmitCommitsToChain(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := testService(testConfig(), store, nil)

	hash, err := svc.Submit(context.Background(), SubmitRequest{DeviceID: "fridge-01", Temperature: 5.1})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if len(hash) != 64 {
		t.Fatalf("expected a 64-char chain hash, got %q", hash)
	}

	res, err := svc.VerifyReadings(context.Background(), "fridge-01")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !res.OK || len(res.Statuses) != 1 {
		t.Fatalf("fresh single-record chain must verify: %+v", res)
	}

	if _, err := svc.Submit(context.Background(), SubmitRequest{Temperature: 5.1}); err == nil {
		t.Fatal("missing device id must be rejected")
	}
}

func TestAssessRaisesHighTempAlert(t *testing.T) {
	store := storage.NewMemoryStore()
	notifier := &captureNotifier{}
	svc := testService(testConfig(), store, notifier)
	submitRising(t, svc, "fridge-01")

	outcome, err := svc.Assess(context.Background(), "fridge-01")
	if err != nil {
		t.Fatalf("assess failed: %v", err)
	}
	if !outcome.Assessed || !outcome.Alerted {
		t.Fatalf("rising scenario must alert: %+v", outcome)
	}
	if outcome.Assessment.Type != forecast.AlertHighTemp {
		t.Fatalf("expected HIGH_TEMP, got %s", outcome.Assessment.Type)
	}
	if outcome.AlertID == 0 {
		t.Fatal("alert must be persisted")
	}

	alerts, err := store.ListRecentAlerts(context.Background(), "fridge-01", 10)
	if err != nil {
		t.Fatalf("list alerts failed: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("expected one persisted alert, got %d", len(alerts))
	}
	if alerts[0].Status != storage.AlertStatusActive {
		t.Fatalf("new alerts must be active, got %s", alerts[0].Status)
	}
	if alerts[0].MinutesToBreach <= 0 {
		t.Fatalf("minutes to breach must be positive, got %d", alerts[0].MinutesToBreach)
	}

	if len(notifier.notes) != 1 {
		t.Fatalf("expected one notification, got %d", len(notifier.notes))
	}
	if len(notifier.notes[0].Actions) == 0 {
		t.Fatal("notification must carry advisories")
	}
}

func TestAssessWithoutReadings(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := testService(testConfig(), store, nil)

	outcome, err := svc.Assess(context.Background(), "unknown")
	if err != nil {
		t.Fatalf("assess failed: %v", err)
	}
	if outcome.Assessed || outcome.Alerted {
		t.Fatalf("device without readings must not be assessed: %+v", outcome)
	}
}

func TestAssessNaiveForecastStaysQuiet(t *testing.T) {
	store := storage.NewMemoryStore()
	notifier := &captureNotifier{}
	svc := testService(testConfig(), store, notifier)

	for i := 0; i < 3; i++ {
		if _, err := svc.Submit(context.Background(), SubmitRequest{DeviceID: "fridge-02", Temperature: 5.0}); err != nil {
			t.Fatalf("submit failed: %v", err)
		}
	}

	outcome, err := svc.Assess(context.Background(), "fridge-02")
	if err != nil {
		t.Fatalf("assess failed: %v", err)
	}
	if !outcome.Assessed {
		t.Fatal("the naive ramp still counts as an assessable forecast")
	}
	if outcome.Alerted {
		t.Fatalf("ramp from 5.0 stays inside the safe range: %+v", outcome.Assessment)
	}
	if outcome.Forecast.AccuracyPct != 75.0 {
		t.Fatalf("naive forecast accuracy must be 75.0, got %v", outcome.Forecast.AccuracyPct)
	}
	if len(notifier.notes) != 0 {
		t.Fatalf("no notification expected, got %d", len(notifier.notes))
	}
}

func TestSweepCoversAllDevices(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := testService(testConfig(), store, nil)
	submitRising(t, svc, "fridge-01")
	submitRising(t, svc, "fridge-02")

	if err := svc.Sweep(context.Background(), time.Now()); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	for _, device := range []string{"fridge-01", "fridge-02"} {
		alerts, err := store.ListRecentAlerts(context.Background(), device, 10)
		if err != nil {
			t.Fatalf("list alerts failed: %v", err)
		}
		if len(alerts) != 1 {
			t.Fatalf("device %s: expected one alert after sweep, got %d", device, len(alerts))
		}
	}
}

func TestAuditTrailRoundTrip(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := testService(testConfig(), store, nil)

	for _, action := range []string{"login", "csv_upload", "alert_review"} {
		hash, err := svc.RecordAction(context.Background(), "doc-001", action, "details")
		if err != nil {
			t.Fatalf("record action failed: %v", err)
		}
		if len(hash) != 64 {
			t.Fatalf("expected chain hash, got %q", hash)
		}
	}

	res, err := svc.VerifyIntegrity(context.Background(), "doc-001")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !res.OK || len(res.Statuses) != 3 {
		t.Fatalf("audit chain must verify with 3 statuses: %+v", res)
	}

	empty, err := svc.VerifyIntegrity(context.Background(), "doc-999")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !empty.OK || len(empty.Statuses) != 0 {
		t.Fatalf("empty chain must verify clean: %+v", empty)
	}

	if _, err := svc.RecordAction(context.Background(), "", "login", ""); err == nil {
		t.Fatal("missing subject id must be rejected")
	}
}
