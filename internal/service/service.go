// Package service wires ingestion, forecasting, classification, and alert
// delivery into the monitoring pipeline.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"coldwatch/internal/alerting"
	"coldwatch/internal/config"
	"coldwatch/internal/forecast"
	"coldwatch/internal/hashchain"
	"coldwatch/internal/scheduler"
	"coldwatch/internal/storage"
)

// latencyBudget bounds one forecast call. Exceeding it is a performance
// signal, not a failure.
const latencyBudget = 2 * time.Second

// SubmitRequest is one incoming temperature reading.
type SubmitRequest struct {
	DeviceID    string
	Temperature float64
	Timestamp   time.Time
	VaccineType string
	Location    string
}

// Outcome reports what one device assessment produced. Nil predictions mean
// "cannot currently assess risk", which is distinct from an assessed
// forecast that raised no alert.
type Outcome struct {
	DeviceID      string
	Forecast      forecast.Result
	Assessed      bool
	Alerted       bool
	Assessment    forecast.Assessment
	AlertID       int64
	CurrentTemp   float64
	PredictedTemp float64
	Actions       []string
}

// Service orchestrates the monitoring pipeline.
type Service struct {
	scheduler  *scheduler.Scheduler
	engine     *forecast.Engine
	classifier *forecast.Classifier
	readings   storage.ReadingStore
	alerts     storage.AlertStore
	audit      storage.AuditStore
	notifier   alerting.Notifier
	logger     zerolog.Logger

	alertsOn      bool
	lookbackLimit int
}

// New constructs the monitoring service. The engine is passed in so callers
// control its clock.
func New(cfg *config.Config, sched *scheduler.Scheduler, engine *forecast.Engine, readings storage.ReadingStore, alerts storage.AlertStore, audit storage.AuditStore, notifier alerting.Notifier, logger zerolog.Logger) *Service {
	perHour := 60 / cfg.Forecast.SampleInterval
	if perHour <= 0 {
		perHour = 12
	}

	return &Service{
		scheduler:     sched,
		engine:        engine,
		classifier:    forecast.NewClassifier(EngineConfig(cfg)),
		readings:      readings,
		alerts:        alerts,
		audit:         audit,
		notifier:      notifier,
		logger:        logger.With().Str("component", "service").Logger(),
		alertsOn:      cfg.Alerting.Enabled,
		lookbackLimit: cfg.Forecast.LookbackHours * perHour,
	}
}

// EngineConfig maps the runtime configuration onto the forecast package.
func EngineConfig(cfg *config.Config) forecast.Config {
	f := cfg.Forecast
	return forecast.Config{
		SafeMin:        f.SafeMin,
		SafeMax:        f.SafeMax,
		HorizonMinutes: f.HorizonMinutes,
		SampleInterval: f.SampleInterval,
		SmoothingAlpha: f.SmoothingAlpha,
		WarningMargin:  f.WarningMargin,
		RidgeLambda:    f.RidgeLambda,
		MinHistory:     f.MinHistory,
		MinAfterLag:    f.MinAfterLag,
		MaxLag:         f.MaxLag,
	}
}

// Run begins the aligned monitoring loop.
func (s *Service) Run(ctx context.Context) error {
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	return s.scheduler.Run(ctx, s.Sweep)
}

// Sweep assesses every device with committed readings.
func (s *Service) Sweep(ctx context.Context, cycle time.Time) error {
	devices, err := s.readings.ListDevices(ctx)
	if err != nil {
		return fmt.Errorf("list devices: %w", err)
	}

	for _, deviceID := range devices {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if _, err := s.Assess(ctx, deviceID); err != nil {
			s.logger.Error().Err(err).Str("device", deviceID).Msg("device assessment failed")
		}
	}
	return nil
}

// Submit commits a reading to the device's temperature chain and returns the
// new chain hash. Forecasting only ever sees committed readings.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	if req.DeviceID == "" {
		return "", fmt.Errorf("device id is required")
	}

	ts := req.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	vaccineType := req.VaccineType
	if vaccineType == "" {
		vaccineType = "General"
	}
	location := req.Location
	if location == "" {
		location = "Unknown"
	}

	reading := storage.Reading{
		DeviceID: req.DeviceID,
		// Truncated so the canonical hash input survives storage round trips.
		Timestamp:   ts.UTC().Truncate(time.Microsecond),
		Temperature: decimal.NewFromFloat(req.Temperature).Round(2),
		VaccineType: vaccineType,
		Location:    location,
	}

	hash, err := s.readings.AppendReading(ctx, reading)
	if err != nil {
		return "", fmt.Errorf("append reading: %w", err)
	}

	s.logger.Debug().Str("device", req.DeviceID).Str("hash", hash).Msg("reading committed")
	return hash, nil
}

// RequestForecast projects the device's temperature over the horizon and
// returns the committed readings it consumed.
func (s *Service) RequestForecast(ctx context.Context, deviceID string) (forecast.Result, []storage.Reading, error) {
	readings, err := s.readings.ListReadings(ctx, deviceID, s.lookbackLimit)
	if err != nil {
		return forecast.Result{}, nil, fmt.Errorf("load readings: %w", err)
	}

	temps := make([]float64, len(readings))
	for i, r := range readings {
		temps[i] = r.Temperature.InexactFloat64()
	}

	result := s.engine.Forecast(temps)
	if result.ElapsedMS > float64(latencyBudget.Milliseconds()) {
		s.logger.Warn().Str("device", deviceID).Float64("elapsed_ms", result.ElapsedMS).Msg("forecast exceeded latency budget")
	}
	return result, readings, nil
}

// Assess runs forecast → classify → advise for one device, persisting and
// dispatching an alert when the forecast threatens the safe range.
func (s *Service) Assess(ctx context.Context, deviceID string) (Outcome, error) {
	outcome := Outcome{DeviceID: deviceID}

	result, readings, err := s.RequestForecast(ctx, deviceID)
	if err != nil {
		return outcome, err
	}
	outcome.Forecast = result

	if len(readings) == 0 {
		s.logger.Debug().Str("device", deviceID).Msg("no committed readings; nothing to assess")
		return outcome, nil
	}
	if !result.Available() {
		// Not "no risk": the caller cannot currently assess this device.
		s.logger.Info().Str("device", deviceID).Msg("no prediction available")
		return outcome, nil
	}
	outcome.Assessed = true
	outcome.CurrentTemp = readings[len(readings)-1].Temperature.InexactFloat64()

	assessment, alerted := s.classifier.Classify(result.Predictions)
	if !alerted {
		s.logger.Debug().Str("device", deviceID).Msg("forecast within safe range")
		return outcome, nil
	}

	steps := assessment.MinutesToBreach/s.classifier.SampleInterval() - 1
	if steps < 0 || steps >= len(result.Predictions) {
		steps = len(result.Predictions) - 1
	}
	predicted := result.Predictions[steps]

	outcome.Alerted = true
	outcome.Assessment = assessment
	outcome.PredictedTemp = predicted
	outcome.Actions = forecast.Advise(assessment.Type, assessment.Severity)

	if s.alerts != nil {
		alert := storage.Alert{
			DeviceID:        deviceID,
			Timestamp:       time.Now().UTC(),
			AlertType:       string(assessment.Type),
			CurrentTemp:     decimal.NewFromFloat(outcome.CurrentTemp).Round(2),
			PredictedTemp:   decimal.NewFromFloat(predicted).Round(2),
			Message:         alertMessage(assessment.Type, predicted),
			ActionSuggested: outcome.Actions[0],
			Status:          storage.AlertStatusActive,
			Severity:        string(assessment.Severity),
			MinutesToBreach: assessment.MinutesToBreach,
		}
		id, err := s.alerts.InsertAlert(ctx, alert)
		if err != nil {
			s.logger.Error().Err(err).Str("device", deviceID).Msg("failed to persist alert")
		} else {
			outcome.AlertID = id
		}
	}

	s.logger.Info().
		Str("device", deviceID).
		Str("alert_type", string(assessment.Type)).
		Str("severity", string(assessment.Severity)).
		Int("minutes_to_breach", assessment.MinutesToBreach).
		Float64("accuracy_pct", result.AccuracyPct).
		Msg("breach risk detected")

	if s.alertsOn && s.notifier != nil {
		note := alerting.Notification{
			DeviceID:        deviceID,
			At:              time.Now().UTC(),
			AlertType:       assessment.Type,
			Severity:        assessment.Severity,
			CurrentTemp:     outcome.CurrentTemp,
			PredictedTemp:   predicted,
			MinutesToBreach: assessment.MinutesToBreach,
			AccuracyPct:     result.AccuracyPct,
			Actions:         outcome.Actions,
		}
		if err := s.notifier.Notify(ctx, note); err != nil {
			s.logger.Error().Err(err).Str("device", deviceID).Msg("failed to dispatch alert")
		}
	}

	return outcome, nil
}

// RecordAction appends an entry to the subject's audit chain.
func (s *Service) RecordAction(ctx context.Context, subjectID, action, details string) (string, error) {
	if subjectID == "" {
		return "", fmt.Errorf("subject id is required")
	}
	if action == "" {
		return "", fmt.Errorf("action is required")
	}

	entry := storage.AuditEntry{
		SubjectID: subjectID,
		Timestamp: time.Now().UTC().Truncate(time.Microsecond),
		Action:    action,
		Details:   details,
	}
	hash, err := s.audit.AppendAction(ctx, entry)
	if err != nil {
		return "", fmt.Errorf("append action: %w", err)
	}
	return hash, nil
}

// VerifyIntegrity replays the subject's audit chain. A failed result names
// the first compromised record; repair is an out-of-band administrative
// action.
func (s *Service) VerifyIntegrity(ctx context.Context, subjectID string) (hashchain.Result, error) {
	return s.audit.VerifyActions(ctx, subjectID)
}

// VerifyReadings replays the device's temperature chain.
func (s *Service) VerifyReadings(ctx context.Context, deviceID string) (hashchain.Result, error) {
	return s.readings.VerifyReadings(ctx, deviceID)
}

func alertMessage(alertType forecast.AlertType, predicted float64) string {
	switch alertType {
	case forecast.AlertHighTemp:
		return fmt.Sprintf("Temperature predicted to breach upper limit (%.1f°C)", predicted)
	case forecast.AlertLowTemp:
		return fmt.Sprintf("Temperature predicted to breach lower limit (%.1f°C)", predicted)
	default:
		return "Temperature alert"
	}
}
