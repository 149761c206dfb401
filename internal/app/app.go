// Package app aggregates configuration and shared dependencies behind the
// CLI commands.
package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"coldwatch/internal/alerting"
	"coldwatch/internal/config"
	"coldwatch/internal/forecast"
	"coldwatch/internal/scheduler"
	"coldwatch/internal/service"
	"coldwatch/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

// stores bundles the three storage contracts behind one close handle.
type stores struct {
	readings storage.ReadingStore
	alerts   storage.AlertStore
	audit    storage.AuditStore
	close    func()
}

// openStores connects to PostgreSQL and applies the schema. Returns nil when
// no DSN is configured so callers decide how to degrade.
func (a *App) openStores(ctx context.Context) (*stores, error) {
	if a.Config.Database.DSN == "" {
		return nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, err
	}

	store := storage.NewStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, err
	}

	return &stores{readings: store, alerts: store, audit: store, close: store.Close}, nil
}

// requireStores is openStores for commands that cannot run without a database.
func (a *App) requireStores(ctx context.Context) (*stores, error) {
	st, err := a.openStores(ctx)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, errors.New("database.dsn not configured; this command needs a database")
	}
	return st, nil
}

// memoryStores backs database-less runs. Nothing survives the process.
func memoryStores() *stores {
	m := storage.NewMemoryStore()
	return &stores{readings: m, alerts: m, audit: m, close: func() {}}
}

func (a *App) newService(st *stores, sched *scheduler.Scheduler, notifier alerting.Notifier) *service.Service {
	engine := forecast.NewEngine(service.EngineConfig(a.Config))
	return service.New(a.Config, sched, engine, st.readings, st.alerts, st.audit, notifier, a.Logger)
}

// Run executes the long-running monitoring service.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st, err := a.openStores(ctx)
	if err != nil {
		return err
	}
	if st == nil {
		a.Logger.Warn().Msg("database.dsn not configured; using in-memory store, nothing survives a restart")
		st = memoryStores()
	}
	defer st.close()

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Scheduler.Interval,
		AlignToCycle: a.Config.Scheduler.AlignToCycle,
		StartupDelay: a.Config.Scheduler.StartupDelay,
	}, a.Logger)

	svc := a.newService(st, sched, a.newNotifier())

	a.Logger.Info().Msg("starting monitoring service")
	err = svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("monitoring service stopped")
	return nil
}

// SubmitOptions carry one reading from the CLI.
type SubmitOptions struct {
	DeviceID    string
	Temperature float64
	Timestamp   *time.Time
	VaccineType string
	Location    string
}

// AuditOptions record one audit-trail action.
type AuditOptions struct {
	SubjectID string
	Action    string
	Details   string
}

// ForecastOptions configure an on-demand forecast.
type ForecastOptions struct {
	DeviceID string
}

// VerifyOptions select which chains to verify.
type VerifyOptions struct {
	DeviceID  string
	SubjectID string
	Verbose   bool
}

// ShowOptions configure the show command.
type ShowOptions struct {
	DeviceID   string
	Limit      int
	Readings   bool
	ActiveOnly bool
	Stats      bool
}

// ExportOptions hold parameters for exporting a device's history.
type ExportOptions struct {
	DeviceID  string
	CSVPath   string
	PNGPath   string
	MaxPoints int
}

// SimulateOptions drive a database-less pipeline rehearsal.
type SimulateOptions struct {
	DeviceID string
	Hours    int
	Seed     int64
	Notify   bool
}

// SeedOptions populate a device with synthetic history.
type SeedOptions struct {
	DeviceID string
	Hours    int
	Seed     int64
}
