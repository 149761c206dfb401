package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"coldwatch/internal/config"
	"coldwatch/internal/hashchain"
)

// ReadingStore defines the temperature log contract. Appends are chained;
// forecasting only ever sees readings already committed to the chain.
type ReadingStore interface {
	AppendReading(ctx context.Context, reading Reading) (string, error)
	ListReadings(ctx context.Context, deviceID string, limit int) ([]Reading, error)
	ListDevices(ctx context.Context) ([]string, error)
	VerifyReadings(ctx context.Context, deviceID string) (hashchain.Result, error)
}

// AlertStore defines alert persistence and lifecycle operations.
type AlertStore interface {
	InsertAlert(ctx context.Context, alert Alert) (int64, error)
	ListRecentAlerts(ctx context.Context, deviceID string, limit int) ([]Alert, error)
	ListActiveAlerts(ctx context.Context, deviceID string) ([]Alert, error)
	ResolveAlert(ctx context.Context, id int64) error
	AlertStatistics(ctx context.Context, deviceID string) (AlertStatistics, error)
}

// AuditStore defines the chained audit-trail contract.
type AuditStore interface {
	AppendAction(ctx context.Context, entry AuditEntry) (string, error)
	VerifyActions(ctx context.Context, subjectID string) (hashchain.Result, error)
}

// NewPool configures a PostgreSQL connection pool from runtime settings.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse database dsn: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	return pool, nil
}

// readingPayload builds the canonical hash payload for a reading. Field order
// is part of the chain contract and must never change.
func readingPayload(r Reading) string {
	return hashchain.Canonical(
		hashchain.CanonicalTime(r.Timestamp),
		r.DeviceID,
		hashchain.CanonicalTemp(r.Temperature),
		r.VaccineType,
		r.Location,
	)
}

// auditPayload builds the canonical hash payload for an audit entry.
func auditPayload(e AuditEntry) string {
	return hashchain.Canonical(
		hashchain.CanonicalTime(e.Timestamp),
		e.SubjectID,
		e.Action,
		e.Details,
	)
}
