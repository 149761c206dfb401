package storage

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"coldwatch/internal/hashchain"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	schemaSQL = `
    CREATE TABLE IF NOT EXISTS temperature_logs (
        id BIGSERIAL PRIMARY KEY,
        device_id VARCHAR(50) NOT NULL,
        ts TIMESTAMPTZ NOT NULL,
        temperature NUMERIC(5,2) NOT NULL,
        vaccine_type VARCHAR(50) NOT NULL DEFAULT 'General',
        location VARCHAR(100) NOT NULL DEFAULT 'Unknown',
        prev_hash CHAR(64) NOT NULL,
        current_hash CHAR(64) NOT NULL,
        created_at TIMESTAMPTZ NOT NULL DEFAULT now()
    );
    CREATE INDEX IF NOT EXISTS idx_temperature_logs_device_id ON temperature_logs(device_id);
    CREATE INDEX IF NOT EXISTS idx_temperature_logs_ts ON temperature_logs(ts);

    CREATE TABLE IF NOT EXISTS alerts (
        id BIGSERIAL PRIMARY KEY,
        device_id VARCHAR(50) NOT NULL,
        ts TIMESTAMPTZ NOT NULL,
        alert_type VARCHAR(50) NOT NULL,
        temperature NUMERIC(5,2) NOT NULL,
        predicted_temp NUMERIC(5,2) NOT NULL,
        alert_message TEXT NOT NULL DEFAULT '',
        action_suggested TEXT NOT NULL DEFAULT '',
        status VARCHAR(20) NOT NULL DEFAULT 'active',
        severity VARCHAR(20) NOT NULL,
        minutes_to_breach INTEGER NOT NULL,
        created_at TIMESTAMPTZ NOT NULL DEFAULT now()
    );
    CREATE INDEX IF NOT EXISTS idx_alerts_device_id ON alerts(device_id);
    CREATE INDEX IF NOT EXISTS idx_alerts_ts ON alerts(ts);

    CREATE TABLE IF NOT EXISTS audit_trail (
        id BIGSERIAL PRIMARY KEY,
        subject_id VARCHAR(50) NOT NULL,
        ts TIMESTAMPTZ NOT NULL,
        action VARCHAR(100) NOT NULL,
        details TEXT NOT NULL DEFAULT '',
        prev_hash CHAR(64) NOT NULL,
        current_hash CHAR(64) NOT NULL,
        created_at TIMESTAMPTZ NOT NULL DEFAULT now()
    );
    CREATE INDEX IF NOT EXISTS idx_audit_trail_subject_id ON audit_trail(subject_id);`

	advisoryXactLockSQL = `SELECT pg_advisory_xact_lock($1);`

	tailReadingHashSQL = `SELECT current_hash FROM temperature_logs
    WHERE device_id = $1 ORDER BY id DESC LIMIT 1;`

	insertReadingSQL = `INSERT INTO temperature_logs (
        device_id, ts, temperature, vaccine_type, location, prev_hash, current_hash
    ) VALUES ($1,$2,$3,$4,$5,$6,$7);`

	listReadingsSQL = `SELECT id, device_id, ts, temperature, vaccine_type, location,
        prev_hash, current_hash, created_at
    FROM (
        SELECT id, device_id, ts, temperature, vaccine_type, location,
            prev_hash, current_hash, created_at
        FROM temperature_logs
        WHERE device_id = $1
        ORDER BY id DESC
        LIMIT $2
    ) recent
    ORDER BY id;`

	listChainedReadingsSQL = `SELECT ts, device_id, temperature, vaccine_type, location,
        prev_hash, current_hash
    FROM temperature_logs
    WHERE device_id = $1
    ORDER BY id;`

	listDevicesSQL = `SELECT DISTINCT device_id FROM temperature_logs ORDER BY device_id;`

	insertAlertSQL = `INSERT INTO alerts (
        device_id, ts, alert_type, temperature, predicted_temp,
        alert_message, action_suggested, status, severity, minutes_to_breach
    ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
    RETURNING id;`

	listRecentAlertsSQL = `SELECT id, device_id, ts, alert_type, temperature, predicted_temp,
        alert_message, action_suggested, status, severity, minutes_to_breach, created_at
    FROM alerts
    WHERE device_id = $1
    ORDER BY ts DESC
    LIMIT $2;`

	listActiveAlertsSQL = `SELECT id, device_id, ts, alert_type, temperature, predicted_temp,
        alert_message, action_suggested, status, severity, minutes_to_breach, created_at
    FROM alerts
    WHERE device_id = $1 AND status = 'active'
    ORDER BY ts DESC;`

	resolveAlertSQL = `UPDATE alerts SET status = 'resolved' WHERE id = $1;`

	alertStatisticsSQL = `SELECT
        COUNT(*),
        COUNT(*) FILTER (WHERE severity = 'CRITICAL'),
        COUNT(*) FILTER (WHERE severity = 'WARNING'),
        COUNT(*) FILTER (WHERE status = 'resolved'),
        COUNT(*) FILTER (WHERE status = 'resolved' AND severity = 'WARNING')
    FROM alerts
    WHERE device_id = $1;`

	tailAuditHashSQL = `SELECT current_hash FROM audit_trail
    WHERE subject_id = $1 ORDER BY id DESC LIMIT 1;`

	insertAuditSQL = `INSERT INTO audit_trail (
        subject_id, ts, action, details, prev_hash, current_hash
    ) VALUES ($1,$2,$3,$4,$5,$6);`

	listChainedAuditSQL = `SELECT ts, subject_id, action, details, prev_hash, current_hash
    FROM audit_trail
    WHERE subject_id = $1
    ORDER BY id;`
)

// Store provides Postgres-backed reading, alert, and audit persistence.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// EnsureSchema creates tables and indexes when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// streamLockKey derives the advisory lock key serializing appends to one
// chain. Distinct streams hash to (almost certainly) distinct keys and
// proceed without contention.
func streamLockKey(kind, id string) int64 {
	h := fnv.New64a()
	h.Write([]byte(kind))
	h.Write([]byte{0})
	h.Write([]byte(id))
	return int64(h.Sum64())
}

// AppendReading links a reading onto its device chain and persists it. The
// read-tail-then-insert runs inside a transaction holding a per-device
// advisory lock, so concurrent appends cannot observe the same tail.
func (s *Store) AppendReading(ctx context.Context, reading Reading) (string, error) {
	pool, err := s.getPool()
	if err != nil {
		return "", err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin append reading: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, advisoryXactLockSQL, streamLockKey("readings", reading.DeviceID)); err != nil {
		return "", fmt.Errorf("lock reading stream: %w", err)
	}

	prev := hashchain.Sentinel
	if err := tx.QueryRow(ctx, tailReadingHashSQL, reading.DeviceID).Scan(&prev); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("read chain tail: %w", err)
		}
		prev = hashchain.Sentinel
	}

	hash := hashchain.Next(readingPayload(reading), prev)

	if _, err := tx.Exec(ctx, insertReadingSQL,
		reading.DeviceID,
		reading.Timestamp,
		reading.Temperature.StringFixed(2),
		reading.VaccineType,
		reading.Location,
		prev,
		hash,
	); err != nil {
		return "", fmt.Errorf("insert reading: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("commit append reading: %w", err)
	}
	return hash, nil
}

// ListReadings returns up to limit most recent readings for a device in
// ascending time order.
func (s *Store) ListReadings(ctx context.Context, deviceID string, limit int) ([]Reading, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listReadingsSQL, deviceID, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list readings: %w", queryErr)
	}
	defer rows.Close()

	readings := make([]Reading, 0, limit)
	for rows.Next() {
		reading, scanErr := scanReading(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		readings = append(readings, reading)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return readings, nil
}

// ListDevices lists every device with committed readings.
func (s *Store) ListDevices(ctx context.Context) ([]string, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listDevicesSQL)
	if queryErr != nil {
		return nil, fmt.Errorf("list devices: %w", queryErr)
	}
	defer rows.Close()

	devices := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		devices = append(devices, id)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return devices, nil
}

// VerifyReadings replays a device's chain from the sentinel. Read-only; may
// run concurrently with appends and simply not see an in-flight tail.
func (s *Store) VerifyReadings(ctx context.Context, deviceID string) (hashchain.Result, error) {
	pool, err := s.getPool()
	if err != nil {
		return hashchain.Result{}, err
	}

	rows, queryErr := pool.Query(ctx, listChainedReadingsSQL, deviceID)
	if queryErr != nil {
		return hashchain.Result{}, fmt.Errorf("load reading chain: %w", queryErr)
	}
	defer rows.Close()

	records := make([]hashchain.Record, 0)
	for rows.Next() {
		var (
			ts          time.Time
			device      string
			tempStr     string
			vaccineType string
			location    string
			prevHash    string
			currentHash string
		)
		if err := rows.Scan(&ts, &device, &tempStr, &vaccineType, &location, &prevHash, &currentHash); err != nil {
			return hashchain.Result{}, err
		}
		temp, convErr := decimal.NewFromString(tempStr)
		if convErr != nil {
			return hashchain.Result{}, fmt.Errorf("parse temperature: %w", convErr)
		}
		records = append(records, hashchain.Record{
			Seq: int64(len(records)) + 1,
			Payload: readingPayload(Reading{
				DeviceID:    device,
				Timestamp:   ts,
				Temperature: temp,
				VaccineType: vaccineType,
				Location:    location,
			}),
			PrevHash: prevHash,
			Hash:     currentHash,
		})
	}
	if rows.Err() != nil {
		return hashchain.Result{}, rows.Err()
	}

	return hashchain.Verify(records), nil
}

// InsertAlert persists a new alert and returns its id.
func (s *Store) InsertAlert(ctx context.Context, alert Alert) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}

	status := alert.Status
	if status == "" {
		status = AlertStatusActive
	}

	var id int64
	if scanErr := pool.QueryRow(ctx, insertAlertSQL,
		alert.DeviceID,
		alert.Timestamp,
		alert.AlertType,
		alert.CurrentTemp.StringFixed(2),
		alert.PredictedTemp.StringFixed(2),
		alert.Message,
		alert.ActionSuggested,
		status,
		alert.Severity,
		alert.MinutesToBreach,
	).Scan(&id); scanErr != nil {
		return 0, fmt.Errorf("insert alert: %w", scanErr)
	}
	return id, nil
}

// ListRecentAlerts lists the most recent alerts for a device.
func (s *Store) ListRecentAlerts(ctx context.Context, deviceID string, limit int) ([]Alert, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentAlertsSQL, deviceID, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent alerts: %w", queryErr)
	}
	defer rows.Close()

	return collectAlerts(rows)
}

// ListActiveAlerts lists unresolved alerts for a device.
func (s *Store) ListActiveAlerts(ctx context.Context, deviceID string) ([]Alert, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listActiveAlertsSQL, deviceID)
	if queryErr != nil {
		return nil, fmt.Errorf("list active alerts: %w", queryErr)
	}
	defer rows.Close()

	return collectAlerts(rows)
}

// ResolveAlert marks an alert resolved.
func (s *Store) ResolveAlert(ctx context.Context, id int64) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	cmdTag, execErr := pool.Exec(ctx, resolveAlertSQL, id)
	if execErr != nil {
		return fmt.Errorf("resolve alert: %w", execErr)
	}
	if cmdTag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// AlertStatistics aggregates a device's alert history.
func (s *Store) AlertStatistics(ctx context.Context, deviceID string) (AlertStatistics, error) {
	pool, err := s.getPool()
	if err != nil {
		return AlertStatistics{}, err
	}

	var stats AlertStatistics
	if scanErr := pool.QueryRow(ctx, alertStatisticsSQL, deviceID).Scan(
		&stats.Total,
		&stats.Critical,
		&stats.Warning,
		&stats.Resolved,
		&stats.FalsePositives,
	); scanErr != nil {
		return AlertStatistics{}, fmt.Errorf("alert statistics: %w", scanErr)
	}
	if stats.Total > 0 {
		stats.FalsePositiveRate = float64(stats.FalsePositives) / float64(stats.Total) * 100
	}
	return stats, nil
}

// AppendAction links an audit entry onto its subject chain, mirroring
// AppendReading's locking discipline.
func (s *Store) AppendAction(ctx context.Context, entry AuditEntry) (string, error) {
	pool, err := s.getPool()
	if err != nil {
		return "", err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin append action: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, advisoryXactLockSQL, streamLockKey("audit", entry.SubjectID)); err != nil {
		return "", fmt.Errorf("lock audit stream: %w", err)
	}

	prev := hashchain.Sentinel
	if err := tx.QueryRow(ctx, tailAuditHashSQL, entry.SubjectID).Scan(&prev); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("read audit tail: %w", err)
		}
		prev = hashchain.Sentinel
	}

	hash := hashchain.Next(auditPayload(entry), prev)

	if _, err := tx.Exec(ctx, insertAuditSQL,
		entry.SubjectID,
		entry.Timestamp,
		entry.Action,
		entry.Details,
		prev,
		hash,
	); err != nil {
		return "", fmt.Errorf("insert audit entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("commit append action: %w", err)
	}
	return hash, nil
}

// VerifyActions replays a subject's audit chain from the sentinel.
func (s *Store) VerifyActions(ctx context.Context, subjectID string) (hashchain.Result, error) {
	pool, err := s.getPool()
	if err != nil {
		return hashchain.Result{}, err
	}

	rows, queryErr := pool.Query(ctx, listChainedAuditSQL, subjectID)
	if queryErr != nil {
		return hashchain.Result{}, fmt.Errorf("load audit chain: %w", queryErr)
	}
	defer rows.Close()

	records := make([]hashchain.Record, 0)
	for rows.Next() {
		var (
			ts          time.Time
			subject     string
			action      string
			details     string
			prevHash    string
			currentHash string
		)
		if err := rows.Scan(&ts, &subject, &action, &details, &prevHash, &currentHash); err != nil {
			return hashchain.Result{}, err
		}
		records = append(records, hashchain.Record{
			Seq: int64(len(records)) + 1,
			Payload: auditPayload(AuditEntry{
				SubjectID: subject,
				Timestamp: ts,
				Action:    action,
				Details:   details,
			}),
			PrevHash: prevHash,
			Hash:     currentHash,
		})
	}
	if rows.Err() != nil {
		return hashchain.Result{}, rows.Err()
	}

	return hashchain.Verify(records), nil
}

func scanReading(rows pgx.Rows) (Reading, error) {
	var (
		reading Reading
		tempStr string
	)
	if err := rows.Scan(
		&reading.Seq,
		&reading.DeviceID,
		&reading.Timestamp,
		&tempStr,
		&reading.VaccineType,
		&reading.Location,
		&reading.PrevHash,
		&reading.CurrentHash,
		&reading.CreatedAt,
	); err != nil {
		return Reading{}, err
	}

	temp, err := decimal.NewFromString(tempStr)
	if err != nil {
		return Reading{}, fmt.Errorf("parse temperature: %w", err)
	}
	reading.Temperature = temp
	return reading, nil
}

func collectAlerts(rows pgx.Rows) ([]Alert, error) {
	alerts := make([]Alert, 0)
	for rows.Next() {
		var (
			alert        Alert
			currentStr   string
			predictedStr string
		)
		if err := rows.Scan(
			&alert.ID,
			&alert.DeviceID,
			&alert.Timestamp,
			&alert.AlertType,
			&currentStr,
			&predictedStr,
			&alert.Message,
			&alert.ActionSuggested,
			&alert.Status,
			&alert.Severity,
			&alert.MinutesToBreach,
			&alert.CreatedAt,
		); err != nil {
			return nil, err
		}

		var convErr error
		alert.CurrentTemp, convErr = decimal.NewFromString(currentStr)
		if convErr != nil {
			return nil, fmt.Errorf("parse current temp: %w", convErr)
		}
		alert.PredictedTemp, convErr = decimal.NewFromString(predictedStr)
		if convErr != nil {
			return nil, fmt.Errorf("parse predicted temp: %w", convErr)
		}

		alerts = append(alerts, alert)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return alerts, nil
}

var (
	_ ReadingStore = (*Store)(nil)
	_ AlertStore   = (*Store)(nil)
	_ AuditStore   = (*Store)(nil)
)
