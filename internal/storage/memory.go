package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/jackc/pgx/v5"

	"coldwatch/internal/hashchain"
)

// MemoryStore keeps readings, alerts, and audit entries in memory on top of
// a hashchain ledger. It backs tests and running without a database; nothing
// survives a restart.
type MemoryStore struct {
	readingChains *hashchain.Ledger
	auditChains   *hashchain.Ledger

	mu          sync.Mutex
	readings    map[string][]Reading
	alerts      []Alert
	nextAlertID int64
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		readingChains: hashchain.NewLedger(),
		auditChains:   hashchain.NewLedger(),
		readings:      make(map[string][]Reading),
		nextAlertID:   1,
	}
}

// AppendReading links the reading onto its device chain. The ledger
// serializes appends per stream.
func (m *MemoryStore) AppendReading(ctx context.Context, reading Reading) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := m.readingChains.Append(reading.DeviceID, readingPayload(reading))
	reading.Seq = rec.Seq
	reading.PrevHash = rec.PrevHash
	reading.CurrentHash = rec.Hash
	m.readings[reading.DeviceID] = append(m.readings[reading.DeviceID], reading)
	return rec.Hash, nil
}

// ListReadings returns up to limit most recent readings in append order.
func (m *MemoryStore) ListReadings(ctx context.Context, deviceID string, limit int) ([]Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := m.readings[deviceID]
	start := 0
	if limit > 0 && len(all) > limit {
		start = len(all) - limit
	}
	out := make([]Reading, len(all)-start)
	copy(out, all[start:])
	return out, nil
}

// ListDevices lists every device with committed readings.
func (m *MemoryStore) ListDevices(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	devices := make([]string, 0, len(m.readings))
	for id := range m.readings {
		devices = append(devices, id)
	}
	sort.Strings(devices)
	return devices, nil
}

// VerifyReadings checks the device chain end-to-end.
func (m *MemoryStore) VerifyReadings(ctx context.Context, deviceID string) (hashchain.Result, error) {
	return m.readingChains.Verify(deviceID), nil
}

// InsertAlert stores a new alert and returns its id.
func (m *MemoryStore) InsertAlert(ctx context.Context, alert Alert) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	alert.ID = m.nextAlertID
	m.nextAlertID++
	if alert.Status == "" {
		alert.Status = AlertStatusActive
	}
	m.alerts = append(m.alerts, alert)
	return alert.ID, nil
}

// ListRecentAlerts lists the most recent alerts for a device, newest first.
func (m *MemoryStore) ListRecentAlerts(ctx context.Context, deviceID string, limit int) ([]Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Alert, 0, limit)
	for i := len(m.alerts) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if m.alerts[i].DeviceID == deviceID {
			out = append(out, m.alerts[i])
		}
	}
	return out, nil
}

// ListActiveAlerts lists unresolved alerts for a device, newest first.
func (m *MemoryStore) ListActiveAlerts(ctx context.Context, deviceID string) ([]Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Alert, 0)
	for i := len(m.alerts) - 1; i >= 0; i-- {
		if m.alerts[i].DeviceID == deviceID && m.alerts[i].Status == AlertStatusActive {
			out = append(out, m.alerts[i])
		}
	}
	return out, nil
}

// ResolveAlert marks an alert resolved.
func (m *MemoryStore) ResolveAlert(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.alerts {
		if m.alerts[i].ID == id {
			m.alerts[i].Status = AlertStatusResolved
			return nil
		}
	}
	return pgx.ErrNoRows
}

// AlertStatistics aggregates a device's alert history.
func (m *MemoryStore) AlertStatistics(ctx context.Context, deviceID string) (AlertStatistics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var stats AlertStatistics
	for _, alert := range m.alerts {
		if alert.DeviceID != deviceID {
			continue
		}
		stats.Total++
		switch alert.Severity {
		case "CRITICAL":
			stats.Critical++
		case "WARNING":
			stats.Warning++
		}
		if alert.Status == AlertStatusResolved {
			stats.Resolved++
			if alert.Severity == "WARNING" {
				stats.FalsePositives++
			}
		}
	}
	if stats.Total > 0 {
		stats.FalsePositiveRate = float64(stats.FalsePositives) / float64(stats.Total) * 100
	}
	return stats, nil
}

// AppendAction links an audit entry onto its subject chain.
func (m *MemoryStore) AppendAction(ctx context.Context, entry AuditEntry) (string, error) {
	rec := m.auditChains.Append(entry.SubjectID, auditPayload(entry))
	return rec.Hash, nil
}

// VerifyActions checks the subject's audit chain end-to-end.
func (m *MemoryStore) VerifyActions(ctx context.Context, subjectID string) (hashchain.Result, error) {
	return m.auditChains.Verify(subjectID), nil
}

var (
	_ ReadingStore = (*MemoryStore)(nil)
	_ AlertStore   = (*MemoryStore)(nil)
	_ AuditStore   = (*MemoryStore)(nil)
)
