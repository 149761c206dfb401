package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// Reading is one committed temperature observation, chained to its
// predecessor on the same device stream. Immutable once appended.
type Reading struct {
	Seq         int64
	DeviceID    string
	Timestamp   time.Time
	Temperature decimal.Decimal
	VaccineType string
	Location    string
	PrevHash    string
	CurrentHash string
	CreatedAt   time.Time
}

// Alert captures an emitted breach-risk alert. The core only creates alerts;
// resolution is an external, explicit status change.
type Alert struct {
	ID              int64
	DeviceID        string
	Timestamp       time.Time
	AlertType       string
	CurrentTemp     decimal.Decimal
	PredictedTemp   decimal.Decimal
	Message         string
	ActionSuggested string
	Status          string
	Severity        string
	MinutesToBreach int
	CreatedAt       time.Time
}

// Alert status values.
const (
	AlertStatusActive   = "active"
	AlertStatusResolved = "resolved"
)

// AuditEntry is one chained action record on a subject's audit trail.
type AuditEntry struct {
	Seq         int64
	SubjectID   string
	Timestamp   time.Time
	Action      string
	Details     string
	PrevHash    string
	CurrentHash string
	CreatedAt   time.Time
}

// AlertStatistics aggregates alert history for a device.
type AlertStatistics struct {
	Total             int
	Critical          int
	Warning           int
	Resolved          int
	FalsePositives    int
	FalsePositiveRate float64
}
