// Package hashchain implements the tamper-evident record chains backing
// temperature logs and the audit trail. Every record's hash covers its
// canonical payload plus the previous record's hash, so any mutation,
// deletion, or reordering is detectable from that record onward.
package hashchain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Sentinel anchors the first record of every stream.
const Sentinel = "0000000000000000000000000000000000000000000000000000000000000000"

// Record is one link in a stream's chain. Seq is monotonic per stream,
// starting at 1.
type Record struct {
	Seq      int64
	Payload  string
	PrevHash string
	Hash     string
}

// Next computes the hash linking a canonical payload to the current tail.
func Next(payload, prev string) string {
	sum := sha256.Sum256([]byte(payload + "|" + prev))
	return hex.EncodeToString(sum[:])
}

// Canonical joins payload fields in their fixed hashing order. Appenders and
// verifiers must build payloads through this function with identical field
// order, or the chain will not re-verify.
func Canonical(fields ...string) string {
	return strings.Join(fields, "|")
}

// CanonicalTime renders a timestamp for hashing. Microsecond precision
// survives a round trip through a timestamptz column; callers must truncate
// timestamps to microseconds before appending.
func CanonicalTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000Z")
}

// CanonicalTemp renders a temperature for hashing at the precision the
// storage column preserves.
func CanonicalTemp(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// RecordStatus reports the verification outcome for a single record.
type RecordStatus struct {
	Seq    int64
	Hash   string
	Status string
}

// Result is the outcome of verifying one stream.
type Result struct {
	OK       bool
	FirstBad int // index into the verified records; -1 when OK
	Statuses []RecordStatus
}

// Verify replays records in append order from the sentinel. It stops at the
// first record whose stored previous-hash does not match the running hash or
// whose stored hash does not match a recomputation; Statuses then covers only
// the valid prefix. An empty stream verifies clean.
func Verify(records []Record) Result {
	statuses := make([]RecordStatus, 0, len(records))
	prev := Sentinel

	for i, rec := range records {
		if rec.PrevHash != prev {
			return Result{OK: false, FirstBad: i, Statuses: statuses}
		}
		if Next(rec.Payload, rec.PrevHash) != rec.Hash {
			return Result{OK: false, FirstBad: i, Statuses: statuses}
		}
		statuses = append(statuses, RecordStatus{Seq: rec.Seq, Hash: rec.Hash, Status: "valid"})
		prev = rec.Hash
	}

	return Result{OK: true, FirstBad: -1, Statuses: statuses}
}
