package hashchain

import "sync"

// Ledger keeps chains in memory, one per stream. Appends to a stream are
// serialized by a per-stream mutex; two appends must never read the same tail
// hash or the chain silently forks. Distinct streams append independently.
//
// The Postgres store provides the durable equivalent; the ledger backs tests
// and running without a configured database.
type Ledger struct {
	mu      sync.Mutex
	streams map[string]*stream
}

type stream struct {
	mu      sync.Mutex
	records []Record
}

// NewLedger constructs an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{streams: make(map[string]*stream)}
}

func (l *Ledger) stream(id string) *stream {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.streams[id]
	if !ok {
		s = &stream{}
		l.streams[id] = s
	}
	return s
}

// Append links a canonical payload onto the stream's tail and returns the new
// record.
func (l *Ledger) Append(streamID, payload string) Record {
	s := l.stream(streamID)
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := Sentinel
	if n := len(s.records); n > 0 {
		prev = s.records[n-1].Hash
	}

	rec := Record{
		Seq:      int64(len(s.records)) + 1,
		Payload:  payload,
		PrevHash: prev,
		Hash:     Next(payload, prev),
	}
	s.records = append(s.records, rec)
	return rec
}

// Records returns a copy of the stream's chain in append order.
func (l *Ledger) Records(streamID string) []Record {
	s := l.stream(streamID)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Len reports the stream's chain length.
func (l *Ledger) Len(streamID string) int {
	s := l.stream(streamID)
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Verify checks the stream end-to-end. It never mutates; a verify racing an
// in-flight append may simply observe a chain one record short.
func (l *Ledger) Verify(streamID string) Result {
	return Verify(l.Records(streamID))
}
