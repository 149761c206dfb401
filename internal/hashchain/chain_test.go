package hashchain

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestVerifyEmptyStream(t *testing.T) {
	res := Verify(nil)
	if !res.OK {
		t.Fatal("empty chain must verify clean")
	}
	if res.FirstBad != -1 {
		t.Fatalf("FirstBad should be -1, got %d", res.FirstBad)
	}
	if len(res.Statuses) != 0 {
		t.Fatalf("statuses should be empty, got %d", len(res.Statuses))
	}
}

func TestAppendLinkage(t *testing.T) {
	l := NewLedger()
	for i := 0; i < 5; i++ {
		l.Append("dev-1", fmt.Sprintf("payload-%d", i))
	}

	records := l.Records("dev-1")
	if records[0].PrevHash != Sentinel {
		t.Fatalf("first record must link to sentinel, got %s", records[0].PrevHash)
	}
	for i := 1; i < len(records); i++ {
		if records[i].PrevHash != records[i-1].Hash {
			t.Fatalf("record %d previous hash does not match prior record", i)
		}
	}

	res := l.Verify("dev-1")
	if !res.OK {
		t.Fatalf("untampered chain must verify, first bad %d", res.FirstBad)
	}
	if len(res.Statuses) != 5 {
		t.Fatalf("expected 5 statuses, got %d", len(res.Statuses))
	}
}

func TestTamperDetectionLocalizes(t *testing.T) {
	l := NewLedger()
	for i := 0; i < 6; i++ {
		l.Append("dev-1", fmt.Sprintf("payload-%d", i))
	}

	for tampered := 0; tampered < 6; tampered++ {
		records := l.Records("dev-1")
		records[tampered].Payload = "forged"

		res := Verify(records)
		if res.OK {
			t.Fatalf("tampering record %d must fail verification", tampered)
		}
		if res.FirstBad != tampered {
			t.Fatalf("expected first bad %d, got %d", tampered, res.FirstBad)
		}
		if len(res.Statuses) != tampered {
			t.Fatalf("statuses must cover only the valid prefix: want %d, got %d", tampered, len(res.Statuses))
		}
	}
}

func TestVerifyIdempotent(t *testing.T) {
	l := NewLedger()
	l.Append("dev-1", "a")
	l.Append("dev-1", "b")

	first := l.Verify("dev-1")
	second := l.Verify("dev-1")
	if first.OK != second.OK || first.FirstBad != second.FirstBad || len(first.Statuses) != len(second.Statuses) {
		t.Fatalf("verify must be idempotent: %+v vs %+v", first, second)
	}
}

func TestMonotonicAppend(t *testing.T) {
	l := NewLedger()
	for i := 1; i <= 10; i++ {
		rec := l.Append("dev-1", "x")
		if rec.Seq != int64(i) {
			t.Fatalf("expected seq %d, got %d", i, rec.Seq)
		}
		if l.Len("dev-1") != i {
			t.Fatalf("length must grow by exactly one, got %d after %d appends", l.Len("dev-1"), i)
		}
	}
}

func TestConcurrentAppendsSameStream(t *testing.T) {
	l := NewLedger()
	const writers = 8
	const perWriter = 25

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				l.Append("shared", fmt.Sprintf("w%d-%d", w, i))
			}
		}(w)
	}
	wg.Wait()

	if got := l.Len("shared"); got != writers*perWriter {
		t.Fatalf("expected %d records, got %d", writers*perWriter, got)
	}
	if res := l.Verify("shared"); !res.OK {
		t.Fatalf("concurrent appends forked the chain at %d", res.FirstBad)
	}
}

func TestIndependentStreams(t *testing.T) {
	l := NewLedger()
	var wg sync.WaitGroup
	for d := 0; d < 4; d++ {
		wg.Add(1)
		go func(d int) {
			defer wg.Done()
			id := fmt.Sprintf("dev-%d", d)
			for i := 0; i < 20; i++ {
				l.Append(id, fmt.Sprintf("r-%d", i))
			}
		}(d)
	}
	wg.Wait()

	for d := 0; d < 4; d++ {
		id := fmt.Sprintf("dev-%d", d)
		if res := l.Verify(id); !res.OK {
			t.Fatalf("stream %s failed verification", id)
		}
		if l.Len(id) != 20 {
			t.Fatalf("stream %s expected 20 records, got %d", id, l.Len(id))
		}
	}
}

func TestCanonicalFormatting(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 589793000, time.UTC)
	if got := CanonicalTime(ts); got != "2026-03-14T09:26:53.589793Z" {
		t.Fatalf("canonical time mismatch: %s", got)
	}

	temp := decimal.NewFromFloat(5.1)
	if got := CanonicalTemp(temp); got != "5.10" {
		t.Fatalf("canonical temp mismatch: %s", got)
	}

	payload := Canonical("a", "b", "c")
	if payload != "a|b|c" {
		t.Fatalf("canonical join mismatch: %s", payload)
	}
}
