package ledger

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/minhct/snapflow/internal/core/domain"
)

func rec(idx int, outcome domain.AttemptOutcome, d time.Duration) domain.AttemptRecord {
	return domain.AttemptRecord{
		Index:     idx,
		StartedAt: time.Now(),
		Duration:  d,
		Outcome:   outcome,
		CacheKey:  fmt.Sprintf("key-%d", idx),
	}
}

func TestAppendPreservesOrder(t *testing.T) {
	l := New()
	for i := 1; i <= 5; i++ {
		l.Append(rec(i, domain.OutcomeRetryableFailure, time.Millisecond))
	}

	all := l.All()
	if len(all) != 5 {
		t.Fatalf("len = %d, want 5", len(all))
	}
	for i, r := range all {
		if r.Index != i+1 {
			t.Errorf("record %d has index %d, want %d", i, r.Index, i+1)
		}
	}
}

func TestAllReturnsCopy(t *testing.T) {
	l := New()
	l.Append(rec(1, domain.OutcomeSuccess, time.Millisecond))

	all := l.All()
	all[0].CacheKey = "tampered"

	if got, _ := l.LastSuccessCacheKey(); got != "key-1" {
		t.Errorf("ledger mutated through All(): key = %q", got)
	}
}

func TestLastSuccessCacheKey(t *testing.T) {
	l := New()
	if _, ok := l.LastSuccessCacheKey(); ok {
		t.Error("empty ledger reported a success")
	}

	l.Append(rec(1, domain.OutcomeRetryableFailure, time.Millisecond))
	l.Append(rec(2, domain.OutcomeSuccess, time.Millisecond))
	l.Append(rec(3, domain.OutcomeRetryableFailure, time.Millisecond))

	key, ok := l.LastSuccessCacheKey()
	if !ok || key != "key-2" {
		t.Errorf("got (%q, %v), want (key-2, true)", key, ok)
	}

	l.Append(rec(4, domain.OutcomeSuccess, time.Millisecond))
	if key, _ := l.LastSuccessCacheKey(); key != "key-4" {
		t.Errorf("got %q, want key-4 (most recent success)", key)
	}
}

func TestMetricsEmptyLedger(t *testing.T) {
	l := New()
	m := l.Metrics()

	if m.TotalAttempts != 0 || m.SuccessCount != 0 {
		t.Errorf("empty ledger counts: %+v", m)
	}
	if m.SuccessRate != 0 {
		t.Errorf("success rate = %v, want 0 (no NaN)", m.SuccessRate)
	}
	if m.AverageDuration != 0 {
		t.Errorf("average duration = %v, want 0", m.AverageDuration)
	}
}

func TestMetricsSnapshot(t *testing.T) {
	l := New()
	l.Append(rec(1, domain.OutcomeRetryableFailure, 100*time.Millisecond))
	l.Append(rec(2, domain.OutcomeSuccess, 300*time.Millisecond))

	m := l.Metrics()
	if m.TotalAttempts != 2 || m.SuccessCount != 1 {
		t.Errorf("counts: %+v", m)
	}
	if m.SuccessRate != 0.5 {
		t.Errorf("success rate = %v, want 0.5", m.SuccessRate)
	}
	if m.TotalTime != 400*time.Millisecond {
		t.Errorf("total time = %v, want 400ms", m.TotalTime)
	}
	if m.AverageDuration != 200*time.Millisecond {
		t.Errorf("average = %v, want 200ms", m.AverageDuration)
	}

	// Snapshot must not update with later appends.
	l.Append(rec(3, domain.OutcomeSuccess, time.Millisecond))
	if m.TotalAttempts != 2 {
		t.Error("snapshot changed after append")
	}
}

func TestClear(t *testing.T) {
	l := New()
	l.Append(rec(1, domain.OutcomeSuccess, time.Millisecond))
	l.Clear()

	if l.Len() != 0 {
		t.Errorf("len after clear = %d", l.Len())
	}
	if _, ok := l.LastSuccessCacheKey(); ok {
		t.Error("cleared ledger still reports a success")
	}
	if m := l.Metrics(); m.TotalAttempts != 0 || m.SuccessRate != 0 {
		t.Errorf("cleared metrics: %+v", m)
	}
}

func TestConcurrentAppendAndRead(t *testing.T) {
	l := New()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l.Append(rec(i, domain.OutcomeSuccess, time.Millisecond))
			l.Metrics()
			l.LastSuccessCacheKey()
		}(i)
	}
	wg.Wait()

	if l.Len() != 100 {
		t.Errorf("len = %d, want 100", l.Len())
	}
}
