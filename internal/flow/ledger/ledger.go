// Package ledger keeps the append-only execution history of flow attempts.
package ledger

import (
	"sync"
	"time"

	"github.com/minhct/snapflow/internal/core/domain"
)

// Ledger is the append-only attempt history for an orchestrator instance.
// Append is the only mutator besides Clear; records are never reordered or
// edited in place. Safe for concurrent use.
type Ledger struct {
	mu      sync.RWMutex
	records []domain.AttemptRecord
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{}
}

// Append adds one completed attempt. Called exactly once per attempt, after
// its outcome is known.
func (l *Ledger) Append(rec domain.AttemptRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
}

// All returns the history in append order. The slice is a copy; callers
// cannot mutate the ledger through it.
func (l *Ledger) All() []domain.AttemptRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.AttemptRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Len returns the number of recorded attempts.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// LastSuccessCacheKey scans backward and returns the cache key of the most
// recent successful attempt. ok is false when no success exists. Attempt
// counts are bounded by policy, so the linear scan is fine.
func (l *Ledger) LastSuccessCacheKey() (key string, ok bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for i := len(l.records) - 1; i >= 0; i-- {
		if l.records[i].Outcome == domain.OutcomeSuccess {
			return l.records[i].CacheKey, true
		}
	}
	return "", false
}

// Metrics computes a snapshot from the current history. On an empty ledger
// every field is zero; there is no division by the attempt count.
func (l *Ledger) Metrics() domain.RunMetrics {
	l.mu.RLock()
	defer l.mu.RUnlock()

	m := domain.RunMetrics{TotalAttempts: len(l.records)}
	if m.TotalAttempts == 0 {
		return m
	}

	var total time.Duration
	for _, rec := range l.records {
		total += rec.Duration
		if rec.Outcome == domain.OutcomeSuccess {
			m.SuccessCount++
		}
	}

	m.TotalTime = total
	m.SuccessRate = float64(m.SuccessCount) / float64(m.TotalAttempts)
	m.AverageDuration = total / time.Duration(m.TotalAttempts)
	return m
}

// Clear resets the ledger to empty. Used between independent runs when the
// caller wants isolation; repeated runs otherwise accumulate.
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = nil
}
