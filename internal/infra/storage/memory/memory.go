package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/minhct/snapflow/internal/core/domain"
	"github.com/minhct/snapflow/internal/infra/storage"
)

// ArchiveRepo is the in-memory AttemptArchive used in tests and when no
// database is configured.
type ArchiveRepo struct {
	mu   sync.RWMutex
	runs map[string][]domain.AttemptRecord
}

func NewArchiveRepo() *ArchiveRepo {
	return &ArchiveRepo{runs: make(map[string][]domain.AttemptRecord)}
}

func (r *ArchiveRepo) SaveAttempt(ctx context.Context, runID string, rec domain.AttemptRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[runID] = append(r.runs[runID], rec)
	return nil
}

func (r *ArchiveRepo) ListByRun(ctx context.Context, runID string) ([]domain.AttemptRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	recs, ok := r.runs[runID]
	if !ok {
		return nil, storage.ErrRunNotFound
	}
	out := make([]domain.AttemptRecord, len(recs))
	copy(out, recs)
	return out, nil
}

func (r *ArchiveRepo) RecentRuns(ctx context.Context, limit int) ([]storage.RunSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summaries := make([]storage.RunSummary, 0, len(r.runs))
	for runID, recs := range r.runs {
		s := storage.RunSummary{RunID: runID, Attempts: len(recs)}
		var last time.Time
		for _, rec := range recs {
			if rec.Outcome == domain.OutcomeSuccess {
				s.Successes++
			}
			if rec.StartedAt.After(last) {
				last = rec.StartedAt
			}
		}
		s.LastAt = last
		summaries = append(summaries, s)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].LastAt.After(summaries[j].LastAt)
	})
	if limit > 0 && len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}
