package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/minhct/snapflow/internal/core/domain"
	"github.com/minhct/snapflow/internal/infra/storage"
)

func TestArchiveRoundTrip(t *testing.T) {
	repo := NewArchiveRepo()
	ctx := context.Background()

	recs := []domain.AttemptRecord{
		{Index: 1, StartedAt: time.Now(), Outcome: domain.OutcomeRetryableFailure, Error: "network error", CacheKey: "k1"},
		{Index: 2, StartedAt: time.Now(), Outcome: domain.OutcomeSuccess, CacheKey: "k2"},
	}
	for _, rec := range recs {
		if err := repo.SaveAttempt(ctx, "run-a", rec); err != nil {
			t.Fatalf("SaveAttempt: %v", err)
		}
	}

	got, err := repo.ListByRun(ctx, "run-a")
	if err != nil {
		t.Fatalf("ListByRun: %v", err)
	}
	if len(got) != 2 || got[0].Index != 1 || got[1].Index != 2 {
		t.Errorf("unexpected records: %+v", got)
	}
}

func TestListUnknownRun(t *testing.T) {
	repo := NewArchiveRepo()
	if _, err := repo.ListByRun(context.Background(), "nope"); !errors.Is(err, storage.ErrRunNotFound) {
		t.Errorf("got %v, want ErrRunNotFound", err)
	}
}

func TestRecentRuns(t *testing.T) {
	repo := NewArchiveRepo()
	ctx := context.Background()
	now := time.Now()

	repo.SaveAttempt(ctx, "old", domain.AttemptRecord{Index: 1, StartedAt: now.Add(-time.Hour), Outcome: domain.OutcomeFatalFailure})
	repo.SaveAttempt(ctx, "new", domain.AttemptRecord{Index: 1, StartedAt: now, Outcome: domain.OutcomeSuccess})

	runs, err := repo.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(runs))
	}
	if runs[0].RunID != "new" {
		t.Errorf("first run = %q, want newest", runs[0].RunID)
	}
	if runs[0].Successes != 1 || runs[1].Successes != 0 {
		t.Errorf("success counts: %+v", runs)
	}

	limited, _ := repo.RecentRuns(ctx, 1)
	if len(limited) != 1 {
		t.Errorf("limit ignored: %d", len(limited))
	}
}
