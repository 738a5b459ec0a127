package storage

import (
	"context"
	"errors"
	"time"

	"github.com/minhct/snapflow/internal/core/domain"
)

// ErrRunNotFound is returned when a run has no archived attempts.
var ErrRunNotFound = errors.New("run not found")

// RunSummary aggregates archived attempts per run.
type RunSummary struct {
	RunID     string    `db:"run_id"`
	Attempts  int       `db:"attempts"`
	Successes int       `db:"successes"`
	LastAt    time.Time `db:"last_at"`
}

// AttemptArchive is the durable sink for attempt records. Archiving is a
// side channel like the artifact cache: the runner logs archive failures
// and moves on.
type AttemptArchive interface {
	SaveAttempt(ctx context.Context, runID string, rec domain.AttemptRecord) error
	ListByRun(ctx context.Context, runID string) ([]domain.AttemptRecord, error)
	RecentRuns(ctx context.Context, limit int) ([]RunSummary, error)
}
