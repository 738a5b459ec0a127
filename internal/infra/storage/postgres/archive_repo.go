package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/minhct/snapflow/internal/core/domain"
	"github.com/minhct/snapflow/internal/infra/storage"
)

// ArchiveRepo persists attempt records to PostgreSQL.
type ArchiveRepo struct {
	db *DB
}

func NewArchiveRepo(db *DB) *ArchiveRepo {
	return &ArchiveRepo{db: db}
}

type attemptRow struct {
	RunID        string    `db:"run_id"`
	AttemptIndex int       `db:"attempt_index"`
	StartedAt    time.Time `db:"started_at"`
	DurationMs   int64     `db:"duration_ms"`
	Outcome      string    `db:"outcome"`
	Error        string    `db:"error"`
	Steps        []byte    `db:"steps"`
	CacheKey     string    `db:"cache_key"`
}

func (r *ArchiveRepo) SaveAttempt(ctx context.Context, runID string, rec domain.AttemptRecord) error {
	steps, err := json.Marshal(rec.Steps)
	if err != nil {
		return fmt.Errorf("marshal steps: %w", err)
	}
	if rec.Steps == nil {
		steps = []byte("[]")
	}

	_, err = r.db.NamedExecContext(ctx, `
		INSERT INTO attempts (run_id, attempt_index, started_at, duration_ms, outcome, error, steps, cache_key)
		VALUES (:run_id, :attempt_index, :started_at, :duration_ms, :outcome, :error, :steps, :cache_key)
		ON CONFLICT (run_id, attempt_index) DO NOTHING`,
		attemptRow{
			RunID:        runID,
			AttemptIndex: rec.Index,
			StartedAt:    rec.StartedAt,
			DurationMs:   rec.Duration.Milliseconds(),
			Outcome:      rec.Outcome.String(),
			Error:        rec.Error,
			Steps:        steps,
			CacheKey:     rec.CacheKey,
		})
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

func (r *ArchiveRepo) ListByRun(ctx context.Context, runID string) ([]domain.AttemptRecord, error) {
	var rows []attemptRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT run_id, attempt_index, started_at, duration_ms, outcome, error, steps, cache_key
		FROM attempts WHERE run_id = $1 ORDER BY attempt_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("select attempts: %w", err)
	}
	if len(rows) == 0 {
		return nil, storage.ErrRunNotFound
	}

	recs := make([]domain.AttemptRecord, 0, len(rows))
	for _, row := range rows {
		rec := domain.AttemptRecord{
			Index:     row.AttemptIndex,
			StartedAt: row.StartedAt,
			Duration:  time.Duration(row.DurationMs) * time.Millisecond,
			Outcome:   parseOutcome(row.Outcome),
			Error:     row.Error,
			CacheKey:  row.CacheKey,
		}
		if len(row.Steps) > 0 {
			if err := json.Unmarshal(row.Steps, &rec.Steps); err != nil {
				return nil, fmt.Errorf("unmarshal steps: %w", err)
			}
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func (r *ArchiveRepo) RecentRuns(ctx context.Context, limit int) ([]storage.RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	var summaries []storage.RunSummary
	err := r.db.SelectContext(ctx, &summaries, `
		SELECT run_id,
		       COUNT(*)                                          AS attempts,
		       COUNT(*) FILTER (WHERE outcome = 'success')       AS successes,
		       MAX(started_at)                                   AS last_at
		FROM attempts
		GROUP BY run_id
		ORDER BY last_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}
	return summaries, nil
}

func parseOutcome(s string) domain.AttemptOutcome {
	switch s {
	case "success":
		return domain.OutcomeSuccess
	case "retryable_failure":
		return domain.OutcomeRetryableFailure
	default:
		return domain.OutcomeFatalFailure
	}
}
