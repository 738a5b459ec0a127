// Package runner drives the capture flow to completion under unreliable
// collaborators. It is the only caller of the backoff policy, the timeout
// guard, the classifier, the ledger and the cache adapter.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/minhct/snapflow/internal/core/domain"
	"github.com/minhct/snapflow/internal/flow/classify"
	"github.com/minhct/snapflow/internal/flow/guard"
	"github.com/minhct/snapflow/internal/flow/ledger"
	"github.com/minhct/snapflow/internal/flow/metrics"
	"github.com/minhct/snapflow/internal/flow/retry"
	"github.com/minhct/snapflow/internal/infra/cache"
	"github.com/minhct/snapflow/internal/infra/capture"
	"github.com/minhct/snapflow/internal/infra/storage"
	"github.com/minhct/snapflow/internal/infra/stream"
)

// State is the runner's position in the attempt loop.
type State int

const (
	StateIdle State = iota
	StateAttempting
	StateRetryWait
	StateSucceeded
	StateExhausted
	StateFatallyFailed
)

// String returns the state name for logs and the health endpoint.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAttempting:
		return "attempting"
	case StateRetryWait:
		return "retry_wait"
	case StateSucceeded:
		return "succeeded"
	case StateExhausted:
		return "exhausted"
	case StateFatallyFailed:
		return "fatally_failed"
	default:
		return "unknown"
	}
}

// Option configures a Runner.
type Option func(*Runner)

// WithLedger injects the attempt ledger. Callers wanting per-run isolation
// construct one ledger per run; by default all runs of this instance share
// one history until ClearHistory.
func WithLedger(l *ledger.Ledger) Option {
	return func(r *Runner) { r.ledger = l }
}

// WithClassifier replaces the default substring classifier.
func WithClassifier(c classify.Classifier) Option {
	return func(r *Runner) { r.classifier = c }
}

// WithArchive adds a durable attempt sink. Archive failures never affect
// the run.
func WithArchive(a storage.AttemptArchive) Option {
	return func(r *Runner) { r.archive = a }
}

// WithRand fixes the jitter source, for tests.
func WithRand(rng *rand.Rand) Option {
	return func(r *Runner) { r.rng = rng }
}

// Runner is the attempt state machine. One instance owns one shared mutable
// history; concurrent Run calls against the same instance interleave their
// attempts into that history.
type Runner struct {
	capture capture.Provider
	stream  stream.Provider
	cache   *cache.Adapter

	ledger     *ledger.Ledger
	classifier classify.Classifier
	archive    storage.AttemptArchive
	log        *slog.Logger

	// rand.Rand is not safe for concurrent use; concurrent runs share it.
	rngMu sync.Mutex
	rng   *rand.Rand

	mu        sync.Mutex
	policy    retry.Policy
	opTimeout time.Duration
	state     State
}

// New builds a Runner around its collaborators.
func New(cap capture.Provider, str stream.Provider, ca *cache.Adapter, opts ...Option) *Runner {
	r := &Runner{
		capture:    cap,
		stream:     str,
		cache:      ca,
		ledger:     ledger.New(),
		classifier: classify.NewSubstringClassifier(),
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		log:        slog.Default(),
		policy:     retry.Default,
		opTimeout:  10 * time.Second,
		state:      StateIdle,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetPolicy replaces the retry policy. Takes effect for subsequent runs.
func (r *Runner) SetPolicy(p retry.Policy) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("invalid retry policy: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policy = p
	return nil
}

// SetOperationTimeout bounds each guarded collaborator call. Takes effect
// for subsequent runs.
func (r *Runner) SetOperationTimeout(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opTimeout = d
}

// State returns the state the runner last settled in.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Runner) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// History returns the recorded attempts in order.
func (r *Runner) History() []domain.AttemptRecord {
	return r.ledger.All()
}

// Metrics returns a snapshot of the run metrics.
func (r *Runner) Metrics() domain.RunMetrics {
	return r.ledger.Metrics()
}

// LastSuccessCacheKey returns the cache key of the most recent success.
func (r *Runner) LastSuccessCacheKey() (string, bool) {
	return r.ledger.LastSuccessCacheKey()
}

// ClearHistory resets the shared history. Used between independent runs
// when the caller wants isolation; otherwise repeated runs accumulate.
func (r *Runner) ClearHistory() {
	r.ledger.Clear()
}

// Run drives one flow run: up to MaxAttempts passes through the guarded
// capture -> cache -> clone pipeline. It returns only success or failure;
// per-attempt detail is available through the ledger accessors, so call
// sites are not forced to unpack history just to check success. Run never
// panics past this boundary and never returns an error value.
func (r *Runner) Run(ctx context.Context) bool {
	r.mu.Lock()
	policy := r.policy
	opTimeout := r.opTimeout
	r.mu.Unlock()

	runID := uuid.NewString()
	log := r.log.With("run_id", runID)
	log.Info("Flow run starting", "max_attempts", policy.MaxAttempts, "op_timeout", opTimeout)

	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		// Cancellation is honored before every attempt entry.
		if ctx.Err() != nil {
			log.Warn("Run cancelled before attempt", "attempt", attempt)
			r.setState(StateFatallyFailed)
			metrics.RunsTotal.WithLabelValues("cancelled").Inc()
			return false
		}

		r.setState(StateAttempting)
		rec, failure, emptyArtifact := r.attempt(ctx, runID, attempt, opTimeout)

		if failure == nil {
			r.record(ctx, runID, rec)
			r.setState(StateSucceeded)
			metrics.RunsTotal.WithLabelValues("success").Inc()
			log.Info("Flow run succeeded", "attempt", attempt, "cache_key", rec.CacheKey)
			return true
		}

		// Classification runs after the cache stage so a caching failure
		// never masks the primary failure. An empty artifact is retryable
		// by definition, not by marker.
		class := classify.Retryable
		if !emptyArtifact {
			class = r.classifier.Classify(failure)
		}

		if class == classify.Fatal {
			rec.Outcome = domain.OutcomeFatalFailure
			r.record(ctx, runID, rec)
			r.setState(StateFatallyFailed)
			metrics.RunsTotal.WithLabelValues("fatal").Inc()
			log.Error("Flow run failed fatally", "attempt", attempt, "error", rec.Error)
			return false
		}

		rec.Outcome = domain.OutcomeRetryableFailure
		r.record(ctx, runID, rec)

		if attempt == policy.MaxAttempts {
			r.setState(StateExhausted)
			metrics.RunsTotal.WithLabelValues("exhausted").Inc()
			log.Error("Flow run exhausted attempts", "attempts", attempt, "last_error", rec.Error)
			return false
		}

		delay := r.nextDelay(policy, attempt)
		metrics.RetryWaitSeconds.Observe(delay.Seconds())
		log.Warn("Attempt failed, retrying",
			"attempt", attempt, "error", rec.Error, "delay", delay)

		r.setState(StateRetryWait)
		select {
		case <-ctx.Done():
			r.setState(StateFatallyFailed)
			metrics.RunsTotal.WithLabelValues("cancelled").Inc()
			return false
		case <-time.After(delay):
		}
	}

	// Unreachable: the loop always settles in a terminal state.
	return false
}

func (r *Runner) nextDelay(policy retry.Policy, attempt int) time.Duration {
	r.rngMu.Lock()
	defer r.rngMu.Unlock()
	return policy.Delay(attempt, r.rng)
}

// attempt executes one pass through the pipeline. On failure the original
// error is returned alongside the record so the classifier sees typed
// errors, not their string form; emptyArtifact flags the one failure mode
// that skips classification.
func (r *Runner) attempt(ctx context.Context, runID string, index int, opTimeout time.Duration) (rec domain.AttemptRecord, failure error, emptyArtifact bool) {
	start := time.Now()
	rec = domain.AttemptRecord{
		Index:     index,
		StartedAt: start,
		// Allocated before the attempt starts, even if the attempt never
		// reaches the caching stage.
		CacheKey: fmt.Sprintf("%s:%d:%d", runID, index, start.UnixNano()),
	}

	defer func() {
		rec.Duration = time.Since(start)
		metrics.AttemptDuration.Observe(rec.Duration.Seconds())
	}()

	res, err := guard.WithTimeout(ctx, opTimeout, func(ctx context.Context) (*domain.CaptureResult, error) {
		return r.capture.Capture(ctx)
	})
	if err != nil {
		rec.Error = fmt.Sprintf("capture step: %v", err)
		rec.Steps = append(rec.Steps, "capture failed: "+err.Error())
		return rec, fmt.Errorf("capture step: %w", err), false
	}
	rec.Steps = append(rec.Steps, res.Steps...)

	if res.Artifact.Empty() {
		rec.Error = "capture failed: empty artifact"
		rec.Steps = append(rec.Steps, "capture returned no artifact")
		return rec, fmt.Errorf("capture failed: empty artifact"), true
	}
	rec.Steps = append(rec.Steps, fmt.Sprintf("captured %d bytes (%s)", len(res.Artifact.Data), res.Artifact.ContentType))

	if r.cache.Store(ctx, rec.CacheKey, res.Artifact.Data, res.Artifact.ContentType) {
		rec.Steps = append(rec.Steps, "artifact cached under "+rec.CacheKey)
	} else {
		rec.Steps = append(rec.Steps, "cache store failed, continuing")
	}

	clone, err := guard.WithTimeout(ctx, opTimeout, func(ctx context.Context) (*domain.StreamHandle, error) {
		h, err := r.stream.Acquire(ctx)
		if err != nil {
			return nil, fmt.Errorf("acquire: %w", err)
		}
		return r.stream.Clone(ctx, h)
	})
	if err != nil {
		rec.Error = fmt.Sprintf("stream step: %v", err)
		rec.Steps = append(rec.Steps, "stream clone failed: "+err.Error())
		return rec, fmt.Errorf("stream step: %w", err), false
	}
	rec.Steps = append(rec.Steps, "stream cloned as "+clone.ID)

	rec.Outcome = domain.OutcomeSuccess
	return rec, nil, false
}

// record appends to the ledger and mirrors to the archive. The ledger
// append is the authoritative write; the archive is best-effort.
func (r *Runner) record(ctx context.Context, runID string, rec domain.AttemptRecord) {
	r.ledger.Append(rec)
	metrics.AttemptsTotal.WithLabelValues(rec.Outcome.String()).Inc()

	if r.archive == nil {
		return
	}
	if err := r.archive.SaveAttempt(ctx, runID, rec); err != nil {
		r.log.Warn("Attempt archive write failed", "run_id", runID, "attempt", rec.Index, "error", err)
		metrics.ArchiveWritesTotal.WithLabelValues("error").Inc()
		return
	}
	metrics.ArchiveWritesTotal.WithLabelValues("ok").Inc()
}
