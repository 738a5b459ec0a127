package cache

import (
	"context"
	"log/slog"

	"github.com/minhct/snapflow/internal/flow/metrics"
)

// Putter is the slice of the store the adapter needs.
type Putter interface {
	Put(ctx context.Context, key string, payload []byte, contentType string) error
}

// Adapter wraps the store so that caching can never fail the workflow.
// Every failure is swallowed here; the only observable consequence is the
// absence of a cached artifact under that key.
type Adapter struct {
	store Putter
	log   *slog.Logger
}

// NewAdapter builds the adapter. A nil store means caching is disabled
// (capability absent in this environment) and every Store call is a logged
// no-op.
func NewAdapter(store Putter) *Adapter {
	return &Adapter{store: store, log: slog.Default()}
}

// Store persists the artifact best-effort. The returned bool feeds the
// attempt trace only; it never changes the attempt's outcome.
func (a *Adapter) Store(ctx context.Context, key string, payload []byte, contentType string) bool {
	if a == nil || a.store == nil {
		slog.Debug("Cache unavailable, skipping store", "key", key)
		return false
	}

	if err := a.store.Put(ctx, key, payload, contentType); err != nil {
		a.log.Warn("Cache store failed", "key", key, "error", err)
		metrics.CacheStoresTotal.WithLabelValues("error").Inc()
		return false
	}

	a.log.Debug("Artifact cached", "key", key, "bytes", len(payload))
	metrics.CacheStoresTotal.WithLabelValues("ok").Inc()
	return true
}
