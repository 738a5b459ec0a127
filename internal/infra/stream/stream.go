// Package stream defines the media-stream collaborator boundary.
package stream

import (
	"context"

	"github.com/minhct/snapflow/internal/core/domain"
)

// Provider acquires a live media stream and clones it. Clone attaches the
// provider's interaction listeners to the duplicate as a side effect; the
// runner does not interpret them.
type Provider interface {
	Acquire(ctx context.Context) (*domain.StreamHandle, error)
	Clone(ctx context.Context, h *domain.StreamHandle) (*domain.StreamHandle, error)
}
