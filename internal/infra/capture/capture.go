// Package capture defines the artifact-producing collaborator boundary.
package capture

import (
	"context"

	"github.com/minhct/snapflow/internal/core/domain"
)

// Provider produces a binary artifact plus a human-readable trace of the
// steps it took. Providers are fallible; the runner owns timeouts, retries
// and failure classification.
type Provider interface {
	Capture(ctx context.Context) (*domain.CaptureResult, error)
}
