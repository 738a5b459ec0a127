// Package retry defines the backoff policy used between flow attempts.
package retry

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Policy defines retry behavior for a flow run.
type Policy struct {
	// MaxAttempts is the attempt budget, including the first attempt. Must be >= 1.
	MaxAttempts int `yaml:"max_attempts"`

	// InitialDelay is the base delay before the first retry.
	InitialDelay time.Duration `yaml:"initial_delay"`

	// MaxDelay caps the computed delay. Must be >= InitialDelay.
	MaxDelay time.Duration `yaml:"max_delay"`

	// Multiplier grows the delay per attempt. 1.0 gives a fixed delay.
	Multiplier float64 `yaml:"multiplier"`

	// Jitter is the symmetric random perturbation fraction, in [0, 1).
	Jitter float64 `yaml:"jitter"`
}

// Default provides sensible defaults.
var Default = Policy{
	MaxAttempts:  3,
	InitialDelay: 500 * time.Millisecond,
	MaxDelay:     5 * time.Second,
	Multiplier:   2.0,
	Jitter:       0.1,
}

// Fixed returns the simple fixed-delay variant: every wait equals d.
func Fixed(maxAttempts int, d time.Duration) Policy {
	return Policy{
		MaxAttempts:  maxAttempts,
		InitialDelay: d,
		MaxDelay:     d,
		Multiplier:   1.0,
		Jitter:       0,
	}
}

// Validate checks the policy invariants.
func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be >= 1, got %d", p.MaxAttempts)
	}
	if p.InitialDelay < 0 {
		return fmt.Errorf("initial_delay must be >= 0, got %v", p.InitialDelay)
	}
	if p.MaxDelay < p.InitialDelay {
		return fmt.Errorf("max_delay %v is below initial_delay %v", p.MaxDelay, p.InitialDelay)
	}
	if p.Multiplier < 1 {
		return fmt.Errorf("multiplier must be >= 1, got %v", p.Multiplier)
	}
	if p.Jitter < 0 || p.Jitter >= 1 {
		return fmt.Errorf("jitter must be in [0, 1), got %v", p.Jitter)
	}
	return nil
}

// Delay computes the wait before re-entering attempt+1, for a 1-based
// attempt index. The base delay is InitialDelay*Multiplier^(attempt-1)
// clamped to MaxDelay, with symmetric jitter applied afterwards. Attempt 1
// is jittered too; the first retry is not guaranteed to wait exactly
// InitialDelay. Deterministic for a fixed rng.
func (p Policy) Delay(attempt int, rng *rand.Rand) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	base := float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if base > float64(p.MaxDelay) {
		base = float64(p.MaxDelay)
	}

	if p.Jitter > 0 && rng != nil {
		// Uniform factor in [1-Jitter, 1+Jitter].
		factor := 1 - p.Jitter + 2*p.Jitter*rng.Float64()
		base *= factor
	}

	if base < 0 {
		return 0
	}
	return time.Duration(base)
}
