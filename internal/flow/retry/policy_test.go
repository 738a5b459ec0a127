package retry

import (
	"math/rand"
	"testing"
	"time"
)

func TestDelay_MonotonicUntilCap(t *testing.T) {
	p := Policy{
		MaxAttempts:  10,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		Jitter:       0,
	}

	prev := time.Duration(-1)
	for attempt := 1; attempt <= 10; attempt++ {
		d := p.Delay(attempt, nil)
		if d < prev {
			t.Errorf("delay(%d) = %v, below delay(%d) = %v", attempt, d, attempt-1, prev)
		}
		if d > p.MaxDelay {
			t.Errorf("delay(%d) = %v exceeds max %v", attempt, d, p.MaxDelay)
		}
		prev = d
	}

	// Once the cap is hit, every further delay equals MaxDelay.
	if d := p.Delay(9, nil); d != p.MaxDelay {
		t.Errorf("delay(9) = %v, want %v", d, p.MaxDelay)
	}
	if d := p.Delay(10, nil); d != p.MaxDelay {
		t.Errorf("delay(10) = %v, want %v", d, p.MaxDelay)
	}
}

func TestDelay_ExponentialCurve(t *testing.T) {
	p := Policy{
		MaxAttempts:  5,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
	}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := p.Delay(tt.attempt, nil); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestDelay_JitterBounds(t *testing.T) {
	p := Policy{
		MaxAttempts:  5,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.25,
	}
	rng := rand.New(rand.NewSource(42))

	for attempt := 1; attempt <= 5; attempt++ {
		base := p.Delay(attempt, nil)
		lo := time.Duration(float64(base) * (1 - p.Jitter))
		hi := time.Duration(float64(base) * (1 + p.Jitter))

		for i := 0; i < 200; i++ {
			d := p.Delay(attempt, rng)
			if d < lo || d > hi {
				t.Fatalf("Delay(%d) = %v outside [%v, %v]", attempt, d, lo, hi)
			}
		}
	}
}

func TestDelay_FirstAttemptIsJittered(t *testing.T) {
	p := Policy{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.5,
	}
	rng := rand.New(rand.NewSource(1))

	varied := false
	for i := 0; i < 50; i++ {
		if p.Delay(1, rng) != p.InitialDelay {
			varied = true
			break
		}
	}
	if !varied {
		t.Error("expected jitter to perturb the attempt-1 delay")
	}
}

func TestDelay_NeverNegative(t *testing.T) {
	p := Policy{
		MaxAttempts:  3,
		InitialDelay: 0,
		MaxDelay:     0,
		Multiplier:   1.0,
		Jitter:       0.9,
	}
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 100; i++ {
		if d := p.Delay(1, rng); d < 0 {
			t.Fatalf("negative delay %v", d)
		}
	}
}

func TestDelay_Deterministic(t *testing.T) {
	p := Default
	a := p.Delay(2, rand.New(rand.NewSource(99)))
	b := p.Delay(2, rand.New(rand.NewSource(99)))
	if a != b {
		t.Errorf("same seed produced %v and %v", a, b)
	}
}

func TestFixed(t *testing.T) {
	p := Fixed(5, 2*time.Second)
	for attempt := 1; attempt <= 5; attempt++ {
		if d := p.Delay(attempt, nil); d != 2*time.Second {
			t.Errorf("Delay(%d) = %v, want 2s", attempt, d)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		wantErr bool
	}{
		{"default ok", Default, false},
		{"zero attempts", Policy{MaxAttempts: 0, Multiplier: 2, MaxDelay: time.Second}, true},
		{"negative initial", Policy{MaxAttempts: 1, InitialDelay: -1, Multiplier: 2}, true},
		{"max below initial", Policy{MaxAttempts: 1, InitialDelay: time.Second, MaxDelay: time.Millisecond, Multiplier: 2}, true},
		{"multiplier below one", Policy{MaxAttempts: 1, Multiplier: 0.5}, true},
		{"jitter one", Policy{MaxAttempts: 1, Multiplier: 1, Jitter: 1}, true},
		{"fixed variant ok", Fixed(1, 0), false},
	}

	for _, tt := range tests {
		if err := tt.policy.Validate(); (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate() = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}
