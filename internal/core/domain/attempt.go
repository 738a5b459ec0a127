package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// AttemptOutcome classifies how a single attempt ended.
type AttemptOutcome int

const (
	OutcomeSuccess AttemptOutcome = iota
	OutcomeRetryableFailure
	OutcomeFatalFailure
)

// String returns the outcome name for logs and the archive.
func (o AttemptOutcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeRetryableFailure:
		return "retryable_failure"
	case OutcomeFatalFailure:
		return "fatal_failure"
	default:
		return "unknown"
	}
}

// MarshalJSON emits the outcome name instead of the raw enum value.
func (o AttemptOutcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

// UnmarshalJSON accepts an outcome name.
func (o *AttemptOutcome) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "success":
		*o = OutcomeSuccess
	case "retryable_failure":
		*o = OutcomeRetryableFailure
	case "fatal_failure":
		*o = OutcomeFatalFailure
	default:
		return fmt.Errorf("unknown attempt outcome %q", s)
	}
	return nil
}

// AttemptRecord is one row of the execution history. Records are immutable
// once appended to the ledger.
type AttemptRecord struct {
	Index     int            `json:"index"` // 1-based within a run
	StartedAt time.Time      `json:"started_at"`
	Duration  time.Duration  `json:"duration"`
	Outcome   AttemptOutcome `json:"outcome"`
	Error     string         `json:"error,omitempty"`
	Steps     []string       `json:"steps,omitempty"`

	// CacheKey is assigned before the attempt starts, even if the attempt
	// never reaches the caching stage.
	CacheKey string `json:"cache_key"`
}

// RunMetrics is a point-in-time snapshot derived from the execution history.
// It does not update after being returned.
type RunMetrics struct {
	TotalAttempts   int           `json:"total_attempts"`
	SuccessCount    int           `json:"success_count"`
	TotalTime       time.Duration `json:"total_time"`
	SuccessRate     float64       `json:"success_rate"`
	AverageDuration time.Duration `json:"average_duration"`
}
