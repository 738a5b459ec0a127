// Package guard bounds a single asynchronous operation with a deadline.
package guard

import (
	"context"
	"fmt"
	"time"
)

// TimeoutError marks a guarded operation that exceeded its deadline.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout: operation exceeded %v deadline", e.Timeout)
}

// WithTimeout races op against a deadline. The deadline is propagated into
// op through its context, so cooperative operations stop early; an op that
// ignores its context keeps running detached after the guard returns, which
// is why side effects behind the guard must be idempotent.
//
// If the deadline elapses first, the zero value and a *TimeoutError are
// returned. If the parent context is cancelled first, its error propagates
// instead. A non-positive timeout disables the bound. No retry logic lives
// here; the guard is a single-shot bound.
func WithTimeout[T any](ctx context.Context, timeout time.Duration, op func(context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return op(ctx)
	}

	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		val T
		err error
	}
	// Buffered so a detached op can finish its send and be collected.
	done := make(chan outcome, 1)

	go func() {
		val, err := op(opCtx)
		done <- outcome{val: val, err: err}
	}()

	select {
	case out := <-done:
		return out.val, out.err
	case <-opCtx.Done():
		var zero T
		if err := ctx.Err(); err != nil {
			// Parent cancelled, not a deadline.
			return zero, err
		}
		return zero, &TimeoutError{Timeout: timeout}
	}
}
