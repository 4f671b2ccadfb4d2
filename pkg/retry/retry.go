// Package retry provides a bounded retry combinator shared by every remote call.
package retry

import (
	"context"
	"time"
)

// Backoff returns the wait after a failed attempt (1-based).
type Backoff func(attempt int) time.Duration

// Linear waits base × attempt after each failure.
func Linear(base time.Duration) Backoff {
	return func(attempt int) time.Duration {
		if attempt <= 0 {
			return 0
		}
		return base * time.Duration(attempt)
	}
}

// Policy bounds a retry loop.
type Policy struct {
	// Attempts is the total number of tries, including the first one.
	Attempts int
	// Backoff computes the delay before the next try.
	Backoff Backoff
	// Retryable decides whether an error may be retried. Nil retries everything.
	Retryable func(error) bool
}

// DefaultPolicy returns 3 attempts with a linear 500ms backoff.
func DefaultPolicy() Policy {
	return Policy{
		Attempts: 3,
		Backoff:  Linear(500 * time.Millisecond),
	}
}

// Do runs fn until it succeeds, returns a non-retryable error, or attempts run out.
// The last error is returned as-is.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) (T, error)) (T, error) {
	var zero T
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		res, err := fn(ctx, attempt)
		if err == nil {
			return res, nil
		}
		lastErr = err

		if attempt == attempts || (p.Retryable != nil && !p.Retryable(err)) {
			break
		}

		if p.Backoff == nil {
			continue
		}
		if delay := p.Backoff(attempt); delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			case <-timer.C:
			}
		}
	}
	return zero, lastErr
}
