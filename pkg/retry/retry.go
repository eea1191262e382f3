// Package retry provides the retry policy applied to external calls:
// bounded attempts with a pluggable backoff between them.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/UH-CI/course-text-extraction/pkg/errors"
)

// BackoffFunc returns the delay before the given retry attempt (1-based).
type BackoffFunc func(attempt int) time.Duration

// FixedBackoff waits the same interval between every attempt.
func FixedBackoff(interval time.Duration) BackoffFunc {
	return func(int) time.Duration {
		return interval
	}
}

// ExponentialBackoff doubles the interval on each attempt, capped at max.
func ExponentialBackoff(initial, max time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		d := initial << uint(attempt-1)
		if d > max || d <= 0 {
			return max
		}
		return d
	}
}

// Policy is an injectable retry policy: maximum attempts and the backoff
// between them. The zero delay path makes policies testable without sleeping.
type Policy struct {
	MaxAttempts int
	Backoff     BackoffFunc
}

// NewPolicy creates a policy with the given attempt ceiling and backoff.
func NewPolicy(maxAttempts int, backoff BackoffFunc) Policy {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return Policy{MaxAttempts: maxAttempts, Backoff: backoff}
}

// Do runs fn up to MaxAttempts times, backing off between attempts. Only
// retryable errors (transport, malformed output) trigger another attempt;
// validation errors and context cancellation return immediately.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	var lastErr error

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !errors.IsRetryable(lastErr) {
			return lastErr
		}
		if attempt == p.MaxAttempts {
			break
		}

		var delay time.Duration
		if p.Backoff != nil {
			delay = p.Backoff(attempt)
		}
		if delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return fmt.Errorf("giving up after %d attempts: %w", p.MaxAttempts, lastErr)
}
