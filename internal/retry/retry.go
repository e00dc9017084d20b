// Package retry provides a small, explicit retry policy for fallible
// operations.
package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Policy describes how often and how quickly an operation is retried. The
// delay between attempts is fixed; there is no backoff growth or jitter.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
}

// Do runs fn up to policy.MaxAttempts times, waiting policy.Delay between
// attempts. It returns the first successful result, or the last error once
// all attempts are exhausted. Context cancellation interrupts the wait.
func Do[T any](ctx context.Context, policy Policy, logger *slog.Logger, operation string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if policy.MaxAttempts <= 0 {
		return zero, fmt.Errorf("retry policy for %s has no attempts", operation)
	}

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt < policy.MaxAttempts {
			logger.Warn("retrying after failure",
				"operation", operation,
				"attempt", attempt,
				"max_attempts", policy.MaxAttempts,
				"delay", policy.Delay,
				"error", err,
			)
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(policy.Delay):
			}
		}
	}

	return zero, fmt.Errorf("%s failed after %d attempts: %w", operation, policy.MaxAttempts, lastErr)
}
