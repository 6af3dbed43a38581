package sink

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// Retry settings for transient sink failures (spec.md §7: "retried with
// bounded exponential backoff at the sink-client layer"). Grounded on the
// teacher's own internal/graph retry loop rather than the unused
// sethvargo/go-retry indirect dependency (see DESIGN.md).
const (
	maxAttempts = 5
	baseDelay   = 200 * time.Millisecond
	maxDelay    = 5 * time.Second
)

// WithRetry calls fn, retrying while it returns a transient *Error, with
// jittered exponential backoff. After maxAttempts, the last error is
// re-wrapped as permanent per spec.md §7 ("After retries exhausted, they
// become sink_permanent at the publisher level").
func WithRetry(ctx context.Context, op string, fn func(context.Context) error) error {
	var lastErr error

	delay := baseDelay

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if !IsTransient(lastErr) {
			return lastErr
		}

		if attempt == maxAttempts {
			break
		}

		jittered := delay/2 + time.Duration(rand.Int64N(int64(delay)))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(jittered):
		}

		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}

	var se *Error
	if errors.As(lastErr, &se) {
		return Permanent(op, se.Err)
	}

	return Permanent(op, lastErr)
}
