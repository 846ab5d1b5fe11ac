package openrouter

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// transientError marks failures worth retrying: transport errors, 429s, 5xx.
type transientError struct {
	err error
}

func (e transientError) Error() string { return e.err.Error() }
func (e transientError) Unwrap() error { return e.err }

const (
	initialBackoff = 500 * time.Millisecond
	maxBackoff     = 10 * time.Second
	backoffFactor  = 2.0
	jitterFraction = 0.25
)

// doRetry executes fn up to maxAttempts times, retrying only transient
// errors with exponential backoff and jitter. Context cancellation stops
// retries immediately.
func doRetry(ctx context.Context, maxAttempts int, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return lastErr
		}

		var te transientError
		if !errors.As(lastErr, &te) {
			return lastErr
		}
		if attempt >= maxAttempts-1 {
			break
		}

		delay := computeBackoff(attempt)
		zap.L().Debug("openrouter: retrying after transient error",
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(lastErr),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return lastErr
		case <-timer.C:
		}
	}
	return lastErr
}

func computeBackoff(attempt int) time.Duration {
	delay := float64(initialBackoff) * math.Pow(backoffFactor, float64(attempt))
	if delay > float64(maxBackoff) {
		delay = float64(maxBackoff)
	}
	jitter := delay * jitterFraction * (2*rand.Float64() - 1)
	return time.Duration(delay + jitter)
}
