// Package errors provides error types, handling utilities, and retry logic for commitwise.
package errors

import (
	"context"
	"math/rand"
	"time"
)

// RetryConfig contains configuration for retry logic.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	// Multiplier of 1 (or 0) gives a fixed delay between attempts.
	Multiplier float64
	Jitter     bool
	// ShouldRetry decides whether a failed attempt may be retried.
	// A nil ShouldRetry retries every error.
	ShouldRetry func(err error) bool
}

// FixedRetryConfig returns a config that waits the same delay between attempts.
func FixedRetryConfig(maxAttempts int, delay time.Duration) RetryConfig {
	return RetryConfig{
		MaxAttempts:  maxAttempts,
		InitialDelay: delay,
		MaxDelay:     delay,
		Multiplier:   1,
	}
}

// RetryFunc is a function that can be retried.
type RetryFunc func(ctx context.Context) error

// RetryCallback is invoked before each wait with the attempt just failed.
type RetryCallback func(attempt int, err error, delay time.Duration)

// Retry executes fn until it succeeds, a non-retryable error occurs, or
// MaxAttempts is reached. It returns the number of attempts made and the
// last error.
func Retry(ctx context.Context, config RetryConfig, fn RetryFunc, notify RetryCallback) (int, error) {
	maxAttempts := config.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return attempt, nil
		}

		if config.ShouldRetry != nil && !config.ShouldRetry(lastErr) {
			return attempt, lastErr
		}

		if attempt == maxAttempts {
			break
		}

		delay := calculateRetryDelay(config, attempt-1)
		if notify != nil {
			notify(attempt, lastErr, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempt, ctx.Err()
		case <-timer.C:
		}
	}

	return maxAttempts, lastErr
}

// calculateRetryDelay calculates the delay after the given zero-based attempt.
func calculateRetryDelay(config RetryConfig, attempt int) time.Duration {
	delay := float64(config.InitialDelay)
	if config.Multiplier > 1 {
		for i := 0; i < attempt; i++ {
			delay *= config.Multiplier
		}
	}

	if config.MaxDelay > 0 && delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}

	// ±25%
	if config.Jitter {
		delay += delay * 0.25 * (rand.Float64()*2 - 1)
	}

	return time.Duration(delay)
}
