package circulation

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/haslett/library-circulation-go/library"
)

const (
	defaultMaxAttempts  = 6
	defaultBaseDelay    = 10 * time.Millisecond
	defaultJitterFactor = 0.3
)

var (
	// ErrInvalidMaxAttempts is returned when max attempts are not positive.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

	// ErrNegativeBaseDelay is returned when the base delay is negative.
	ErrNegativeBaseDelay = errors.New("base delay must not be negative")

	// ErrInvalidJitterFactor is returned when the jitter factor is not between 0.0 and 1.0.
	ErrInvalidJitterFactor = errors.New("jitter factor must be between 0.0 and 1.0")
)

// RetryableFunc represents a function that can be retried.
type RetryableFunc func(ctx context.Context) error

// retryConfig holds configuration for exponential backoff retry logic.
type retryConfig struct {
	maxAttempts  int
	baseDelay    time.Duration
	jitterFactor float64
}

// RetryOption configures the retry behavior.
type RetryOption func(*retryConfig) error

// WithMaxAttempts sets the maximum number of attempts.
func WithMaxAttempts(maxAttempts int) RetryOption {
	return func(c *retryConfig) error {
		if maxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}

		c.maxAttempts = maxAttempts

		return nil
	}
}

// WithBaseDelay sets the first backoff delay; subsequent delays double.
func WithBaseDelay(baseDelay time.Duration) RetryOption {
	return func(c *retryConfig) error {
		if baseDelay < 0 {
			return ErrNegativeBaseDelay
		}

		c.baseDelay = baseDelay

		return nil
	}
}

// WithJitterFactor sets the random jitter fraction added to each delay.
func WithJitterFactor(jitterFactor float64) RetryOption {
	return func(c *retryConfig) error {
		if jitterFactor < 0.0 || jitterFactor > 1.0 {
			return ErrInvalidJitterFactor
		}

		c.jitterFactor = jitterFactor

		return nil
	}
}

// RetryOnConflict executes fn with exponential backoff retry logic,
// retrying only on library.ErrConcurrencyConflict - all other errors fail
// fast.
//
// Retry schedule (default): 0 ms, 10 ms, 20 ms, 40 ms, 80 ms, 160 ms (with
// 30% jitter). Conflicts are expected only between transactions touching the
// same book row under load.
func RetryOnConflict(ctx context.Context, fn RetryableFunc, options ...RetryOption) error {
	config := &retryConfig{
		maxAttempts:  defaultMaxAttempts,
		baseDelay:    defaultBaseDelay,
		jitterFactor: defaultJitterFactor,
	}

	for _, option := range options {
		if err := option(config); err != nil {
			return err
		}
	}

	var lastErr error

	for attempt := 0; attempt < config.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := config.baseDelay * time.Duration(1<<(attempt-1))

			// jitter prevents thundering herd between retrying callers
			jitter := rand.Float64() * float64(delay) * config.jitterFactor //nolint:gosec // math/rand is sufficient for jitter
			backoffDelay := delay + time.Duration(jitter)

			select {
			case <-time.After(backoffDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if !errors.Is(lastErr, library.ErrConcurrencyConflict) {
			return lastErr
		}
	}

	return lastErr
}
