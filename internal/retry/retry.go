package retry

import (
	"context"
	"fmt"
	"time"
)

const defaultDelay = 500 * time.Millisecond

// Backoff returns how long to wait after the given failed attempt (1-based).
type Backoff func(attempt int) time.Duration

type ShouldRetry func(error) bool

type Config struct {
	MaxAttempts int
	Backoff     Backoff
	ShouldRetry ShouldRetry
	// OnRetry is called before each wait with the failed attempt number.
	OnRetry func(attempt int, err error)
}

func (c *Config) normalize() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 1
	}

	if c.Backoff == nil {
		c.Backoff = LinearBackoff(defaultDelay)
	}

	if c.ShouldRetry == nil {
		c.ShouldRetry = alwaysRetry
	}
}

func alwaysRetry(error) bool {
	return true
}

// LinearBackoff waits delay, 2*delay, 3*delay, ...
func LinearBackoff(delay time.Duration) Backoff {
	return func(attempt int) time.Duration {
		return time.Duration(attempt) * delay
	}
}

// ExponentialBackoff waits delay, 2*delay, 4*delay, ...
func ExponentialBackoff(delay time.Duration) Backoff {
	return func(attempt int) time.Duration {
		return (1 << (attempt - 1)) * delay
	}
}

// Do runs fn until it succeeds, returns a non-retryable error, or the
// attempts are exhausted. It reports the number of attempts made.
func Do(ctx context.Context, c Config, fn func() error) (int, error) {
	attempts := 0
	_, err := DoWithResult(ctx, c, func() (struct{}, error) {
		attempts++
		return struct{}{}, fn()
	})
	return attempts, err
}

func DoWithResult[T any](ctx context.Context, c Config, fn func() (T, error)) (T, error) {
	var (
		zero, result T
		err          error
	)

	if err = ctx.Err(); err != nil {
		return zero, err
	}

	c.normalize()
	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for attempt := 1; attempt <= c.MaxAttempts; attempt++ {
		result, err = fn()
		if err == nil {
			return result, nil
		}
		if !c.ShouldRetry(err) || attempt == c.MaxAttempts {
			return zero, err
		}

		if c.OnRetry != nil {
			c.OnRetry(attempt, err)
		}

		timer.Reset(c.Backoff(attempt))
		select {
		case <-ctx.Done():
			return zero, fmt.Errorf("%w: %w", ctx.Err(), err)
		case <-timer.C:
		}
	}

	return zero, err
}
