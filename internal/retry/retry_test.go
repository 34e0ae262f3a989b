package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient")

func TestDo(t *testing.T) {
	t.Run("SucceedsAfterRetries", func(t *testing.T) {
		calls := 0
		attempts, err := Do(context.Background(), Config{
			MaxAttempts: 3,
			Backoff:     LinearBackoff(time.Millisecond),
		}, func() error {
			calls++
			if calls < 3 {
				return errTransient
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("ExhaustsAttempts", func(t *testing.T) {
		attempts, err := Do(context.Background(), Config{
			MaxAttempts: 2,
			Backoff:     LinearBackoff(time.Millisecond),
		}, func() error {
			return errTransient
		})
		require.ErrorIs(t, err, errTransient)
		assert.Equal(t, 2, attempts)
	})

	t.Run("StopsOnPermanentError", func(t *testing.T) {
		permanent := errors.New("permanent")
		attempts, err := Do(context.Background(), Config{
			MaxAttempts: 5,
			Backoff:     LinearBackoff(time.Millisecond),
			ShouldRetry: func(err error) bool { return errors.Is(err, errTransient) },
		}, func() error {
			return permanent
		})
		require.ErrorIs(t, err, permanent)
		assert.Equal(t, 1, attempts)
	})

	t.Run("CancelledContext", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		attempts, err := Do(ctx, Config{MaxAttempts: 3}, func() error { return nil })
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 0, attempts)
	})

	t.Run("OnRetryCalledBetweenAttempts", func(t *testing.T) {
		var seen []int
		_, _ = Do(context.Background(), Config{
			MaxAttempts: 3,
			Backoff:     LinearBackoff(time.Millisecond),
			OnRetry:     func(attempt int, _ error) { seen = append(seen, attempt) },
		}, func() error { return errTransient })
		assert.Equal(t, []int{1, 2}, seen)
	})
}

func TestBackoff(t *testing.T) {
	assert.Equal(t, 2*time.Second, LinearBackoff(time.Second)(2))
	assert.Equal(t, 4*time.Second, ExponentialBackoff(time.Second)(3))
}
