package shell

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kapitoshk4/library-service-api/librarystore"
)

func Test_RetryWithExponentialBackoff_Success_NoRetries(t *testing.T) {
	ctx := context.Background()
	callCount := 0

	fn := func(_ context.Context) error {
		callCount++
		return nil
	}

	meta, err := RetryWithExponentialBackoff(ctx, fn)

	assert.NoError(t, err)
	assert.Equal(t, 1, callCount)
	assert.Equal(t, 1, meta.Attempts)
	assert.Equal(t, time.Duration(0), meta.TotalDelay)
	assert.Equal(t, "none", meta.LastErrorType)
	assert.False(t, meta.RetriesExhausted)
}

func Test_RetryWithExponentialBackoff_RetryOnConcurrencyConflict(t *testing.T) {
	ctx := context.Background()
	callCount := 0

	fn := func(_ context.Context) error {
		callCount++
		if callCount < 3 {
			return errors.Join(librarystore.ErrConcurrencyConflict, errors.New("serialization failure"))
		}
		return nil
	}

	meta, err := RetryWithExponentialBackoff(ctx, fn, WithBaseDelay(time.Millisecond))

	assert.NoError(t, err)
	assert.Equal(t, 3, callCount)
	assert.Equal(t, 3, meta.Attempts)
	assert.Greater(t, meta.TotalDelay, time.Duration(0))
	assert.Equal(t, "none", meta.LastErrorType)
}

func Test_RetryWithExponentialBackoff_NonRetryableError_StopsImmediately(t *testing.T) {
	testCases := []struct {
		name              string
		err               error
		expectedErrorType string
	}{
		{name: "business error", err: librarystore.ErrGuardFailed, expectedErrorType: "other"},
		{name: "timeout", err: context.DeadlineExceeded, expectedErrorType: "context_deadline_exceeded"},
		{name: "canceled", err: context.Canceled, expectedErrorType: "context_canceled"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			callCount := 0
			fn := func(_ context.Context) error {
				callCount++
				return tc.err
			}

			meta, err := RetryWithExponentialBackoff(context.Background(), fn)

			assert.ErrorIs(t, err, tc.err)
			assert.Equal(t, 1, callCount)
			assert.Equal(t, tc.expectedErrorType, meta.LastErrorType)
			assert.False(t, meta.RetriesExhausted)
		})
	}
}

func Test_RetryWithExponentialBackoff_RetriesExhausted(t *testing.T) {
	callCount := 0
	fn := func(_ context.Context) error {
		callCount++
		return librarystore.ErrConcurrencyConflict
	}

	meta, err := RetryWithExponentialBackoff(context.Background(), fn,
		WithMaxAttempts(3),
		WithBaseDelay(time.Millisecond),
		WithJitterFactor(0),
	)

	assert.ErrorIs(t, err, librarystore.ErrConcurrencyConflict)
	assert.Equal(t, 3, callCount)
	assert.Equal(t, 3, meta.Attempts)
	assert.Equal(t, 3*time.Millisecond, meta.TotalDelay)
	assert.Equal(t, "concurrency_conflict", meta.LastErrorType)
	assert.True(t, meta.RetriesExhausted)
}

func Test_RetryWithExponentialBackoff_ContextCanceledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	fn := func(_ context.Context) error {
		cancel()
		return librarystore.ErrConcurrencyConflict
	}

	meta, err := RetryWithExponentialBackoff(ctx, fn, WithBaseDelay(time.Second))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, meta.Attempts)
	assert.Equal(t, "context_canceled", meta.LastErrorType)
}

func Test_RetryWithExponentialBackoff_InvalidOptions(t *testing.T) {
	ctx := context.Background()
	fn := func(_ context.Context) error { return nil }

	_, err := RetryWithExponentialBackoff(ctx, fn, WithMaxAttempts(0))
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)

	_, err = RetryWithExponentialBackoff(ctx, fn, WithBaseDelay(-1*time.Second))
	assert.ErrorIs(t, err, ErrNegativeBaseDelay)

	_, err = RetryWithExponentialBackoff(ctx, fn, WithJitterFactor(1.5))
	assert.ErrorIs(t, err, ErrInvalidJitterFactor)
}

func Test_CombineRetryMetrics_KeepsWorstAttemptsAndSumsDelays(t *testing.T) {
	total := CombineRetryMetrics(RetryMetrics{}, RetryMetrics{Attempts: 1, LastErrorType: "none"})
	total = CombineRetryMetrics(total, RetryMetrics{
		Attempts:      3,
		TotalDelay:    30 * time.Millisecond,
		LastErrorType: "concurrency_conflict",
	})
	total = CombineRetryMetrics(total, RetryMetrics{Attempts: 1, TotalDelay: 0, LastErrorType: "none"})

	assert.Equal(t, 3, total.Attempts)
	assert.Equal(t, 30*time.Millisecond, total.TotalDelay)
	assert.Equal(t, "concurrency_conflict", total.LastErrorType)
	assert.False(t, total.RetriesExhausted)
}
