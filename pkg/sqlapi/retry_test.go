package sqlapi

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrySucceedsFirstTry(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, nil, func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryBacksOffOnRateLimit(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, nil, func() error {
		calls++
		if calls < 3 {
			return &RateLimitError{RetryAfter: time.Millisecond}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryExhaustionReturnsRateLimit(t *testing.T) {
	calls := 0
	rle := &RateLimitError{RetryAfter: time.Millisecond, Message: "slow down"}
	err := Retry(context.Background(), 2, nil, func() error {
		calls++
		return rle
	})
	require.Error(t, err)

	var got *RateLimitError
	require.True(t, errors.As(err, &got))
	assert.Equal(t, "slow down", got.Message)
	assert.Equal(t, 3, calls)
}

func TestRetryDoesNotRetryOtherErrors(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, nil, func() error {
		calls++
		return &ServiceError{Message: "boom"}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryZeroTimesSurfacesImmediately(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 0, nil, func() error {
		calls++
		return &RateLimitError{RetryAfter: time.Millisecond}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, 3, nil, func() error {
		return &RateLimitError{RetryAfter: time.Hour}
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestErrorUnwrapping(t *testing.T) {
	wrapped := errors.Join(errors.New("outer"), &RateLimitError{RetryAfter: time.Second})
	rle, ok := AsRateLimit(wrapped)
	require.True(t, ok)
	assert.Equal(t, time.Second, rle.RetryAfter)

	_, ok = AsRateLimit(errors.New("plain"))
	assert.False(t, ok)

	se, ok := AsServiceError(&ServiceError{Message: "m"})
	require.True(t, ok)
	assert.Equal(t, "m", se.Message)
}
