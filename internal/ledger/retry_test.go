package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scriplabs/scrip/internal/ledger"
	scriperr "github.com/scriplabs/scrip/pkg/errors"
)

func TestRetry_SuccessFirstAttempt(t *testing.T) {
	attempts := 0
	result, err := ledger.Retry(context.Background(), func() (string, error) {
		attempts++
		return "success", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "success", result)
	assert.Equal(t, 1, attempts)
}

func TestRetry_SuccessAfterRetry(t *testing.T) {
	cfg := ledger.RetryConfig{
		MaxAttempts: 4,
		BaseDelay:   time.Millisecond,
		MaxDelay:    4 * time.Millisecond,
	}

	attempts := 0
	result, err := ledger.RetryWithConfig(context.Background(), cfg, func() (string, error) {
		attempts++
		if attempts < 3 {
			return "", scriperr.ErrRetryable
		}
		return "success", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "success", result)
	assert.Equal(t, 3, attempts)
}

var errNonRetryable = errors.New("non-retryable error")

func TestRetry_NonRetryableError(t *testing.T) {
	attempts := 0

	_, err := ledger.Retry(context.Background(), func() (string, error) {
		attempts++
		return "", errNonRetryable
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts) // Should not retry
}

func TestRetry_MaxAttempts(t *testing.T) {
	cfg := ledger.RetryConfig{
		MaxAttempts: 4,
		BaseDelay:   time.Millisecond,
		MaxDelay:    4 * time.Millisecond,
	}

	attempts := 0
	_, err := ledger.RetryWithConfig(context.Background(), cfg, func() (string, error) {
		attempts++
		return "", scriperr.ErrRetryable
	})

	require.Error(t, err)
	assert.Equal(t, 4, attempts) // 1 initial + 3 retries
}

func TestRetry_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := ledger.Retry(ctx, func() (string, error) {
		attempts++
		return "", scriperr.ErrRetryable
	})

	require.Error(t, err)
	assert.Less(t, attempts, 4) // Canceled before all attempts ran
}

func TestRetry_CustomConfig(t *testing.T) {
	cfg := ledger.RetryConfig{
		MaxAttempts: 2,
		BaseDelay:   time.Millisecond,
		MaxDelay:    10 * time.Millisecond,
	}

	attempts := 0
	_, err := ledger.RetryWithConfig(context.Background(), cfg, func() (string, error) {
		attempts++
		return "", scriperr.ErrRetryable
	})

	require.Error(t, err)
	assert.Equal(t, 2, attempts)
}

var errSomeError = errors.New("some error")

func TestIsRetryable(t *testing.T) {
	assert.True(t, ledger.IsRetryable(scriperr.ErrRetryable))
	assert.True(t, ledger.IsRetryable(scriperr.ErrTimeout))
	assert.True(t, ledger.IsRetryable(scriperr.ErrRateLimited))
	assert.True(t, ledger.IsRetryable(context.DeadlineExceeded))
	assert.True(t, ledger.IsRetryable(ledger.WrapRetryable(errSomeError)))

	assert.False(t, ledger.IsRetryable(errSomeError))
	assert.False(t, ledger.IsRetryable(nil))
}

func TestWrapRetryable_PreservesCause(t *testing.T) {
	wrapped := ledger.WrapRetryable(errSomeError)
	require.Error(t, wrapped)
	assert.ErrorIs(t, wrapped, errSomeError)
	assert.ErrorIs(t, wrapped, scriperr.ErrRetryable)

	assert.NoError(t, ledger.WrapRetryable(nil))
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		header   string
		expected time.Duration
	}{
		{"5", 5 * time.Second},
		{"120", 120 * time.Second},
		{"0", 0},
		{"-3", 0},
		{"", 0},
		{"invalid", 0},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.expected, ledger.ParseRetryAfter(tt.header))
		})
	}
}
