// FILE: src/internal/client/retry_test.go
package client

import (
	"context"
	"fmt"
	"testing"
	"time"

	"pgmoneta-mcp/src/internal/config"
	"pgmoneta-mcp/src/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(attempts int64) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     attempts,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
	}
}

func TestNewRetryPolicy(t *testing.T) {
	p := NewRetryPolicy(config.RetryConfig{MaxAttempts: 4, InitialIntervalMs: 150, MaxIntervalMs: 3000})
	assert.EqualValues(t, 4, p.MaxAttempts)
	assert.Equal(t, 150*time.Millisecond, p.InitialInterval)
	assert.Equal(t, 3*time.Second, p.MaxInterval)
}

func TestRetryPolicy_Do(t *testing.T) {
	ioErr := fmt.Errorf("%w: connection refused", core.ErrIO)
	authErr := fmt.Errorf("%w: server signature mismatch", core.ErrAuth)

	t.Run("RetriesIOErrors", func(t *testing.T) {
		calls := 0
		_, err := fastPolicy(3).Do(context.Background(), newTestLogger(), func(context.Context) (string, error) {
			calls++
			return "", ioErr
		})
		assert.ErrorIs(t, err, core.ErrIO)
		assert.Equal(t, 3, calls)
	})

	t.Run("RecoversAfterIOError", func(t *testing.T) {
		calls := 0
		result, err := fastPolicy(3).Do(context.Background(), newTestLogger(), func(context.Context) (string, error) {
			calls++
			if calls == 1 {
				return "", ioErr
			}
			return "ok", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", result)
		assert.Equal(t, 2, calls)
	})

	t.Run("AuthErrorIsFinal", func(t *testing.T) {
		calls := 0
		_, err := fastPolicy(5).Do(context.Background(), newTestLogger(), func(context.Context) (string, error) {
			calls++
			return "", authErr
		})
		assert.ErrorIs(t, err, core.ErrAuth)
		assert.Equal(t, 1, calls)
	})

	t.Run("SingleAttempt", func(t *testing.T) {
		calls := 0
		_, err := fastPolicy(1).Do(context.Background(), newTestLogger(), func(context.Context) (string, error) {
			calls++
			return "", ioErr
		})
		assert.ErrorIs(t, err, core.ErrIO)
		assert.Equal(t, 1, calls)
	})
}
