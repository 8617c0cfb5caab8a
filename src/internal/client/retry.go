// FILE: src/internal/client/retry.go
package client

import (
	"context"
	"errors"
	"time"

	"pgmoneta-mcp/src/internal/config"
	"pgmoneta-mcp/src/internal/core"

	"github.com/cenkalti/backoff/v4"
	"github.com/lixenwraith/log"
)

// RetryPolicy re-runs an operation after transport failures only.
// Authentication, credential and application errors are returned at once.
type RetryPolicy struct {
	MaxAttempts     int64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// NewRetryPolicy converts the [retry] configuration section
func NewRetryPolicy(cfg config.RetryConfig) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     cfg.MaxAttempts,
		InitialInterval: time.Duration(cfg.InitialIntervalMs) * time.Millisecond,
		MaxInterval:     time.Duration(cfg.MaxIntervalMs) * time.Millisecond,
	}
}

// Do runs op until it succeeds, fails with a non-I/O error, the attempt
// budget is spent or ctx ends
func (p RetryPolicy) Do(ctx context.Context, logger *log.Logger, op func(context.Context) (string, error)) (string, error) {
	if p.MaxAttempts <= 1 {
		return op(ctx)
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = p.InitialInterval
	expo.MaxInterval = p.MaxInterval
	expo.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(expo, uint64(p.MaxAttempts-1)), ctx)

	attempt := 0
	return backoff.RetryNotifyWithData[string](
		func() (string, error) {
			attempt++
			result, err := op(ctx)
			if err != nil && !errors.Is(err, core.ErrIO) {
				return "", backoff.Permanent(err)
			}
			return result, err
		},
		policy,
		func(err error, wait time.Duration) {
			logger.Warn("msg", "Request failed, retrying",
				"component", "client",
				"attempt", attempt,
				"max_attempts", p.MaxAttempts,
				"wait", wait,
				"error", err)
		},
	)
}
