package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/timmy/thumblify/internal/logger"
)

// RetryPolicy bounds repeated upload attempts against a transiently failing
// object store.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// Backoff returns the delay before retrying after the given attempt
	// (1-based). Nil uses ExponentialBackoff.
	Backoff func(attempt int) time.Duration

	// AttemptTimeout bounds each individual upload attempt. Zero means the
	// caller's context deadline applies alone.
	AttemptTimeout time.Duration

	// sleep is injectable for tests; nil uses time.Sleep.
	sleep func(time.Duration)
}

// DefaultRetryPolicy mirrors the production upload behavior: three attempts
// with 2s/4s/8s backoff, each bounded to 60 seconds.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		Backoff:        ExponentialBackoff,
		AttemptTimeout: 60 * time.Second,
	}
}

// WithSleep returns a copy of the policy using fn instead of time.Sleep.
// Intended for tests.
func (p RetryPolicy) WithSleep(fn func(time.Duration)) RetryPolicy {
	p.sleep = fn
	return p
}

// ExponentialBackoff returns 2^attempt seconds (2s, 4s, 8s, ...).
func ExponentialBackoff(attempt int) time.Duration {
	return time.Duration(1<<attempt) * time.Second
}

// UploadWithRetry uploads data under key, retrying per the policy. Every
// attempt re-reads data from the start, so a partially consumed body from a
// failed attempt can never become visible. Returns the attempt count that was
// reached alongside any final error.
func UploadWithRetry(ctx context.Context, store ObjectStorage, key string, data []byte, contentType string, policy RetryPolicy) (int, error) {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}
	backoff := policy.Backoff
	if backoff == nil {
		backoff = ExponentialBackoff
	}
	sleep := policy.sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		attemptCtx := ctx
		var cancel context.CancelFunc
		if policy.AttemptTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, policy.AttemptTimeout)
		}
		err := store.Upload(attemptCtx, key, bytes.NewReader(data), int64(len(data)), contentType)
		if cancel != nil {
			cancel()
		}
		if err == nil {
			return attempt, nil
		}
		lastErr = err

		logger.With(logger.Fields{
			logger.FieldAttempt: attempt,
			logger.FieldSize:    len(data),
		}).Warn(ctx, "Upload attempt failed: key=%s, err=%v", key, err)

		if attempt < policy.MaxAttempts {
			if err := ctx.Err(); err != nil {
				return attempt, err
			}
			sleep(backoff(attempt))
		}
	}

	return policy.MaxAttempts, fmt.Errorf("upload failed after %d attempts: %w", policy.MaxAttempts, lastErr)
}
