package http

import (
	"context"
	"math/rand"
	"time"

	"keyrental-backend/internal/domain"
	"keyrental-backend/internal/logger"
	"keyrental-backend/internal/metrics"
)

const (
	defaultMaxAttempts  = 3
	defaultBaseDelay    = 20 * time.Millisecond
	defaultJitterFactor = 0.3
)

// RetryPolicy bounds how often a checkout is re-run after a storage failure.
type RetryPolicy struct {
	MaxAttempts  int
	BaseDelay    time.Duration
	JitterFactor float64
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = defaultMaxAttempts
	}
	if p.BaseDelay < 0 {
		p.BaseDelay = defaultBaseDelay
	}
	if p.JitterFactor < 0 || p.JitterFactor > 1 {
		p.JitterFactor = defaultJitterFactor
	}
	return p
}

// retryWithBackoff runs fn until it succeeds, fails with an error that is not
// a retryable storage failure, or the policy runs out of attempts. Delays grow as baseDelay * 2^(attempt-1)
// plus jitter.
func retryWithBackoff(ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			metrics.CheckoutRetriesTotal.Inc()
			delay := policy.BaseDelay * time.Duration(1<<(attempt-1))
			jitter := rand.Float64() * float64(delay) * policy.JitterFactor //nolint:gosec
			select {
			case <-time.After(delay + time.Duration(jitter)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil || !domain.IsRetryable(lastErr) {
			return lastErr
		}
		logger.WarnContext(ctx, "Retrying after transient storage failure",
			"attempt", attempt+1, "maxAttempts", policy.MaxAttempts, "error", lastErr)
	}
	return lastErr
}
