package replicaclient

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/poyrazK/netbox-pdns-sync/internal/infrastructure/metrics"
)

// retryPolicy is the single `retry(op, policy)` helper used in place of
// per-call decorator replication: every replica client call configures one
// of these and hands its operation to Do.
type retryPolicy struct {
	maxAttempts   int
	baseDelay     time.Duration
	maxDelay      time.Duration
	backoffFactor float64
	logger        *slog.Logger
	opName        string
}

// shouldRetry classifies an error returned by one attempt: true means try
// again (transport failure or 5xx), false means stop (success, or a
// non-retryable 4xx/409 already resolved by the caller).
type shouldRetryFunc func(err error) bool

// Do runs fn up to policy.maxAttempts times, sleeping between attempts
// according to jittered exponential backoff:
// base_delay * backoff_factor^(n-1) * uniform(0.5, 1.0), capped at max_delay.
func (p retryPolicy) Do(ctx context.Context, shouldRetry shouldRetryFunc, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !shouldRetry(lastErr) || attempt == p.maxAttempts {
			break
		}

		metrics.ReplicaRetriesTotal.WithLabelValues(p.opName).Inc()
		delay := p.delayFor(attempt + 1)
		p.logger.Warn("replica call failed, retrying",
			"op", p.opName, "attempt", attempt, "delay_ms", delay.Milliseconds(), "error", lastErr)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	p.logger.Error("replica call failed, giving up", "op", p.opName, "attempts", p.maxAttempts, "error", lastErr)
	return lastErr
}

// delayFor computes the delay before attempt n (n>=2).
func (p retryPolicy) delayFor(n int) time.Duration {
	backoff := float64(p.baseDelay) * pow(p.backoffFactor, float64(n-1))
	jittered := backoff * (0.5 + rand.Float64()*0.5)
	d := time.Duration(jittered)
	if d > p.maxDelay {
		return p.maxDelay
	}
	return d
}

func pow(base, exp float64) float64 {
	result := 1.0
	for i := 0; i < int(exp); i++ {
		result *= base
	}
	return result
}
