// Package sync contains the concurrency gate, zone reconciler and
// full-sync orchestrator: the components that serialize and drive
// mutations against the replica DNS server.
package sync

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/poyrazK/netbox-pdns-sync/internal/core/domain"
	"github.com/poyrazK/netbox-pdns-sync/internal/infrastructure/metrics"
)

const defaultGateTimeout = 30 * time.Second

// Gate is the single global serialization primitive guarding every
// mutating call path against the replica. It needs a blocking acquire with
// a bound, so it is built on a buffered channel of size 1 used as a
// semaphore: this keeps Acquire/ctx-cancellation interop as simple as a
// select, without reaching for a generic library.
type Gate struct {
	sem     chan struct{}
	timeout time.Duration
	logger  *slog.Logger

	mu          sync.Mutex
	contentions int64
}

// NewGate constructs a Gate with the default 30s acquisition timeout.
func NewGate(logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		sem:     make(chan struct{}, 1),
		timeout: defaultGateTimeout,
		logger:  logger,
	}
}

// Acquire blocks until the gate is free, ctx is done, or the gate's
// internal timeout elapses, whichever comes first. The returned release
// func must be called exactly once, typically via defer immediately after
// a successful Acquire.
func (g *Gate) Acquire(ctx context.Context, intent domain.SyncIntent) (func(), error) {
	waitStart := time.Now()

	timeoutCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	select {
	case g.sem <- struct{}{}:
		wait := time.Since(waitStart)
		metrics.GateWaitSeconds.WithLabelValues(string(intent.Source)).Observe(wait.Seconds())
		if wait > time.Second {
			g.logger.Warn("gate acquisition contended",
				"wait_ms", wait.Milliseconds(), "source", intent.Source, "scope", intent.Scope.String(), "correlation_id", intent.CorrelationID)
			g.mu.Lock()
			g.contentions++
			g.mu.Unlock()
		} else {
			g.logger.Debug("gate acquired",
				"wait_ms", wait.Milliseconds(), "source", intent.Source, "scope", intent.Scope.String(), "correlation_id", intent.CorrelationID)
		}

		holdStart := time.Now()
		released := false
		release := func() {
			if released {
				return
			}
			released = true
			<-g.sem
			hold := time.Since(holdStart)
			metrics.GateHoldSeconds.WithLabelValues(string(intent.Source)).Observe(hold.Seconds())
			g.logger.Debug("gate released",
				"hold_ms", hold.Milliseconds(), "source", intent.Source, "scope", intent.Scope.String(), "correlation_id", intent.CorrelationID)
		}
		return release, nil

	case <-timeoutCtx.Done():
		metrics.GateTimeouts.WithLabelValues(string(intent.Source)).Inc()
		g.logger.Error("gate acquisition timed out",
			"wait_ms", time.Since(waitStart).Milliseconds(), "source", intent.Source, "scope", intent.Scope.String(), "correlation_id", intent.CorrelationID)
		return func() {}, domain.ErrGateTimeout
	}
}

// Contentions returns the number of acquisitions that waited more than 1s.
// No metric reads it; GateWaitSeconds is observed directly in Acquire.
func (g *Gate) Contentions() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.contentions
}
