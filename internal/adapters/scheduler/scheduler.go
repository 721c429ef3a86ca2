// Package scheduler fires periodic full-sync triggers on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/poyrazK/netbox-pdns-sync/internal/core/domain"
	"github.com/poyrazK/netbox-pdns-sync/internal/core/ports"
)

// acquireTimeout matches the Concurrency Gate's 30s acquisition timeout; a
// tick's context allows that wait plus five minutes for the sync itself.
// The gate's own timeout is what ends a wait for a busy gate.
const acquireTimeout = 30 * time.Second

// Scheduler runs orchestrator.FullSync(source="schedule") on a single cron
// job. A tick that finds a previous run still holding the gate waits up to
// the gate's acquisition timeout, then is skipped with a WARNING rather than
// queued or run concurrently.
type Scheduler struct {
	crontab      string
	orchestrator ports.Orchestrator
	logger       *slog.Logger

	cron    *cron.Cron
	running atomic.Bool
}

// New validates crontab (a standard 5-field cron expression) and returns
// a Scheduler, or an error if the expression is invalid. Validation
// happens here so startup can fail fast.
func New(crontab string, orchestrator ports.Orchestrator, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := cron.ParseStandard(crontab); err != nil {
		return nil, fmt.Errorf("invalid sync crontab %q: %w", crontab, err)
	}
	return &Scheduler{
		crontab:      crontab,
		orchestrator: orchestrator,
		logger:       logger,
		cron:         cron.New(),
	}, nil
}

// Start schedules the single named full-sync job and begins running it.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.crontab, s.runTick)
	if err != nil {
		return fmt.Errorf("schedule full sync job: %w", err)
	}
	s.cron.Start()
	s.running.Store(true)
	s.logger.Info("scheduler started", "crontab", s.crontab)
	return nil
}

// Stop drains in-flight cron invocations (none start after this call
// returns) and marks the scheduler stopped.
func (s *Scheduler) Stop(ctx context.Context) {
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	s.running.Store(false)
	s.logger.Info("scheduler stopped")
}

// Running reports whether the scheduler has been started and not yet
// stopped, for the /status endpoint's scheduler.running field.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// JobsCount reports the number of scheduled jobs, for /status's
// scheduler.jobs_count field: 1 once Start has registered the single
// full-sync job, 0 before.
func (s *Scheduler) JobsCount() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) runTick() {
	ctx, cancel := context.WithTimeout(context.Background(), acquireTimeout+5*time.Minute)
	defer cancel()

	start := time.Now()
	outcome, err := s.orchestrator.FullSync(ctx, domain.SourceSchedule)
	if err != nil {
		if errors.Is(err, domain.ErrGateTimeout) {
			s.logger.Warn("scheduled full sync skipped: gate busy", "elapsed", time.Since(start))
			return
		}
		s.logger.Error("scheduled full sync failed", "error", err)
		return
	}
	s.logger.Info("scheduled full sync completed",
		"zones_total", outcome.ZonesTotal, "zones_ok", outcome.ZonesOK,
		"zones_failed", outcome.ZonesFailed, "zones_pruned", outcome.ZonesPruned,
		"duration", outcome.Duration)
}
