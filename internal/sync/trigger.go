package sync

import (
	"context"
	"log/slog"

	"github.com/poyrazK/netbox-pdns-sync/internal/core/domain"
	"github.com/poyrazK/netbox-pdns-sync/internal/core/ports"
	"github.com/poyrazK/netbox-pdns-sync/internal/infrastructure/metrics"
)

// ReconcileUnderGate acquires the Concurrency Gate and runs a single-zone
// reconcile, recording the same outcome/duration metrics the orchestrator
// records for full-sync zones. It is the shared entry point for both the
// webhook receiver and the message-bus subscriber.
func ReconcileUnderGate(ctx context.Context, gate ports.Gate, reconciler ports.Reconciler, zoneName string, source domain.SyncSource, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	intent := domain.NewSyncIntent(source, domain.ZoneScope(zoneName))
	release, err := gate.Acquire(ctx, intent)
	if err != nil {
		logger.Error("zone reconcile dropped: gate acquisition failed", "zone", zoneName, "source", source, "correlation_id", intent.CorrelationID, "error", err)
		return
	}
	defer release()

	outcome, err := reconciler.ReconcileZone(ctx, zoneName)
	metrics.ReconcileDurationSeconds.WithLabelValues(string(source)).Observe(outcome.Duration.Seconds())
	metrics.ReconcileOutcomesTotal.WithLabelValues(string(source), reconcileOutcomeLabel(outcome)).Inc()
	if err != nil {
		logger.Error("triggered reconcile failed", "zone", zoneName, "source", source, "correlation_id", intent.CorrelationID, "error", err)
	}
}
