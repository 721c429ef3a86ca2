package sync

import (
	"context"
	"log/slog"
	"time"

	"github.com/poyrazK/netbox-pdns-sync/internal/core/domain"
	"github.com/poyrazK/netbox-pdns-sync/internal/core/ports"
	"github.com/poyrazK/netbox-pdns-sync/internal/infrastructure/metrics"
)

// Orchestrator enumerates owned zones in the source, reconciles each, and
// prunes replica zones no longer owned. It acquires the
// concurrency gate once for the entire pass so individual zone webhook
// events cannot interleave with a full sync.
type Orchestrator struct {
	source         ports.SourceClient
	replica        ports.ReplicaClient
	reconciler     ports.Reconciler
	gate           *Gate
	nameserverID   string
	nameserverFQDN string
	logger         *slog.Logger
}

// NewOrchestrator builds an Orchestrator. nameserverID is the source-side
// identifier used to filter owned zones; nameserverFQDN is the replica-side
// name used for the orphan-pruning ownership test.
func NewOrchestrator(source ports.SourceClient, replica ports.ReplicaClient, reconciler ports.Reconciler, gate *Gate, nameserverID, nameserverFQDN string, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		source:         source,
		replica:        replica,
		reconciler:     reconciler,
		gate:           gate,
		nameserverID:   nameserverID,
		nameserverFQDN: nameserverFQDN,
		logger:         logger,
	}
}

// FullSync enumerates every owned zone, reconciles each, and prunes orphans,
// labeling the gate acquisition with the given trigger source (schedule,
// webhook or manual) for logging and metrics.
func (o *Orchestrator) FullSync(ctx context.Context, source domain.SyncSource) (domain.FullSyncOutcome, error) {
	intent := domain.NewSyncIntent(source, domain.FullSyncScope())
	release, err := o.gate.Acquire(ctx, intent)
	if err != nil {
		return domain.FullSyncOutcome{}, err
	}
	defer release()

	return o.fullSyncLocked(ctx, source)
}

func (o *Orchestrator) fullSyncLocked(ctx context.Context, source domain.SyncSource) (domain.FullSyncOutcome, error) {
	start := time.Now()
	result := domain.FullSyncOutcome{StartedAt: start}

	owned, err := o.source.ListOwnedZones(ctx)
	if err != nil {
		o.logger.Error("full sync aborted: cannot list owned zones", "error", err)
		result.Duration = time.Since(start)
		return result, err
	}

	ownedNames := make(map[string]struct{}, len(owned))
	for _, z := range owned {
		ownedNames[domain.NormalizeZoneName(z.Name)] = struct{}{}
	}

	result.ZonesTotal = len(owned)
	for _, z := range owned {
		outcome, err := o.reconciler.ReconcileZone(ctx, z.Name)
		result.PerZone = append(result.PerZone, outcome)
		metrics.ReconcileDurationSeconds.WithLabelValues(string(source)).Observe(outcome.Duration.Seconds())
		metrics.ReconcileOutcomesTotal.WithLabelValues(string(source), reconcileOutcomeLabel(outcome)).Inc()
		if err != nil {
			result.ZonesFailed++
			continue
		}
		result.ZonesOK++
	}

	replicaAll, err := o.replica.ListZones(ctx)
	if err != nil {
		o.logger.Warn("skipping orphan prune: cannot list replica zones", "error", err)
		result.Duration = time.Since(start)
		return result, nil
	}

	for _, rz := range replicaAll {
		name := domain.NormalizeZoneName(rz.Name)
		if _, isOwned := ownedNames[name]; isOwned {
			continue
		}
		// ListZones returns a cut-down zone summary that the PowerDNS API
		// never populates with nameservers; the ownership test needs the
		// full zone detail.
		detail, err := o.replica.GetZone(ctx, name)
		if err != nil {
			o.logger.Error("failed to prune orphaned zone: cannot fetch detail", "zone", name, "error", err)
			continue
		}
		if !detail.IsManagedByFQDN(o.nameserverFQDN) {
			continue
		}
		if err := o.replica.DeleteZone(ctx, name); err != nil {
			o.logger.Error("failed to prune orphaned zone", "zone", name, "error", err)
			continue
		}
		result.ZonesPruned++
		metrics.FullSyncZonesPruned.WithLabelValues(string(source)).Inc()
		o.logger.Info("pruned orphaned replica zone", "zone", name)
	}

	result.Duration = time.Since(start)
	o.logger.Info("full sync complete",
		"zones_total", result.ZonesTotal, "zones_ok", result.ZonesOK,
		"zones_failed", result.ZonesFailed, "zones_pruned", result.ZonesPruned,
		"duration_ms", result.Duration.Milliseconds())
	return result, nil
}

// reconcileOutcomeLabel classifies a ReconcileOutcome into a single metric
// label, preferring "failed" over the counted-zero-change cases.
func reconcileOutcomeLabel(o domain.ReconcileOutcome) string {
	switch {
	case o.Err != nil:
		return "failed"
	case o.Created > 0:
		return "created"
	case o.Deleted > 0:
		return "deleted"
	case o.Updated > 0:
		return "updated"
	default:
		return "unchanged"
	}
}
