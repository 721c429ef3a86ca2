package sync

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/poyrazK/netbox-pdns-sync/internal/core/domain"
	"github.com/poyrazK/netbox-pdns-sync/internal/core/ports"
	"github.com/poyrazK/netbox-pdns-sync/internal/diff"
)

// Reconciler synchronizes a single zone end-to-end. It assumes
// the caller already holds the concurrency gate; the reconciler itself
// never acquires it, so it can be invoked both from gate-wrapped webhook
// handlers and from the orchestrator's zone loop without nesting locks.
type Reconciler struct {
	source         ports.SourceClient
	replica        ports.ReplicaClient
	managed        domain.ManagedTypeSet
	nameserverFQDN string
	logger         *slog.Logger
}

// NewReconciler builds a Reconciler. nameserverFQDN is this engine's
// configured nameserver identity, used for the replica-delete ownership
// test in step 6 of ReconcileZone.
func NewReconciler(source ports.SourceClient, replica ports.ReplicaClient, managed domain.ManagedTypeSet, nameserverFQDN string, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		source:         source,
		replica:        replica,
		managed:        managed,
		nameserverFQDN: nameserverFQDN,
		logger:         logger,
	}
}

// ReconcileZone fetches the zone's desired and current record sets, computes
// the diff, and applies it to the replica, returning the outcome.
func (r *Reconciler) ReconcileZone(ctx context.Context, zoneName string) (domain.ReconcileOutcome, error) {
	start := time.Now()
	outcome := domain.ReconcileOutcome{ZoneName: zoneName, StartedAt: start}

	sourceRRSets, err := r.source.GetZoneRecords(ctx, zoneName)
	sourceMissing := errors.Is(err, domain.ErrSourceNotFound)
	if err != nil && !sourceMissing {
		outcome.Err = err
		outcome.Duration = time.Since(start)
		r.logger.Error("reconcile aborted: source unavailable", "zone", zoneName, "error", err)
		return outcome, err
	}

	replicaZone, err := r.replica.GetZone(ctx, zoneName)
	replicaMissing := errors.Is(err, domain.ErrReplicaNotFound)
	if err != nil && !replicaMissing {
		outcome.Err = err
		outcome.Duration = time.Since(start)
		r.logger.Error("reconcile aborted: replica unavailable", "zone", zoneName, "error", err)
		return outcome, err
	}

	if sourceMissing {
		if !replicaMissing && replicaZone.IsManagedByFQDN(r.nameserverFQDN) {
			if err := r.replica.DeleteZone(ctx, zoneName); err != nil {
				outcome.Err = err
				outcome.Duration = time.Since(start)
				r.logger.Error("replica delete failed", "zone", zoneName, "error", err)
				return outcome, err
			}
			outcome.Deleted = 1
			r.logger.Info("deleted orphaned replica zone", "zone", zoneName)
		}
		outcome.Duration = time.Since(start)
		return outcome, nil
	}

	if replicaMissing {
		managedRRSets := filterManaged(sourceRRSets, r.managed)
		newZone := domain.Zone{
			Name:       domain.NormalizeZoneName(zoneName),
			Kind:       domain.KindNative,
			SOAEditAPI: "DEFAULT",
			RRSets:     managedRRSets,
		}
		if err := r.replica.CreateZone(ctx, newZone); err != nil {
			outcome.Err = err
			outcome.Duration = time.Since(start)
			r.logger.Error("replica create failed", "zone", zoneName, "error", err)
			return outcome, err
		}
		outcome.Created = len(managedRRSets)
		outcome.Duration = time.Since(start)
		r.logger.Info("created replica zone", "zone", zoneName, "rrsets", len(managedRRSets))
		return outcome, nil
	}

	zoneDiff := diff.Compute(zoneName, sourceRRSets, replicaZone.RRSets, r.managed)
	if zoneDiff.IsEmpty() {
		outcome.Unchanged = len(sourceRRSets)
		outcome.Duration = time.Since(start)
		return outcome, nil
	}

	if err := r.replica.PatchRRSets(ctx, zoneName, zoneDiff.Changes); err != nil {
		outcome.Err = err
		outcome.Duration = time.Since(start)
		r.logger.Error("replica patch failed", "zone", zoneName, "error", err)
		return outcome, err
	}

	for _, c := range zoneDiff.Changes {
		if c.Change == domain.ChangeDelete {
			outcome.Deleted++
		} else {
			outcome.Updated++
		}
	}
	outcome.Duration = time.Since(start)
	r.logger.Info("reconciled zone", "zone", zoneName, "updated", outcome.Updated, "deleted", outcome.Deleted)
	return outcome, nil
}

// filterManaged drops any RecordSet whose type is not in managed, so a
// newly created replica zone is seeded with only the types this engine is
// responsible for (DNSSEC RRSIG/DNSKEY records the source system carries
// are never pushed to the replica).
func filterManaged(rrsets []domain.RecordSet, managed domain.ManagedTypeSet) []domain.RecordSet {
	out := make([]domain.RecordSet, 0, len(rrsets))
	for _, rs := range rrsets {
		if managed.Contains(rs.Type) {
			out = append(out, rs)
		}
	}
	return out
}
