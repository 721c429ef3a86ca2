// Package ports defines the interfaces the core sync logic depends on,
// implemented by adapters and faked in tests.
package ports

import (
	"context"

	"github.com/poyrazK/netbox-pdns-sync/internal/core/domain"
)

// SourceClient talks to the IPAM inventory system that owns the desired
// state for every zone.
type SourceClient interface {
	// ListOwnedZones returns every zone the configured nameserver identity
	// is authoritative for, according to the source system's records.
	ListOwnedZones(ctx context.Context) ([]domain.Zone, error)
	// GetZoneRecords returns the full set of record sets the source system
	// believes should exist within zoneName.
	GetZoneRecords(ctx context.Context, zoneName string) ([]domain.RecordSet, error)
}

// ReplicaClient talks to the authoritative DNS server that is the target of
// the sync.
type ReplicaClient interface {
	ListZones(ctx context.Context) ([]domain.Zone, error)
	GetZone(ctx context.Context, zoneName string) (*domain.Zone, error)
	CreateZone(ctx context.Context, zone domain.Zone) error
	PatchRRSets(ctx context.Context, zoneName string, changes []domain.RRSetChange) error
	DeleteZone(ctx context.Context, zoneName string) error
}

// Reconciler drives a single zone to the desired state computed by the diff
// engine.
type Reconciler interface {
	ReconcileZone(ctx context.Context, zoneName string) (domain.ReconcileOutcome, error)
}

// Orchestrator drives a full-catalog sync across every owned zone.
type Orchestrator interface {
	FullSync(ctx context.Context, source domain.SyncSource) (domain.FullSyncOutcome, error)
}

// Gate serializes sync attempts so at most one reconcile runs at a time.
type Gate interface {
	// Acquire blocks until the gate is free or ctx's deadline/the gate's
	// configured timeout elapses, whichever comes first. The returned
	// release func must be called exactly once.
	Acquire(ctx context.Context, intent domain.SyncIntent) (release func(), err error)
}

// Scheduler runs the full sync on a cron schedule.
type Scheduler interface {
	Start() error
	Stop(ctx context.Context)
}

// Bus subscribes to inventory change events over the message bus.
type Bus interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context)
	Connected() bool
}
