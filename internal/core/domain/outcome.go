package domain

import "time"

// ChangeType mirrors the replica API's RRset change semantics:
// a managed RRset is either replaced wholesale with the source's version or
// removed outright. There is no field-level patch operation.
type ChangeType string

const (
	ChangeReplace ChangeType = "REPLACE"
	ChangeDelete  ChangeType = "DELETE"
)

// RRSetChange is one entry of the Diff Engine's output: what to do about a
// single (name, type) RecordSet on the replica.
type RRSetChange struct {
	Name    string
	Type    string
	TTL     uint32
	Records []Record
	Change  ChangeType
}

// ZoneDiff is the full set of changes the Diff Engine computed for one zone.
type ZoneDiff struct {
	ZoneName string
	Changes  []RRSetChange
}

// IsEmpty reports whether applying this diff would be a no-op.
func (d ZoneDiff) IsEmpty() bool { return len(d.Changes) == 0 }

// ReconcileResult enumerates the per-zone reconcile outcome categories,
// the same strings as the outcome label of the reconcile outcome metric.
type ReconcileResult string

const (
	ResultCreated   ReconcileResult = "created"
	ResultUpdated   ReconcileResult = "updated"
	ResultDeleted   ReconcileResult = "deleted"
	ResultUnchanged ReconcileResult = "unchanged"
	ResultFailed    ReconcileResult = "failed"
)

// ReconcileOutcome is the structured result of reconciling one zone,
// returned by the Reconciler and consumed by the Orchestrator, the webhook
// handlers and tests.
type ReconcileOutcome struct {
	ZoneName  string
	Source    SyncSource
	StartedAt time.Time
	Duration  time.Duration
	Created   int
	Updated   int
	Deleted   int
	Unchanged int
	Err       error
}

// Succeeded reports whether the zone reached the desired state.
func (o ReconcileOutcome) Succeeded() bool { return o.Err == nil }

// FullSyncOutcome aggregates ReconcileOutcome across every zone visited by
// one orchestrator pass.
type FullSyncOutcome struct {
	StartedAt    time.Time
	Duration     time.Duration
	ZonesTotal   int
	ZonesOK      int
	ZonesFailed  int
	ZonesPruned  int
	PerZone      []ReconcileOutcome
}
