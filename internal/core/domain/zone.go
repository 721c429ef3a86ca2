// Package domain contains the core entities shared by every layer of the
// sync engine: zones, record sets, sync intents and the process-wide
// application state.
package domain

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ZoneKind mirrors the PowerDNS zone kind enumeration.
type ZoneKind string

const (
	KindNative    ZoneKind = "Native"
	KindPrimary   ZoneKind = "Primary"
	KindSecondary ZoneKind = "Secondary"
)

// Zone is the unit of ownership and reconciliation. Name is stored exactly
// as returned by whichever side produced the Zone; callers normalize with
// NormalizeZoneName before comparing names across source and replica.
type Zone struct {
	Name          string
	Kind          ZoneKind
	Nameservers   []string
	SOAEditAPI    string
	RRSets        []RecordSet
	OwnerNSID     string // source-side only: the nameserver ID PowerDNS/NetBox attributes ownership to
}

// RecordSet is a (name, type) tuple with one or more record values.
type RecordSet struct {
	Name     string
	Type     string
	TTL      uint32
	Records  []Record
	Comments []string // opaque, preserved on the replica, never authored by the engine
}

// Record is a single value within a RecordSet.
type Record struct {
	Content  string
	Disabled bool
}

// Key returns the (name, type) identity of a RecordSet.
func (r RecordSet) Key() RRSetKey {
	return RRSetKey{Name: r.Name, Type: strings.ToUpper(r.Type)}
}

// RRSetKey identifies a RecordSet within a zone.
type RRSetKey struct {
	Name string
	Type string
}

// NormalizeZoneName lowercases and trailing-dot-qualifies a zone name. The
// source side hands back names without a trailing dot; the replica side
// requires one. Conversion in both directions is idempotent.
func NormalizeZoneName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return name
	}
	if !strings.HasSuffix(name, ".") {
		name += "."
	}
	return name
}

// UnqualifyZoneName strips the trailing dot a source system does not expect.
func UnqualifyZoneName(name string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(name)), ".")
}

// QualifyRecordName fully qualifies a record name against its owning zone,
// the way PowerDNS expects record names to be presented: always
// fully-qualified with a trailing dot. If name is already absolute (ends in
// a dot) it is returned lowercased and unchanged; otherwise it is treated as
// a short name relative to zone and the zone's qualified name is appended.
func QualifyRecordName(name, zone string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	zone = NormalizeZoneName(zone)
	if name == "" || name == "@" {
		return zone
	}
	if strings.HasSuffix(name, ".") {
		return name
	}
	return name + "." + zone
}

// NormalizeRRType uppercases a DNS RR type string ("a" -> "A").
func NormalizeRRType(t string) string {
	return strings.ToUpper(strings.TrimSpace(t))
}

// RecordsEqual reports whether two record multisets are equal, ignoring
// order, comparing content after trimming surrounding whitespace.
func RecordsEqual(a, b []Record) bool {
	if len(a) != len(b) {
		return false
	}
	na := normalizedRecordSlice(a)
	nb := normalizedRecordSlice(b)
	sort.Slice(na, func(i, j int) bool { return recordLess(na[i], na[j]) })
	sort.Slice(nb, func(i, j int) bool { return recordLess(nb[i], nb[j]) })
	for i := range na {
		if na[i] != nb[i] {
			return false
		}
	}
	return true
}

func normalizedRecordSlice(in []Record) []Record {
	out := make([]Record, len(in))
	for i, r := range in {
		out[i] = Record{Content: strings.TrimSpace(r.Content), Disabled: r.Disabled}
	}
	return out
}

func recordLess(a, b Record) bool {
	if a.Content != b.Content {
		return a.Content < b.Content
	}
	return !a.Disabled && b.Disabled
}

// IsOwnedBy reports whether nameserverID appears in the zone's
// authoritative nameserver set (the source-side ownership test).
func (z Zone) IsOwnedBy(nameserverID string) bool {
	for _, ns := range z.Nameservers {
		if ns == nameserverID {
			return true
		}
	}
	return false
}

// IsManagedByFQDN reports whether a replica-side zone is managed by this
// engine: the configured nameserver FQDN appears in its nameservers list.
// This is the only persistent ownership marker the engine has.
func (z Zone) IsManagedByFQDN(nameserverFQDN string) bool {
	want := NormalizeZoneName(nameserverFQDN)
	for _, ns := range z.Nameservers {
		if NormalizeZoneName(ns) == want {
			return true
		}
	}
	return false
}

// SyncSource identifies which trigger produced a SyncIntent.
type SyncSource string

const (
	SourceSchedule   SyncSource = "schedule"
	SourceWebhook    SyncSource = "webhook"
	SourceMessageBus SyncSource = "message_bus"
	SourceManual     SyncSource = "manual"
)

// SyncScope is either "full" or a single zone name.
type SyncScope struct {
	Full bool
	Zone string // zone name when Full is false
}

// FullSyncScope returns the scope for a whole-catalog sync.
func FullSyncScope() SyncScope { return SyncScope{Full: true} }

// ZoneScope returns the scope for a single named zone.
func ZoneScope(name string) SyncScope { return SyncScope{Zone: name} }

// String renders the scope as "full" or "zone:<name>".
func (s SyncScope) String() string {
	if s.Full {
		return "full"
	}
	return "zone:" + s.Zone
}

// SyncIntent is the ephemeral per-trigger record consumed by the
// Concurrency Gate and discarded after the reconcile attempt terminates.
// CorrelationID ties together the gate-wait log line, the reconcile log
// lines and the final outcome for one trigger across otherwise
// interleaved log output.
type SyncIntent struct {
	Source        SyncSource
	Scope         SyncScope
	ReceivedAt    time.Time
	CorrelationID string
}

// NewSyncIntent builds a SyncIntent stamped with the current time and a
// fresh correlation ID.
func NewSyncIntent(source SyncSource, scope SyncScope) SyncIntent {
	return SyncIntent{
		Source:        source,
		Scope:         scope,
		ReceivedAt:    time.Now(),
		CorrelationID: uuid.New().String(),
	}
}
