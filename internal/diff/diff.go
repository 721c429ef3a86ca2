// Package diff computes the minimal set of RRSET changes needed to
// converge a replica zone's record set toward a source zone's record set.
package diff

import (
	"sort"

	"github.com/poyrazK/netbox-pdns-sync/internal/core/domain"
)

// Compute returns the minimal set of RRSET changes: for every (name, type) present in
// source, emit a REPLACE if the replica lacks it or differs on TTL or
// record content; for every managed (name, type) present only in the
// replica, emit a DELETE. RecordSets of types outside managed are never
// touched in either direction.
func Compute(zoneName string, source, replica []domain.RecordSet, managed domain.ManagedTypeSet) domain.ZoneDiff {
	sourceByKey := indexByKey(source)
	replicaByKey := indexByKey(replica)

	var changes []domain.RRSetChange

	for _, key := range sortedKeys(sourceByKey) {
		if !managed.Contains(key.Type) {
			continue
		}
		src := sourceByKey[key]
		rep, existsOnReplica := replicaByKey[key]
		if !existsOnReplica || src.TTL != rep.TTL || !domain.RecordsEqual(src.Records, rep.Records) {
			changes = append(changes, domain.RRSetChange{
				Name:    src.Name,
				Type:    src.Type,
				TTL:     src.TTL,
				Records: src.Records,
				Change:  domain.ChangeReplace,
			})
		}
	}

	for _, key := range sortedKeys(replicaByKey) {
		if !managed.Contains(key.Type) {
			continue
		}
		if _, existsOnSource := sourceByKey[key]; existsOnSource {
			continue
		}
		rep := replicaByKey[key]
		changes = append(changes, domain.RRSetChange{
			Name:   rep.Name,
			Type:   rep.Type,
			Change: domain.ChangeDelete,
		})
	}

	return domain.ZoneDiff{ZoneName: zoneName, Changes: changes}
}

func indexByKey(rrsets []domain.RecordSet) map[domain.RRSetKey]domain.RecordSet {
	out := make(map[domain.RRSetKey]domain.RecordSet, len(rrsets))
	for _, rs := range rrsets {
		out[rs.Key()] = rs
	}
	return out
}

// sortedKeys returns the map's keys in a deterministic order so that a diff
// computed twice from identical inputs produces an identical change
// sequence, which matters for the idempotent-reconcile property and for
// tests asserting exact call order.
func sortedKeys(m map[domain.RRSetKey]domain.RecordSet) []domain.RRSetKey {
	keys := make([]domain.RRSetKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Name != keys[j].Name {
			return keys[i].Name < keys[j].Name
		}
		return keys[i].Type < keys[j].Type
	})
	return keys
}
