package testutil

import (
	"context"
	"testing"

	"github.com/poyrazK/netbox-pdns-sync/internal/core/domain"
)

func TestMockSourceClient_ListOwnedZones(t *testing.T) {
	m := new(MockSourceClient)
	m.On("ListOwnedZones").Return([]domain.Zone{{Name: "example.com"}}, nil)
	zones, err := m.ListOwnedZones(context.Background())
	if err != nil || len(zones) != 1 {
		t.Fatalf("unexpected result: %v %v", zones, err)
	}
}

func TestMockSourceClient_GetZoneRecords(t *testing.T) {
	m := new(MockSourceClient)
	m.On("GetZoneRecords", "example.com").Return([]domain.RecordSet{}, nil)
	_, err := m.GetZoneRecords(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMockReplicaClient_GetZone(t *testing.T) {
	m := new(MockReplicaClient)
	m.On("GetZone", "example.com.").Return(&domain.Zone{Name: "example.com."}, nil)
	zone, err := m.GetZone(context.Background(), "example.com.")
	if err != nil || zone.Name != "example.com." {
		t.Fatalf("unexpected result: %v %v", zone, err)
	}
}

func TestMockReplicaClient_CreateZone(t *testing.T) {
	m := new(MockReplicaClient)
	m.On("CreateZone", domain.Zone{Name: "example.com."}).Return(nil)
	if err := m.CreateZone(context.Background(), domain.Zone{Name: "example.com."}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMockReplicaClient_PatchRRSets(t *testing.T) {
	m := new(MockReplicaClient)
	changes := []domain.RRSetChange{{Name: "www.example.com.", Type: "A", Change: domain.ChangeReplace}}
	m.On("PatchRRSets", "example.com.", changes).Return(nil)
	if err := m.PatchRRSets(context.Background(), "example.com.", changes); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMockReplicaClient_DeleteZone(t *testing.T) {
	m := new(MockReplicaClient)
	m.On("DeleteZone", "example.com.").Return(nil)
	if err := m.DeleteZone(context.Background(), "example.com."); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMockReconciler_ReconcileZone(t *testing.T) {
	m := new(MockReconciler)
	m.On("ReconcileZone", "example.com.").Return(domain.ReconcileOutcome{ZoneName: "example.com."}, nil)
	outcome, err := m.ReconcileZone(context.Background(), "example.com.")
	if err != nil || outcome.ZoneName != "example.com." {
		t.Fatalf("unexpected result: %v %v", outcome, err)
	}
}

func TestMockOrchestrator_FullSync(t *testing.T) {
	m := new(MockOrchestrator)
	m.On("FullSync", domain.SourceManual).Return(domain.FullSyncOutcome{ZonesTotal: 2}, nil)
	outcome, err := m.FullSync(context.Background(), domain.SourceManual)
	if err != nil || outcome.ZonesTotal != 2 {
		t.Fatalf("unexpected result: %v %v", outcome, err)
	}
}
