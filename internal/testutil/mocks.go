// Package testutil holds testify-based test doubles for the core ports,
// shared across the sync and adapters test suites.
package testutil

import (
	"context"

	"github.com/poyrazK/netbox-pdns-sync/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

// MockSourceClient implements ports.SourceClient for testing.
type MockSourceClient struct {
	mock.Mock
}

func (m *MockSourceClient) ListOwnedZones(ctx context.Context) ([]domain.Zone, error) {
	args := m.Called()
	zones, _ := args.Get(0).([]domain.Zone)
	return zones, args.Error(1)
}

func (m *MockSourceClient) GetZoneRecords(ctx context.Context, zoneName string) ([]domain.RecordSet, error) {
	args := m.Called(zoneName)
	rrsets, _ := args.Get(0).([]domain.RecordSet)
	return rrsets, args.Error(1)
}

// MockReplicaClient implements ports.ReplicaClient for testing.
type MockReplicaClient struct {
	mock.Mock
}

func (m *MockReplicaClient) ListZones(ctx context.Context) ([]domain.Zone, error) {
	args := m.Called()
	zones, _ := args.Get(0).([]domain.Zone)
	return zones, args.Error(1)
}

func (m *MockReplicaClient) GetZone(ctx context.Context, zoneName string) (*domain.Zone, error) {
	args := m.Called(zoneName)
	zone, _ := args.Get(0).(*domain.Zone)
	return zone, args.Error(1)
}

func (m *MockReplicaClient) CreateZone(ctx context.Context, zone domain.Zone) error {
	args := m.Called(zone)
	return args.Error(0)
}

func (m *MockReplicaClient) PatchRRSets(ctx context.Context, zoneName string, changes []domain.RRSetChange) error {
	args := m.Called(zoneName, changes)
	return args.Error(0)
}

func (m *MockReplicaClient) DeleteZone(ctx context.Context, zoneName string) error {
	args := m.Called(zoneName)
	return args.Error(0)
}

// MockReconciler implements ports.Reconciler for testing the orchestrator
// and HTTP handlers in isolation from the real diff/reconcile logic.
type MockReconciler struct {
	mock.Mock
}

func (m *MockReconciler) ReconcileZone(ctx context.Context, zoneName string) (domain.ReconcileOutcome, error) {
	args := m.Called(zoneName)
	outcome, _ := args.Get(0).(domain.ReconcileOutcome)
	return outcome, args.Error(1)
}

// MockOrchestrator implements ports.Orchestrator for testing HTTP handlers.
type MockOrchestrator struct {
	mock.Mock
}

func (m *MockOrchestrator) FullSync(ctx context.Context, source domain.SyncSource) (domain.FullSyncOutcome, error) {
	args := m.Called(source)
	outcome, _ := args.Get(0).(domain.FullSyncOutcome)
	return outcome, args.Error(1)
}
