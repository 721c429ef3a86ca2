package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/poyrazK/netbox-pdns-sync/internal/core/domain"
	"github.com/poyrazK/netbox-pdns-sync/internal/testutil"
)

func newTestHandler() (*Handler, *testutil.MockReconciler, *testutil.MockOrchestrator, *domain.ApplicationState) {
	reconciler := &testutil.MockReconciler{}
	orchestrator := &testutil.MockOrchestrator{}
	state := domain.NewApplicationState(time.Now())
	gate := &passthroughGate{}
	h := NewHandler(reconciler, orchestrator, gate, state, nil)
	return h, reconciler, orchestrator, state
}

// passthroughGate satisfies ports.Gate without contention, for handler
// tests that only care about the HTTP-layer behavior.
type passthroughGate struct{}

func (g *passthroughGate) Acquire(ctx context.Context, intent domain.SyncIntent) (func(), error) {
	return func() {}, nil
}

func TestHealth(t *testing.T) {
	h, _, _, _ := newTestHandler()
	req := httptest.NewRequest("GET", "/health", nil)
	rr := httptest.NewRecorder()
	h.Health(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body map[string]string
	_ = json.Unmarshal(rr.Body.Bytes(), &body)
	if body["status"] != "Healthy" {
		t.Errorf("expected status Healthy, got %q", body["status"])
	}
}

func TestStatus_ReflectsApplicationState(t *testing.T) {
	h, _, _, state := newTestHandler()
	state.SetInitialSyncStarted()
	state.SetInitialSyncCompleted()
	state.SetSchedulerRunning(true, 1)

	req := httptest.NewRequest("GET", "/status", nil)
	rr := httptest.NewRecorder()
	h.Status(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp statusResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "Healthy" {
		t.Errorf("expected Healthy, got %q", resp.Status)
	}
	if !resp.InitialSync.Completed {
		t.Error("expected initial_sync.completed to be true")
	}
	if !resp.Scheduler.Running || resp.Scheduler.JobsCount != 1 {
		t.Errorf("unexpected scheduler block: %+v", resp.Scheduler)
	}
}

func TestStatus_DegradedOnInitialSyncError(t *testing.T) {
	h, _, _, state := newTestHandler()
	state.SetInitialSyncStarted()
	state.SetInitialSyncError(errors.New("source unavailable"))

	req := httptest.NewRequest("GET", "/status", nil)
	rr := httptest.NewRecorder()
	h.Status(rr, req)

	var resp statusResponse
	_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp.Status != "Degraded" {
		t.Errorf("expected Degraded, got %q", resp.Status)
	}
	if resp.InitialSync.Error == nil || *resp.InitialSync.Error != "source unavailable" {
		t.Errorf("unexpected initial_sync.error: %+v", resp.InitialSync.Error)
	}
}

func TestZoneCreate_RejectsMalformedJSON(t *testing.T) {
	h, _, _, _ := newTestHandler()
	req := httptest.NewRequest("POST", "/zones/create", bytes.NewReader([]byte("{not json")))
	rr := httptest.NewRecorder()
	h.ZoneCreate(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestZoneCreate_RejectsMissingName(t *testing.T) {
	h, _, _, _ := newTestHandler()
	req := httptest.NewRequest("POST", "/zones/create", bytes.NewReader([]byte(`{"id":1}`)))
	rr := httptest.NewRecorder()
	h.ZoneCreate(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestZoneCreate_RejectsInvalidZoneName(t *testing.T) {
	h, _, _, _ := newTestHandler()
	req := httptest.NewRequest("POST", "/zones/create", bytes.NewReader([]byte(`{"id":1,"name":"bad_label!.com"}`)))
	rr := httptest.NewRecorder()
	h.ZoneCreate(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestZoneCreate_QueuesReconcile(t *testing.T) {
	h, reconciler, _, _ := newTestHandler()
	reconciler.On("ReconcileZone", "example.com").
		Return(domain.ReconcileOutcome{ZoneName: "example.com"}, nil)

	req := httptest.NewRequest("POST", "/zones/create", bytes.NewReader([]byte(`{"id":1,"name":"example.com"}`)))
	rr := httptest.NewRecorder()
	h.ZoneCreate(rr, req)

	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rr.Code)
	}
	var body map[string]string
	_ = json.Unmarshal(rr.Body.Bytes(), &body)
	if body["status"] != "queued" {
		t.Errorf("expected status queued, got %q", body["status"])
	}
}

func TestSync_QueuesFullSync(t *testing.T) {
	h, _, orchestrator, _ := newTestHandler()
	orchestrator.On("FullSync", domain.SourceManual).
		Return(domain.FullSyncOutcome{}, nil)

	req := httptest.NewRequest("POST", "/sync", nil)
	rr := httptest.NewRecorder()
	h.Sync(rr, req)

	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rr.Code)
	}
}
