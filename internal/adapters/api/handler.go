// Package api implements the HTTP webhook surface: rate-limited,
// authenticated zone-change endpoints plus unauthenticated health/status
// endpoints.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/poyrazK/netbox-pdns-sync/internal/core/domain"
	"github.com/poyrazK/netbox-pdns-sync/internal/core/ports"
	"github.com/poyrazK/netbox-pdns-sync/internal/sync"
)

// Handler serves the sync engine's HTTP surface.
type Handler struct {
	reconciler   ports.Reconciler
	orchestrator ports.Orchestrator
	gate         ports.Gate
	state        *domain.ApplicationState
	logger       *slog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(reconciler ports.Reconciler, orchestrator ports.Orchestrator, gate ports.Gate, state *domain.ApplicationState, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{reconciler: reconciler, orchestrator: orchestrator, gate: gate, state: state, logger: logger}
}

// RegisterRoutes wires every endpoint in rate-limiter -> auth -> handler
// order: a flood of unauthenticated requests is throttled before the auth
// check ever runs. It also starts the rate limiter's periodic bucket
// cleanup, stopped when ctx is done.
func (h *Handler) RegisterRoutes(ctx context.Context, mux *http.ServeMux, apiKey, webhookSecret string, logger *slog.Logger) {
	limiter := newRateLimiter()
	go limiter.runCleanup(ctx)
	logged := LoggingMiddleware(logger)
	auth := AuthMiddleware(apiKey, webhookSecret)

	rate := func(class string, rule limitRule) func(http.Handler) http.Handler {
		return RateLimitMiddleware(limiter, class, rule)
	}

	mux.Handle("GET /health", logged(rate("health", limitRule{perMinute: 100})(http.HandlerFunc(h.Health))))
	mux.Handle("GET /status", logged(rate("status", limitRule{perMinute: 30})(http.HandlerFunc(h.Status))))
	mux.Handle("GET /mqtt/status", logged(rate("mqtt_status", limitRule{perMinute: 30})(http.HandlerFunc(h.MQTTStatus))))
	mux.Handle("GET /metrics", logged(http.HandlerFunc(h.Metrics)))

	mux.Handle("POST /sync", logged(rate("sync", limitRule{perMinute: 5})(auth(http.HandlerFunc(h.Sync)))))
	mux.Handle("POST /zones/create", logged(rate("zones", limitRule{perMinute: 20})(auth(http.HandlerFunc(h.ZoneCreate)))))
	mux.Handle("POST /zones/update", logged(rate("zones", limitRule{perMinute: 20})(auth(http.HandlerFunc(h.ZoneUpdate)))))
	mux.Handle("POST /zones/delete", logged(rate("zones", limitRule{perMinute: 20})(auth(http.HandlerFunc(h.ZoneDelete)))))
}

// Metrics handles Prometheus scraping requests.
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// Health implements GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "Healthy"})
}

type statusResponse struct {
	Status        string          `json:"status"`
	UptimeSeconds float64         `json:"uptime_seconds"`
	InitialSync   initialSyncJSON `json:"initial_sync"`
	Scheduler     schedulerJSON   `json:"scheduler"`
	MQTT          mqttJSON        `json:"mqtt"`
}

type initialSyncJSON struct {
	Started   bool    `json:"started"`
	Completed bool    `json:"completed"`
	Error     *string `json:"error"`
}

type schedulerJSON struct {
	Running   bool `json:"running"`
	JobsCount int  `json:"jobs_count"`
}

type mqttJSON struct {
	Enabled   bool  `json:"enabled"`
	Connected *bool `json:"connected,omitempty"`
}

// Status implements GET /status, reporting the process health the way
// domain.StateSnapshot.Health derives it.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	snap := h.state.Snapshot()
	uptime := time.Since(snap.StartupTime)

	var syncErr *string
	if snap.InitialSyncError != "" {
		e := snap.InitialSyncError
		syncErr = &e
	}

	resp := statusResponse{
		Status:        string(snap.Health(uptime)),
		UptimeSeconds: uptime.Seconds(),
		InitialSync: initialSyncJSON{
			Started:   snap.InitialSyncStarted,
			Completed: snap.InitialSyncCompleted,
			Error:     syncErr,
		},
		Scheduler: schedulerJSON{Running: snap.SchedulerRunning, JobsCount: snap.SchedulerJobsCount},
		MQTT:      mqttJSON{Enabled: snap.MessageBusEnabled},
	}
	if snap.MessageBusEnabled {
		connected := snap.MessageBusConnected
		resp.MQTT.Connected = &connected
	}
	writeJSON(w, http.StatusOK, resp)
}

// MQTTStatus implements GET /mqtt/status.
func (h *Handler) MQTTStatus(w http.ResponseWriter, r *http.Request) {
	snap := h.state.Snapshot()
	resp := mqttJSON{Enabled: snap.MessageBusEnabled}
	if snap.MessageBusEnabled {
		connected := snap.MessageBusConnected
		resp.Connected = &connected
	}
	writeJSON(w, http.StatusOK, resp)
}

// Sync implements POST /sync: a manually-triggered full sync.
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("manual full sync requested", "source_ip", sourceIP(r))
	go func() {
		ctx := context.Background()
		if _, err := h.orchestrator.FullSync(ctx, domain.SourceManual); err != nil {
			h.logger.Error("manual full sync failed", "error", err)
		}
	}()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

type zoneEventPayload struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ZoneCreate implements POST /zones/create.
func (h *Handler) ZoneCreate(w http.ResponseWriter, r *http.Request) {
	h.handleZoneEvent(w, r)
}

// ZoneUpdate implements POST /zones/update.
func (h *Handler) ZoneUpdate(w http.ResponseWriter, r *http.Request) {
	h.handleZoneEvent(w, r)
}

// ZoneDelete implements POST /zones/delete. Deletion is not special-cased:
// reconcile(name) discovers the zone's absence from the source and follows
// the delete path on its own.
func (h *Handler) ZoneDelete(w http.ResponseWriter, r *http.Request) {
	h.handleZoneEvent(w, r)
}

func (h *Handler) handleZoneEvent(w http.ResponseWriter, r *http.Request) {
	var payload zoneEventPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if payload.Name == "" {
		writeJSONError(w, http.StatusBadRequest, "Bad Request", `missing required field "name"`)
		return
	}
	if err := domain.ValidateZoneName(domain.NormalizeZoneName(payload.Name)); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Bad Request", "invalid zone name: "+err.Error())
		return
	}

	h.logger.Info("zone event received", "zone", payload.Name, "source_ip", sourceIP(r))
	go sync.ReconcileUnderGate(context.Background(), h.gate, h.reconciler, payload.Name, domain.SourceWebhook, h.logger)

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
