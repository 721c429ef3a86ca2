package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GateWaitSeconds tracks how long a sync trigger waited to acquire the
	// Concurrency Gate, by trigger source.
	GateWaitSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "syncengine_gate_wait_seconds",
		Help:    "Time spent waiting to acquire the concurrency gate",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})

	// GateHoldSeconds tracks how long a sync trigger held the gate once
	// acquired.
	GateHoldSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "syncengine_gate_hold_seconds",
		Help:    "Time spent holding the concurrency gate",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})

	// GateTimeouts counts triggers dropped because the gate could not be
	// acquired within its timeout.
	GateTimeouts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "syncengine_gate_timeouts_total",
		Help: "Total number of sync triggers dropped on gate acquisition timeout",
	}, []string{"source"})

	// ReconcileOutcomesTotal counts reconcile results, by trigger source and
	// outcome (created/updated/deleted/unchanged/failed).
	ReconcileOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "syncengine_reconcile_outcomes_total",
		Help: "Total number of zone reconcile outcomes",
	}, []string{"source", "outcome"})

	// ReconcileDurationSeconds tracks how long a single zone reconcile took.
	ReconcileDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "syncengine_reconcile_duration_seconds",
		Help:    "Histogram of single-zone reconcile duration",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})

	// FullSyncZonesPruned counts zones deleted from the replica for being
	// orphaned (owned by this engine, absent from the source) during a
	// full sync.
	FullSyncZonesPruned = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "syncengine_full_sync_zones_pruned_total",
		Help: "Total number of replica zones pruned as orphaned during a full sync",
	}, []string{"source"})

	// ReplicaRetriesTotal counts retry attempts made by the Replica Client,
	// by operation.
	ReplicaRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "syncengine_replica_retries_total",
		Help: "Total number of Replica Client retry attempts",
	}, []string{"op"})

	// WebhookRateLimitRejections counts requests rejected with 429, by
	// route class.
	WebhookRateLimitRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "syncengine_webhook_rate_limit_rejections_total",
		Help: "Total number of webhook requests rejected for exceeding their rate limit",
	}, []string{"class"})

	// MessageBusConnected is a binary indicator of the MQTT subscriber's
	// current connection state.
	MessageBusConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "syncengine_message_bus_connected",
		Help: "Binary indicator of message bus connection status (1 = connected, 0 = disconnected)",
	})
)
