package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/poyrazK/netbox-pdns-sync/internal/adapters/api"
	"github.com/poyrazK/netbox-pdns-sync/internal/adapters/bus"
	"github.com/poyrazK/netbox-pdns-sync/internal/adapters/replicaclient"
	"github.com/poyrazK/netbox-pdns-sync/internal/adapters/scheduler"
	"github.com/poyrazK/netbox-pdns-sync/internal/adapters/sourceclient"
	"github.com/poyrazK/netbox-pdns-sync/internal/config"
	"github.com/poyrazK/netbox-pdns-sync/internal/core/domain"
	"github.com/poyrazK/netbox-pdns-sync/internal/sync"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("application failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// 1. Load and validate configuration; fail fast on any error.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// 2. Initialize structured logging at the configured level.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	startupTime := time.Now()
	state := domain.NewApplicationState(startupTime)

	// 3. Construct the source/replica clients and the sync core. The
	// nameserver's FQDN is resolved once at startup: it is the replica-side
	// ownership marker the reconciler and orchestrator test zones against.
	source := sourceclient.New(cfg.NetboxURL, cfg.NetboxToken, cfg.NameserverID, logger)
	replica := replicaclient.New(cfg.PowerDNSURL, cfg.PowerDNSToken, cfg.PowerDNSServerID, logger)

	nameserverFQDN, err := source.GetNameserverFQDN(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve configured nameserver identity: %w", err)
	}

	reconciler := sync.NewReconciler(source, replica, cfg.ManagedTypes, nameserverFQDN, logger)
	gate := sync.NewGate(logger)
	orchestrator := sync.NewOrchestrator(source, replica, reconciler, gate, strconv.Itoa(cfg.NameserverID), nameserverFQDN, logger)

	// 4. Wire the periodic scheduler.
	sched, err := scheduler.New(cfg.SyncCrontab, orchestrator, logger)
	if err != nil {
		return fmt.Errorf("invalid sync schedule: %w", err)
	}

	// 5. Wire the message bus, if configured.
	var mqttSub *bus.Subscriber
	state.SetMessageBusEnabled(cfg.MQTTEnabled)
	if cfg.MQTTEnabled {
		mqttSub = bus.New(bus.Config{
			BrokerURL:      cfg.MQTTBrokerURL,
			ClientID:       cfg.MQTTClientID,
			TopicPrefix:    cfg.MQTTTopicPrefix,
			Username:       cfg.MQTTUsername,
			Password:       cfg.MQTTPassword,
			QoS:            cfg.MQTTQoS,
			KeepAlive:      cfg.MQTTKeepAlive,
			ReconnectDelay: cfg.MQTTReconnectDelay,
		}, gate, reconciler, logger)
	}

	// 6. Build the HTTP surface. The health endpoint must be servable before
	// the initial full sync completes, so the server starts before it.
	handler := api.NewHandler(reconciler, orchestrator, gate, state, logger)
	mux := http.NewServeMux()
	handler.RegisterRoutes(ctx, mux, cfg.APIKey, cfg.WebhookSecret, logger)

	httpAddr := ":8000"
	srv := &http.Server{
		Addr:              httpAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("starting HTTP server", "addr", httpAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
		}
	}()

	// 7. Run the initial full sync in the background; status reporting and
	// health checks stay available the whole time it runs.
	go runInitialSync(ctx, orchestrator, state, logger)

	// 8. Start the scheduler and connect the message bus.
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	state.SetSchedulerRunning(sched.Running(), sched.JobsCount())

	if mqttSub != nil {
		if err := mqttSub.Start(ctx); err != nil {
			logger.Error("failed to connect to message bus", "error", err)
		}
		state.SetMessageBusConnected(mqttSub.Connected())
	}

	logger.Info("sync engine started",
		"nameserver_id", cfg.NameserverID,
		"crontab", cfg.SyncCrontab,
		"mqtt_enabled", cfg.MQTTEnabled,
	)

	<-ctx.Done()
	logger.Info("shutting down sync engine")

	if mqttSub != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		mqttSub.Stop(stopCtx)
		cancel()
	}

	sched.Stop(context.Background())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}

	return nil
}

// runInitialSync drives the engine's first full sync in the background so
// that the HTTP server is already serving /health before it starts.
func runInitialSync(ctx context.Context, orchestrator *sync.Orchestrator, state *domain.ApplicationState, logger *slog.Logger) {
	state.SetInitialSyncStarted()
	outcome, err := orchestrator.FullSync(ctx, domain.SourceManual)
	if err != nil {
		logger.Error("initial full sync failed", "error", err)
		state.SetInitialSyncError(err)
		return
	}
	logger.Info("initial full sync complete",
		"zones_total", outcome.ZonesTotal, "zones_ok", outcome.ZonesOK,
		"zones_failed", outcome.ZonesFailed, "zones_pruned", outcome.ZonesPruned)
	state.SetInitialSyncCompleted()
}
