package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/soltixdb/depotcast/internal/analytics/forecast"
	"github.com/soltixdb/depotcast/internal/config"
	grpcserver "github.com/soltixdb/depotcast/internal/grpc"
	"github.com/soltixdb/depotcast/internal/handlers"
	"github.com/soltixdb/depotcast/internal/logging"
	"github.com/soltixdb/depotcast/internal/metadata"
	"github.com/soltixdb/depotcast/internal/metrics"
	"github.com/soltixdb/depotcast/internal/models"
	"github.com/soltixdb/depotcast/internal/queue"
	"github.com/soltixdb/depotcast/internal/refresh"
	"github.com/soltixdb/depotcast/internal/registry"
	"github.com/soltixdb/depotcast/internal/router"
	"github.com/soltixdb/depotcast/internal/scheduler"
	"github.com/soltixdb/depotcast/internal/services"
	"github.com/soltixdb/depotcast/internal/storage"
)

var (
	Version   = "dev"     // Injected via ldflags during build
	GitCommit = "unknown" // Injected via ldflags during build
	BuildTime = "unknown" // Injected via ldflags during build
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobal(logger)
	logger.Info("Depotcast starting...",
		"version", Version, "commit", GitCommit, "build time", BuildTime)

	loc, err := cfg.Storage.Location()
	if err != nil {
		logger.Fatal("Invalid storage timezone", "timezone", cfg.Storage.Timezone, "error", err)
	}

	// Create context for background services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	instanceID := instanceName()

	// Warehouse registry
	var warehouses metadata.Manager
	var etcdManager *metadata.EtcdManager
	if cfg.Etcd.Enabled {
		logger.Info("Connecting to etcd", "endpoints", cfg.Etcd.Endpoints)
		etcdManager, err = metadata.NewEtcdManager(cfg.Etcd.Endpoints, cfg.Etcd.DialTimeout)
		if err != nil {
			logger.Fatal("Failed to connect to etcd", "error", err)
		}
		warehouses = etcdManager
	} else {
		logger.Warn("etcd disabled - warehouse registry is kept in memory and lost on restart")
		warehouses = metadata.NewMemoryManager()
	}
	defer func() { _ = warehouses.Close() }()

	// Shipment and forecast storage
	var store interface {
		storage.Repository
		Ping(ctx context.Context) error
	}
	if cfg.Storage.Type == "memory" {
		logger.Warn("Memory storage - shipments and forecasts are lost on restart")
		store = storage.NewMemoryStore(loc)
	} else {
		if err := cfg.EnsureDirectories(); err != nil {
			logger.Fatal("Failed to create storage directory", "error", err)
		}
		sqliteStore, err := storage.New(ctx, storage.Config{Path: cfg.Storage.Path, Location: loc})
		if err != nil {
			logger.Fatal("Failed to open storage", "path", cfg.Storage.Path, "error", err)
		}
		store = sqliteStore
		logger.Info("Storage opened", "path", cfg.Storage.Path, "timezone", loc.String())
	}
	defer func() { _ = store.Close() }()

	// Metrics
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder, err := metrics.NewRecorder(promRegistry)
	if err != nil {
		logger.Fatal("Failed to register metrics", "error", err)
	}

	engine := forecast.NewEngine(forecast.WithARIMABackend(cfg.Forecast.ARIMABackend))
	forecastOpts := []services.ForecastOption{
		services.WithRecorder(recorder),
		services.WithLocation(loc),
	}

	// Connect to Queue (configurable backend)
	var queueClient queue.Queue
	if cfg.Queue.Enabled {
		logger.Info("Connecting to Queue", "type", cfg.Queue.Type, "url", cfg.Queue.URL)
		queueClient, err = queue.NewQueue(cfg.Queue)
		if err != nil {
			logger.Fatal("Failed to connect to Queue", "error", err)
		}
		defer func() { _ = queueClient.Close() }()
		forecastOpts = append(forecastOpts, services.WithEventPublisher(
			queueClient, queue.NewEventCodec(cfg.Queue.Compress), cfg.Queue.EventSubject))
		logger.Info("Queue connection established")
	}

	warehouseService := services.NewWarehouseService(logger, warehouses, store)
	forecastService := services.NewForecastService(logger, warehouses, store, engine, cfg.Forecast, forecastOpts...)

	// Re-forecast warehouses shortly after their shipments change
	var shipmentOpts []services.ShipmentOption
	var refreshPool *refresh.Pool
	if cfg.Scheduler.RefreshOnImport {
		refreshPool = refresh.NewPool(logger, forecastService, refresh.Config{
			MaxActive: cfg.Scheduler.Workers,
			Delay:     cfg.Scheduler.ImportDelay,
			Timeout:   cfg.Scheduler.Timeout,
		})
		shipmentOpts = append(shipmentOpts, services.WithImportListener(refreshPool))
		logger.Info("Import-triggered refresh enabled",
			"delay", cfg.Scheduler.ImportDelay, "workers", cfg.Scheduler.Workers)
	}
	shipmentService := services.NewShipmentService(logger, warehouses, store, loc, recorder, shipmentOpts...)

	if queueClient != nil && cfg.Queue.RequestSubject != "" {
		if err := queueClient.Subscribe(cfg.Queue.RequestSubject, forecastService.HandleRequestMessage); err != nil {
			logger.Fatal("Failed to subscribe to forecast requests", "subject", cfg.Queue.RequestSubject, "error", err)
		}
		logger.Info("Consuming forecast requests", "subject", cfg.Queue.RequestSubject)
	}

	// Instance registration and scheduler leadership when the registry is shared
	var registration *registry.Registration
	var refreshOpts []scheduler.RefreshOption
	if etcdManager != nil {
		registration = registry.NewRegistration(etcdManager.Client(), models.InstanceInfo{
			ID:          instanceID,
			HTTPAddress: cfg.HTTPAddress(),
			GRPCAddress: grpcAddress(cfg),
			Version:     Version,
			StartedAt:   time.Now().UTC(),
		}, cfg.Etcd.LeaseTTL, logger)
		if err := registration.Register(ctx); err != nil {
			logger.Fatal("Failed to register instance", "error", err)
		}

		if cfg.Scheduler.Enabled {
			election := registry.NewElection(etcdManager.Client(), instanceID, cfg.Etcd.LeaseTTL, logger)
			go func() {
				if err := election.Run(ctx); err != nil {
					logger.Error("Scheduler election stopped", "error", err)
				}
			}()
			refreshOpts = append(refreshOpts, scheduler.WithLeaderCheck(election.IsLeader))
		}
	}

	// Periodic forecast refresh
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.New(logger, loc, cfg.Scheduler.Timeout)
		if err := sched.AddJob(cfg.Scheduler.Spec, scheduler.NewRefreshJob(logger, warehouses, forecastService, refreshOpts...)); err != nil {
			logger.Fatal("Invalid scheduler spec", "spec", cfg.Scheduler.Spec, "error", err)
		}
		sched.Start()
		logger.Info("Forecast refresh scheduled", "spec", cfg.Scheduler.Spec, "timezone", loc.String())
	}

	// Dependency probes shared by the HTTP and gRPC health endpoints
	storageCheck := store.Ping
	registryCheck := func(ctx context.Context) error {
		_, err := warehouses.ListWarehouses(ctx)
		return err
	}

	h := handlers.New(logger, loc, warehouseService, shipmentService, forecastService)
	h.AddHealthCheck("storage", storageCheck)
	h.AddHealthCheck("registry", registryCheck)

	// Log authentication status
	if cfg.Auth.Enabled {
		logger.Info("API key authentication enabled", "num_keys", len(cfg.Auth.APIKeys))
	} else {
		logger.Warn("API key authentication DISABLED - all requests will be allowed")
	}

	app := router.New(logger, h, promRegistry, *cfg)

	if cfg.Server.GRPCPort > 0 {
		healthServer := grpcserver.NewHealthServer(cfg.GRPCAddress(), logger)
		healthServer.AddCheck("storage", storageCheck)
		healthServer.AddCheck("registry", registryCheck)
		go func() {
			if err := healthServer.Start(ctx); err != nil {
				logger.Error("gRPC health server error", "error", err)
			}
		}()
	}

	// Start server in goroutine
	go func() {
		addr := cfg.HTTPAddress()
		logger.Info("Server listening", "address", addr)
		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	sig := <-quit

	logger.Info("Shutting down server...", "signal", sig.String())

	if sched != nil {
		sched.Stop()
	}
	if refreshPool != nil {
		refreshPool.Stop()
	}

	// Graceful shutdown with 10 second timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
	if registration != nil {
		_ = registration.Deregister(shutdownCtx)
	}
	cancel()

	logger.Info("Server exited")
}

func instanceName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "depotcast"
	}
	return host + "-" + uuid.NewString()[:8]
}

func grpcAddress(cfg *config.Config) string {
	if cfg.Server.GRPCPort <= 0 {
		return ""
	}
	return cfg.GRPCAddress()
}
