package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stwalsh4118/deedchain/internal/config"
	"github.com/stwalsh4118/deedchain/internal/database"
	"github.com/stwalsh4118/deedchain/internal/handlers"
	"github.com/stwalsh4118/deedchain/internal/locking"
	"github.com/stwalsh4118/deedchain/internal/logger"
	"github.com/stwalsh4118/deedchain/internal/metrics"
	"github.com/stwalsh4118/deedchain/internal/middleware"
	"github.com/stwalsh4118/deedchain/internal/repository"
	"github.com/stwalsh4118/deedchain/internal/services"
	"github.com/stwalsh4118/deedchain/internal/settlement"
	"github.com/stwalsh4118/deedchain/internal/storage"
	"github.com/stwalsh4118/deedchain/internal/tracing"
)

const (
	shutdownTimeout = 30 * time.Second
)

func main() {
	// A missing .env is fine; the environment may be set by the orchestrator.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Server.Env)
	log.Info("Starting Deedchain API", map[string]interface{}{
		"version":     handlers.APIVersion,
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
	})

	ctx := context.Background()

	tp, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		log.Fatal("Failed to initialise tracing", err, map[string]interface{}{
			"exporter": cfg.Tracing.Exporter,
		})
	}

	db, err := database.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", err, map[string]interface{}{
			"host": cfg.Database.Host,
			"port": cfg.Database.Port,
			"name": cfg.Database.Name,
		})
	}
	defer db.Close()

	log.Info("Database connection established", map[string]interface{}{
		"host":     cfg.Database.Host,
		"port":     cfg.Database.Port,
		"database": cfg.Database.Name,
		"pool_min": cfg.Database.PoolMin,
		"pool_max": cfg.Database.PoolMax,
	})

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db, "up"); err != nil {
			log.Fatal("Failed to apply migrations", err, nil)
		}
		version, _ := database.Version(ctx, db)
		log.Info("Migrations applied", map[string]interface{}{"version": version})
	}

	readiness := map[string]handlers.Pinger{"database": db}
	components := map[string]string{
		"store":      "postgres",
		"lock":       "local",
		"storage":    "local",
		"settlement": "simulated",
		"tracing":    cfg.Tracing.Exporter,
	}
	if !tp.Enabled() {
		components["tracing"] = "disabled"
	}

	var locker locking.Locker = locking.NewLocalLocker()
	if cfg.Redis.Addr != "" {
		rdb, err := database.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to redis", err, map[string]interface{}{"addr": cfg.Redis.Addr})
		}
		defer rdb.Close()

		locker, err = locking.NewRedisLocker(rdb.Client, cfg.Redis.LockTTL, log)
		if err != nil {
			log.Fatal("Failed to create redis locker", err, nil)
		}
		readiness["redis"] = rdb
		components["lock"] = "redis"
		log.Info("Using redis property locks", map[string]interface{}{
			"addr":     cfg.Redis.Addr,
			"lock_ttl": cfg.Redis.LockTTL.String(),
		})
	}

	backend, err := storage.NewLocalBackend(cfg.Storage.Dir, cfg.Storage.PublicBaseURL)
	if err != nil {
		log.Fatal("Failed to prepare document storage", err, map[string]interface{}{"dir": cfg.Storage.Dir})
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	registryMetrics := metrics.NewRegistryMetrics(promRegistry)

	registryService := services.NewRegistryService(services.Dependencies{
		Repo:              repository.NewRegistryRepository(db),
		Settler:           settlement.NewSimulator(cfg.Settlement.MinDelay, cfg.Settlement.MaxDelay),
		Documents:         storage.NewDocumentStore(backend, log, registryMetrics),
		Locker:            locker,
		Metrics:           registryMetrics,
		Tracer:            tp.Tracer(),
		Log:               log,
		ExplorerHost:      cfg.Settlement.ExplorerHost,
		SettlementTimeout: cfg.Settlement.Timeout,
	})

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Middleware order: RequestID -> Logger -> Recovery -> CORS -> Identity
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(cfg.CORS.Origins))
	router.Use(middleware.Identity())

	handlers.RegisterRoutes(router,
		handlers.NewPropertyHandler(registryService),
		handlers.NewTransferHandler(registryService),
		handlers.NewHealthHandler(cfg.Server.Env, readiness, components),
	)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{})))
	router.Static("/documents", backend.Root())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server listening", map[string]interface{}{
			"port": cfg.Server.Port,
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start", err, nil)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// In-flight registrations run on a detached context; Shutdown waits for their handlers.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to flush traces", err, nil)
	}

	log.Info("Server exited", nil)
}
