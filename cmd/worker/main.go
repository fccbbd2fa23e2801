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
	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sourcegraph/conc"

	"github.com/jwalitptl/availability-api/internal/config"
	"github.com/jwalitptl/availability-api/internal/handler/health"
	prometheusHandler "github.com/jwalitptl/availability-api/internal/handler/prometheus"
	"github.com/jwalitptl/availability-api/internal/repository/postgres"
	internalWorker "github.com/jwalitptl/availability-api/internal/worker"
	"github.com/jwalitptl/availability-api/pkg/logger"
	"github.com/jwalitptl/availability-api/pkg/messaging/redis"
	"github.com/jwalitptl/availability-api/pkg/metrics"
	"github.com/jwalitptl/availability-api/pkg/worker"
)

// Settings are the process level knobs of one worker instance, read from
// WORKER_* variables. Shared settings come from the main configuration.
type Settings struct {
	HealthPort int    `envconfig:"HEALTH_PORT" default:"8081"`
	ID         string `envconfig:"ID"`
}

func main() {
	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.NewLogger(nil).Fatal(err, "Failed to load config")
	}

	var settings Settings
	if err := envconfig.Process("worker", &settings); err != nil {
		logger.NewLogger(nil).Fatal(err, "Failed to read worker settings")
	}
	if settings.ID == "" {
		settings.ID = generateWorkerID()
	}

	// Initialize logger
	log := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		Pretty:     cfg.Log.Pretty,
	}).WithFields(map[string]interface{}{"worker_id": settings.ID})

	// Initialize database
	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "Failed to connect to database")
	}
	defer db.Close()

	registry := prometheus.NewRegistry()
	m := metrics.New("availability_worker", registry)

	// Initialize Redis broker
	broker, err := redis.NewRedisBroker(redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, log, m)
	if err != nil {
		log.Fatal(err, "Failed to create Redis broker")
	}
	defer broker.Close()

	outboxRepo := postgres.NewOutboxRepository(db)

	processor, err := worker.NewOutboxProcessor(
		outboxRepo,
		postgres.NewTransactor(db),
		broker,
		worker.OutboxProcessorConfig{
			BatchSize:      cfg.Outbox.BatchSize,
			PollInterval:   cfg.Outbox.PollInterval,
			RetryAttempts:  cfg.Outbox.RetryAttempts,
			RetryDelay:     cfg.Outbox.RetryDelay,
			PublishRetries: cfg.Outbox.PublishRetries,
			PublishBackoff: cfg.Outbox.PublishBackoff,
		},
		log,
		m,
	)
	if err != nil {
		log.Fatal(err, "Invalid outbox processor configuration")
	}

	cleanup := internalWorker.NewOutboxCleanupWorker(outboxRepo, cfg.Outbox.Retention, cfg.Outbox.CleanupInterval, log, m)

	// Setup health check endpoints
	srv := setupHealthCheck(settings.HealthPort, db, broker, registry, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("Shutting down")
		cancel()

		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error(err, "Health server forced to shutdown")
		}
	}()

	var wg conc.WaitGroup
	wg.Go(func() { processor.Start(ctx) })
	wg.Go(func() { cleanup.Start(ctx) })
	wg.Wait()

	log.Info("Worker stopped")
}

func setupHealthCheck(port int, db health.Pinger, broker *redis.RedisBroker, registry *prometheus.Registry, log *logger.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	health.NewHandler(map[string]health.Pinger{
		"database": db,
		"redis":    health.PingFunc(broker.Ping),
	}).RegisterRoutes(engine.Group(""))
	engine.GET("/metrics", prometheusHandler.New(registry).Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err, "Health check server failed")
		}
	}()

	return srv
}

func generateWorkerID() string {
	// Generate a unique worker ID using hostname and timestamp
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return fmt.Sprintf("worker-%s-%d", hostname, time.Now().UnixNano())
}
