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
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/availability-api/internal/config"
	appointmentHandler "github.com/jwalitptl/availability-api/internal/handler/appointment"
	availabilityHandler "github.com/jwalitptl/availability-api/internal/handler/availability"
	"github.com/jwalitptl/availability-api/internal/handler/health"
	prometheusHandler "github.com/jwalitptl/availability-api/internal/handler/prometheus"
	scheduleHandler "github.com/jwalitptl/availability-api/internal/handler/schedule"
	"github.com/jwalitptl/availability-api/internal/middleware"
	"github.com/jwalitptl/availability-api/internal/repository/postgres"
	"github.com/jwalitptl/availability-api/internal/router"
	appointmentService "github.com/jwalitptl/availability-api/internal/service/appointment"
	availabilityService "github.com/jwalitptl/availability-api/internal/service/availability"
	eventService "github.com/jwalitptl/availability-api/internal/service/event"
	scheduleService "github.com/jwalitptl/availability-api/internal/service/schedule"
	"github.com/jwalitptl/availability-api/pkg/auth"
	"github.com/jwalitptl/availability-api/pkg/logger"
	"github.com/jwalitptl/availability-api/pkg/metrics"
	"github.com/jwalitptl/availability-api/pkg/validator"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.NewLogger(nil).Fatal(err, "Failed to load configuration")
	}

	log := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		Pretty:     cfg.Log.Pretty,
	})
	if cfg.JWT.Secret == "" {
		log.Fatal(errors.New("jwt.secret is empty"), "Refusing to start without a token secret")
	}
	gin.SetMode(gin.ReleaseMode)

	// Initialize database
	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "Failed to connect to database")
	}
	defer db.Close()

	registry := prometheus.NewRegistry()
	m := metrics.New("availability", registry)

	// Initialize repositories
	scheduleRepo := postgres.NewScheduleRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	consultationRepo := postgres.NewConsultationTypeRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)
	tx := postgres.NewTransactor(db)

	// Initialize services
	events := eventService.NewEventService(outboxRepo, log)
	availabilitySvc := availabilityService.NewService(scheduleRepo, appointmentRepo, consultationRepo, cfg.Availability, log, m)
	scheduleSvc := scheduleService.NewService(scheduleRepo, tx, events, log)
	appointmentSvc := appointmentService.NewService(appointmentRepo, availabilitySvc, tx, events, log)

	// Initialize handlers
	v := validator.New()
	r := router.NewRouter(
		middleware.NewAuthMiddleware(auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer)),
		availabilityHandler.NewHandler(availabilitySvc),
		scheduleHandler.NewHandler(scheduleSvc, v),
		appointmentHandler.NewHandler(appointmentSvc, v),
		health.NewHandler(map[string]health.Pinger{"database": db}),
		prometheusHandler.New(registry),
		log,
		router.RouterConfig{
			RateLimitEnabled: cfg.RateLimit.Enabled,
			RateLimit:        rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst:        cfg.RateLimit.Burst,
			CORSConfig:       middleware.DefaultCORSConfig(),
			RequestTimeout:   time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		},
	)
	r.Setup()

	// Create server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server
	go func() {
		log.Info("Starting API server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err, "Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error(err, "Server forced to shutdown")
		return
	}

	log.Info("Server exited properly")
}
