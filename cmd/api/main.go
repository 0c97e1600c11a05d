package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/hospital-core/internal/config"
	auditHandler "github.com/jwalitptl/hospital-core/internal/handler/audit"
	bookingHandler "github.com/jwalitptl/hospital-core/internal/handler/booking"
	"github.com/jwalitptl/hospital-core/internal/handler/health"
	locationHandler "github.com/jwalitptl/hospital-core/internal/handler/location"
	policyHandler "github.com/jwalitptl/hospital-core/internal/handler/policy"
	unitHandler "github.com/jwalitptl/hospital-core/internal/handler/unit"
	"github.com/jwalitptl/hospital-core/internal/middleware"
	"github.com/jwalitptl/hospital-core/internal/repository/postgres"
	"github.com/jwalitptl/hospital-core/internal/router"
	auditService "github.com/jwalitptl/hospital-core/internal/service/audit"
	locationService "github.com/jwalitptl/hospital-core/internal/service/location"
	policyService "github.com/jwalitptl/hospital-core/internal/service/policy"
	registryService "github.com/jwalitptl/hospital-core/internal/service/registry"
	schedulingService "github.com/jwalitptl/hospital-core/internal/service/scheduling"
	"github.com/jwalitptl/hospital-core/pkg/logger"
	"github.com/jwalitptl/hospital-core/pkg/messaging/redis"
	"github.com/jwalitptl/hospital-core/pkg/metrics"
	"github.com/jwalitptl/hospital-core/pkg/validator"
	"github.com/jwalitptl/hospital-core/pkg/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	validator.RegisterCustom()

	m := metrics.NewMetrics("hospital_core", "api")

	// Repositories
	locationRepo := postgres.NewLocationRepository(db)
	unitRepo := postgres.NewUnitRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)
	policyRepo := postgres.NewPolicyRepository(db)
	auditRepo := postgres.NewAuditRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	// Services
	auditSvc := auditService.NewService(auditRepo)
	locationSvc := locationService.NewService(locationRepo, auditSvc, m)
	registrySvc := registryService.NewService(unitRepo, auditSvc, m)
	policySvc := policyService.NewService(policyRepo, policyService.Config{
		CacheDuration:   cfg.PolicyCache.TTL(),
		CleanupInterval: cfg.PolicyCache.Cleanup(),
	})
	schedulingSvc := schedulingService.NewService(bookingRepo, registrySvc, policySvc, auditSvc, m)

	// Handlers
	healthH := health.NewHandler(db)
	locationH := locationHandler.NewHandler(locationSvc, outboxRepo)
	unitH := unitHandler.NewHandler(registrySvc, outboxRepo)
	bookingH := bookingHandler.NewHandler(schedulingSvc, outboxRepo)
	policyH := policyHandler.NewHandler(policySvc)
	auditH := auditHandler.NewHandler(auditSvc)

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	r := router.NewRouter(cfg, m, authMiddleware, healthH,
		locationH, unitH, bookingH, policyH, auditH)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.Timeout(),
		WriteTimeout: cfg.Server.Timeout(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Outbox delivery is optional; without Redis the API still serves
	// requests and events stay PENDING.
	broker, err := redis.NewRedisBroker(cfg.Redis, &log.Logger)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, outbox delivery disabled")
	} else {
		defer broker.Close()
		processor := worker.NewOutboxProcessor(outboxRepo, broker, worker.OutboxProcessorConfig{
			BatchSize:     cfg.Outbox.BatchSize,
			PollInterval:  cfg.Outbox.PollInterval(),
			RetryAttempts: cfg.Outbox.MaxRetries,
			RetryDelay:    time.Second,
		}, appLogger, m)
		go processor.Start(ctx)
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	log.Info().Int("port", cfg.Server.Port).Msg("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
