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
	"github.com/zemedica/feereference/backend/internal/adapters/cache"
	"github.com/zemedica/feereference/backend/internal/adapters/database"
	"github.com/zemedica/feereference/backend/internal/adapters/events"
	"github.com/zemedica/feereference/backend/internal/adapters/search"
	"github.com/zemedica/feereference/backend/internal/api/handlers"
	"github.com/zemedica/feereference/backend/internal/api/middleware"
	"github.com/zemedica/feereference/backend/internal/api/routes"
	"github.com/zemedica/feereference/backend/internal/application/services"
	"github.com/zemedica/feereference/backend/internal/domain/providers"
	"github.com/zemedica/feereference/backend/internal/domain/repositories"
	"github.com/zemedica/feereference/backend/internal/infrastructure/clients/postgres"
	redisclient "github.com/zemedica/feereference/backend/internal/infrastructure/clients/redis"
	"github.com/zemedica/feereference/backend/internal/infrastructure/clients/typesense"
	"github.com/zemedica/feereference/backend/internal/infrastructure/observability"
	"github.com/zemedica/feereference/backend/pkg/config"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Env)

	// OpenTelemetry is optional; the service degrades to logs-only when
	// no collector endpoint is configured
	if cfg.OTEL.Enabled {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize OpenTelemetry, continuing without tracing")
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(shutdownCtx); err != nil {
					log.Warn().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Warn().Err(err).Msg("failed to initialize metrics, continuing without them")
		metrics = nil
	}

	// PostgreSQL is the system of record; without it there is nothing to serve
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to PostgreSQL")
	}
	defer pgClient.Close()

	// Redis backs the response cache and the change event bus. The API
	// still works without it, every read just hits the database.
	redisCl, err := redisclient.NewClient(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("failed to connect to Redis, continuing without cache and events")
		redisCl = nil
	} else {
		defer redisCl.Close()
	}

	// Typesense powers full-text search; lookups fall back to the
	// database when it is unavailable
	tsClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		log.Warn().Err(err).Msg("failed to connect to Typesense, search will fall back to the database")
		tsClient = nil
	}

	procedureRepo := database.NewProcedureCodeAdapter(pgClient)
	scheduleRepo := database.NewFeeScheduleAdapter(pgClient)
	physicianFeeRepo := database.NewPhysicianFeeReferenceAdapter(pgClient)
	medicationRepo := database.NewMedicationPriceAdapter(pgClient)
	surgicalRepo := database.NewSurgicalAdapter(pgClient)

	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus
	if redisCl != nil {
		cacheProvider = cache.NewRedisAdapter(redisCl)
		eventBus = events.NewRedisEventBus(redisCl)
	}

	var searchRepo repositories.ProcedureCodeSearchRepository
	if tsClient != nil {
		tsAdapter := search.NewTypesenseAdapter(tsClient)
		if err := tsAdapter.InitSchema(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to initialize search schema, search will fall back to the database")
		} else {
			searchRepo = tsAdapter
		}
	}

	estimateService := services.NewBundleEstimateService(surgicalRepo)

	var invalidationService *services.CacheInvalidationService
	if cacheProvider != nil && eventBus != nil {
		invalidationService = services.NewCacheInvalidationService(cacheProvider, eventBus)
		if err := invalidationService.Start(); err != nil {
			log.Warn().Err(err).Msg("failed to start cache invalidation service")
		} else {
			log.Info().Msg("cache invalidation service started")
		}
	}

	if cacheProvider != nil {
		warmingService := services.NewCacheWarmingService(procedureRepo, scheduleRepo, cacheProvider)
		go warmingService.StartPeriodicWarming(ctx, 5*time.Minute)
		log.Info().Msg("cache warming service started")
	}

	procedureCodeHandler := handlers.NewProcedureCodeHandler(procedureRepo, searchRepo, eventBus)
	feeScheduleHandler := handlers.NewFeeScheduleHandler(scheduleRepo, eventBus)
	physicianFeeHandler := handlers.NewPhysicianFeeHandler(physicianFeeRepo, eventBus)
	medicationHandler := handlers.NewMedicationHandler(medicationRepo, eventBus)
	surgicalHandler := handlers.NewSurgicalHandler(surgicalRepo, estimateService, eventBus)

	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider, metrics, cfg.Cache.ReferenceTTLSeconds)
	}

	router := routes.NewRouter(
		procedureCodeHandler,
		feeScheduleHandler,
		physicianFeeHandler,
		medicationHandler,
		surgicalHandler,
		cacheMiddleware,
		metrics,
	)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Error().Err(err).Msg("error closing event bus")
		}
	}

	if invalidationService != nil {
		invalidationService.Stop()
	}

	log.Info().Msg("server stopped")
}
