package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/medfinder/internal/adapters/cache"
	"github.com/zatekoja/medfinder/internal/adapters/database"
	"github.com/zatekoja/medfinder/internal/adapters/events"
	"github.com/zatekoja/medfinder/internal/adapters/providers/geolocation"
	"github.com/zatekoja/medfinder/internal/api/handlers"
	"github.com/zatekoja/medfinder/internal/api/middleware"
	"github.com/zatekoja/medfinder/internal/api/routes"
	"github.com/zatekoja/medfinder/internal/application/services"
	"github.com/zatekoja/medfinder/internal/domain/providers"
	"github.com/zatekoja/medfinder/internal/domain/repositories"
	"github.com/zatekoja/medfinder/internal/infrastructure/clients/openai"
	"github.com/zatekoja/medfinder/internal/infrastructure/clients/redis"
	"github.com/zatekoja/medfinder/internal/infrastructure/clients/sqldb"
	"github.com/zatekoja/medfinder/internal/infrastructure/observability"
	"github.com/zatekoja/medfinder/pkg/config"
	"github.com/zatekoja/medfinder/pkg/secrets"
)

func main() {
	// Secrets from Vault land in the environment before configuration is read
	if result, err := secrets.ApplyVaultSecrets(context.Background(), secrets.LoadVaultConfigFromEnv("")); err != nil {
		log.Fatal().Err(err).Str("path", result.Path).Msg("failed to load secrets from vault")
	} else if result.Enabled {
		log.Info().Str("path", result.Path).Int("loaded", result.Loaded).Int("skipped", result.Skipped).Msg("vault secrets applied")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Environment, cfg.Log.Level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Initialize database client
	dbClient, err := sqldb.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("failed to initialize database client")
	}
	defer dbClient.Close()

	if cfg.Database.AutoMigrate {
		if err := dbClient.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to apply migrations")
		}
	}

	// Redis is optional: locks fall back to process memory, events are dropped
	var (
		redisClient *redis.Client
		locks       providers.LockProvider = cache.NewLocalLock()
		eventBus    providers.EventBus     = events.NoopEventBus{}
		rateCounter handlers.RateCounter
		sharedCache providers.CacheProvider
	)
	if cfg.Redis.Enabled {
		redisClient, err = redis.NewClient(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, continuing without shared locks and events")
		} else {
			defer redisClient.Close()
			locks = cache.NewRedisLock(redisClient)
			eventBus = events.NewRedisEventBus(redisClient)
			redisAdapter := cache.NewRedisAdapter(redisClient)
			rateCounter = redisAdapter
			sharedCache = redisAdapter
		}
	}
	if !cfg.Reconciler.LockEnabled {
		locks = nil
	}

	// Initialize adapters
	var offers repositories.OfferRepository = database.NewOfferAdapter(dbClient, metrics)
	if cfg.Search.BreakerEnabled {
		offers = database.NewBreakerOfferRepository(offers, database.BreakerSettings{
			Name:        "offer-store",
			MaxFailures: cfg.Search.BreakerMaxFailures,
			OpenTimeout: cfg.Search.BreakerOpenTimeout,
		})
	}
	pharmacies := database.NewPharmacyAdapter(dbClient, metrics)
	accounts := database.NewAccountAdapter(dbClient, metrics)

	// Initialize services
	searchService := services.NewSearchService(offers, services.NewOfferRanker(), services.SearchLimits{
		Default: cfg.Search.DefaultLimit,
		Max:     cfg.Search.MaxLimit,
	})
	var (
		analyticsService *services.SearchAnalyticsService
		analyticsHandler *handlers.AnalyticsHandler
	)
	if cfg.Search.AnalyticsEnabled {
		analyticsService = services.NewSearchAnalyticsService(database.NewSearchAnalyticsAdapter(dbClient, metrics))
		searchService.WithTracker(analyticsService)
		analyticsHandler = handlers.NewAnalyticsHandler(analyticsService)
	}
	reconciler := services.NewPharmacyReconciler(accounts, pharmacies, locks, eventBus, services.ReconcilerOptions{
		LockTTL:        cfg.Reconciler.LockTTL,
		GeocodeTimeout: cfg.Geocoding.Timeout,
	})
	if cfg.Geocoding.GoogleAPIKey != "" {
		reconciler.WithGeocoder(geolocation.NewGoogleGeocoder(cfg.Geocoding.GoogleAPIKey, sharedCache, geolocation.Options{
			BaseURL: cfg.Geocoding.BaseURL,
			Region:  cfg.Geocoding.Region,
		}))
	}

	var assistant providers.AssistantProvider
	if cfg.OpenAI.APIKey != "" {
		openaiClient, err := openai.NewClient(&cfg.OpenAI)
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize OpenAI client, assistant disabled")
		} else {
			defer openaiClient.Close()
			assistant = openaiClient
		}
	}
	assistantService := services.NewAssistantService(assistant, searchService)
	if sharedCache != nil {
		assistantService.SetCache(sharedCache, cfg.OpenAI.ReplyCacheTTL)
	}

	// Initialize handlers
	checks := map[string]handlers.HealthCheck{"database": dbClient.Ping}
	if redisClient != nil {
		checks["redis"] = redisClient.Ping
	}

	var authenticator *middleware.Authenticator
	if cfg.Auth.JWTSecret != "" {
		authenticator = middleware.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	} else {
		log.Warn().Msg("JWT_SECRET not set, all callers are anonymous")
	}

	router := routes.NewRouter(
		handlers.NewSearchHandler(searchService),
		handlers.NewPharmacyHandler(reconciler),
		handlers.NewAssistantHandler(assistantService, rateCounter),
		handlers.NewHealthHandler(checks),
		analyticsHandler,
		authenticator,
		cfg.Server.CORSOrigins,
	)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.SetupRoutes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}
	if analyticsService != nil {
		analyticsService.Wait()
	}
	if err := eventBus.Close(); err != nil {
		log.Error().Err(err).Msg("error closing event bus")
	}

	log.Info().Msg("server stopped")
}
