package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zatekoja/medfinder/internal/api/handlers"
	"github.com/zatekoja/medfinder/internal/api/middleware"
)

// Router holds all route handlers
type Router struct {
	searchHandler    *handlers.SearchHandler
	pharmacyHandler  *handlers.PharmacyHandler
	assistantHandler *handlers.AssistantHandler
	healthHandler    *handlers.HealthHandler
	analyticsHandler *handlers.AnalyticsHandler

	authenticator  *middleware.Authenticator
	allowedOrigins []string
}

// NewRouter creates a new router
func NewRouter(
	searchHandler *handlers.SearchHandler,
	pharmacyHandler *handlers.PharmacyHandler,
	assistantHandler *handlers.AssistantHandler,
	healthHandler *handlers.HealthHandler,
	analyticsHandler *handlers.AnalyticsHandler,
	authenticator *middleware.Authenticator,
	allowedOrigins []string,
) *Router {
	return &Router{
		searchHandler:    searchHandler,
		pharmacyHandler:  pharmacyHandler,
		assistantHandler: assistantHandler,
		healthHandler:    healthHandler,
		analyticsHandler: analyticsHandler,
		authenticator:    authenticator,
		allowedOrigins:   allowedOrigins,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	mux := chi.NewRouter()

	// Order matters: recovery sits inside logging so panics are logged as 500s.
	mux.Use(middleware.CORSMiddleware(r.allowedOrigins))
	mux.Use(chimiddleware.RequestID)
	mux.Use(chimiddleware.RealIP)
	mux.Use(middleware.ObservabilityMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.RecoveryMiddleware)
	mux.Use(chimiddleware.Compress(5, "application/json"))

	// Health and metrics
	mux.Get("/health", r.healthHandler.Health)
	mux.Get("/ready", r.healthHandler.Ready)
	mux.Handle("/metrics", promhttp.Handler())

	mux.Route("/api", func(api chi.Router) {
		if r.authenticator != nil {
			api.Use(r.authenticator.Identify)
		}

		// Medication search
		api.Get("/medications/search", r.searchHandler.SearchMedications)

		// Pharmacy owner endpoints
		api.With(middleware.RequireAccount).Get("/pharmacies/me", r.pharmacyHandler.GetMyPharmacy)

		// Assistant
		api.Post("/assistant", r.assistantHandler.Ask)

		// Search demand analytics
		if r.analyticsHandler != nil {
			api.With(middleware.RequireAccount).Get("/analytics/zero-result-queries", r.analyticsHandler.GetZeroResultQueries)
		}
	})

	return mux
}
