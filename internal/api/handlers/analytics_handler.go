package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/zatekoja/medfinder/internal/domain/entities"
)

// DemandReporter reports medication searches that found nothing
type DemandReporter interface {
	GetZeroResultQueries(ctx context.Context, window time.Duration, limit int) ([]*entities.UnmetDemand, error)
}

// AnalyticsHandler exposes search demand to pharmacy owners
type AnalyticsHandler struct {
	reporter DemandReporter
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(reporter DemandReporter) *AnalyticsHandler {
	return &AnalyticsHandler{reporter: reporter}
}

// GetZeroResultQueries handles GET /api/analytics/zero-result-queries
func (h *AnalyticsHandler) GetZeroResultQueries(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			respondWithError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = v
	}

	var window time.Duration
	if raw := r.URL.Query().Get("days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days <= 0 || days > 365 {
			respondWithError(w, http.StatusBadRequest, "days must be between 1 and 365")
			return
		}
		window = time.Duration(days) * 24 * time.Hour
	}

	demand, err := h.reporter.GetZeroResultQueries(r.Context(), window, limit)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	if demand == nil {
		demand = []*entities.UnmetDemand{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"queries": demand,
		"count":   len(demand),
	})
}
