package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/zatekoja/medfinder/internal/domain/entities"
)

// MedicationSearcher defines the search operation used by the handler
type MedicationSearcher interface {
	Search(ctx context.Context, query entities.SearchQuery) (*entities.SearchResult, error)
}

// SearchHandler handles medication search requests
type SearchHandler struct {
	service MedicationSearcher
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(service MedicationSearcher) *SearchHandler {
	return &SearchHandler{service: service}
}

// SearchMedications handles GET /api/medications/search
func (h *SearchHandler) SearchMedications(w http.ResponseWriter, r *http.Request) {
	query, message := parseSearchQuery(r)
	if message != "" {
		respondWithError(w, http.StatusBadRequest, message)
		return
	}

	result, err := h.service.Search(r.Context(), query)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// parseSearchQuery reads the search parameters. It returns a client error
// message for values that are present but malformed.
func parseSearchQuery(r *http.Request) (entities.SearchQuery, string) {
	values := r.URL.Query()

	term := values.Get("q")
	if term == "" {
		term = values.Get("term")
	}

	query := entities.SearchQuery{
		Term:     strings.TrimSpace(term),
		Location: strings.TrimSpace(values.Get("location")),
		Category: strings.TrimSpace(values.Get("category")),
	}
	if query.Term == "" {
		return query, "search term is required"
	}

	if raw := strings.TrimSpace(values.Get("in_stock")); raw != "" {
		inStock, err := strconv.ParseBool(raw)
		if err != nil {
			return query, "in_stock must be true or false"
		}
		query.InStockOnly = inStock
	}

	var err error
	if query.Latitude, err = optionalFloat(values.Get("lat")); err != nil {
		return query, "lat must be a number"
	}
	if query.Longitude, err = optionalFloat(values.Get("lng")); err != nil {
		return query, "lng must be a number"
	}

	if raw := strings.TrimSpace(values.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return query, "limit must be a non-negative integer"
		}
		query.Limit = limit
	}

	return query, ""
}

func optionalFloat(raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
