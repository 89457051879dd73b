package services

import (
	"context"
	"strings"
	"time"

	"github.com/zatekoja/medfinder/internal/domain/entities"
	"github.com/zatekoja/medfinder/internal/domain/repositories"
	"github.com/zatekoja/medfinder/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/medfinder/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// SearchLimits bounds how many offers a single search may return
type SearchLimits struct {
	Default int
	Max     int
}

// SearchService answers medication searches against the offer store
type SearchService struct {
	offers  repositories.OfferRepository
	ranker  *OfferRanker
	limits  SearchLimits
	tracker SearchTracker
}

// NewSearchService creates a new search service
func NewSearchService(offers repositories.OfferRepository, ranker *OfferRanker, limits SearchLimits) *SearchService {
	if ranker == nil {
		ranker = NewOfferRanker()
	}
	if limits.Max <= 0 {
		limits.Max = 200
	}
	if limits.Default <= 0 || limits.Default > limits.Max {
		limits.Default = min(50, limits.Max)
	}
	return &SearchService{offers: offers, ranker: ranker, limits: limits}
}

// WithTracker reports every successful patient search to tracker
func (s *SearchService) WithTracker(tracker SearchTracker) *SearchService {
	s.tracker = tracker
	return s
}

// Search validates the query, reads matching offers and ranks them. A store
// failure is returned as an unavailable error and never as an empty result.
func (s *SearchService) Search(ctx context.Context, query entities.SearchQuery) (*entities.SearchResult, error) {
	ctx, span := observability.StartSpan(ctx, "SearchService.Search")
	defer span.End()
	return s.search(ctx, query, true)
}

// Lookup is Search for internal callers; it is never reported to the tracker.
func (s *SearchService) Lookup(ctx context.Context, query entities.SearchQuery) (*entities.SearchResult, error) {
	ctx, span := observability.StartSpan(ctx, "SearchService.Lookup")
	defer span.End()
	return s.search(ctx, query, false)
}

func (s *SearchService) search(ctx context.Context, query entities.SearchQuery, track bool) (*entities.SearchResult, error) {
	span := trace.SpanFromContext(ctx)
	start := time.Now()

	logger := observability.LoggerFromContext(ctx)

	query.Term = strings.TrimSpace(query.Term)
	query.Location = strings.TrimSpace(query.Location)
	query.Category = strings.TrimSpace(query.Category)
	if query.Term == "" {
		observability.SearchRequestsTotal.WithLabelValues(observability.OutcomeInvalid).Inc()
		return nil, apperrors.NewValidationError("search term is required")
	}
	query.Limit = s.clampLimit(query.Limit)

	_, hasOrigin := query.Origin()
	observability.SetSpanAttributes(span,
		attribute.String("search.term", query.Term),
		attribute.String("search.category", query.Category),
		attribute.Bool("search.in_stock_only", query.InStockOnly),
		attribute.Bool("search.has_origin", hasOrigin),
		attribute.Int("search.limit", query.Limit),
	)

	rows, err := s.offers.SearchOffers(ctx, repositories.OfferQuery{
		Term:        query.Term,
		Category:    query.Category,
		InStockOnly: query.InStockOnly,
		Limit:       s.storeLimit(&query, hasOrigin),
	})
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		observability.RecordError(span, err)
		observability.SearchRequestsTotal.WithLabelValues(observability.OutcomeUnavailable).Inc()
		logger.Error().Err(err).Str("term", query.Term).Msg("offer store read failed")
		if apperrors.IsUnavailable(err) {
			return nil, err
		}
		return nil, apperrors.NewUnavailableError("medication search is temporarily unavailable", err)
	}

	ranked := s.ranker.Rank(rows, &query)
	if len(ranked) > query.Limit {
		ranked = ranked[:query.Limit]
	}

	observability.SearchRequestsTotal.WithLabelValues(observability.OutcomeSuccess).Inc()
	observability.SearchResultsReturned.Observe(float64(len(ranked)))
	span.SetAttributes(attribute.Int("search.results", len(ranked)))
	logger.Debug().
		Str("term", query.Term).
		Int("store_rows", len(rows)).
		Int("results", len(ranked)).
		Msg("medication search completed")

	if track && s.tracker != nil {
		s.tracker.TrackSearch(ctx, &entities.SearchEvent{
			Term:        query.Term,
			Location:    query.Location,
			Category:    query.Category,
			InStockOnly: query.InStockOnly,
			HasOrigin:   hasOrigin,
			ResultCount: len(ranked),
			LatencyMs:   time.Since(start).Milliseconds(),
		})
	}

	return &entities.SearchResult{
		Offers:  ranked,
		Count:   len(ranked),
		Query:   query.Term,
		Filters: query.Filters(),
	}, nil
}

func (s *SearchService) clampLimit(limit int) int {
	if limit <= 0 {
		return s.limits.Default
	}
	if limit > s.limits.Max {
		return s.limits.Max
	}
	return limit
}

// storeLimit is the row cap pushed to the store. When rows are dropped or
// reordered in process every match is read (zero), so the caller's limit
// applies to the ranked list and never to an arbitrary slice of it.
func (s *SearchService) storeLimit(query *entities.SearchQuery, hasOrigin bool) int {
	if query.Location != "" || hasOrigin {
		return 0
	}
	return query.Limit
}
