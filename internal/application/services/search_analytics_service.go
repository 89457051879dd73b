package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/medfinder/internal/domain/entities"
	"github.com/zatekoja/medfinder/internal/domain/repositories"
	"github.com/zatekoja/medfinder/internal/infrastructure/observability"
)

const (
	defaultDemandWindow = 30 * 24 * time.Hour
	maxDemandResults    = 500
	trackTimeout        = 5 * time.Second
)

// SearchTracker receives completed searches
type SearchTracker interface {
	TrackSearch(ctx context.Context, event *entities.SearchEvent)
}

// SearchAnalyticsService records search demand and reports terms that found
// no stock anywhere.
type SearchAnalyticsService struct {
	repo     repositories.SearchAnalyticsRepository
	inflight sync.WaitGroup
	now      func() time.Time
}

// NewSearchAnalyticsService creates a new search analytics service
func NewSearchAnalyticsService(repo repositories.SearchAnalyticsRepository) *SearchAnalyticsService {
	return &SearchAnalyticsService{repo: repo, now: time.Now}
}

// TrackSearch stores the event in the background. The caller's request is
// never delayed or failed by analytics.
func (s *SearchAnalyticsService) TrackSearch(ctx context.Context, event *entities.SearchEvent) {
	event.Term = strings.ToLower(strings.TrimSpace(event.Term))
	if event.Term == "" {
		return
	}

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()

		bgCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), trackTimeout)
		defer cancel()

		if err := s.repo.LogEvent(bgCtx, event); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("term", event.Term).Msg("failed to log search event")
		}
	}()
}

// Wait blocks until queued events are written
func (s *SearchAnalyticsService) Wait() {
	s.inflight.Wait()
}

// GetZeroResultQueries returns the most searched terms with no results
// within window. Zero values select 30 days and 100 terms.
func (s *SearchAnalyticsService) GetZeroResultQueries(ctx context.Context, window time.Duration, limit int) ([]*entities.UnmetDemand, error) {
	if window <= 0 {
		window = defaultDemandWindow
	}
	if limit <= 0 {
		limit = 100
	}
	if limit > maxDemandResults {
		limit = maxDemandResults
	}

	demand, err := s.repo.GetZeroResultQueries(ctx, s.now().Add(-window), limit)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to load zero result queries")
		return nil, err
	}
	return demand, nil
}
