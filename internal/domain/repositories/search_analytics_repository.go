package repositories

import (
	"context"
	"time"

	"github.com/zatekoja/medfinder/internal/domain/entities"
)

// SearchAnalyticsRepository stores search events
type SearchAnalyticsRepository interface {
	LogEvent(ctx context.Context, event *entities.SearchEvent) error
	// GetZeroResultQueries returns the terms most often searched without a
	// match since the given time, most frequent first.
	GetZeroResultQueries(ctx context.Context, since time.Time, limit int) ([]*entities.UnmetDemand, error)
}
