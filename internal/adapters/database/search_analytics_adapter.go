package database

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/zatekoja/medfinder/internal/domain/entities"
	"github.com/zatekoja/medfinder/internal/domain/repositories"
	"github.com/zatekoja/medfinder/internal/infrastructure/clients/sqldb"
	"github.com/zatekoja/medfinder/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/medfinder/pkg/errors"
)

// SearchAnalyticsAdapter implements SearchAnalyticsRepository
type SearchAnalyticsAdapter struct {
	client  *sqldb.Client
	db      *goqu.Database
	metrics *observability.Metrics
}

// NewSearchAnalyticsAdapter creates a new search analytics adapter
func NewSearchAnalyticsAdapter(client *sqldb.Client, metrics *observability.Metrics) repositories.SearchAnalyticsRepository {
	return &SearchAnalyticsAdapter{
		client:  client,
		db:      client.Builder(),
		metrics: metrics,
	}
}

// LogEvent inserts one search event
func (a *SearchAnalyticsAdapter) LogEvent(ctx context.Context, event *entities.SearchEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	query, args, err := a.db.Insert("search_events").
		Rows(goqu.Record{
			"id":            event.ID,
			"term":          event.Term,
			"location":      nullString(event.Location),
			"category":      nullString(event.Category),
			"in_stock_only": event.InStockOnly,
			"has_origin":    event.HasOrigin,
			"result_count":  event.ResultCount,
			"latency_ms":    event.LatencyMs,
			"created_at":    event.CreatedAt,
		}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	ctx, cancel := a.client.WithQueryTimeout(ctx)
	defer cancel()

	start := time.Now()
	_, err = a.client.DB().ExecContext(ctx, query, args...)
	observability.RecordDBMetric(ctx, a.metrics, "log_search_event", time.Since(start), err)
	if err != nil {
		return mapStoreError(err, "failed to log search event")
	}
	return nil
}

type unmetDemandRow struct {
	Term       string       `db:"term"`
	Searches   int          `db:"searches"`
	LastSeenAt flexibleTime `db:"last_seen_at"`
}

// GetZeroResultQueries aggregates zero-result searches by term
func (a *SearchAnalyticsAdapter) GetZeroResultQueries(ctx context.Context, since time.Time, limit int) ([]*entities.UnmetDemand, error) {
	if limit <= 0 {
		limit = 100
	}

	query, args, err := a.db.From("search_events").
		Select(
			goqu.C("term"),
			goqu.COUNT("*").As("searches"),
			goqu.MAX("created_at").As("last_seen_at"),
		).
		Where(
			goqu.C("result_count").Eq(0),
			goqu.C("created_at").Gte(since.UTC()),
		).
		GroupBy("term").
		Order(goqu.I("searches").Desc(), goqu.I("last_seen_at").Desc()).
		Limit(uint(limit)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	ctx, cancel := a.client.WithQueryTimeout(ctx)
	defer cancel()

	start := time.Now()
	var rows []unmetDemandRow
	err = sqlx.SelectContext(ctx, a.client.DB(), &rows, query, args...)
	observability.RecordDBMetric(ctx, a.metrics, "zero_result_queries", time.Since(start), err)
	if err != nil {
		return nil, mapStoreError(err, "failed to get zero result queries")
	}

	demand := make([]*entities.UnmetDemand, 0, len(rows))
	for _, r := range rows {
		demand = append(demand, &entities.UnmetDemand{
			Term:       r.Term,
			Searches:   r.Searches,
			LastSeenAt: time.Time(r.LastSeenAt),
		})
	}
	return demand, nil
}

// flexibleTime scans aggregate timestamps, which SQLite returns as text
type flexibleTime time.Time

var flexibleTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func (t *flexibleTime) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*t = flexibleTime{}
		return nil
	case time.Time:
		*t = flexibleTime(v)
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
}

func (t *flexibleTime) parse(s string) error {
	for _, layout := range flexibleTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			*t = flexibleTime(parsed)
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}
