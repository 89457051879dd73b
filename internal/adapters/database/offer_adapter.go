package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/zatekoja/medfinder/internal/domain/entities"
	"github.com/zatekoja/medfinder/internal/domain/repositories"
	"github.com/zatekoja/medfinder/internal/infrastructure/clients/sqldb"
	"github.com/zatekoja/medfinder/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/medfinder/pkg/errors"
)

var drugOfferColumns = []string{
	"id", "pharmacy_id", "name", "generic_name", "brand_name", "category",
	"dosage_form", "strength", "unit_price", "quantity_in_stock", "low_stock_threshold",
	"requires_prescription", "manufacturer", "expiry_date", "updated_at",
}

// drugOfferRow mirrors the drug_offers table with every nullable column explicit
type drugOfferRow struct {
	ID                   string              `db:"id"`
	PharmacyID           string              `db:"pharmacy_id"`
	Name                 sql.NullString      `db:"name"`
	GenericName          sql.NullString      `db:"generic_name"`
	BrandName            sql.NullString      `db:"brand_name"`
	Category             sql.NullString      `db:"category"`
	DosageForm           sql.NullString      `db:"dosage_form"`
	Strength             sql.NullString      `db:"strength"`
	UnitPrice            decimal.NullDecimal `db:"unit_price"`
	QuantityInStock      sql.NullInt64       `db:"quantity_in_stock"`
	LowStockThreshold    sql.NullInt64       `db:"low_stock_threshold"`
	RequiresPrescription sql.NullBool        `db:"requires_prescription"`
	Manufacturer         sql.NullString      `db:"manufacturer"`
	ExpiryDate           sql.NullTime        `db:"expiry_date"`
	UpdatedAt            sql.NullTime        `db:"updated_at"`
}

func (r *drugOfferRow) toEntity() entities.DrugOffer {
	offer := entities.DrugOffer{
		ID:                   r.ID,
		PharmacyID:           r.PharmacyID,
		Name:                 r.Name.String,
		GenericName:          r.GenericName.String,
		BrandName:            r.BrandName.String,
		Category:             r.Category.String,
		DosageForm:           r.DosageForm.String,
		Strength:             r.Strength.String,
		UnitPrice:            r.UnitPrice.Decimal,
		QuantityInStock:      int(r.QuantityInStock.Int64),
		LowStockThreshold:    entities.DefaultLowStockThreshold,
		RequiresPrescription: r.RequiresPrescription.Bool,
		Manufacturer:         r.Manufacturer.String,
		UpdatedAt:            r.UpdatedAt.Time,
	}
	if r.LowStockThreshold.Valid {
		offer.LowStockThreshold = int(r.LowStockThreshold.Int64)
	}
	if r.ExpiryDate.Valid {
		expiry := r.ExpiryDate.Time
		offer.ExpiryDate = &expiry
	}
	return offer
}

// pharmacyOfferRow is one joined row; columns are aliased "offer.<col>" and "pharmacy.<col>"
type pharmacyOfferRow struct {
	Offer    drugOfferRow `db:"offer"`
	Pharmacy pharmacyRow  `db:"pharmacy"`
}

// OfferAdapter implements the OfferRepository interface
type OfferAdapter struct {
	client  *sqldb.Client
	db      *goqu.Database
	metrics *observability.Metrics
}

// NewOfferAdapter creates a new offer adapter
func NewOfferAdapter(client *sqldb.Client, metrics *observability.Metrics) repositories.OfferRepository {
	return &OfferAdapter{
		client:  client,
		db:      client.Builder(),
		metrics: metrics,
	}
}

// likeEscaper makes every character of a search term match literally
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsMatch is a case-insensitive LIKE with an explicit escape character.
// SQLite's LIKE already ignores ASCII case and has no ILIKE.
func (a *OfferAdapter) containsMatch(column, pattern string) exp.Expression {
	op := "ILIKE"
	if a.client.Driver() == sqldb.DriverSQLite {
		op = "LIKE"
	}
	return goqu.L("? "+op+" ? ESCAPE '\\'", goqu.I(column), pattern)
}

// SearchOffers selects offers of active pharmacies matching the term, newest
// first. A zero Limit reads every match.
func (a *OfferAdapter) SearchOffers(ctx context.Context, q repositories.OfferQuery) ([]*entities.PharmacyOffer, error) {
	pattern := "%" + likeEscaper.Replace(q.Term) + "%"

	where := []exp.Expression{
		goqu.I("p.is_active").IsTrue(),
		goqu.Or(
			a.containsMatch("o.name", pattern),
			a.containsMatch("o.generic_name", pattern),
			a.containsMatch("o.brand_name", pattern),
		),
	}
	if q.Category != "" {
		where = append(where, goqu.I("o.category").Eq(q.Category))
	}
	if q.InStockOnly {
		where = append(where, goqu.I("o.quantity_in_stock").Gt(0))
	}

	cols := append(aliasedColumns("o", "offer", drugOfferColumns), aliasedColumns("p", "pharmacy", pharmacyColumns)...)

	ds := a.db.From(goqu.T("drug_offers").As("o")).
		InnerJoin(goqu.T("pharmacies").As("p"), goqu.On(goqu.I("o.pharmacy_id").Eq(goqu.I("p.id")))).
		Select(cols...).
		Where(where...).
		Order(goqu.I("o.updated_at").Desc(), goqu.I("o.id").Asc())
	if q.Limit > 0 {
		ds = ds.Limit(uint(q.Limit))
	}

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build offer search query", err)
	}

	ctx, cancel := a.client.WithQueryTimeout(ctx)
	defer cancel()

	start := time.Now()
	var rows []pharmacyOfferRow
	err = sqlx.SelectContext(ctx, a.client.DB(), &rows, query, args...)
	observability.RecordDBMetric(ctx, a.metrics, "search_offers", time.Since(start), err)
	if err != nil {
		return nil, apperrors.NewUnavailableError("failed to search offers", err)
	}

	logger := observability.LoggerFromContext(ctx)
	offers := make([]*entities.PharmacyOffer, 0, len(rows))
	for i := range rows {
		item := &entities.PharmacyOffer{
			Offer:    rows[i].Offer.toEntity(),
			Pharmacy: rows[i].Pharmacy.toEntity(),
		}
		if item.Offer.Normalize() {
			logger.Warn().
				Str("offer_id", item.Offer.ID).
				Int64("quantity_in_stock", rows[i].Offer.QuantityInStock.Int64).
				Msg("negative stock quantity clamped to zero")
		}
		offers = append(offers, item)
	}

	return offers, nil
}

// aliasedColumns renders "<table>.<col> AS \"<prefix>.<col>\"" so sqlx can
// scan a join into nested row structs.
func aliasedColumns(table, prefix string, columns []string) []interface{} {
	out := make([]interface{}, 0, len(columns))
	for _, c := range columns {
		out = append(out, goqu.L(fmt.Sprintf(`%s.%s AS %q`, table, c, prefix+"."+c)))
	}
	return out
}
