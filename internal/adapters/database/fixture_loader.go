package database

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/zatekoja/medfinder/internal/domain/entities"
	"github.com/zatekoja/medfinder/internal/infrastructure/clients/sqldb"
	apperrors "github.com/zatekoja/medfinder/pkg/errors"
)

// FixtureSet is the data inserted by the seed command
type FixtureSet struct {
	Accounts   []*entities.Account
	Pharmacies []*entities.Pharmacy
	Offers     []*entities.DrugOffer
}

// FixtureStats counts the rows actually inserted; existing ids are skipped
type FixtureStats struct {
	Accounts   int64
	Pharmacies int64
	Offers     int64
}

// FixtureLoader inserts seed data, leaving rows that already exist untouched
type FixtureLoader struct {
	client *sqldb.Client
	db     *goqu.Database
}

// NewFixtureLoader creates a new fixture loader
func NewFixtureLoader(client *sqldb.Client) *FixtureLoader {
	return &FixtureLoader{client: client, db: client.Builder()}
}

// Load inserts accounts, then pharmacies, then offers
func (l *FixtureLoader) Load(ctx context.Context, set FixtureSet) (*FixtureStats, error) {
	stats := &FixtureStats{}
	now := time.Now().UTC()

	for _, account := range set.Accounts {
		pending, err := account.PendingPharmacy.Value()
		if err != nil {
			return stats, apperrors.NewValidationError("invalid pending pharmacy profile for account " + account.ID)
		}
		n, err := l.insert(ctx, "accounts", goqu.Record{
			"id":               account.ID,
			"role":             string(account.Role),
			"pharmacy_id":      nullStringPtr(account.PharmacyID),
			"pending_pharmacy": pending,
			"created_at":       now,
			"updated_at":       now,
		})
		if err != nil {
			return stats, err
		}
		stats.Accounts += n
	}

	for _, pharmacy := range set.Pharmacies {
		if pharmacy.CreatedAt.IsZero() {
			pharmacy.CreatedAt = now
		}
		if pharmacy.UpdatedAt.IsZero() {
			pharmacy.UpdatedAt = now
		}
		n, err := l.insert(ctx, "pharmacies", pharmacyRecord(pharmacy))
		if err != nil {
			return stats, err
		}
		stats.Pharmacies += n
	}

	for _, offer := range set.Offers {
		if offer.UpdatedAt.IsZero() {
			offer.UpdatedAt = now
		}
		if offer.QuantityInStock < 0 {
			return stats, apperrors.NewValidationError("negative stock quantity for offer " + offer.ID)
		}
		n, err := l.insert(ctx, "drug_offers", offerRecord(offer))
		if err != nil {
			return stats, err
		}
		stats.Offers += n
	}

	return stats, nil
}

func (l *FixtureLoader) insert(ctx context.Context, table string, record goqu.Record) (int64, error) {
	query, args, err := l.db.Insert(table).
		Rows(record).
		OnConflict(goqu.DoNothing()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build insert into "+table, err)
	}

	result, err := l.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return 0, mapStoreError(err, "failed to insert into "+table)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}

func offerRecord(o *entities.DrugOffer) goqu.Record {
	record := goqu.Record{
		"id":                    o.ID,
		"pharmacy_id":           o.PharmacyID,
		"name":                  o.Name,
		"generic_name":          nullString(o.GenericName),
		"brand_name":            nullString(o.BrandName),
		"category":              nullString(o.Category),
		"dosage_form":           nullString(o.DosageForm),
		"strength":              nullString(o.Strength),
		"unit_price":            o.UnitPrice.StringFixed(2),
		"quantity_in_stock":     o.QuantityInStock,
		"low_stock_threshold":   o.LowStockThreshold,
		"requires_prescription": o.RequiresPrescription,
		"manufacturer":          nullString(o.Manufacturer),
		"expiry_date":           nil,
		"created_at":            o.UpdatedAt,
		"updated_at":            o.UpdatedAt,
	}
	if o.ExpiryDate != nil {
		record["expiry_date"] = *o.ExpiryDate
	}
	return record
}

func nullStringPtr(s *string) interface{} {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}
