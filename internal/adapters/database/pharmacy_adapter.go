package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"
	"github.com/zatekoja/medfinder/internal/domain/entities"
	"github.com/zatekoja/medfinder/internal/domain/repositories"
	"github.com/zatekoja/medfinder/internal/infrastructure/clients/sqldb"
	"github.com/zatekoja/medfinder/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/medfinder/pkg/errors"
)

var pharmacyColumns = []string{
	"id", "owner_id", "name", "license_number", "address", "city", "state", "phone",
	"latitude", "longitude", "is_active", "logo_url", "created_at", "updated_at",
}

// pharmacyRow mirrors the pharmacies table with every nullable column explicit
type pharmacyRow struct {
	ID            string          `db:"id"`
	OwnerID       sql.NullString  `db:"owner_id"`
	Name          sql.NullString  `db:"name"`
	LicenseNumber sql.NullString  `db:"license_number"`
	Address       sql.NullString  `db:"address"`
	City          sql.NullString  `db:"city"`
	State         sql.NullString  `db:"state"`
	Phone         sql.NullString  `db:"phone"`
	Latitude      sql.NullFloat64 `db:"latitude"`
	Longitude     sql.NullFloat64 `db:"longitude"`
	IsActive      sql.NullBool    `db:"is_active"`
	LogoURL       sql.NullString  `db:"logo_url"`
	CreatedAt     sql.NullTime    `db:"created_at"`
	UpdatedAt     sql.NullTime    `db:"updated_at"`
}

func (r *pharmacyRow) toEntity() entities.Pharmacy {
	p := entities.Pharmacy{
		ID:            r.ID,
		OwnerID:       r.OwnerID.String,
		Name:          r.Name.String,
		LicenseNumber: r.LicenseNumber.String,
		Address:       r.Address.String,
		City:          r.City.String,
		State:         r.State.String,
		Phone:         r.Phone.String,
		IsActive:      r.IsActive.Valid && r.IsActive.Bool,
		LogoURL:       r.LogoURL.String,
		CreatedAt:     r.CreatedAt.Time,
		UpdatedAt:     r.UpdatedAt.Time,
	}
	// Coordinates are usable only as a pair.
	if r.Latitude.Valid && r.Longitude.Valid {
		p.Location = &entities.Location{
			Latitude:  r.Latitude.Float64,
			Longitude: r.Longitude.Float64,
		}
	}
	return p
}

// PharmacyAdapter implements the PharmacyRepository interface
type PharmacyAdapter struct {
	client  *sqldb.Client
	db      *goqu.Database
	metrics *observability.Metrics
}

// NewPharmacyAdapter creates a new pharmacy adapter
func NewPharmacyAdapter(client *sqldb.Client, metrics *observability.Metrics) repositories.PharmacyRepository {
	return &PharmacyAdapter{
		client:  client,
		db:      client.Builder(),
		metrics: metrics,
	}
}

// GetByID retrieves a pharmacy by ID
func (a *PharmacyAdapter) GetByID(ctx context.Context, id string) (*entities.Pharmacy, error) {
	return a.getByField(ctx, "get_pharmacy_by_id", "id", id)
}

// GetByOwnerID retrieves the pharmacy owned by an account
func (a *PharmacyAdapter) GetByOwnerID(ctx context.Context, ownerID string) (*entities.Pharmacy, error) {
	return a.getByField(ctx, "get_pharmacy_by_owner", "owner_id", ownerID)
}

func (a *PharmacyAdapter) getByField(ctx context.Context, operation, field, value string) (*entities.Pharmacy, error) {
	cols := make([]interface{}, len(pharmacyColumns))
	for i, c := range pharmacyColumns {
		cols[i] = c
	}

	query, args, err := a.db.From("pharmacies").
		Select(cols...).
		Where(goqu.Ex{field: value}).
		Limit(1).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	ctx, cancel := a.client.WithQueryTimeout(ctx)
	defer cancel()

	start := time.Now()
	var row pharmacyRow
	err = sqlx.GetContext(ctx, a.client.DB(), &row, query, args...)
	observability.RecordDBMetric(ctx, a.metrics, operation, time.Since(start), ignoreNoRows(err))
	if err != nil {
		return nil, mapStoreError(err, fmt.Sprintf("pharmacy with %s %s not found", field, value))
	}

	pharmacy := row.toEntity()
	return &pharmacy, nil
}

// Create inserts a new pharmacy. The store enforces one pharmacy per owner,
// so a concurrent duplicate surfaces as a conflict error.
func (a *PharmacyAdapter) Create(ctx context.Context, pharmacy *entities.Pharmacy) error {
	now := time.Now().UTC()
	if pharmacy.CreatedAt.IsZero() {
		pharmacy.CreatedAt = now
	}
	if pharmacy.UpdatedAt.IsZero() {
		pharmacy.UpdatedAt = now
	}

	query, args, err := a.db.Insert("pharmacies").
		Rows(pharmacyRecord(pharmacy)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	ctx, cancel := a.client.WithQueryTimeout(ctx)
	defer cancel()

	start := time.Now()
	_, err = a.client.DB().ExecContext(ctx, query, args...)
	observability.RecordDBMetric(ctx, a.metrics, "create_pharmacy", time.Since(start), err)
	if err != nil {
		return mapStoreError(err, fmt.Sprintf("failed to create pharmacy for owner %s", pharmacy.OwnerID))
	}

	return nil
}

func pharmacyRecord(p *entities.Pharmacy) goqu.Record {
	record := goqu.Record{
		"id":             p.ID,
		"owner_id":       p.OwnerID,
		"name":           p.Name,
		"license_number": nullString(p.LicenseNumber),
		"address":        nullString(p.Address),
		"city":           nullString(p.City),
		"state":          nullString(p.State),
		"phone":          nullString(p.Phone),
		"latitude":       sql.NullFloat64{},
		"longitude":      sql.NullFloat64{},
		"is_active":      p.IsActive,
		"logo_url":       nullString(p.LogoURL),
		"created_at":     p.CreatedAt,
		"updated_at":     p.UpdatedAt,
	}
	if p.Location != nil {
		record["latitude"] = sql.NullFloat64{Float64: p.Location.Latitude, Valid: true}
		record["longitude"] = sql.NullFloat64{Float64: p.Location.Longitude, Valid: true}
	}
	return record
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// ignoreNoRows keeps expected absences out of the error metric
func ignoreNoRows(err error) error {
	if err == sql.ErrNoRows {
		return nil
	}
	return err
}
