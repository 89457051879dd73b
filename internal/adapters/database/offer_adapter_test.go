package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/medfinder/internal/adapters/database"
	"github.com/zatekoja/medfinder/internal/domain/repositories"
	"github.com/zatekoja/medfinder/internal/infrastructure/clients/sqldb"
	apperrors "github.com/zatekoja/medfinder/pkg/errors"
)

func setupMockClient(t *testing.T) (*sqldb.Client, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}
	t.Cleanup(func() { mockDB.Close() })
	return sqldb.NewFromDB(mockDB, sqldb.DriverPostgres), mock
}

var joinedColumns = []string{
	"offer.id", "offer.pharmacy_id", "offer.name", "offer.generic_name", "offer.brand_name",
	"offer.category", "offer.dosage_form", "offer.strength", "offer.unit_price",
	"offer.quantity_in_stock", "offer.low_stock_threshold", "offer.requires_prescription",
	"offer.manufacturer", "offer.expiry_date", "offer.updated_at",
	"pharmacy.id", "pharmacy.owner_id", "pharmacy.name", "pharmacy.license_number",
	"pharmacy.address", "pharmacy.city", "pharmacy.state", "pharmacy.phone",
	"pharmacy.latitude", "pharmacy.longitude", "pharmacy.is_active", "pharmacy.logo_url",
	"pharmacy.created_at", "pharmacy.updated_at",
}

const searchQueryPattern = `SELECT (.+) FROM "drug_offers" AS "o" INNER JOIN "pharmacies" AS "p" (.+) ILIKE (.+) ORDER BY "o"."updated_at" DESC`

func TestOfferAdapter_SearchOffers_NormalizesRows(t *testing.T) {
	client, mock := setupMockClient(t)
	adapter := database.NewOfferAdapter(client, nil)

	updated := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(joinedColumns).
		AddRow(
			"off-1", "ph-1", "Paracetamol 500mg", "Acetaminophen", nil,
			"analgesic", "tablet", "500mg", "500.00",
			int64(-4), nil, false,
			"Emzor", nil, updated,
			"ph-1", "acct-1", "HealthPlus Yaba", "PCN-1",
			"12 Herbert Macaulay Way", "Yaba", "Lagos", "0800",
			6.53, nil, true, nil,
			updated, updated,
		).
		AddRow(
			"off-2", "ph-2", "Panadol Extra", "Paracetamol", "Panadol",
			"analgesic", "tablet", "500mg", "1200",
			int64(25), int64(30), false,
			nil, nil, updated,
			"ph-2", "acct-2", "MedPlus Ikeja", "PCN-2",
			nil, "Ikeja", "Lagos", nil,
			6.6018, 3.3515, true, "https://cdn.example/logo.png",
			updated, updated,
		)

	mock.ExpectQuery(searchQueryPattern).WillReturnRows(rows)

	offers, err := adapter.SearchOffers(context.Background(), repositories.OfferQuery{Term: "paracetamol", Limit: 50})
	require.NoError(t, err)
	require.Len(t, offers, 2)

	first := offers[0]
	assert.Equal(t, "off-1", first.Offer.ID)
	assert.Equal(t, 0, first.Offer.QuantityInStock)
	assert.Equal(t, 10, first.Offer.LowStockThreshold)
	assert.Equal(t, "", first.Offer.BrandName)
	assert.True(t, first.Offer.UnitPrice.Equal(decimal.NewFromInt(500)))
	assert.Nil(t, first.Pharmacy.Location, "half-present coordinates must be dropped")
	assert.True(t, first.Pharmacy.IsActive)

	second := offers[1]
	assert.Equal(t, 30, second.Offer.LowStockThreshold)
	require.NotNil(t, second.Pharmacy.Location)
	assert.Equal(t, 3.3515, second.Pharmacy.Location.Longitude)
	assert.Equal(t, "", second.Pharmacy.Address)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOfferAdapter_SearchOffers_PushesDownFilters(t *testing.T) {
	client, mock := setupMockClient(t)
	adapter := database.NewOfferAdapter(client, nil)

	mock.ExpectQuery(`"p"."is_active" IS TRUE(.+)"o"."category" = (.+)"o"."quantity_in_stock" > `).
		WillReturnRows(sqlmock.NewRows(joinedColumns))

	offers, err := adapter.SearchOffers(context.Background(), repositories.OfferQuery{
		Term:        "amox",
		Category:    "antibiotic",
		InStockOnly: true,
	})
	require.NoError(t, err)
	assert.Empty(t, offers)
	assert.NotNil(t, offers)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOfferAdapter_SearchOffers_MatchesTermLiterally(t *testing.T) {
	client, mock := setupMockClient(t)
	adapter := database.NewOfferAdapter(client, nil)

	pattern := `%50\%\_off\\%`
	mock.ExpectQuery(`ILIKE \$1 ESCAPE '\\'(.+)ILIKE \$2 ESCAPE '\\'(.+)ILIKE \$3 ESCAPE '\\'(.+)"o"."id" ASC$`).
		WithArgs(pattern, pattern, pattern).
		WillReturnRows(sqlmock.NewRows(joinedColumns))

	offers, err := adapter.SearchOffers(context.Background(), repositories.OfferQuery{Term: `50%_off\`})
	require.NoError(t, err)
	assert.Empty(t, offers)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOfferAdapter_SearchOffers_AppliesLimit(t *testing.T) {
	client, mock := setupMockClient(t)
	adapter := database.NewOfferAdapter(client, nil)

	mock.ExpectQuery(`"o"."id" ASC LIMIT \$4$`).
		WithArgs("%amox%", "%amox%", "%amox%", int64(25)).
		WillReturnRows(sqlmock.NewRows(joinedColumns))

	_, err := adapter.SearchOffers(context.Background(), repositories.OfferQuery{Term: "amox", Limit: 25})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOfferAdapter_SearchOffers_StoreFailure(t *testing.T) {
	client, mock := setupMockClient(t)
	adapter := database.NewOfferAdapter(client, nil)

	mock.ExpectQuery(searchQueryPattern).WillReturnError(errors.New("connection refused"))

	offers, err := adapter.SearchOffers(context.Background(), repositories.OfferQuery{Term: "paracetamol"})
	assert.Nil(t, offers)
	assert.True(t, apperrors.IsUnavailable(err))
}
