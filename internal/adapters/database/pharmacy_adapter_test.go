package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/medfinder/internal/adapters/database"
	"github.com/zatekoja/medfinder/internal/domain/entities"
	apperrors "github.com/zatekoja/medfinder/pkg/errors"
)

var pharmacyColumns = []string{
	"id", "owner_id", "name", "license_number", "address", "city", "state", "phone",
	"latitude", "longitude", "is_active", "logo_url", "created_at", "updated_at",
}

func TestPharmacyAdapter_GetByOwnerID(t *testing.T) {
	client, mock := setupMockClient(t)
	adapter := database.NewPharmacyAdapter(client, nil)

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT (.+) FROM "pharmacies" WHERE \("owner_id" = \$1\)`).
		WillReturnRows(sqlmock.NewRows(pharmacyColumns).AddRow(
			"ph-1", "acct-1", "HealthPlus Yaba", "PCN-1", "12 Herbert Macaulay Way", "Yaba", "Lagos", "0800",
			6.53, 3.38, true, nil, now, now,
		))

	pharmacy, err := adapter.GetByOwnerID(context.Background(), "acct-1")
	require.NoError(t, err)
	assert.Equal(t, "ph-1", pharmacy.ID)
	assert.Equal(t, "acct-1", pharmacy.OwnerID)
	require.NotNil(t, pharmacy.Location)
	assert.Equal(t, 6.53, pharmacy.Location.Latitude)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPharmacyAdapter_GetByID_NotFound(t *testing.T) {
	client, mock := setupMockClient(t)
	adapter := database.NewPharmacyAdapter(client, nil)

	mock.ExpectQuery(`SELECT (.+) FROM "pharmacies" WHERE \("id" = \$1\)`).
		WillReturnRows(sqlmock.NewRows(pharmacyColumns))

	pharmacy, err := adapter.GetByID(context.Background(), "ph-stale")
	assert.Nil(t, pharmacy)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestPharmacyAdapter_GetByID_Timeout(t *testing.T) {
	client, mock := setupMockClient(t)
	adapter := database.NewPharmacyAdapter(client, nil)

	mock.ExpectQuery(`SELECT (.+) FROM "pharmacies"`).WillReturnError(context.DeadlineExceeded)

	_, err := adapter.GetByID(context.Background(), "ph-1")
	assert.True(t, apperrors.IsUnavailable(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPharmacyAdapter_Create(t *testing.T) {
	newPharmacy := func() *entities.Pharmacy {
		return &entities.Pharmacy{
			ID:            "ph-new",
			OwnerID:       "acct-9",
			Name:          "Alpha Pharmacy",
			LicenseNumber: "PCN-9",
			Address:       "1 Allen Avenue",
			City:          "Ikeja",
			State:         "Lagos",
			Phone:         "0801",
			IsActive:      true,
		}
	}

	t.Run("inserts and stamps timestamps", func(t *testing.T) {
		client, mock := setupMockClient(t)
		adapter := database.NewPharmacyAdapter(client, nil)

		mock.ExpectExec(`INSERT INTO "pharmacies"`).WillReturnResult(sqlmock.NewResult(0, 1))

		p := newPharmacy()
		require.NoError(t, adapter.Create(context.Background(), p))
		assert.False(t, p.CreatedAt.IsZero())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique owner violation is a conflict", func(t *testing.T) {
		client, mock := setupMockClient(t)
		adapter := database.NewPharmacyAdapter(client, nil)

		mock.ExpectExec(`INSERT INTO "pharmacies"`).
			WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

		err := adapter.Create(context.Background(), newPharmacy())
		assert.True(t, apperrors.IsConflict(err))
	})

	t.Run("other failures are unavailable", func(t *testing.T) {
		client, mock := setupMockClient(t)
		adapter := database.NewPharmacyAdapter(client, nil)

		mock.ExpectExec(`INSERT INTO "pharmacies"`).WillReturnError(errors.New("read-only transaction"))

		err := adapter.Create(context.Background(), newPharmacy())
		assert.True(t, apperrors.IsUnavailable(err))
	})
}
