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

type accountRow struct {
	ID              string         `db:"id"`
	Role            sql.NullString `db:"role"`
	PharmacyID      sql.NullString `db:"pharmacy_id"`
	PendingPharmacy sql.NullString `db:"pending_pharmacy"`
	CreatedAt       sql.NullTime   `db:"created_at"`
	UpdatedAt       sql.NullTime   `db:"updated_at"`
}

// AccountAdapter implements the AccountRepository interface
type AccountAdapter struct {
	client  *sqldb.Client
	db      *goqu.Database
	metrics *observability.Metrics
}

// NewAccountAdapter creates a new account adapter
func NewAccountAdapter(client *sqldb.Client, metrics *observability.Metrics) repositories.AccountRepository {
	return &AccountAdapter{
		client:  client,
		db:      client.Builder(),
		metrics: metrics,
	}
}

// GetByID retrieves an account by ID
func (a *AccountAdapter) GetByID(ctx context.Context, id string) (*entities.Account, error) {
	query, args, err := a.db.From("accounts").
		Select("id", "role", "pharmacy_id", "pending_pharmacy", "created_at", "updated_at").
		Where(goqu.Ex{"id": id}).
		Limit(1).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	ctx, cancel := a.client.WithQueryTimeout(ctx)
	defer cancel()

	start := time.Now()
	var row accountRow
	err = sqlx.GetContext(ctx, a.client.DB(), &row, query, args...)
	observability.RecordDBMetric(ctx, a.metrics, "get_account", time.Since(start), ignoreNoRows(err))
	if err != nil {
		return nil, mapStoreError(err, fmt.Sprintf("account with id %s not found", id))
	}

	account := &entities.Account{
		ID:        row.ID,
		Role:      entities.AccountRole(row.Role.String),
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
	if row.PharmacyID.Valid && row.PharmacyID.String != "" {
		pharmacyID := row.PharmacyID.String
		account.PharmacyID = &pharmacyID
	}
	if row.PendingPharmacy.Valid {
		var profile entities.PendingPharmacyProfile
		if err := profile.Scan(row.PendingPharmacy.String); err != nil {
			// A corrupt profile cannot be promoted; treat it as absent.
			observability.LoggerFromContext(ctx).Warn().
				Err(err).
				Str("account_id", id).
				Msg("ignoring unreadable pending pharmacy profile")
		} else if profile != (entities.PendingPharmacyProfile{}) {
			account.PendingPharmacy = &profile
		}
	}

	return account, nil
}

// LinkPharmacy sets the cached pharmacy reference and clears the pending profile
func (a *AccountAdapter) LinkPharmacy(ctx context.Context, accountID, pharmacyID string) error {
	query, args, err := a.db.Update("accounts").
		Set(goqu.Record{
			"pharmacy_id":      pharmacyID,
			"pending_pharmacy": nil,
			"updated_at":       time.Now().UTC(),
		}).
		Where(goqu.Ex{"id": accountID}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	ctx, cancel := a.client.WithQueryTimeout(ctx)
	defer cancel()

	start := time.Now()
	result, err := a.client.DB().ExecContext(ctx, query, args...)
	observability.RecordDBMetric(ctx, a.metrics, "link_account_pharmacy", time.Since(start), err)
	if err != nil {
		return mapStoreError(err, "failed to link pharmacy to account")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewUnavailableError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("account with id %s not found", accountID))
	}

	return nil
}
