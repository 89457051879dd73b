package repositories

import (
	"context"

	"github.com/zatekoja/medfinder/internal/domain/entities"
)

// AccountRepository defines the interface for account data operations
type AccountRepository interface {
	// GetByID retrieves an account by ID
	GetByID(ctx context.Context, id string) (*entities.Account, error)

	// LinkPharmacy points the account's cached reference at pharmacyID and
	// clears any pending pharmacy profile in the same write.
	LinkPharmacy(ctx context.Context, accountID, pharmacyID string) error
}
