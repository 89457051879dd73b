package repositories

import (
	"context"

	"github.com/zatekoja/medfinder/internal/domain/entities"
)

// PharmacyRepository defines the interface for pharmacy data operations
type PharmacyRepository interface {
	// GetByID retrieves a pharmacy by ID
	GetByID(ctx context.Context, id string) (*entities.Pharmacy, error)

	// GetByOwnerID retrieves the pharmacy owned by an account
	GetByOwnerID(ctx context.Context, ownerID string) (*entities.Pharmacy, error)

	// Create creates a new pharmacy. A second pharmacy for the same owner
	// fails with a conflict error.
	Create(ctx context.Context, pharmacy *entities.Pharmacy) error
}
