package repositories

import (
	"context"

	"github.com/zatekoja/medfinder/internal/domain/entities"
)

// OfferRepository reads medication listings joined with their pharmacy
type OfferRepository interface {
	// SearchOffers returns offers from active pharmacies whose name, generic
	// name or brand name contains the term case-insensitively, most recently
	// updated first.
	SearchOffers(ctx context.Context, query OfferQuery) ([]*entities.PharmacyOffer, error)
}

// OfferQuery holds the filters pushed down to the store
type OfferQuery struct {
	Term        string
	Category    string
	InStockOnly bool
	// Limit caps the rows read; zero reads every match
	Limit int
}
