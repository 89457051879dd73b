package handlers

import (
	"context"
	"net/http"

	"github.com/zatekoja/medfinder/internal/api/middleware"
	"github.com/zatekoja/medfinder/internal/domain/entities"
	apperrors "github.com/zatekoja/medfinder/pkg/errors"
)

// PharmacyResolver defines the reconciliation operation used by the handler
type PharmacyResolver interface {
	Resolve(ctx context.Context, accountID string) (*entities.Pharmacy, error)
}

// PharmacyHandler handles pharmacy owner requests
type PharmacyHandler struct {
	resolver PharmacyResolver
}

// NewPharmacyHandler creates a new pharmacy handler
func NewPharmacyHandler(resolver PharmacyResolver) *PharmacyHandler {
	return &PharmacyHandler{resolver: resolver}
}

// GetMyPharmacy handles GET /api/pharmacies/me
func (h *PharmacyHandler) GetMyPharmacy(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	pharmacy, err := h.resolver.Resolve(r.Context(), accountID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			respondWithError(w, http.StatusNotFound, "pharmacy not provisioned")
			return
		}
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, pharmacy)
}
