package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/medfinder/internal/application/services"
	"github.com/zatekoja/medfinder/internal/domain/entities"
	"github.com/zatekoja/medfinder/internal/domain/repositories"
	apperrors "github.com/zatekoja/medfinder/pkg/errors"
)

func newSearchService(repo *MockOfferRepository) *services.SearchService {
	return services.NewSearchService(repo, services.NewOfferRanker(), services.SearchLimits{Default: 50, Max: 200})
}

func TestSearchService_Search(t *testing.T) {
	t.Run("rejects blank term without touching the store", func(t *testing.T) {
		repo := new(MockOfferRepository)
		service := newSearchService(repo)

		result, err := service.Search(context.Background(), entities.SearchQuery{Term: "   "})

		assert.Nil(t, result)
		assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.TypeOf(err))
		repo.AssertNotCalled(t, "SearchOffers", mock.Anything, mock.Anything)
	})

	t.Run("pushes text, category and stock filters down", func(t *testing.T) {
		repo := new(MockOfferRepository)
		service := newSearchService(repo)

		repo.On("SearchOffers", mock.Anything, repositories.OfferQuery{
			Term:        "amoxicillin",
			Category:    "Antibiotics",
			InStockOnly: true,
			Limit:       20,
		}).Return([]*entities.PharmacyOffer{}, nil)

		result, err := service.Search(context.Background(), entities.SearchQuery{
			Term:        "  amoxicillin ",
			Category:    "Antibiotics",
			InStockOnly: true,
			Limit:       20,
		})

		require.NoError(t, err)
		assert.Equal(t, 0, result.Count)
		assert.NotNil(t, result.Offers, "empty result must still be a list")
		assert.Equal(t, "amoxicillin", result.Query)
		assert.True(t, result.Filters.InStockOnly)
		repo.AssertExpectations(t)
	})

	t.Run("clamps limits", func(t *testing.T) {
		repo := new(MockOfferRepository)
		service := newSearchService(repo)

		repo.On("SearchOffers", mock.Anything, mock.MatchedBy(func(q repositories.OfferQuery) bool {
			return q.Limit == 200
		})).Return([]*entities.PharmacyOffer{}, nil).Once()
		repo.On("SearchOffers", mock.Anything, mock.MatchedBy(func(q repositories.OfferQuery) bool {
			return q.Limit == 50
		})).Return([]*entities.PharmacyOffer{}, nil).Once()

		_, err := service.Search(context.Background(), entities.SearchQuery{Term: "x", Limit: 5000})
		require.NoError(t, err)
		_, err = service.Search(context.Background(), entities.SearchQuery{Term: "x"})
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("reads every match when ranking by distance", func(t *testing.T) {
		repo := new(MockOfferRepository)
		service := newSearchService(repo)

		rows := []*entities.PharmacyOffer{
			offerAt("island", 500, 10, pharmacyAt("p1", "Lagos Island", "Lagos", &entities.Location{Latitude: 6.45, Longitude: 3.40})),
			offerAt("yaba", 500, 10, pharmacyAt("p2", "Yaba", "Lagos", &entities.Location{Latitude: 6.53, Longitude: 3.38})),
		}
		repo.On("SearchOffers", mock.Anything, mock.MatchedBy(func(q repositories.OfferQuery) bool {
			return q.Limit == 0
		})).Return(rows, nil)

		result, err := service.Search(context.Background(), entities.SearchQuery{
			Term:      "para",
			Latitude:  floatPtr(6.5244),
			Longitude: floatPtr(3.3792),
			Limit:     1,
		})

		require.NoError(t, err)
		require.Equal(t, 1, result.Count)
		assert.Equal(t, "yaba", result.Offers[0].ID)
	})

	t.Run("nearest offer wins even when it is the oldest of many matches", func(t *testing.T) {
		repo := new(MockOfferRepository)
		service := newSearchService(repo)

		// Store order is newest first; the only nearby pharmacy was updated earliest.
		far := &entities.Location{Latitude: 9.0, Longitude: 7.0}
		rows := make([]*entities.PharmacyOffer, 0, 202)
		for i := 0; i < 201; i++ {
			rows = append(rows, offerAt(fmt.Sprintf("abuja-%d", i), 500, 10, pharmacyAt(fmt.Sprintf("p%d", i), "Garki", "FCT", far)))
		}
		rows = append(rows, offerAt("yaba", 500, 10, pharmacyAt("p-yaba", "Yaba", "Lagos", &entities.Location{Latitude: 6.53, Longitude: 3.38})))

		repo.On("SearchOffers", mock.Anything, mock.MatchedBy(func(q repositories.OfferQuery) bool {
			return q.Limit == 0
		})).Return(rows, nil)

		result, err := service.Search(context.Background(), entities.SearchQuery{
			Term:      "paracetamol",
			Latitude:  floatPtr(6.5244),
			Longitude: floatPtr(3.3792),
		})

		require.NoError(t, err)
		assert.Equal(t, 50, result.Count)
		assert.Equal(t, "yaba", result.Offers[0].ID)
		require.NotNil(t, result.Offers[0].DistanceKm)
		assert.Less(t, *result.Offers[0].DistanceKm, 1.0)
	})

	t.Run("location filter sees matches beyond the result limit", func(t *testing.T) {
		repo := new(MockOfferRepository)
		service := newSearchService(repo)

		rows := make([]*entities.PharmacyOffer, 0, 251)
		for i := 0; i < 250; i++ {
			rows = append(rows, offerAt(fmt.Sprintf("abuja-%d", i), 500, 10, pharmacyAt(fmt.Sprintf("p%d", i), "Garki", "FCT", nil)))
		}
		rows = append(rows, offerAt("yaba", 500, 10, pharmacyAt("p-yaba", "Yaba", "Lagos", nil)))

		repo.On("SearchOffers", mock.Anything, mock.MatchedBy(func(q repositories.OfferQuery) bool {
			return q.Limit == 0
		})).Return(rows, nil)

		result, err := service.Search(context.Background(), entities.SearchQuery{Term: "paracetamol", Location: "yaba"})

		require.NoError(t, err)
		assert.Equal(t, []string{"yaba"}, ids(result.Offers))
	})

	t.Run("paracetamol scenario keeps store order", func(t *testing.T) {
		repo := new(MockOfferRepository)
		service := newSearchService(repo)

		rows := []*entities.PharmacyOffer{
			offerAt("cheap", 500, 30, pharmacyAt("p1", "Yaba", "Lagos", &entities.Location{Latitude: 6.51, Longitude: 3.37})),
			offerAt("dear", 1200, 30, pharmacyAt("p2", "Ikeja", "Lagos", nil)),
		}
		repo.On("SearchOffers", mock.Anything, mock.Anything).Return(rows, nil)

		result, err := service.Search(context.Background(), entities.SearchQuery{Term: "paracetamol"})

		require.NoError(t, err)
		assert.Equal(t, 2, result.Count)
		assert.Equal(t, []string{"cheap", "dear"}, ids(result.Offers))
		assert.Equal(t, "480", result.Offers[0].PriceRangeMin.String())
		assert.Equal(t, "530", result.Offers[0].PriceRangeMax.String())
		assert.Nil(t, result.Offers[0].DistanceKm)
		assert.Nil(t, result.Offers[1].DistanceKm)
	})

	t.Run("store failure is unavailable, not empty", func(t *testing.T) {
		repo := new(MockOfferRepository)
		service := newSearchService(repo)

		repo.On("SearchOffers", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))

		result, err := service.Search(context.Background(), entities.SearchQuery{Term: "x"})

		assert.Nil(t, result)
		assert.True(t, apperrors.IsUnavailable(err))
	})

	t.Run("cancelled request returns no partial result", func(t *testing.T) {
		repo := new(MockOfferRepository)
		service := newSearchService(repo)

		ctx, cancel := context.WithCancel(context.Background())
		repo.On("SearchOffers", mock.Anything, mock.Anything).
			Run(func(mock.Arguments) { cancel() }).
			Return([]*entities.PharmacyOffer{offerAt("a", 500, 1, pharmacyAt("p1", "Yaba", "Lagos", nil))}, nil)

		result, err := service.Search(ctx, entities.SearchQuery{Term: "x"})

		assert.Nil(t, result)
		assert.True(t, apperrors.IsUnavailable(err))
		assert.ErrorIs(t, err, context.Canceled)
	})
}
