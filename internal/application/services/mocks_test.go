package services_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/zatekoja/medfinder/internal/domain/entities"
	"github.com/zatekoja/medfinder/internal/domain/providers"
	"github.com/zatekoja/medfinder/internal/domain/repositories"
)

type MockOfferRepository struct {
	mock.Mock
}

func (m *MockOfferRepository) SearchOffers(ctx context.Context, query repositories.OfferQuery) ([]*entities.PharmacyOffer, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.PharmacyOffer), args.Error(1)
}

type MockPharmacyRepository struct {
	mock.Mock
}

func (m *MockPharmacyRepository) GetByID(ctx context.Context, id string) (*entities.Pharmacy, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Pharmacy), args.Error(1)
}

func (m *MockPharmacyRepository) GetByOwnerID(ctx context.Context, ownerID string) (*entities.Pharmacy, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Pharmacy), args.Error(1)
}

func (m *MockPharmacyRepository) Create(ctx context.Context, pharmacy *entities.Pharmacy) error {
	args := m.Called(ctx, pharmacy)
	return args.Error(0)
}

type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*entities.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Account), args.Error(1)
}

func (m *MockAccountRepository) LinkPharmacy(ctx context.Context, accountID, pharmacyID string) error {
	args := m.Called(ctx, accountID, pharmacyID)
	return args.Error(0)
}

type MockLockProvider struct {
	mock.Mock
}

func (m *MockLockProvider) TryAcquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}

func (m *MockLockProvider) Release(ctx context.Context, key, token string) error {
	args := m.Called(ctx, key, token)
	return args.Error(0)
}

type MockEventBus struct {
	mock.Mock
}

func (m *MockEventBus) Publish(ctx context.Context, channel string, event *entities.PharmacyEvent) error {
	args := m.Called(ctx, channel, event)
	return args.Error(0)
}

func (m *MockEventBus) Close() error {
	return nil
}

type MockAssistantProvider struct {
	mock.Mock
}

func (m *MockAssistantProvider) Reply(ctx context.Context, contextText, message string) (string, error) {
	args := m.Called(ctx, contextText, message)
	return args.String(0), args.Error(1)
}

type MockSearchAnalyticsRepository struct {
	mock.Mock
}

func (m *MockSearchAnalyticsRepository) LogEvent(ctx context.Context, event *entities.SearchEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockSearchAnalyticsRepository) GetZeroResultQueries(ctx context.Context, since time.Time, limit int) ([]*entities.UnmetDemand, error) {
	args := m.Called(ctx, since, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.UnmetDemand), args.Error(1)
}

type MockSearchTracker struct {
	mock.Mock
}

func (m *MockSearchTracker) TrackSearch(ctx context.Context, event *entities.SearchEvent) {
	m.Called(ctx, event)
}

type MockGeocoder struct {
	mock.Mock
}

func (m *MockGeocoder) Geocode(ctx context.Context, address string) (*providers.GeocodedAddress, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*providers.GeocodedAddress), args.Error(1)
}
