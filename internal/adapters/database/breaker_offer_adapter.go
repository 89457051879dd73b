package database

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"github.com/zatekoja/medfinder/internal/domain/entities"
	"github.com/zatekoja/medfinder/internal/domain/repositories"
	"github.com/zatekoja/medfinder/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/medfinder/pkg/errors"
)

// BreakerSettings configures the store circuit breaker
type BreakerSettings struct {
	Name        string
	MaxFailures int
	OpenTimeout time.Duration
}

// BreakerOfferRepository fails fast while the offer store is known to be down.
// An open breaker is reported as UpstreamUnavailable, never as an empty result.
type BreakerOfferRepository struct {
	next repositories.OfferRepository
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerOfferRepository wraps next in a circuit breaker
func NewBreakerOfferRepository(next repositories.OfferRepository, settings BreakerSettings) *BreakerOfferRepository {
	if settings.Name == "" {
		settings.Name = "offer-store"
	}
	if settings.MaxFailures <= 0 {
		settings.MaxFailures = 5
	}
	if settings.OpenTimeout <= 0 {
		settings.OpenTimeout = 30 * time.Second
	}

	observability.StoreBreakerState.WithLabelValues(settings.Name).Set(float64(gobreaker.StateClosed))

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: 1,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(settings.MaxFailures)
		},
		IsSuccessful: func(err error) bool {
			var gone *callerGoneError
			return err == nil || errors.As(err, &gone)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			observability.StoreBreakerState.WithLabelValues(name).Set(float64(to))
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("store circuit breaker state changed")
		},
	})

	return &BreakerOfferRepository{next: next, cb: cb}
}

// SearchOffers delegates to the wrapped repository unless the breaker is open
func (r *BreakerOfferRepository) SearchOffers(ctx context.Context, query repositories.OfferQuery) ([]*entities.PharmacyOffer, error) {
	result, err := r.cb.Execute(func() (interface{}, error) {
		offers, err := r.next.SearchOffers(ctx, query)
		if err != nil && ctx.Err() != nil {
			// The caller cancelled or ran out of time; that says nothing about the store.
			return nil, &callerGoneError{err: err}
		}
		return offers, err
	})
	var gone *callerGoneError
	if errors.As(err, &gone) {
		return nil, gone.err
	}
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, apperrors.NewUnavailableError("offer store temporarily unavailable", err)
		}
		return nil, err
	}

	offers, _ := result.([]*entities.PharmacyOffer)
	return offers, nil
}

// callerGoneError marks a failure caused by the caller's context ending
type callerGoneError struct {
	err error
}

func (e *callerGoneError) Error() string { return e.err.Error() }
func (e *callerGoneError) Unwrap() error { return e.err }

// State exposes the breaker state for health reporting
func (r *BreakerOfferRepository) State() gobreaker.State {
	return r.cb.State()
}
