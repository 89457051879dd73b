package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/zatekoja/medfinder/internal/domain/entities"
	"github.com/zatekoja/medfinder/internal/domain/providers"
	"github.com/zatekoja/medfinder/internal/domain/repositories"
	"github.com/zatekoja/medfinder/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/medfinder/pkg/errors"
	"github.com/zatekoja/medfinder/pkg/retry"
	"go.opentelemetry.io/otel/attribute"
)

// Resolution outcomes recorded on PharmacyResolutionsTotal
const (
	resolvedFromReference = "cached_reference"
	resolvedByOwner       = "owner_lookup"
	resolvedByCreate      = "created"
)

var errNotYetProvisioned = errors.New("pharmacy not yet provisioned")

// ReconcilerOptions tunes the optional cross-instance promotion lock
type ReconcilerOptions struct {
	LockTTL    time.Duration
	Contention retry.Config
	// GeocodeTimeout bounds the lookup placing a new pharmacy on the map
	GeocodeTimeout time.Duration
}

// PharmacyReconciler returns the canonical pharmacy of an account, promoting
// its pending signup profile the first time one is needed.
type PharmacyReconciler struct {
	accounts   repositories.AccountRepository
	pharmacies repositories.PharmacyRepository
	locks      providers.LockProvider
	events     providers.EventBus
	geocoder   providers.Geocoder
	opts       ReconcilerOptions
	newID      func() string
}

// NewPharmacyReconciler creates a new reconciler. locks and events may be nil.
func NewPharmacyReconciler(
	accounts repositories.AccountRepository,
	pharmacies repositories.PharmacyRepository,
	locks providers.LockProvider,
	events providers.EventBus,
	opts ReconcilerOptions,
) *PharmacyReconciler {
	if opts.LockTTL <= 0 {
		opts.LockTTL = 10 * time.Second
	}
	if opts.Contention.MaxAttempts <= 0 {
		opts.Contention = retry.ContentionConfig()
	}
	if opts.GeocodeTimeout <= 0 {
		opts.GeocodeTimeout = 3 * time.Second
	}
	return &PharmacyReconciler{
		accounts:   accounts,
		pharmacies: pharmacies,
		locks:      locks,
		events:     events,
		opts:       opts,
		newID:      uuid.NewString,
	}
}

// WithGeocoder sets the geocoder used to locate pharmacies promoted from a
// pending profile.
func (r *PharmacyReconciler) WithGeocoder(geocoder providers.Geocoder) *PharmacyReconciler {
	r.geocoder = geocoder
	return r
}

// Resolve returns the pharmacy owned by accountID. A NotFound error means the
// account has no pharmacy and no usable pending profile.
func (r *PharmacyReconciler) Resolve(ctx context.Context, accountID string) (*entities.Pharmacy, error) {
	ctx, span := observability.StartSpan(ctx, "PharmacyReconciler.Resolve")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", accountID))

	logger := observability.LoggerFromContext(ctx).With().Str("account_id", accountID).Logger()

	pharmacy, outcome, err := r.resolve(ctx, accountID, &logger)
	switch {
	case err == nil:
		observability.PharmacyResolutionsTotal.WithLabelValues(outcome).Inc()
		span.SetAttributes(attribute.String("pharmacy.id", pharmacy.ID), attribute.String("resolution", outcome))
		return pharmacy, nil
	case apperrors.IsNotFound(err):
		observability.PharmacyResolutionsTotal.WithLabelValues(observability.OutcomeNotFound).Inc()
		logger.Debug().Msg("account has no pharmacy to resolve")
		return nil, err
	default:
		observability.PharmacyResolutionsTotal.WithLabelValues(observability.OutcomeUnavailable).Inc()
		observability.RecordError(span, err)
		logger.Error().Err(err).Msg("pharmacy resolution failed")
		return nil, err
	}
}

func (r *PharmacyReconciler) resolve(ctx context.Context, accountID string, logger *zerolog.Logger) (*entities.Pharmacy, string, error) {
	account, err := r.accounts.GetByID(ctx, accountID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, "", apperrors.NewNotFoundError("pharmacy not provisioned")
		}
		return nil, "", unavailable("failed to load account", err)
	}

	if pharmacy, err := r.fromReference(ctx, account, logger); err != nil || pharmacy != nil {
		return pharmacy, resolvedFromReference, err
	}

	if pharmacy, err := r.byOwner(ctx, account, logger); err != nil || pharmacy != nil {
		return pharmacy, resolvedByOwner, err
	}

	if !account.PendingPharmacy.Usable() {
		return nil, "", apperrors.NewNotFoundError("pharmacy not provisioned")
	}

	return r.promote(ctx, account, logger)
}

// fromReference follows the account's cached pharmacy id. A reference that
// no longer resolves, or resolves to another owner's pharmacy, is ignored.
func (r *PharmacyReconciler) fromReference(ctx context.Context, account *entities.Account, logger *zerolog.Logger) (*entities.Pharmacy, error) {
	if account.PharmacyID == nil || *account.PharmacyID == "" {
		return nil, nil
	}

	pharmacy, err := r.pharmacies.GetByID(ctx, *account.PharmacyID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			logger.Info().Str("pharmacy_id", *account.PharmacyID).Msg("stale pharmacy reference on account")
			return nil, nil
		}
		return nil, unavailable("failed to load pharmacy", err)
	}
	if pharmacy.OwnerID != account.ID {
		logger.Warn().
			Str("pharmacy_id", pharmacy.ID).
			Str("owner_id", pharmacy.OwnerID).
			Msg("pharmacy reference points at another owner")
		return nil, nil
	}
	return pharmacy, nil
}

// byOwner looks the pharmacy up by owner and repairs the account's cached
// reference when it is missing, stale, or a pending profile lingers.
func (r *PharmacyReconciler) byOwner(ctx context.Context, account *entities.Account, logger *zerolog.Logger) (*entities.Pharmacy, error) {
	pharmacy, err := r.pharmacies.GetByOwnerID(ctx, account.ID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, unavailable("failed to look up pharmacy by owner", err)
	}

	r.repairReference(ctx, account, pharmacy, logger)
	return pharmacy, nil
}

func (r *PharmacyReconciler) repairReference(ctx context.Context, account *entities.Account, pharmacy *entities.Pharmacy, logger *zerolog.Logger) {
	upToDate := account.PharmacyID != nil && *account.PharmacyID == pharmacy.ID && account.PendingPharmacy == nil
	if upToDate {
		return
	}
	if err := r.accounts.LinkPharmacy(ctx, account.ID, pharmacy.ID); err != nil {
		// The owner lookup still finds the pharmacy next time.
		logger.Warn().Err(err).Str("pharmacy_id", pharmacy.ID).Msg("failed to repair account pharmacy reference")
		return
	}
	account.PharmacyID = &pharmacy.ID
	account.PendingPharmacy = nil
}

// promote creates the pharmacy from the pending profile, at most once per
// account. The store's unique owner constraint is the final guard; the lock
// only keeps concurrent requests from racing into it.
func (r *PharmacyReconciler) promote(ctx context.Context, account *entities.Account, logger *zerolog.Logger) (*entities.Pharmacy, string, error) {
	if r.locks != nil {
		lockKey := "pharmacy-promotion:" + account.ID
		token, err := r.locks.TryAcquire(ctx, lockKey, r.opts.LockTTL)
		switch {
		case err != nil:
			logger.Warn().Err(err).Msg("promotion lock unavailable, relying on owner constraint")
		case token == "":
			pharmacy, err := r.awaitPromotion(ctx, account, logger)
			if err != nil || pharmacy != nil {
				return pharmacy, resolvedByOwner, err
			}
			logger.Info().Msg("concurrent promotion did not finish, promoting here")
		default:
			defer func() {
				releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
				defer cancel()
				if err := r.locks.Release(releaseCtx, lockKey, token); err != nil {
					logger.Warn().Err(err).Msg("failed to release promotion lock")
				}
			}()
		}
	}

	pharmacy := account.PendingPharmacy.ToPharmacy(account.ID)
	pharmacy.ID = r.newID()
	r.locate(ctx, pharmacy, logger)

	if err := r.pharmacies.Create(ctx, pharmacy); err != nil {
		if apperrors.IsConflict(err) {
			logger.Info().Msg("pharmacy created concurrently, re-reading by owner")
			existing, err := r.byOwner(ctx, account, logger)
			if err != nil {
				return nil, "", err
			}
			if existing == nil {
				return nil, "", apperrors.NewUnavailableError("pharmacy owner conflict could not be resolved", nil)
			}
			return existing, resolvedByOwner, nil
		}
		// Pending profile is left in place so the next call can retry.
		return nil, "", unavailable("failed to create pharmacy", err)
	}

	if err := r.accounts.LinkPharmacy(ctx, account.ID, pharmacy.ID); err != nil {
		logger.Warn().Err(err).Str("pharmacy_id", pharmacy.ID).Msg("pharmacy created but account link failed")
	} else {
		account.PharmacyID = &pharmacy.ID
		account.PendingPharmacy = nil
	}

	logger.Info().Str("pharmacy_id", pharmacy.ID).Msg("pharmacy provisioned from pending profile")
	r.publishProvisioned(ctx, pharmacy, logger)
	return pharmacy, resolvedByCreate, nil
}

// awaitPromotion polls the owner lookup while another request holds the
// promotion lock. It returns (nil, nil) if the other request never finished.
func (r *PharmacyReconciler) awaitPromotion(ctx context.Context, account *entities.Account, logger *zerolog.Logger) (*entities.Pharmacy, error) {
	var found *entities.Pharmacy
	err := retry.DoWithLog(ctx, r.opts.Contention, "pharmacy-reconciler",
		func() error {
			pharmacy, err := r.byOwner(ctx, account, logger)
			if err != nil {
				return retry.Permanent(err)
			}
			if pharmacy == nil {
				return errNotYetProvisioned
			}
			found = pharmacy
			return nil
		},
		func(attempt int, err error, nextDelay time.Duration) {
			logger.Debug().Int("attempt", attempt).Dur("next_delay", nextDelay).Msg("waiting for concurrent promotion")
		},
	)
	if found != nil {
		return found, nil
	}
	if err != nil && apperrors.TypeOf(err) != "" {
		return nil, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, unavailable("pharmacy resolution cancelled", ctxErr)
	}
	return nil, nil
}

// locate fills in coordinates from the pharmacy's address. A pharmacy without
// coordinates is still listed, only never ranked by distance.
func (r *PharmacyReconciler) locate(ctx context.Context, pharmacy *entities.Pharmacy, logger *zerolog.Logger) {
	if r.geocoder == nil || pharmacy.HasCoordinates() {
		return
	}

	geoCtx, cancel := context.WithTimeout(ctx, r.opts.GeocodeTimeout)
	defer cancel()

	address := strings.Join([]string{pharmacy.Address, pharmacy.City, pharmacy.State}, ", ")
	result, err := r.geocoder.Geocode(geoCtx, address)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to geocode pharmacy address")
		return
	}

	location := &entities.Location{
		Latitude:  result.Coordinates.Latitude,
		Longitude: result.Coordinates.Longitude,
	}
	if !location.Point().Valid() {
		logger.Warn().Msg("geocoder returned invalid coordinates")
		return
	}
	pharmacy.Location = location
}

func (r *PharmacyReconciler) publishProvisioned(ctx context.Context, pharmacy *entities.Pharmacy, logger *zerolog.Logger) {
	if r.events == nil {
		return
	}

	event := entities.NewPharmacyEvent(entities.PharmacyEventProvisioned, pharmacy)
	channels := []string{providers.EventChannelPharmacyUpdates}
	if pharmacy.State != "" {
		channels = append(channels, providers.GetRegionalChannel(pharmacy.State))
	}
	for _, channel := range channels {
		if err := r.events.Publish(ctx, channel, event); err != nil {
			logger.Warn().Err(err).Str("channel", channel).Msg("failed to publish pharmacy event")
		}
	}
}

func unavailable(message string, err error) error {
	if apperrors.IsUnavailable(err) {
		return err
	}
	return apperrors.NewUnavailableError(message, err)
}
