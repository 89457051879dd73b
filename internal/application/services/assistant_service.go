package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zatekoja/medfinder/internal/domain/entities"
	"github.com/zatekoja/medfinder/internal/domain/providers"
	"github.com/zatekoja/medfinder/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/medfinder/pkg/errors"
)

const (
	maxAssistantMessageLength = 2000
	assistantContextOffers    = 5
)

// AssistantRequest is a chat message, optionally grounded on a medication search
type AssistantRequest struct {
	Message string                `json:"message"`
	Search  *entities.SearchQuery `json:"search,omitempty"`
}

// AssistantReply is the assistant's answer and the offers it was shown
type AssistantReply struct {
	Reply  string                 `json:"reply"`
	Offers []entities.RankedOffer `json:"offers,omitempty"`
}

// AssistantService answers free-text questions about medication availability.
// Search never depends on it.
type AssistantService struct {
	provider providers.AssistantProvider
	search   *SearchService
	cache    providers.CacheProvider
	cacheTTL time.Duration
}

// NewAssistantService creates a new assistant service. provider may be nil
// when no assistant backend is configured.
func NewAssistantService(provider providers.AssistantProvider, search *SearchService) *AssistantService {
	return &AssistantService{provider: provider, search: search}
}

// SetCache reuses provider replies for identical context and message pairs.
// The context embeds live stock and prices, so a changed listing misses.
func (s *AssistantService) SetCache(cache providers.CacheProvider, ttl time.Duration) {
	s.cache = cache
	s.cacheTTL = ttl
}

// Ask grounds the message on the top search results, if a search was given,
// and forwards both to the assistant provider.
func (s *AssistantService) Ask(ctx context.Context, req AssistantRequest) (*AssistantReply, error) {
	ctx, span := observability.StartSpan(ctx, "AssistantService.Ask")
	defer span.End()

	logger := observability.LoggerFromContext(ctx)

	message := strings.TrimSpace(req.Message)
	if message == "" {
		observability.AssistantRequestsTotal.WithLabelValues(observability.OutcomeInvalid).Inc()
		return nil, apperrors.NewValidationError("message is required")
	}
	if len(message) > maxAssistantMessageLength {
		observability.AssistantRequestsTotal.WithLabelValues(observability.OutcomeInvalid).Inc()
		return nil, apperrors.NewValidationError(fmt.Sprintf("message must be at most %d characters", maxAssistantMessageLength))
	}
	if s.provider == nil {
		observability.AssistantRequestsTotal.WithLabelValues(observability.OutcomeUnavailable).Inc()
		return nil, apperrors.NewUnavailableError("assistant is not configured", nil)
	}

	var (
		offers   []entities.RankedOffer
		degraded bool
	)
	if req.Search != nil && s.search != nil {
		result, err := s.search.Lookup(ctx, *req.Search)
		switch {
		case err == nil:
			offers = result.Offers
			if len(offers) > assistantContextOffers {
				offers = offers[:assistantContextOffers]
			}
		case apperrors.TypeOf(err) == apperrors.ErrorTypeValidation:
			observability.AssistantRequestsTotal.WithLabelValues(observability.OutcomeInvalid).Inc()
			return nil, err
		default:
			degraded = true
			logger.Warn().Err(err).Msg("assistant continuing without search context")
		}
	}

	contextText := BuildAssistantContext(req.Search, offers)
	if !degraded {
		if reply, ok := s.cachedReply(ctx, contextText, message); ok {
			observability.AssistantRequestsTotal.WithLabelValues(observability.OutcomeSuccess).Inc()
			return &AssistantReply{Reply: reply, Offers: offers}, nil
		}
	}

	reply, err := s.provider.Reply(ctx, contextText, message)
	if err != nil {
		observability.RecordError(span, err)
		observability.AssistantRequestsTotal.WithLabelValues(observability.OutcomeUnavailable).Inc()
		if errors.Is(err, providers.ErrAssistantUnauthorized) {
			logger.Error().Err(err).Msg("assistant provider rejected credentials")
		} else {
			logger.Warn().Err(err).Msg("assistant provider failed")
		}
		return nil, apperrors.NewUnavailableError("assistant is temporarily unavailable", err)
	}

	// Replies written without listings are not cached
	if !degraded {
		s.storeReply(ctx, contextText, message, reply)
	}

	observability.AssistantRequestsTotal.WithLabelValues(observability.OutcomeSuccess).Inc()
	return &AssistantReply{Reply: reply, Offers: offers}, nil
}

func assistantCacheKey(contextText, message string) string {
	sum := sha256.Sum256([]byte(contextText + "\x00" + strings.ToLower(message)))
	return "assistant:reply:" + hex.EncodeToString(sum[:])
}

func (s *AssistantService) cachedReply(ctx context.Context, contextText, message string) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	data, err := s.cache.Get(ctx, assistantCacheKey(contextText, message))
	if err != nil {
		if !errors.Is(err, providers.ErrCacheMiss) {
			observability.LoggerFromContext(ctx).Debug().Err(err).Msg("assistant cache read failed")
		}
		return "", false
	}
	return string(data), true
}

func (s *AssistantService) storeReply(ctx context.Context, contextText, message, reply string) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	if err := s.cache.Set(ctx, assistantCacheKey(contextText, message), []byte(reply), int(s.cacheTTL.Seconds())); err != nil {
		observability.LoggerFromContext(ctx).Debug().Err(err).Msg("assistant cache write failed")
	}
}

// BuildAssistantContext renders ranked offers as numbered plain-text listings
func BuildAssistantContext(query *entities.SearchQuery, offers []entities.RankedOffer) string {
	if query == nil {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Search for %q", strings.TrimSpace(query.Term))
	if loc := strings.TrimSpace(query.Location); loc != "" {
		fmt.Fprintf(&b, " near %s", loc)
	}
	b.WriteString(":\n")

	if len(offers) == 0 {
		b.WriteString("No matching offers.\n")
		return b.String()
	}

	for i, offer := range offers {
		name := offer.Name
		if offer.Strength != "" {
			name += " " + offer.Strength
		}
		fmt.Fprintf(&b, "%d. %s at %s (%s, %s)", i+1, name, offer.Pharmacy.Name, offer.Pharmacy.City, offer.Pharmacy.State)
		if offer.PriceRangeMin != nil && offer.PriceRangeMax != nil {
			fmt.Fprintf(&b, ", %s-%s NGN", offer.PriceRangeMin.String(), offer.PriceRangeMax.String())
		}
		fmt.Fprintf(&b, ", %s", strings.ReplaceAll(string(offer.Stock), "_", " "))
		if offer.DistanceKm != nil {
			fmt.Fprintf(&b, ", %.1f km away", *offer.DistanceKm)
		}
		if offer.RequiresPrescription {
			b.WriteString(", prescription required")
		}
		b.WriteString("\n")
	}
	return b.String()
}
