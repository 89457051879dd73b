package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/zatekoja/medfinder/internal/api/middleware"
	"github.com/zatekoja/medfinder/internal/application/services"
	"github.com/zatekoja/medfinder/internal/infrastructure/observability"
)

const (
	assistantRateLimit  = 20
	assistantRateWindow = time.Minute
	maxAssistantBody    = 16 << 10
)

// AssistantAsker defines the assistant operation used by the handler
type AssistantAsker interface {
	Ask(ctx context.Context, req services.AssistantRequest) (*services.AssistantReply, error)
}

// AssistantHandler handles chat requests to the pharmacy assistant
type AssistantHandler struct {
	service AssistantAsker
	limiter *rateLimiter
}

// NewAssistantHandler creates a new assistant handler. counter may be nil.
func NewAssistantHandler(service AssistantAsker, counter RateCounter) *AssistantHandler {
	return &AssistantHandler{
		service: service,
		limiter: newRateLimiter(counter, assistantRateLimit, assistantRateWindow),
	}
}

// Ask handles POST /api/assistant
func (h *AssistantHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var payload services.AssistantRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAssistantBody)).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	key := "assistant:rate:" + clientIP(r)
	if accountID, ok := middleware.AccountIDFromContext(r.Context()); ok {
		key = "assistant:rate:acct:" + accountID
	}
	allowed, retryAfter := h.limiter.allow(r.Context(), key)
	if !allowed {
		observability.AssistantRequestsTotal.WithLabelValues(observability.OutcomeRateLimited).Inc()
		w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
		respondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	reply, err := h.service.Ask(r.Context(), payload)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, reply)
}
