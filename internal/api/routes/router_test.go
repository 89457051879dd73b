package routes_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/medfinder/internal/api/handlers"
	"github.com/zatekoja/medfinder/internal/api/middleware"
	"github.com/zatekoja/medfinder/internal/api/routes"
	"github.com/zatekoja/medfinder/internal/application/services"
	"github.com/zatekoja/medfinder/internal/domain/entities"
	apperrors "github.com/zatekoja/medfinder/pkg/errors"
)

const (
	testSecret = "router-test-secret"
	testIssuer = "medfinder"
)

type stubSearcher struct{}

func (stubSearcher) Search(ctx context.Context, query entities.SearchQuery) (*entities.SearchResult, error) {
	return &entities.SearchResult{Offers: []entities.RankedOffer{}, Query: query.Term, Filters: query.Filters()}, nil
}

type stubResolver struct{}

func (stubResolver) Resolve(ctx context.Context, accountID string) (*entities.Pharmacy, error) {
	if accountID == "acct-owner" {
		return &entities.Pharmacy{ID: "ph-1", OwnerID: accountID, Name: "HealthPlus", IsActive: true}, nil
	}
	return nil, apperrors.NewNotFoundError("pharmacy not provisioned")
}

type stubReporter struct{}

func (stubReporter) GetZeroResultQueries(ctx context.Context, window time.Duration, limit int) ([]*entities.UnmetDemand, error) {
	return []*entities.UnmetDemand{{Term: "insulin", Searches: 2}}, nil
}

type stubAsker struct{}

func (stubAsker) Ask(ctx context.Context, req services.AssistantRequest) (*services.AssistantReply, error) {
	return &services.AssistantReply{Reply: "echo: " + req.Message}, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	router := routes.NewRouter(
		handlers.NewSearchHandler(stubSearcher{}),
		handlers.NewPharmacyHandler(stubResolver{}),
		handlers.NewAssistantHandler(stubAsker{}, nil),
		handlers.NewHealthHandler(nil),
		handlers.NewAnalyticsHandler(stubReporter{}),
		middleware.NewAuthenticator(testSecret, testIssuer),
		nil,
	)
	server := httptest.NewServer(router.SetupRoutes())
	t.Cleanup(server.Close)
	return server
}

func signedToken(t *testing.T, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.Claims{
		Role: "pharmacy",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    testIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestRouter_Health(t *testing.T) {
	server := newTestServer(t)

	req, _ := http.NewRequest(http.MethodGet, server.URL+"/health", nil)
	resp := do(t, req)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"), "request id is echoed by the logging middleware")
}

func TestRouter_Metrics(t *testing.T) {
	server := newTestServer(t)

	req, _ := http.NewRequest(http.MethodGet, server.URL+"/metrics", nil)
	resp := do(t, req)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_Search(t *testing.T) {
	server := newTestServer(t)

	req, _ := http.NewRequest(http.MethodGet, server.URL+"/api/medications/search?q=paracetamol", nil)
	resp := do(t, req)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req, _ = http.NewRequest(http.MethodGet, server.URL+"/api/medications/search", nil)
	resp = do(t, req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRouter_PharmacyMe(t *testing.T) {
	server := newTestServer(t)

	t.Run("anonymous", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, server.URL+"/api/pharmacies/me", nil)
		assert.Equal(t, http.StatusUnauthorized, do(t, req).StatusCode)
	})

	t.Run("invalid token", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, server.URL+"/api/pharmacies/me", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		assert.Equal(t, http.StatusUnauthorized, do(t, req).StatusCode)
	})

	t.Run("owner", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, server.URL+"/api/pharmacies/me", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(t, "acct-owner"))
		assert.Equal(t, http.StatusOK, do(t, req).StatusCode)
	})

	t.Run("not provisioned", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, server.URL+"/api/pharmacies/me", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(t, "acct-patient"))
		assert.Equal(t, http.StatusNotFound, do(t, req).StatusCode)
	})
}

func TestRouter_Assistant(t *testing.T) {
	server := newTestServer(t)

	req, _ := http.NewRequest(http.MethodPost, server.URL+"/api/assistant", strings.NewReader(`{"message":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := do(t, req)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req, _ = http.NewRequest(http.MethodGet, server.URL+"/api/assistant", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, req).StatusCode)
}

func TestRouter_AnalyticsRequiresAccount(t *testing.T) {
	server := newTestServer(t)

	req, _ := http.NewRequest(http.MethodGet, server.URL+"/api/analytics/zero-result-queries", nil)
	assert.Equal(t, http.StatusUnauthorized, do(t, req).StatusCode)

	req, _ = http.NewRequest(http.MethodGet, server.URL+"/api/analytics/zero-result-queries", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "acct-owner"))
	assert.Equal(t, http.StatusOK, do(t, req).StatusCode)
}

func TestRouter_CORSPreflight(t *testing.T) {
	server := newTestServer(t)

	req, _ := http.NewRequest(http.MethodOptions, server.URL+"/api/medications/search", nil)
	req.Header.Set("Origin", "https://medfinder.ng")
	resp := do(t, req)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
