package geolocation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zatekoja/medfinder/internal/domain/providers"
	"github.com/zatekoja/medfinder/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/medfinder/pkg/errors"
	"github.com/zatekoja/medfinder/pkg/retry"
)

const (
	googleGeocodeURL       = "https://maps.googleapis.com/maps/api/geocode/json"
	defaultGeocodeCacheTTL = 60 * 60 * 24 * 30
	defaultHTTPTimeout     = 8 * time.Second
)

// GoogleGeocoder implements providers.Geocoder using the Google Geocoding API.
type GoogleGeocoder struct {
	apiKey     string
	region     string
	httpClient *http.Client
	cache      providers.CacheProvider
	baseURL    string
	retry      retry.Config
}

// Options overrides the endpoint and HTTP client, mostly for tests.
type Options struct {
	BaseURL    string
	Region     string
	HTTPClient *http.Client
	Retry      retry.Config
}

// NewGoogleGeocoder creates a geocoder. cache may be nil.
func NewGoogleGeocoder(apiKey string, cache providers.CacheProvider, opts Options) *GoogleGeocoder {
	if strings.TrimSpace(opts.BaseURL) == "" {
		opts.BaseURL = googleGeocodeURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry = retry.Config{MaxAttempts: 2, InitialDelay: 200 * time.Millisecond, MaxDelay: time.Second, BackoffFactor: 2}
	}
	return &GoogleGeocoder{
		apiKey:     apiKey,
		region:     opts.Region,
		httpClient: opts.HTTPClient,
		cache:      cache,
		baseURL:    opts.BaseURL,
		retry:      opts.Retry,
	}
}

// Geocode returns the first match for address. Results are cached for a month.
func (g *GoogleGeocoder) Geocode(ctx context.Context, address string) (*providers.GeocodedAddress, error) {
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		return nil, apperrors.NewValidationError("address is required")
	}

	cacheKey := "geo:geocode:" + hashKey(strings.ToLower(trimmed))
	if addr, ok := g.cached(ctx, cacheKey); ok {
		return addr, nil
	}

	params := url.Values{"address": []string{trimmed}}
	if g.region != "" {
		params.Set("region", g.region)
	}

	var resp *googleGeocodeResponse
	err := retry.Do(ctx, g.retry, func() error {
		var err error
		resp, err = g.doGeocodeRequest(ctx, params)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, apperrors.NewNotFoundError("no geocoding results for address")
	}

	result := resp.Results[0]
	addr := &providers.GeocodedAddress{
		FormattedAddress: result.FormattedAddress,
		Coordinates: providers.Coordinates{
			Latitude:  result.Geometry.Location.Lat,
			Longitude: result.Geometry.Location.Lng,
		},
	}

	if g.cache != nil {
		if payload, err := json.Marshal(addr); err == nil {
			if err := g.cache.Set(ctx, cacheKey, payload, defaultGeocodeCacheTTL); err != nil {
				observability.LoggerFromContext(ctx).Debug().Err(err).Msg("failed to cache geocode result")
			}
		}
	}
	return addr, nil
}

func (g *GoogleGeocoder) cached(ctx context.Context, key string) (*providers.GeocodedAddress, bool) {
	if g.cache == nil {
		return nil, false
	}
	payload, err := g.cache.Get(ctx, key)
	if err != nil || len(payload) == 0 {
		return nil, false
	}
	var addr providers.GeocodedAddress
	if err := json.Unmarshal(payload, &addr); err != nil {
		return nil, false
	}
	if addr.Coordinates.Latitude == 0 && addr.Coordinates.Longitude == 0 {
		return nil, false
	}
	return &addr, true
}

func (g *GoogleGeocoder) doGeocodeRequest(ctx context.Context, params url.Values) (*googleGeocodeResponse, error) {
	if g.apiKey == "" {
		return nil, retry.Permanent(apperrors.NewInternalError("google maps api key is required", nil))
	}

	params.Set("key", g.apiKey)
	reqURL := fmt.Sprintf("%s?%s", g.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, retry.Permanent(apperrors.NewInternalError("failed to build geocode request", err))
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewExternalError("geocode request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return nil, retry.Permanent(apperrors.NewExternalError(fmt.Sprintf("geocode request returned status %d", resp.StatusCode), nil))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.NewExternalError(fmt.Sprintf("geocode request returned status %d", resp.StatusCode), nil)
	}

	var payload googleGeocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, retry.Permanent(apperrors.NewExternalError("failed to decode geocode response", err))
	}

	switch payload.Status {
	case "OK", "ZERO_RESULTS":
		return &payload, nil
	case "OVER_QUERY_LIMIT", "UNKNOWN_ERROR":
		return nil, apperrors.NewExternalError("geocode request failed: "+payload.Status, nil)
	default:
		msg := "geocode request failed: " + payload.Status
		if payload.ErrorMessage != "" {
			msg += " - " + payload.ErrorMessage
		}
		return nil, retry.Permanent(apperrors.NewExternalError(msg, nil))
	}
}

func hashKey(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

type googleGeocodeResponse struct {
	Status       string                `json:"status"`
	ErrorMessage string                `json:"error_message,omitempty"`
	Results      []googleGeocodeResult `json:"results"`
}

type googleGeocodeResult struct {
	FormattedAddress string         `json:"formatted_address"`
	Geometry         googleGeometry `json:"geometry"`
}

type googleGeometry struct {
	Location googleLocation `json:"location"`
}

type googleLocation struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
