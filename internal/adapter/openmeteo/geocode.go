package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/weather-ingest/internal/domain"
	"github.com/couchcryptid/weather-ingest/internal/observability"
	"github.com/sony/gobreaker"
)

// GeocodeClient implements domain.Resolver using the Open-Meteo geocoding
// search API.
type GeocodeClient struct {
	httpClient *http.Client
	baseURL    string
	language   string
	policy     RetryPolicy
	breaker    *gobreaker.CircuitBreaker
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewGeocodeClient creates a geocoding client with the given language hint
// and per-request timeout.
func NewGeocodeClient(language string, timeout time.Duration, policy RetryPolicy, metrics *observability.Metrics, logger *slog.Logger) *GeocodeClient {
	return &GeocodeClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    "https://geocoding-api.open-meteo.com/v1/search",
		language:   language,
		policy:     policy,
		breaker:    newBreaker("openmeteo-geocode"),
		metrics:    metrics,
		logger:     logger,
	}
}

// Resolve looks up a free-text name and returns the provider's top candidate.
// Zero candidates is domain.ErrNoResults; the provider's ranking is trusted
// and no local re-ranking happens.
func (c *GeocodeClient) Resolve(ctx context.Context, name string) (domain.Location, error) {
	params := url.Values{
		"name":     {name},
		"count":    {"1"},
		"language": {c.language},
		"format":   {"json"},
	}

	start := time.Now()
	resp, err := doWithRetry(ctx, c.httpClient, c.breaker, c.policy, func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	})
	c.metrics.APIDuration.WithLabelValues("geocode").Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.Location{}, fmt.Errorf("geocode %q: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.Location{}, fmt.Errorf("geocode %q: %w: status %d: %s", name, domain.ErrTransport, resp.StatusCode, body)
	}

	var payload geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.Location{}, fmt.Errorf("geocode %q: %w: %v", name, domain.ErrMalformedResponse, err)
	}

	if len(payload.Results) == 0 {
		c.metrics.GeocodeRequests.WithLabelValues("not_found").Inc()
		return domain.Location{}, fmt.Errorf("resolve %q: %w", name, domain.ErrNoResults)
	}

	first := payload.Results[0]
	timezone := first.Timezone
	if timezone == "" {
		timezone = "auto"
	}

	c.metrics.GeocodeRequests.WithLabelValues("success").Inc()
	c.logger.Debug("location resolved",
		"input", name,
		"resolved", first.Name,
		"lat", first.Latitude,
		"lon", first.Longitude,
		"timezone", timezone,
	)

	return domain.Location{
		Name:        first.Name,
		Latitude:    first.Latitude,
		Longitude:   first.Longitude,
		CountryCode: first.CountryCode,
		Timezone:    timezone,
	}, nil
}

// Open-Meteo geocoding API response types.

type geocodeResponse struct {
	Results []geocodeCandidate `json:"results"`
}

type geocodeCandidate struct {
	Name        string  `json:"name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	CountryCode string  `json:"country_code"`
	Timezone    string  `json:"timezone"`
}
