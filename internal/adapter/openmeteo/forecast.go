package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/weather-ingest/internal/domain"
	"github.com/couchcryptid/weather-ingest/internal/observability"
	"github.com/sony/gobreaker"
)

// hourlyVariables is the fixed set of requested hourly series.
const hourlyVariables = "temperature_2m,relativehumidity_2m,windspeed_10m"

// hourlyTimestampLayout is how the forecast API formats hourly timestamps:
// local time in the requested timezone, no offset.
const hourlyTimestampLayout = "2006-01-02T15:04"

// ForecastClient implements domain.Fetcher using the Open-Meteo forecast API.
type ForecastClient struct {
	httpClient *http.Client
	baseURL    string
	policy     RetryPolicy
	breaker    *gobreaker.CircuitBreaker
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewForecastClient creates a forecast client with the given per-request
// timeout.
func NewForecastClient(timeout time.Duration, policy RetryPolicy, metrics *observability.Metrics, logger *slog.Logger) *ForecastClient {
	return &ForecastClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    "https://api.open-meteo.com/v1/forecast",
		policy:     policy,
		breaker:    newBreaker("openmeteo-forecast"),
		metrics:    metrics,
		logger:     logger,
	}
}

// FetchHourly retrieves the hourly series for the whole window in a single
// request. The upstream order is trusted; rows are not re-sorted. A response
// missing any of the four parallel arrays, or with arrays of unequal length,
// fails with domain.ErrMalformedResponse and is not retried.
func (c *ForecastClient) FetchHourly(ctx context.Context, lat, lon float64, window domain.TimeWindow, timezone string) ([]domain.HourlySample, error) {
	params := url.Values{
		"latitude":   {strconv.FormatFloat(lat, 'f', -1, 64)},
		"longitude":  {strconv.FormatFloat(lon, 'f', -1, 64)},
		"start_date": {window.Start.Format(domain.DateLayout)},
		"end_date":   {window.End.Format(domain.DateLayout)},
		"timezone":   {timezone},
		"hourly":     {hourlyVariables},
	}

	start := time.Now()
	resp, err := doWithRetry(ctx, c.httpClient, c.breaker, c.policy, func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	})
	c.metrics.APIDuration.WithLabelValues("forecast").Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.ForecastRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("fetch hourly: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.metrics.ForecastRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("fetch hourly: %w: status %d: %s", domain.ErrTransport, resp.StatusCode, body)
	}

	var payload forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.metrics.ForecastRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("fetch hourly: %w: %v", domain.ErrMalformedResponse, err)
	}

	batch, err := payload.Hourly.toBatch()
	if err != nil {
		c.metrics.ForecastRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("fetch hourly: %w", err)
	}

	c.metrics.ForecastRequests.WithLabelValues("success").Inc()
	c.logger.Debug("hourly series fetched",
		"lat", lat,
		"lon", lon,
		"start", window.Start.Format(domain.DateLayout),
		"end", window.End.Format(domain.DateLayout),
		"samples", len(batch),
	)
	return batch, nil
}

// Open-Meteo forecast API response types. The hourly block is parallel
// arrays; individual measurement entries may be JSON null.

type forecastResponse struct {
	Hourly hourlyBlock `json:"hourly"`
}

type hourlyBlock struct {
	Time        []string   `json:"time"`
	Temperature []*float64 `json:"temperature_2m"`
	Humidity    []*float64 `json:"relativehumidity_2m"`
	WindSpeed   []*float64 `json:"windspeed_10m"`
}

// toBatch validates the parallel arrays and zips them into samples.
func (h hourlyBlock) toBatch() ([]domain.HourlySample, error) {
	if h.Time == nil || h.Temperature == nil || h.Humidity == nil || h.WindSpeed == nil {
		return nil, fmt.Errorf("%w: missing hourly field", domain.ErrMalformedResponse)
	}
	n := len(h.Time)
	if len(h.Temperature) != n || len(h.Humidity) != n || len(h.WindSpeed) != n {
		return nil, fmt.Errorf("%w: hourly arrays have unequal lengths", domain.ErrMalformedResponse)
	}

	batch := make([]domain.HourlySample, 0, n)
	for i := 0; i < n; i++ {
		ts, err := time.Parse(hourlyTimestampLayout, h.Time[i])
		if err != nil {
			return nil, fmt.Errorf("%w: bad timestamp %q", domain.ErrMalformedResponse, h.Time[i])
		}
		batch = append(batch, domain.HourlySample{
			Timestamp:   ts,
			Temperature: h.Temperature[i],
			Humidity:    h.Humidity[i],
			WindSpeed:   h.WindSpeed[i],
		})
	}
	return batch, nil
}
