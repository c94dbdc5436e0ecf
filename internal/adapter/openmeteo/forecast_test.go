package openmeteo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/weather-ingest/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testForecastClient(baseURL string) *ForecastClient {
	c := NewForecastClient(5*time.Second, noRetries, testMetrics(), discardLogger())
	c.baseURL = baseURL
	return c
}

func testWindow(t *testing.T) domain.TimeWindow {
	t.Helper()
	start, err := time.Parse(domain.DateLayout, "2024-01-01")
	require.NoError(t, err)
	end, err := time.Parse(domain.DateLayout, "2024-01-02")
	require.NoError(t, err)
	return domain.TimeWindow{Start: start, End: end}
}

const hourlyPayload = `{
	"hourly": {
		"time": ["2024-01-01T00:00", "2024-01-01T01:00", "2024-01-01T02:00"],
		"temperature_2m": [20.0, 21.5, null],
		"relativehumidity_2m": [50.0, null, 52.0],
		"windspeed_10m": [5.0, 6.0, 7.5]
	}
}`

func TestForecastClient_FetchHourly_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "-3.71722", q.Get("latitude"))
		assert.Equal(t, "-38.54306", q.Get("longitude"))
		assert.Equal(t, "2024-01-01", q.Get("start_date"))
		assert.Equal(t, "2024-01-02", q.Get("end_date"))
		assert.Equal(t, "America/Fortaleza", q.Get("timezone"))
		assert.Equal(t, hourlyVariables, q.Get("hourly"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(hourlyPayload))
	}))
	defer srv.Close()

	batch, err := testForecastClient(srv.URL).FetchHourly(
		context.Background(), -3.71722, -38.54306, testWindow(t), "America/Fortaleza")
	require.NoError(t, err)
	require.Len(t, batch, 3)

	// Order is exactly the upstream order.
	assert.Equal(t, "2024-01-01T00:00:00", batch[0].Timestamp.Format(domain.TimestampLayout))
	require.NotNil(t, batch[0].Temperature)
	assert.Equal(t, 20.0, *batch[0].Temperature)
	require.NotNil(t, batch[0].Humidity)
	assert.Equal(t, 50.0, *batch[0].Humidity)
	require.NotNil(t, batch[0].WindSpeed)
	assert.Equal(t, 5.0, *batch[0].WindSpeed)

	// Upstream nulls survive as nil, never zero.
	assert.Nil(t, batch[1].Humidity)
	assert.Nil(t, batch[2].Temperature)
}

func TestForecastClient_FetchHourly_MissingField(t *testing.T) {
	// relativehumidity_2m is absent entirely.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"hourly": {
				"time": ["2024-01-01T00:00"],
				"temperature_2m": [20.0],
				"windspeed_10m": [5.0]
			}
		}`))
	}))
	defer srv.Close()

	_, err := testForecastClient(srv.URL).FetchHourly(
		context.Background(), 1, 2, testWindow(t), "auto")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
	assert.Equal(t, domain.KindMalformed, domain.Classify(err))
}

func TestForecastClient_FetchHourly_MissingHourlyBlock(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"latitude": 1, "longitude": 2}`))
	}))
	defer srv.Close()

	_, err := testForecastClient(srv.URL).FetchHourly(
		context.Background(), 1, 2, testWindow(t), "auto")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
}

func TestForecastClient_FetchHourly_UnequalLengths(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"hourly": {
				"time": ["2024-01-01T00:00", "2024-01-01T01:00"],
				"temperature_2m": [20.0],
				"relativehumidity_2m": [50.0, 51.0],
				"windspeed_10m": [5.0, 6.0]
			}
		}`))
	}))
	defer srv.Close()

	_, err := testForecastClient(srv.URL).FetchHourly(
		context.Background(), 1, 2, testWindow(t), "auto")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
}

func TestForecastClient_FetchHourly_BadTimestamp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"hourly": {
				"time": ["yesterday"],
				"temperature_2m": [20.0],
				"relativehumidity_2m": [50.0],
				"windspeed_10m": [5.0]
			}
		}`))
	}))
	defer srv.Close()

	_, err := testForecastClient(srv.URL).FetchHourly(
		context.Background(), 1, 2, testWindow(t), "auto")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
}

func TestForecastClient_FetchHourly_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := testForecastClient(srv.URL).FetchHourly(
		context.Background(), 1, 2, testWindow(t), "auto")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransport)
}
