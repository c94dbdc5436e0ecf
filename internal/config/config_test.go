package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"Fortaleza", "São Paulo"}, cfg.Locations)
	assert.Equal(t, 7, cfg.WindowDays)
	assert.Equal(t, "data/weather.sqlite", cfg.DatabasePath)
	assert.False(t, cfg.Charts)
	assert.Equal(t, "reports", cfg.ReportDir)
	assert.Empty(t, cfg.HTTPAddr)
	assert.Empty(t, cfg.Schedule)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "en", cfg.GeocodeLanguage)
	assert.Equal(t, 20*time.Second, cfg.GeocodeTimeout)
	assert.Equal(t, 60*time.Second, cfg.ForecastTimeout)
	assert.Equal(t, 256, cfg.GeocodeCacheSize)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.False(t, cfg.KafkaEnabled)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LOCATIONS", "Recife,  Natal , ")
	t.Setenv("WINDOW_DAYS", "3")
	t.Setenv("DATABASE_PATH", "/tmp/wx.sqlite")
	t.Setenv("CHARTS", "true")
	t.Setenv("REPORT_DIR", "/tmp/reports")
	t.Setenv("GEOCODE_LANGUAGE", "pt")
	t.Setenv("FORECAST_TIMEOUT", "15s")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092, broker-2:9092")
	t.Setenv("KAFKA_TOPIC", "observations")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"Recife", "Natal"}, cfg.Locations)
	assert.Equal(t, 3, cfg.WindowDays)
	assert.Equal(t, "/tmp/wx.sqlite", cfg.DatabasePath)
	assert.True(t, cfg.Charts)
	assert.Equal(t, "pt", cfg.GeocodeLanguage)
	assert.Equal(t, 15*time.Second, cfg.ForecastTimeout)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "observations", cfg.KafkaTopic)
	assert.True(t, cfg.KafkaEnabled)
}

func TestLoad_KafkaDisabledExplicitly(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker-1:9092")
	t.Setenv("KAFKA_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.KafkaEnabled)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "bad window days", key: "WINDOW_DAYS", value: "seven"},
		{name: "negative window days", key: "WINDOW_DAYS", value: "-1"},
		{name: "bad forecast timeout", key: "FORECAST_TIMEOUT", value: "soon"},
		{name: "negative geocode timeout", key: "GEOCODE_TIMEOUT", value: "-5s"},
		{name: "bad cache size", key: "GEOCODE_CACHE_SIZE", value: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	t.Run("kafka enabled without brokers", func(t *testing.T) {
		t.Setenv("KAFKA_ENABLED", "true")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("schedule without http addr", func(t *testing.T) {
		t.Setenv("INGEST_SCHEDULE", "@hourly")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("schedule with http addr", func(t *testing.T) {
		t.Setenv("INGEST_SCHEDULE", "@hourly")
		t.Setenv("HTTP_ADDR", ":8080")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "@hourly", cfg.Schedule)
	})

	t.Run("no locations after override", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)
		cfg.Locations = nil
		assert.Error(t, cfg.Validate())
	})
}
