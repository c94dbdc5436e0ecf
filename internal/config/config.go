package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
// CLI flags on cmd/ingest may override the run-shaping fields afterwards.
type Config struct {
	Locations    []string
	WindowDays   int
	DatabasePath string

	Charts    bool
	ReportDir string

	HTTPAddr        string // empty disables the HTTP endpoints
	Schedule        string // cron expression; empty means one-shot
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Open-Meteo client configuration.
	GeocodeLanguage  string
	GeocodeTimeout   time.Duration
	GeocodeCacheSize int
	ForecastTimeout  time.Duration
	MaxRetries       int
	RetryBaseDelay   time.Duration

	// Optional downstream publish.
	KafkaBrokers []string
	KafkaTopic   string
	KafkaEnabled bool
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	windowDays, err := parsePositiveInt("WINDOW_DAYS", 7)
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	geocodeTimeout, err := parseDuration("GEOCODE_TIMEOUT", 20*time.Second)
	if err != nil {
		return nil, err
	}
	forecastTimeout, err := parseDuration("FORECAST_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, err
	}
	retryBaseDelay, err := parseDuration("RETRY_BASE_DELAY", 500*time.Millisecond)
	if err != nil {
		return nil, err
	}

	cacheSize, err := parsePositiveInt("GEOCODE_CACHE_SIZE", 256)
	if err != nil {
		return nil, err
	}
	maxRetries, err := parsePositiveInt("MAX_RETRIES", 3)
	if err != nil {
		return nil, err
	}

	brokers := splitAndTrim(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		Locations:    splitAndTrim(envOrDefault("LOCATIONS", "Fortaleza, São Paulo")),
		WindowDays:   windowDays,
		DatabasePath: envOrDefault("DATABASE_PATH", "data/weather.sqlite"),

		Charts:    os.Getenv("CHARTS") == "true",
		ReportDir: envOrDefault("REPORT_DIR", "reports"),

		HTTPAddr:        os.Getenv("HTTP_ADDR"),
		Schedule:        os.Getenv("INGEST_SCHEDULE"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		GeocodeLanguage:  envOrDefault("GEOCODE_LANGUAGE", "en"),
		GeocodeTimeout:   geocodeTimeout,
		GeocodeCacheSize: cacheSize,
		ForecastTimeout:  forecastTimeout,
		MaxRetries:       maxRetries,
		RetryBaseDelay:   retryBaseDelay,

		KafkaBrokers: brokers,
		KafkaTopic:   envOrDefault("KAFKA_TOPIC", "hourly-weather-observations"),
		KafkaEnabled: kafkaEnabled,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks invariants that must hold after flag overrides as well.
func (c *Config) Validate() error {
	if len(c.Locations) == 0 {
		return errors.New("at least one location is required")
	}
	if c.DatabasePath == "" {
		return errors.New("DATABASE_PATH is required")
	}
	if c.Charts && c.ReportDir == "" {
		return errors.New("REPORT_DIR is required when charts are enabled")
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if c.Schedule != "" && c.HTTPAddr == "" {
		// Scheduled mode is a long-running service; it must expose health.
		return errors.New("HTTP_ADDR is required when INGEST_SCHEDULE is set")
	}
	return nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
