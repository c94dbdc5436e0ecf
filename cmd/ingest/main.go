// Command ingest runs the weather ingestion pipeline: resolve each location
// name to coordinates, fetch the hourly series for the window, and upsert it
// into the SQLite store.
//
// One-shot by default. With INGEST_SCHEDULE set (a cron expression), it runs
// as a long-lived service that re-ingests on schedule and serves health,
// readiness, metrics, and last-run status over HTTP.
//
// Usage:
//
//	go run ./cmd/ingest -locations "Fortaleza, São Paulo" -days 7 -charts
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	httpadapter "github.com/couchcryptid/weather-ingest/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/weather-ingest/internal/adapter/kafka"
	"github.com/couchcryptid/weather-ingest/internal/adapter/openmeteo"
	"github.com/couchcryptid/weather-ingest/internal/adapter/sqlite"
	"github.com/couchcryptid/weather-ingest/internal/config"
	"github.com/couchcryptid/weather-ingest/internal/domain"
	"github.com/couchcryptid/weather-ingest/internal/observability"
	"github.com/couchcryptid/weather-ingest/internal/pipeline"
	"github.com/couchcryptid/weather-ingest/internal/report"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

func main() {
	_ = godotenv.Load() // optional .env; absence is fine

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	store, err := sqlite.Open(cfg.DatabasePath, logger)
	if err != nil {
		logger.Error("failed to open store", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Schema failures abort the whole run; nothing can be persisted.
	if err := store.Init(ctx); err != nil {
		logger.Error("failed to initialize schema", "error", err)
		os.Exit(1)
	}

	policy := openmeteo.RetryPolicy{
		MaxRetries: cfg.MaxRetries,
		BaseDelay:  cfg.RetryBaseDelay,
		MaxDelay:   openmeteo.DefaultRetryPolicy.MaxDelay,
	}

	geocoder := openmeteo.NewGeocodeClient(cfg.GeocodeLanguage, cfg.GeocodeTimeout, policy, metrics, logger)
	resolver := openmeteo.NewCachedResolver(geocoder, cfg.GeocodeCacheSize, metrics)
	fetcher := openmeteo.NewForecastClient(cfg.ForecastTimeout, policy, metrics, logger)

	var publisher domain.Publisher
	if cfg.KafkaEnabled {
		kp := kafkaadapter.NewPublisher(cfg, logger)
		defer kp.Close()
		publisher = kp
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaTopic)
	}

	var renderer domain.Renderer
	if cfg.Charts {
		renderer = report.NewChartRenderer(logger)
	}

	p := pipeline.New(resolver, fetcher, store, publisher, renderer, logger, metrics, pipeline.Options{
		Charts:    cfg.Charts,
		ReportDir: cfg.ReportDir,
	})

	if cfg.Schedule == "" {
		runOnce(ctx, p, cfg, logger)
		return
	}
	runScheduled(ctx, p, cfg, logger)
}

// applyFlags overlays the CLI argument surface onto the env-derived config.
func applyFlags(cfg *config.Config) {
	locations := flag.String("locations", strings.Join(cfg.Locations, ", "), "comma-separated location names")
	days := flag.Int("days", cfg.WindowDays, "number of days to ingest, ending today")
	dbPath := flag.String("db", cfg.DatabasePath, "path to the SQLite database")
	charts := flag.Bool("charts", cfg.Charts, "render chart artifacts after ingesting")
	reportDir := flag.String("reports", cfg.ReportDir, "directory for chart artifacts")
	flag.Parse()

	cfg.Locations = nil
	for _, name := range strings.Split(*locations, ",") {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			cfg.Locations = append(cfg.Locations, trimmed)
		}
	}
	cfg.WindowDays = *days
	cfg.DatabasePath = *dbPath
	cfg.Charts = *charts
	cfg.ReportDir = *reportDir
}

// runOnce performs a single ingestion run. Per-location failures are
// surfaced in logs, not in the exit code: the run itself succeeded.
func runOnce(ctx context.Context, p *pipeline.Pipeline, cfg *config.Config, logger *slog.Logger) {
	window := domain.WindowEndingToday(cfg.WindowDays)

	rep, err := p.Run(ctx, cfg.Locations, window)
	if err != nil {
		logger.Error("run aborted", "error", err)
		os.Exit(1)
	}
	logger.Info("run complete", "locations", len(rep.Results), "failures", rep.Failures)
}

// runScheduled serves the HTTP endpoints and re-runs ingestion on the cron
// schedule until a signal arrives. The first run happens immediately.
func runScheduled(ctx context.Context, p *pipeline.Pipeline, cfg *config.Config, logger *slog.Logger) {
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	job := func() {
		window := domain.WindowEndingToday(cfg.WindowDays)
		if _, err := p.Run(ctx, cfg.Locations, window); err != nil {
			logger.Error("scheduled run aborted", "error", err)
		}
	}
	job()

	c := cron.New()
	if _, err := c.AddFunc(cfg.Schedule, job); err != nil {
		logger.Error("invalid schedule", "schedule", cfg.Schedule, "error", err)
		os.Exit(1)
	}
	c.Start()
	logger.Info("scheduler started", "schedule", cfg.Schedule)

	<-ctx.Done()
	logger.Info("shutting down")

	cronCtx := c.Stop()
	<-cronCtx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
