// Command report renders chart artifacts from data already persisted in the
// SQLite store. It makes no network calls: run ingest first, then report as
// often as needed.
//
// Usage:
//
//	go run ./cmd/report -db data/weather.sqlite -reports reports
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"strings"

	"github.com/couchcryptid/weather-ingest/internal/adapter/sqlite"
	"github.com/couchcryptid/weather-ingest/internal/config"
	"github.com/couchcryptid/weather-ingest/internal/domain"
	"github.com/couchcryptid/weather-ingest/internal/observability"
	"github.com/couchcryptid/weather-ingest/internal/report"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	dbPath := flag.String("db", cfg.DatabasePath, "path to the SQLite database")
	reportDir := flag.String("reports", cfg.ReportDir, "directory for chart artifacts")
	locations := flag.String("locations", "", "comma-separated locations to render; empty means all stored locations")
	flag.Parse()

	logger := observability.NewLogger(cfg)

	store, err := sqlite.Open(*dbPath, logger)
	if err != nil {
		logger.Error("failed to open store", "path", *dbPath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()

	names, err := selectLocations(ctx, store, *locations)
	if err != nil {
		logger.Error("failed to list locations", "error", err)
		os.Exit(1)
	}
	if len(names) == 0 {
		logger.Warn("no stored locations to render")
		return
	}

	renderer := report.NewChartRenderer(logger)
	failures := 0
	for _, name := range names {
		if err := renderOne(ctx, store, renderer, name, *reportDir, logger); err != nil {
			failures++
			logger.Error("render failed", "location", name, "error", err)
		}
	}

	logger.Info("report complete", "locations", len(names), "failures", failures)
	if failures == len(names) {
		os.Exit(1)
	}
}

func selectLocations(ctx context.Context, store *sqlite.Store, filter string) ([]string, error) {
	if filter == "" {
		return store.Locations(ctx)
	}
	var names []string
	for _, name := range strings.Split(filter, ",") {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			names = append(names, trimmed)
		}
	}
	return names, nil
}

func renderOne(ctx context.Context, store *sqlite.Store, renderer *report.ChartRenderer, name, dir string, logger *slog.Logger) error {
	observations, err := store.Read(ctx, name)
	if err != nil {
		return err
	}
	if len(observations) == 0 {
		logger.Warn("no data to plot", "location", name)
		return nil
	}

	seriesPath, err := renderer.RenderSeries(observations, name, dir)
	if err != nil {
		return err
	}
	logger.Info("chart written", "location", name, "path", seriesPath)

	means := domain.DailyMeans(observations)
	if len(means) == 0 {
		return nil
	}
	meansPath, err := renderer.RenderDailyMeans(means, name, dir)
	if err != nil {
		return err
	}
	logger.Info("chart written", "location", name, "path", meansPath)
	return nil
}
