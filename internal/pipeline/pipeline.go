// Package pipeline sequences resolve → fetch → upsert → report for each
// requested location, isolating per-location failures.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/weather-ingest/internal/domain"
	"github.com/couchcryptid/weather-ingest/internal/observability"
)

// Options carries the run-shaping settings that are not collaborators.
type Options struct {
	Charts    bool
	ReportDir string
}

// LocationResult records the outcome of one location within a run.
type LocationResult struct {
	Input    string           `json:"input"`
	Resolved string           `json:"resolved,omitempty"`
	Rows     int              `json:"rows"`
	Charts   []string         `json:"charts,omitempty"`
	Error    string           `json:"error,omitempty"`
	Kind     domain.ErrorKind `json:"kind,omitempty"`
}

// RunReport summarizes a completed run for logging and the status endpoint.
type RunReport struct {
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Start      string           `json:"window_start"`
	End        string           `json:"window_end"`
	Results    []LocationResult `json:"results"`
	Failures   int              `json:"failures"`
}

// Pipeline is the ingestion driver. Locations are processed strictly
// sequentially in input order; there are no concurrent writers.
type Pipeline struct {
	resolver  domain.Resolver
	fetcher   domain.Fetcher
	store     domain.Store
	publisher domain.Publisher // nil disables publishing
	renderer  domain.Renderer  // nil disables charts
	logger    *slog.Logger
	metrics   *observability.Metrics
	opts      Options

	ready   atomic.Bool
	mu      sync.Mutex
	lastRun *RunReport
}

// New creates a Pipeline. publisher and renderer may be nil.
func New(
	resolver domain.Resolver,
	fetcher domain.Fetcher,
	store domain.Store,
	publisher domain.Publisher,
	renderer domain.Renderer,
	logger *slog.Logger,
	metrics *observability.Metrics,
	opts Options,
) *Pipeline {
	return &Pipeline{
		resolver:  resolver,
		fetcher:   fetcher,
		store:     store,
		publisher: publisher,
		renderer:  renderer,
		logger:    logger,
		metrics:   metrics,
		opts:      opts,
	}
}

// CheckReadiness returns nil once at least one run has completed.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no ingestion run has completed yet")
	}
	return nil
}

// LastRun returns the most recent run report, or nil before the first run.
func (p *Pipeline) LastRun() *RunReport {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastRun
}

// Run ingests every requested location over the window. A failure in one
// location is reported and never aborts the remaining locations; each
// location's upsert commits independently. The returned error is non-nil
// only when the context is cancelled mid-run.
func (p *Pipeline) Run(ctx context.Context, locations []string, window domain.TimeWindow) (RunReport, error) {
	report := RunReport{
		StartedAt: time.Now(),
		Start:     window.Start.Format(domain.DateLayout),
		End:       window.End.Format(domain.DateLayout),
	}

	p.logger.Info("ingestion run started",
		"locations", len(locations),
		"window_start", report.Start,
		"window_end", report.End,
	)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	for _, name := range locations {
		if ctx.Err() != nil {
			p.finishRun(&report)
			return report, fmt.Errorf("run cancelled: %w", ctx.Err())
		}

		result := p.ingestOne(ctx, name, window)
		report.Results = append(report.Results, result)

		if result.Error != "" {
			report.Failures++
			p.metrics.LocationsProcessed.WithLabelValues("error").Inc()
			p.metrics.LocationFailures.WithLabelValues(string(result.Kind)).Inc()
			p.logger.Error("location failed",
				"location", name,
				"kind", result.Kind,
				"error", result.Error,
			)
			continue
		}

		p.metrics.LocationsProcessed.WithLabelValues("success").Inc()
		p.logger.Info("location ingested",
			"location", name,
			"resolved", result.Resolved,
			"rows", result.Rows,
		)
	}

	p.finishRun(&report)
	p.logger.Info("ingestion run finished",
		"locations", len(locations),
		"failures", report.Failures,
		"duration", report.FinishedAt.Sub(report.StartedAt),
	)
	return report, nil
}

func (p *Pipeline) finishRun(report *RunReport) {
	report.FinishedAt = time.Now()
	p.metrics.RunDuration.Observe(report.FinishedAt.Sub(report.StartedAt).Seconds())
	p.ready.Store(true)

	p.mu.Lock()
	p.lastRun = report
	p.mu.Unlock()
}

// ingestOne runs the full chain for a single location. Any error is folded
// into the result; it never propagates past the driver boundary.
func (p *Pipeline) ingestOne(ctx context.Context, name string, window domain.TimeWindow) LocationResult {
	result := LocationResult{Input: name}

	loc, err := p.resolver.Resolve(ctx, name)
	if err != nil {
		return result.failed(err)
	}
	// Storage identity is the resolved display name, not the raw input.
	result.Resolved = loc.Name

	batch, err := p.fetcher.FetchHourly(ctx, loc.Latitude, loc.Longitude, window, loc.Timezone)
	if err != nil {
		return result.failed(err)
	}
	if len(batch) == 0 {
		p.logger.Warn("upstream returned no samples", "location", loc.Name)
		return result
	}

	rows, err := p.store.Upsert(ctx, loc.Name, loc.Latitude, loc.Longitude, batch)
	if err != nil {
		return result.failed(err)
	}
	result.Rows = rows
	p.metrics.RowsUpserted.Add(float64(rows))

	p.publish(ctx, loc, batch)

	if p.opts.Charts && p.renderer != nil {
		if err := p.renderCharts(ctx, loc.Name, &result); err != nil {
			return result.failed(err)
		}
	}

	return result
}

// publish hands the freshly persisted batch to the downstream transport.
// The store is the system of record, so publish failures are logged and
// otherwise ignored.
func (p *Pipeline) publish(ctx context.Context, loc domain.Location, batch []domain.HourlySample) {
	if p.publisher == nil {
		return
	}
	observations := make([]domain.Observation, len(batch))
	for i, s := range batch {
		observations[i] = domain.Observation{
			Location:    loc.Name,
			Latitude:    loc.Latitude,
			Longitude:   loc.Longitude,
			Timestamp:   s.Timestamp,
			Temperature: s.Temperature,
			Humidity:    s.Humidity,
			WindSpeed:   s.WindSpeed,
		}
	}
	if err := p.publisher.PublishBatch(ctx, observations); err != nil {
		p.logger.Warn("publish failed", "location", loc.Name, "error", err)
	}
}

func (p *Pipeline) renderCharts(ctx context.Context, location string, result *LocationResult) error {
	observations, err := p.store.Read(ctx, location)
	if err != nil {
		return err
	}
	if len(observations) == 0 {
		p.logger.Warn("no data to plot", "location", location)
		return nil
	}

	seriesPath, err := p.renderer.RenderSeries(observations, location, p.opts.ReportDir)
	if err != nil {
		return fmt.Errorf("render series: %w", err)
	}
	result.Charts = append(result.Charts, seriesPath)
	p.metrics.ChartsRendered.Inc()

	means := domain.DailyMeans(observations)
	if len(means) == 0 {
		return nil
	}
	meansPath, err := p.renderer.RenderDailyMeans(means, location, p.opts.ReportDir)
	if err != nil {
		return fmt.Errorf("render daily means: %w", err)
	}
	result.Charts = append(result.Charts, meansPath)
	p.metrics.ChartsRendered.Inc()

	return nil
}

func (r LocationResult) failed(err error) LocationResult {
	r.Error = err.Error()
	r.Kind = domain.Classify(err)
	return r
}
