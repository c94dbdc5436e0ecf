package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// ingestion pipeline.
type Metrics struct {
	LocationsProcessed *prometheus.CounterVec // labels: outcome={success,error}
	LocationFailures   *prometheus.CounterVec // labels: kind
	RowsUpserted       prometheus.Counter
	RunDuration        prometheus.Histogram
	PipelineRunning    prometheus.Gauge

	// Upstream API metrics.
	GeocodeRequests  *prometheus.CounterVec   // labels: outcome={success,not_found,error}
	GeocodeCache     *prometheus.CounterVec   // labels: result={hit,miss}
	ForecastRequests *prometheus.CounterVec   // labels: outcome={success,error}
	APIDuration      *prometheus.HistogramVec // labels: api={geocode,forecast}

	ChartsRendered prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		LocationsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_ingest",
			Name:      "locations_processed_total",
			Help:      "Locations processed per run, by outcome.",
		}, []string{"outcome"}),
		LocationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_ingest",
			Name:      "location_failures_total",
			Help:      "Per-location failures by error kind.",
		}, []string{"kind"}),
		RowsUpserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_ingest",
			Name:      "rows_upserted_total",
			Help:      "Total observation rows submitted to the store.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "weather_ingest",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete ingestion run over all locations.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "weather_ingest",
			Name:      "pipeline_running",
			Help:      "1 while an ingestion run is active, 0 otherwise.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_ingest",
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_ingest",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		ForecastRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_ingest",
			Name:      "forecast_requests_total",
			Help:      "Forecast API requests by outcome.",
		}, []string{"outcome"}),
		APIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "weather_ingest",
			Name:      "api_duration_seconds",
			Help:      "Upstream API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"api"}),
		ChartsRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_ingest",
			Name:      "charts_rendered_total",
			Help:      "Chart artifacts written to the report directory.",
		}),
	}

	prometheus.MustRegister(
		m.LocationsProcessed,
		m.LocationFailures,
		m.RowsUpserted,
		m.RunDuration,
		m.PipelineRunning,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.ForecastRequests,
		m.APIDuration,
		m.ChartsRendered,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		LocationsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "weather_ingest", Name: "locations_processed_total"}, []string{"outcome"}),
		LocationFailures:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "weather_ingest", Name: "location_failures_total"}, []string{"kind"}),
		RowsUpserted:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "weather_ingest", Name: "rows_upserted_total"}),
		RunDuration:        prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "weather_ingest", Name: "run_duration_seconds"}),
		PipelineRunning:    prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "weather_ingest", Name: "pipeline_running"}),
		GeocodeRequests:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "weather_ingest", Name: "geocode_requests_total"}, []string{"outcome"}),
		GeocodeCache:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "weather_ingest", Name: "geocode_cache_total"}, []string{"result"}),
		ForecastRequests:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "weather_ingest", Name: "forecast_requests_total"}, []string{"outcome"}),
		APIDuration:        prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "weather_ingest", Name: "api_duration_seconds"}, []string{"api"}),
		ChartsRendered:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "weather_ingest", Name: "charts_rendered_total"}),
	}
}
