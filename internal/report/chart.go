// Package report renders chart artifacts from observation series.
package report

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/weather-ingest/internal/domain"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ChartRenderer implements domain.Renderer with gonum/plot line charts.
// Filenames are derived from the slugified location name, so re-rendering
// the same location overwrites the previous artifact.
type ChartRenderer struct {
	logger *slog.Logger
}

// NewChartRenderer creates a renderer.
func NewChartRenderer(logger *slog.Logger) *ChartRenderer {
	return &ChartRenderer{logger: logger}
}

// RenderSeries draws the raw hourly temperature series. Hours with a null
// temperature are skipped. Returns the path of the written PNG.
func (r *ChartRenderer) RenderSeries(observations []domain.Observation, location, dir string) (string, error) {
	pts := make(plotter.XYs, 0, len(observations))
	for _, obs := range observations {
		if obs.Temperature == nil {
			continue
		}
		pts = append(pts, plotter.XY{X: float64(obs.Timestamp.Unix()), Y: *obs.Temperature})
	}

	path := filepath.Join(dir, fmt.Sprintf("temperature_over_time_%s.png", domain.Slugify(location)))
	title := fmt.Sprintf("Temperature in %s over time", location)
	if err := r.renderLine(pts, title, "Time", "Temperature (°C)", "2006-01-02 15:04", path); err != nil {
		return "", err
	}
	return path, nil
}

// RenderDailyMeans draws the daily mean temperature series.
func (r *ChartRenderer) RenderDailyMeans(means []domain.DailyMean, location, dir string) (string, error) {
	pts := make(plotter.XYs, 0, len(means))
	for _, m := range means {
		pts = append(pts, plotter.XY{X: float64(m.Date.Unix()), Y: m.MeanTemperature})
	}

	path := filepath.Join(dir, fmt.Sprintf("daily_mean_temperature_%s.png", domain.Slugify(location)))
	title := fmt.Sprintf("Daily mean temperature in %s", location)
	if err := r.renderLine(pts, title, "Day", "Mean temperature (°C)", "2006-01-02", path); err != nil {
		return "", err
	}
	return path, nil
}

func (r *ChartRenderer) renderLine(pts plotter.XYs, title, xLabel, yLabel, tickFormat, path string) error {
	if len(pts) == 0 {
		return fmt.Errorf("render %q: no plottable points", title)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.X.Tick.Marker = plot.TimeTicks{Format: tickFormat}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("build line: %w", err)
	}
	p.Add(line)

	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save chart: %w", err)
	}

	r.logger.Debug("chart rendered", "path", path, "points", len(pts))
	return nil
}
