package domain

import (
	"context"
	"time"
)

// TimestampLayout is the wire and storage format for observation timestamps:
// ISO-8601 without a UTC offset, matching what the forecast API reports.
const TimestampLayout = "2006-01-02T15:04:05"

// HourlySample is one element of a fetched batch: a timestamp plus the three
// measured variables. Nil means the upstream value was null for that hour.
type HourlySample struct {
	Timestamp   time.Time `json:"timestamp"`
	Temperature *float64  `json:"temperature"`
	Humidity    *float64  `json:"humidity"`
	WindSpeed   *float64  `json:"wind_speed"`
}

// Observation is one persisted hourly sample for a location. Latitude and
// longitude are informational and not part of the row identity.
type Observation struct {
	Location    string    `json:"location"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Timestamp   time.Time `json:"timestamp"`
	Temperature *float64  `json:"temperature"`
	Humidity    *float64  `json:"humidity"`
	WindSpeed   *float64  `json:"wind_speed"`
}

// Location is a resolved geocoding result. Name is the provider's display
// name and becomes the storage identity for everything ingested under it.
type Location struct {
	Name        string
	Latitude    float64
	Longitude   float64
	CountryCode string
	Timezone    string // IANA name, or "auto" when the provider omits it
}

// Resolver maps a free-text location name to coordinates and a timezone.
type Resolver interface {
	Resolve(ctx context.Context, name string) (Location, error)
}

// Fetcher retrieves the hourly observation series for a coordinate pair over
// an inclusive date window.
type Fetcher interface {
	FetchHourly(ctx context.Context, lat, lon float64, window TimeWindow, timezone string) ([]HourlySample, error)
}

// Store persists observation batches with insert-or-update semantics keyed by
// (location, timestamp) and reads them back in timestamp order.
type Store interface {
	Upsert(ctx context.Context, location string, lat, lon float64, batch []HourlySample) (int, error)
	Read(ctx context.Context, location string) ([]Observation, error)
}

// Publisher hands an ingested batch to a downstream transport. Implementations
// must not be required for ingestion to succeed.
type Publisher interface {
	PublishBatch(ctx context.Context, observations []Observation) error
}

// Renderer produces chart artifacts from observation series.
type Renderer interface {
	RenderSeries(observations []Observation, location, dir string) (string, error)
	RenderDailyMeans(means []DailyMean, location, dir string) (string, error)
}
