// Package sqlite persists hourly observations in a single-file SQLite
// database using the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/weather-ingest/internal/domain"
	_ "modernc.org/sqlite"
)

// Store implements domain.Store on a single relation keyed by
// (location, timestamp).
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates the parent directory if needed, opens the database file, and
// verifies the connection. The pool is capped at one connection: ingestion is
// strictly sequential and SQLite allows only one writer anyway.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create database directory: %w", domain.ErrStorage, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %w", domain.ErrStorage, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping database: %w", domain.ErrStorage, err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Init creates the relation and its indexes if absent. Safe to call on every
// process start; existing data is never dropped or migrated.
func (s *Store) Init(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS hourly_weather (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		location    TEXT NOT NULL,
		latitude    REAL NOT NULL,
		longitude   REAL NOT NULL,
		timestamp   TEXT NOT NULL,
		temperature REAL,
		humidity    REAL,
		wind_speed  REAL,
		UNIQUE(location, timestamp)
	)`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("%w: create table: %w", domain.ErrStorage, err)
	}
	if _, err := s.db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_location_timestamp ON hourly_weather(location, timestamp)`,
	); err != nil {
		return fmt.Errorf("%w: create index: %w", domain.ErrStorage, err)
	}
	return nil
}

// Upsert writes a batch of hourly samples for one location inside a single
// transaction. Existing (location, timestamp) rows are overwritten on every
// mutable field, latitude and longitude included, so the newest fetch always
// wins.
//
// Counting policy: the returned count is the number of rows submitted, not
// the driver's per-statement RowsAffected, which SQLite does not aggregate
// reliably across a batch. Re-applying an identical batch therefore reports
// the same count even though the row set is unchanged.
func (s *Store) Upsert(ctx context.Context, location string, lat, lon float64, batch []domain.HourlySample) (int, error) {
	if len(batch) == 0 {
		return 0, fmt.Errorf("%w: empty batch for %q", domain.ErrStorage, location)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: begin tx: %w", domain.ErrStorage, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO hourly_weather
			(location, latitude, longitude, timestamp, temperature, humidity, wind_speed)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(location, timestamp) DO UPDATE SET
			latitude    = excluded.latitude,
			longitude   = excluded.longitude,
			temperature = excluded.temperature,
			humidity    = excluded.humidity,
			wind_speed  = excluded.wind_speed`)
	if err != nil {
		return 0, fmt.Errorf("%w: prepare upsert: %w", domain.ErrStorage, err)
	}
	defer stmt.Close()

	for _, sample := range batch {
		_, err := stmt.ExecContext(ctx,
			location,
			lat,
			lon,
			sample.Timestamp.Format(domain.TimestampLayout),
			toNullFloat(sample.Temperature),
			toNullFloat(sample.Humidity),
			toNullFloat(sample.WindSpeed),
		)
		if err != nil {
			return 0, fmt.Errorf("%w: upsert row %s/%s: %w",
				domain.ErrStorage, location, sample.Timestamp.Format(domain.TimestampLayout), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: commit: %w", domain.ErrStorage, err)
	}

	s.logger.Debug("batch upserted", "location", location, "rows", len(batch))
	return len(batch), nil
}

// Read returns every row for the location ascending by timestamp. ISO-8601
// text sorts chronologically, so the index order is the temporal order. An
// unknown location yields an empty slice, not an error.
func (s *Store) Read(ctx context.Context, location string) ([]domain.Observation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT location, latitude, longitude, timestamp, temperature, humidity, wind_speed
		FROM hourly_weather
		WHERE location = ?
		ORDER BY timestamp`, location)
	if err != nil {
		return nil, fmt.Errorf("%w: read %q: %w", domain.ErrStorage, location, err)
	}
	defer rows.Close()

	var observations []domain.Observation
	for rows.Next() {
		var (
			obs         domain.Observation
			ts          string
			temperature sql.NullFloat64
			humidity    sql.NullFloat64
			windSpeed   sql.NullFloat64
		)
		if err := rows.Scan(&obs.Location, &obs.Latitude, &obs.Longitude, &ts, &temperature, &humidity, &windSpeed); err != nil {
			return nil, fmt.Errorf("%w: scan row: %w", domain.ErrStorage, err)
		}
		obs.Timestamp, err = parseTimestamp(ts)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrStorage, err)
		}
		obs.Temperature = fromNullFloat(temperature)
		obs.Humidity = fromNullFloat(humidity)
		obs.WindSpeed = fromNullFloat(windSpeed)
		observations = append(observations, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read %q: %w", domain.ErrStorage, location, err)
	}
	return observations, nil
}

// Locations returns the distinct location names present in the store, in
// lexical order.
func (s *Store) Locations(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT location FROM hourly_weather ORDER BY location`)
	if err != nil {
		return nil, fmt.Errorf("%w: list locations: %w", domain.ErrStorage, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%w: scan location: %w", domain.ErrStorage, err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list locations: %w", domain.ErrStorage, err)
	}
	return names, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func parseTimestamp(ts string) (time.Time, error) {
	parsed, err := time.Parse(domain.TimestampLayout, ts)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored timestamp %q: %w", ts, err)
	}
	return parsed, nil
}

func toNullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func fromNullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
