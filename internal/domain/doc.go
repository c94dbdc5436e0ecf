// Package domain models hourly weather observations ingested from the
// Open-Meteo APIs.
//
// # Data Source
//
// Locations are resolved through the Open-Meteo geocoding search endpoint
// (https://geocoding-api.open-meteo.com/v1/search). Only the top-ranked
// candidate is used; the provider's own ranking is trusted.
//
// Hourly series come from the Open-Meteo forecast endpoint
// (https://api.open-meteo.com/v1/forecast) as parallel arrays of timestamps
// and per-variable values:
//
//	temperature_2m        air temperature at 2 m, °C
//	relativehumidity_2m   relative humidity at 2 m, %
//	windspeed_10m         wind speed at 10 m, km/h
//
// Timestamps are local to the requested timezone and carry no UTC offset
// ("2024-01-01T13:00"). They are stored exactly as reported; no timezone
// normalization is applied anywhere in the pipeline.
//
// Individual hourly values may be null upstream (sensor gaps, model holes).
// Null survives the whole pipeline as a nil pointer and a SQL NULL — it is
// never coerced to zero.
//
// # Identity
//
// An observation is identified by (location, timestamp), where location is
// the display name returned by the geocoder, not the raw user input. Writing
// the same key twice replaces every mutable field, including latitude and
// longitude, which makes repeated ingestion runs convergent.
package domain
