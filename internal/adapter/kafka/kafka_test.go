package kafka

import (
	"testing"
	"time"

	"github.com/couchcryptid/weather-ingest/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestSerializeToMessage(t *testing.T) {
	ts := time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC)
	obs := domain.Observation{
		Location:    "São Paulo",
		Latitude:    -23.55,
		Longitude:   -46.63,
		Timestamp:   ts,
		Temperature: ptr(24.5),
		Humidity:    ptr(61.0),
		WindSpeed:   nil,
	}

	msg, err := serializeToMessage(obs)
	require.NoError(t, err)

	assert.Equal(t, []byte("sao-paulo"), msg.Key, "key is the location slug")
	assert.Contains(t, string(msg.Value), `"location":"São Paulo"`)
	assert.Contains(t, string(msg.Value), `"temperature":24.5`)
	assert.Contains(t, string(msg.Value), `"wind_speed":null`, "null survives serialization")

	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "location", msg.Headers[0].Key)
	assert.Equal(t, []byte("São Paulo"), msg.Headers[0].Value)
	assert.Equal(t, "observed_at", msg.Headers[1].Key)
	assert.Equal(t, []byte("2024-01-01T13:00:00"), msg.Headers[1].Value)
	assert.Equal(t, "ingested_at", msg.Headers[2].Key)
	_, err = time.Parse(time.RFC3339, string(msg.Headers[2].Value))
	assert.NoError(t, err, "ingested_at should be valid RFC3339")
}
