// Package kafka publishes ingested observation batches to a sink topic for
// downstream consumers. Publishing is optional; the SQLite store remains the
// system of record.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/weather-ingest/internal/config"
	"github.com/couchcryptid/weather-ingest/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Publisher produces observation messages to a Kafka topic. It implements
// domain.Publisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured sink topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// PublishBatch serializes and publishes all observations of one ingestion in
// a single WriteMessages call. Messages for the same location share a key so
// they land on one partition in timestamp order.
func (p *Publisher) PublishBatch(ctx context.Context, observations []domain.Observation) error {
	if len(observations) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(observations))
	for i := range observations {
		msg, err := serializeToMessage(observations[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return p.writer.WriteMessages(ctx, msgs...)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals an Observation into a Kafka message.
func serializeToMessage(obs domain.Observation) (kafkago.Message, error) {
	data, err := json.Marshal(obs)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize observation: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(domain.Slugify(obs.Location)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "location", Value: []byte(obs.Location)},
			{Key: "observed_at", Value: []byte(obs.Timestamp.Format(domain.TimestampLayout))},
			{Key: "ingested_at", Value: []byte(time.Now().UTC().Format(time.RFC3339))},
		},
	}, nil
}
