package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/traffic-weather-etl/internal/config"
	"github.com/couchcryptid/traffic-weather-etl/internal/domain"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes the enriched table to a Kafka topic, one message per month.
// It implements pipeline.Sink.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

func (w *Writer) Name() string { return "kafka" }

// Deliver serializes every enriched month and publishes them in a single
// WriteMessages call.
func (w *Writer) Deliver(ctx context.Context, rows []domain.EnrichedRecord) error {
	if len(rows) == 0 {
		return nil
	}
	loadedAt := domain.Now()
	msgs := make([]kafkago.Message, len(rows))
	for i := range rows {
		msg, err := serializeToMessage(rows[i], loadedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish enriched months: %w", err)
	}
	w.logger.Debug("enriched months published", "messages", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an enriched month into a Kafka message keyed by month.
func serializeToMessage(row domain.EnrichedRecord, loadedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize enriched month: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(row.Month),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "season", Value: []byte(row.Season)},
			{Key: "loaded_at", Value: []byte(loadedAt.Format(time.RFC3339))},
		},
	}, nil
}
