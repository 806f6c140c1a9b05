package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/quake-alert-etl/internal/config"
	"github.com/couchcryptid/quake-alert-etl/internal/domain"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces normalized earthquakes to a Kafka topic.
// It implements pipeline.EventSink.
type Writer struct {
	writer *kafkago.Writer
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, clock: clockwork.NewRealClock(), logger: logger}
}

// LoadBatch serializes and publishes the events in a single WriteMessages
// call. Events are keyed by earthquake_id so updates to one event keep their
// partition.
func (w *Writer) LoadBatch(ctx context.Context, events []domain.NormalizedEvent) error {
	if len(events) == 0 {
		return nil
	}
	processedAt := w.clock.Now().UTC()
	msgs := make([]kafkago.Message, len(events))
	for i := range events {
		msg, err := serializeToMessage(events[i], processedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d messages to %s: %w", len(msgs), w.writer.Topic, err)
	}
	w.logger.Debug("earthquakes published", "topic", w.writer.Topic, "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a NormalizedEvent into a Kafka message.
func serializeToMessage(event domain.NormalizedEvent, processedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize earthquake: %w", err)
	}
	msg := kafkago.Message{
		Value: data,
		Headers: []kafkago.Header{
			{Key: "processed_at", Value: []byte(processedAt.Format(time.RFC3339))},
		},
	}
	if id := event.ID(); id != "" {
		msg.Key = []byte(id)
	}
	if event.MagType != nil {
		msg.Headers = append(msg.Headers, kafkago.Header{Key: "magtype", Value: []byte(*event.MagType)})
	}
	return msg, nil
}
