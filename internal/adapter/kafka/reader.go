package kafka

import (
	"context"
	"errors"
	"log/slog"

	"github.com/couchcryptid/dssat-eval-service/internal/config"
	"github.com/couchcryptid/dssat-eval-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Reader consumes evaluation requests from a Kafka topic.
// It implements pipeline.BatchExtractor.
type Reader struct {
	reader *kafkago.Reader
	cfg    *config.Config
	logger *slog.Logger
}

// NewReader creates a Kafka consumer group reader for the configured source topic.
func NewReader(cfg *config.Config, logger *slog.Logger) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        cfg.KafkaBrokers,
		Topic:          cfg.KafkaSourceTopic,
		GroupID:        cfg.KafkaGroupID,
		StartOffset:    kafkago.FirstOffset,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0,
	})
	return &Reader{reader: r, cfg: cfg, logger: logger}
}

// ExtractBatch fetches up to batchSize messages, waiting at most
// BatchFlushInterval after the first fetch attempt. Offsets are committed
// through each event's Commit function once the event has been handled.
func (r *Reader) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, r.cfg.BatchFlushInterval)
	defer cancel()

	batch := make([]domain.RawEvent, 0, batchSize)
	for len(batch) < batchSize {
		msg, err := r.reader.FetchMessage(fetchCtx)
		if err != nil {
			if ctx.Err() != nil {
				return batch, ctx.Err()
			}
			if errors.Is(err, context.DeadlineExceeded) {
				break
			}
			return batch, err
		}
		raw := mapMessageToRawEvent(msg)
		raw.Commit = func(ctx context.Context) error {
			return r.reader.CommitMessages(ctx, msg)
		}
		batch = append(batch, raw)
	}
	if len(batch) > 0 {
		r.logger.Debug("extracted batch", "size", len(batch), "topic", r.cfg.KafkaSourceTopic)
	}
	return batch, nil
}

// Close shuts down the consumer.
func (r *Reader) Close() error {
	return r.reader.Close()
}

// mapMessageToRawEvent copies a Kafka message into a domain.RawEvent.
func mapMessageToRawEvent(msg kafkago.Message) domain.RawEvent {
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	return domain.RawEvent{
		Key:       msg.Key,
		Value:     msg.Value,
		Headers:   headers,
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Timestamp: msg.Time,
	}
}
