package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/zephyra-labs/tradeledger/internal/domain/notification"
)

// Producer publishes merged-entry events to a Kafka topic for downstream
// consumers. It implements notification.Publisher.
type Producer struct {
	writer *kafkago.Writer
	logger zerolog.Logger
}

// NewProducer creates a producer for the given brokers and topic.
func NewProducer(brokers []string, topic string, logger zerolog.Logger) (*Producer, error) {
	if len(brokers) == 0 || topic == "" {
		return nil, errors.New("kafka producer requires brokers and topic")
	}
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		BatchTimeout: 100 * time.Millisecond,
		RequiredAcks: kafkago.RequireOne,
		WriteTimeout: 5 * time.Second,
	}
	return &Producer{
		writer: w,
		logger: logger.With().Str("component", "kafka").Logger(),
	}, nil
}

// Publish writes one event keyed by contract address, so per-contract
// ordering survives partitioning.
func (p *Producer) Publish(ctx context.Context, event *notification.Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(event.ContractAddress),
		Value: value,
	})
}

// Close flushes and closes the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
