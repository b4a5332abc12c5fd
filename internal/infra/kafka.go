package infra

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaProducer wraps a kafka-go writer for publishing unlock events.
type KafkaProducer struct {
	writer  *kafka.Writer
	logger  *slog.Logger
	enabled bool
}

// NewKafkaProducer creates a Kafka producer. If brokers is empty or disabled, writes are no-ops.
func NewKafkaProducer(brokers string, enabled bool, logger *slog.Logger) *KafkaProducer {
	if !enabled || brokers == "" {
		logger.Info("kafka producer disabled")
		return &KafkaProducer{enabled: false, logger: logger}
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(strings.Split(brokers, ",")...),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}

	logger.Info("kafka producer initialized", "brokers", brokers)
	return &KafkaProducer{writer: w, logger: logger, enabled: true}
}

// Enabled reports whether messages are actually sent.
func (p *KafkaProducer) Enabled() bool { return p.enabled }

// Publish sends a message to the given topic. Messages with the same key land
// on the same partition. No-op if disabled.
func (p *KafkaProducer) Publish(ctx context.Context, topic string, key, value []byte) error {
	if !p.enabled {
		return nil
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   key,
		Value: value,
	})
}

// Close shuts down the Kafka writer.
func (p *KafkaProducer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

// KafkaConsumer wraps a kafka-go reader for following the unlock topic.
type KafkaConsumer struct {
	reader *kafka.Reader
}

// NewKafkaConsumer creates a consumer for topic. An empty groupID reads the
// partition from the first offset without committing.
func NewKafkaConsumer(brokers, topic, groupID string) *KafkaConsumer {
	cfg := kafka.ReaderConfig{
		Brokers:  strings.Split(brokers, ","),
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 1e6,
	}
	if groupID == "" {
		cfg.StartOffset = kafka.FirstOffset
	}
	return &KafkaConsumer{reader: kafka.NewReader(cfg)}
}

// ReadMessage reads the next message. Blocks until a message is available or ctx ends.
func (c *KafkaConsumer) ReadMessage(ctx context.Context) (kafka.Message, error) {
	return c.reader.ReadMessage(ctx)
}

// Close shuts down the Kafka reader.
func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}
