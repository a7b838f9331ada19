// Package consumer provides Kafka consumer functionality for the incidents.actions topic.
package consumer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	kafkautil "github.com/afikmenashe/incident-notifier/pkg/kafka"
	"github.com/afikmenashe/incident-notifier/services/notifier/internal/events"
)

// Consumer wraps a Kafka reader and provides a simple interface for consuming trigger action events.
type Consumer struct {
	reader *kafka.Reader
	topic  string
}

// NewConsumer creates a new Kafka consumer with the specified brokers, topic, and group ID.
// The consumer is configured for at-least-once delivery semantics.
func NewConsumer(brokers string, topic string, groupID string) (*Consumer, error) {
	if err := kafkautil.ValidateConsumerParams(brokers, topic, groupID); err != nil {
		return nil, err
	}

	brokerList := kafkautil.ParseBrokers(brokers)

	slog.Info("Initializing Kafka consumer",
		"brokers", brokerList,
		"topic", topic,
		"group_id", groupID,
	)

	cfg := kafkautil.NewReaderConfig(brokerList, topic, groupID)
	reader := kafka.NewReader(cfg)
	kafkautil.LogReaderConfig(cfg)

	return &Consumer{
		reader: reader,
		topic:  topic,
	}, nil
}

// ReadMessage reads the next message from Kafka and deserializes it as a TriggerAction.
// The raw message is returned alongside decode errors so the caller can commit past it.
func (c *Consumer) ReadMessage(ctx context.Context) (*events.TriggerAction, *kafka.Message, error) {
	msg, err := c.reader.FetchMessage(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read message from Kafka: %w", err)
	}

	ev, err := events.Unmarshal(msg.Value)
	if err != nil {
		return nil, &msg, err
	}
	return ev, &msg, nil
}

// CommitMessage commits the offset for the given message.
// This should be called after the message has been handled.
func (c *Consumer) CommitMessage(ctx context.Context, msg *kafka.Message) error {
	return c.reader.CommitMessages(ctx, *msg)
}

// Close gracefully closes the Kafka reader and releases resources.
func (c *Consumer) Close() error {
	slog.Info("Closing Kafka consumer", "topic", c.topic)
	if err := c.reader.Close(); err != nil {
		slog.Error("Error closing Kafka consumer", "error", err)
		return err
	}
	slog.Info("Kafka consumer closed successfully")
	return nil
}
