// Package producer publishes trigger action events to Kafka. The notifier
// consumes them; the producer backs the trigger-action-producer tool.
package producer

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	kafkautil "github.com/afikmenashe/incident-notifier/pkg/kafka"
	"github.com/afikmenashe/incident-notifier/services/notifier/internal/events"
)

// writeTimeout is the maximum time to wait for a Kafka write operation.
const writeTimeout = 10 * time.Second

// messageWriter is the part of *kafka.Writer the producer uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer wraps a Kafka writer for trigger action events.
// Messages are keyed by incident id so fire and resolve for one incident stay ordered.
type Producer struct {
	writer messageWriter
	topic  string
	now    func() time.Time
}

// New creates a producer for the given brokers and topic.
func New(brokers string, topic string) (*Producer, error) {
	brokerList := kafkautil.ParseBrokers(brokers)
	if len(brokerList) == 0 {
		return nil, fmt.Errorf("brokers cannot be empty")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokerList...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: writeTimeout,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
	slog.Info("Kafka producer configured",
		"brokers", brokerList,
		"topic", topic,
		"write_timeout", writeTimeout,
		"required_acks", "RequireOne",
	)
	return newWithWriter(writer, topic), nil
}

func newWithWriter(w messageWriter, topic string) *Producer {
	return &Producer{writer: w, topic: topic, now: time.Now}
}

// Publish validates, encodes and writes one trigger action event.
func (p *Producer) Publish(ctx context.Context, ev *events.TriggerAction) error {
	if ev.SchemaVersion == 0 {
		ev.SchemaVersion = events.SchemaVersion
	}
	if err := ev.Validate(); err != nil {
		return fmt.Errorf("invalid trigger action: %w", err)
	}
	payload, err := ev.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal trigger action: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(ev.IncidentID, 10)),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte("application/x-protobuf")},
			{Key: "schema_version", Value: []byte(strconv.Itoa(ev.SchemaVersion))},
			{Key: "method", Value: []byte(ev.Method)},
		},
		Time: p.now(),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}

	slog.Info("Published trigger action",
		"topic", p.topic,
		"action_id", ev.ActionID,
		"incident_id", ev.IncidentID,
		"method", ev.Method,
	)
	return nil
}

// Close gracefully closes the Kafka writer and releases resources.
func (p *Producer) Close() error {
	slog.Info("Closing Kafka producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		slog.Error("Error closing Kafka producer", "error", err)
		return err
	}
	return nil
}
