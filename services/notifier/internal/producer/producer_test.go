package producer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afikmenashe/incident-notifier/services/notifier/internal/events"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestNew_InvalidInputs(t *testing.T) {
	tests := []struct {
		name    string
		brokers string
		topic   string
	}{
		{name: "empty brokers", brokers: "", topic: "incidents.actions"},
		{name: "blank brokers", brokers: " , ", topic: "incidents.actions"},
		{name: "empty topic", brokers: "localhost:9092", topic: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.brokers, tt.topic)
			if err == nil {
				t.Errorf("New(%q, %q) expected error", tt.brokers, tt.topic)
			}
		})
	}
}

func TestProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := newWithWriter(w, "incidents.actions")
	now := time.Date(2024, 8, 20, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	ev := &events.TriggerAction{ActionID: 1, IncidentID: 42, ProjectID: 3, Method: events.MethodFire, MetricValue: 1000}
	require.NoError(t, p.Publish(context.Background(), ev))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "42", string(msg.Key))
	assert.Equal(t, now, msg.Time)

	decoded, err := events.Unmarshal(msg.Value)
	require.NoError(t, err)
	assert.Equal(t, ev.ActionID, decoded.ActionID)
	assert.Equal(t, ev.IncidentID, decoded.IncidentID)
	assert.Equal(t, events.MethodFire, decoded.Method)
	assert.Equal(t, events.SchemaVersion, decoded.SchemaVersion)

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "fire", headers["method"])
	assert.Equal(t, "1", headers["schema_version"])
}

func TestProducer_PublishRejectsInvalid(t *testing.T) {
	w := &fakeWriter{}
	p := newWithWriter(w, "incidents.actions")

	err := p.Publish(context.Background(), &events.TriggerAction{ActionID: 1, Method: events.MethodResolve})
	assert.Error(t, err)
	assert.Empty(t, w.msgs)
}

func TestProducer_PublishWriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	p := newWithWriter(w, "incidents.actions")

	err := p.Publish(context.Background(), &events.TriggerAction{ActionID: 1, IncidentID: 2, ProjectID: 3, Method: events.MethodFire})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "leader not available")

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}
