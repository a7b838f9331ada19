package kafka

import (
	"reflect"
	"testing"

	"github.com/segmentio/kafka-go"
)

func TestParseBrokers(t *testing.T) {
	tests := []struct {
		name    string
		brokers string
		want    []string
	}{
		{name: "empty", brokers: "", want: nil},
		{name: "single", brokers: "localhost:9092", want: []string{"localhost:9092"}},
		{name: "spaces and blanks", brokers: " a:9092 , ,b:9092 ", want: []string{"a:9092", "b:9092"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseBrokers(tt.brokers); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseBrokers(%q) = %v, want %v", tt.brokers, got, tt.want)
			}
		})
	}
}

func TestValidateConsumerParams(t *testing.T) {
	tests := []struct {
		name    string
		brokers string
		topic   string
		groupID string
		wantErr bool
	}{
		{name: "valid", brokers: "localhost:9092", topic: "incidents.actions", groupID: "notifier-group"},
		{name: "blank brokers", brokers: " , ", topic: "t", groupID: "g", wantErr: true},
		{name: "no topic", brokers: "localhost:9092", groupID: "g", wantErr: true},
		{name: "no group", brokers: "localhost:9092", topic: "t", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConsumerParams(tt.brokers, tt.topic, tt.groupID)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConsumerParams() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewReaderConfig(t *testing.T) {
	cfg := NewReaderConfig([]string{"localhost:9092"}, "incidents.actions", "notifier-group")

	if cfg.Topic != "incidents.actions" || cfg.GroupID != "notifier-group" {
		t.Errorf("NewReaderConfig() topic/group = %s/%s", cfg.Topic, cfg.GroupID)
	}
	if cfg.StartOffset != kafka.FirstOffset {
		t.Errorf("StartOffset = %d, want FirstOffset", cfg.StartOffset)
	}
	if cfg.CommitInterval != 0 {
		t.Errorf("CommitInterval = %v, want explicit commits", cfg.CommitInterval)
	}
}
