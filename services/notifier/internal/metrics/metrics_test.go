package metrics

import (
	"testing"
	"time"

	"github.com/afikmenashe/incident-notifier/pkg/metrics"
)

func TestNoOp_AllMethodsWork(t *testing.T) {
	noop := NewNoOp()

	// All these should not panic
	noop.RecordReceived()
	noop.RecordProcessed(time.Second)
	noop.RecordError()
	noop.RecordSkipped()
	noop.RecordDelivered("slack")
	noop.RecordDeliveryFailed("slack")
	noop.RecordResolutionFailed("email")
	noop.RecordRenderFailed("msteams")
}

func TestCollectorAdapter_CountsPerChannel(t *testing.T) {
	collector := metrics.NewCollector("notifier", nil)
	adapter := NewCollectorAdapter(collector)

	adapter.RecordReceived()
	adapter.RecordProcessed(10 * time.Millisecond)
	adapter.RecordDelivered("slack")
	adapter.RecordDelivered("slack")
	adapter.RecordDeliveryFailed("pagerduty")
	adapter.RecordResolutionFailed("email")
	adapter.RecordRenderFailed("msteams")
	adapter.RecordSkipped()
	adapter.RecordError()

	snap := collector.GetSnapshot()
	if snap.MessagesReceived != 1 {
		t.Errorf("MessagesReceived = %d, want 1", snap.MessagesReceived)
	}
	if snap.MessagesPublished != 2 {
		t.Errorf("MessagesPublished = %d, want 2", snap.MessagesPublished)
	}
	if snap.ProcessingErrors != 1 {
		t.Errorf("ProcessingErrors = %d, want 1", snap.ProcessingErrors)
	}

	want := map[string]uint64{
		"deliveries_sent_slack":       2,
		"deliveries_failed_pagerduty": 1,
		"resolutions_failed_email":    1,
		"renders_failed_msteams":      1,
		"events_skipped":              1,
	}
	for name, count := range want {
		if got := snap.CustomCounters[name]; got != count {
			t.Errorf("CustomCounters[%q] = %d, want %d", name, got, count)
		}
	}
}
