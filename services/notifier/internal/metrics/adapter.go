package metrics

import (
	"time"

	"github.com/afikmenashe/incident-notifier/pkg/metrics"
)

// CollectorAdapter adapts pkg/metrics.Collector to the Recorder interface.
type CollectorAdapter struct {
	collector *metrics.Collector
}

// NewCollectorAdapter wraps a metrics.Collector to implement Recorder.
func NewCollectorAdapter(collector *metrics.Collector) *CollectorAdapter {
	return &CollectorAdapter{collector: collector}
}

func (a *CollectorAdapter) RecordReceived() {
	a.collector.RecordReceived()
}

func (a *CollectorAdapter) RecordProcessed(latency time.Duration) {
	a.collector.RecordProcessed(latency)
}

func (a *CollectorAdapter) RecordError() {
	a.collector.RecordError()
}

func (a *CollectorAdapter) RecordSkipped() {
	a.collector.IncrementCustom("events_skipped")
}

func (a *CollectorAdapter) RecordDelivered(channel string) {
	a.collector.RecordPublished()
	a.collector.IncrementCustom("deliveries_sent_" + channel)
}

func (a *CollectorAdapter) RecordDeliveryFailed(channel string) {
	a.collector.IncrementCustom("deliveries_failed_" + channel)
}

func (a *CollectorAdapter) RecordResolutionFailed(channel string) {
	a.collector.IncrementCustom("resolutions_failed_" + channel)
}

func (a *CollectorAdapter) RecordRenderFailed(channel string) {
	a.collector.IncrementCustom("renders_failed_" + channel)
}

var _ Recorder = (*CollectorAdapter)(nil)
