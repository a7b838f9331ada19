// Package metrics provides metrics recording interfaces for the notifier service.
// It uses the null object pattern to avoid nil checks throughout the codebase.
package metrics

import "time"

// Recorder defines the interface for recording notifier metrics.
type Recorder interface {
	// RecordReceived increments the count of received trigger-action events.
	RecordReceived()

	// RecordProcessed records a handled event with its latency.
	RecordProcessed(latency time.Duration)

	// RecordError increments the error counter.
	RecordError()

	// RecordSkipped increments the count of events skipped before dispatch.
	RecordSkipped()

	// RecordDelivered increments the per-channel count of successful deliveries.
	RecordDelivered(channel string)

	// RecordDeliveryFailed increments the per-channel count of failed deliveries.
	RecordDeliveryFailed(channel string)

	// RecordResolutionFailed increments the per-channel count of dispatches
	// aborted because targets could not be resolved.
	RecordResolutionFailed(channel string)

	// RecordRenderFailed increments the per-channel count of dispatches
	// aborted because the payload could not be rendered.
	RecordRenderFailed(channel string)
}

// NoOp is a no-op implementation of Recorder that discards all metrics.
// Use this when metrics collection is not configured.
type NoOp struct{}

// NewNoOp creates a new no-op metrics recorder.
func NewNoOp() *NoOp {
	return &NoOp{}
}

func (n *NoOp) RecordReceived()                 {}
func (n *NoOp) RecordProcessed(_ time.Duration) {}
func (n *NoOp) RecordError()                    {}
func (n *NoOp) RecordSkipped()                  {}
func (n *NoOp) RecordDelivered(_ string)        {}
func (n *NoOp) RecordDeliveryFailed(_ string)   {}
func (n *NoOp) RecordResolutionFailed(_ string) {}
func (n *NoOp) RecordRenderFailed(_ string)     {}

var _ Recorder = (*NoOp)(nil)
