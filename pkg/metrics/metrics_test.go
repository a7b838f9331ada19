package metrics

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestCollector_Counters(t *testing.T) {
	c := NewCollector("notifier", nil)

	c.RecordReceived()
	c.RecordReceived()
	c.RecordProcessed(20 * time.Millisecond)
	c.RecordProcessed(40 * time.Millisecond)
	c.RecordPublished()
	c.RecordError()

	snap := c.GetSnapshot()
	if snap.ServiceName != "notifier" {
		t.Errorf("ServiceName = %q, want notifier", snap.ServiceName)
	}
	if snap.MessagesReceived != 2 {
		t.Errorf("MessagesReceived = %d, want 2", snap.MessagesReceived)
	}
	if snap.MessagesProcessed != 2 {
		t.Errorf("MessagesProcessed = %d, want 2", snap.MessagesProcessed)
	}
	if snap.MessagesPublished != 1 {
		t.Errorf("MessagesPublished = %d, want 1", snap.MessagesPublished)
	}
	if snap.ProcessingErrors != 1 {
		t.Errorf("ProcessingErrors = %d, want 1", snap.ProcessingErrors)
	}
	if want := float64(30 * time.Millisecond); snap.AvgProcessingLatencyNs != want {
		t.Errorf("AvgProcessingLatencyNs = %v, want %v", snap.AvgProcessingLatencyNs, want)
	}
}

func TestCollector_IncrementCustomConcurrent(t *testing.T) {
	c := NewCollector("notifier", nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.IncrementCustom("deliveries_sent_slack")
		}()
	}
	wg.Wait()

	if got := c.GetSnapshot().CustomCounters["deliveries_sent_slack"]; got != 50 {
		t.Errorf("custom counter = %d, want 50", got)
	}
}

func TestCollector_StartStopWithoutRedis(t *testing.T) {
	c := NewCollector("notifier", nil)
	c.SetReportInterval(time.Millisecond)
	c.Start(context.Background())
	time.Sleep(5 * time.Millisecond)

	// writes are skipped without a client; Stop must not block or panic twice
	c.Stop()
	c.Stop()
}
