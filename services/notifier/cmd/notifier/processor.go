package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/afikmenashe/incident-notifier/services/notifier/internal/dispatch/handler"
	"github.com/afikmenashe/incident-notifier/services/notifier/internal/events"
	"github.com/afikmenashe/incident-notifier/services/notifier/internal/metrics"
	"github.com/afikmenashe/incident-notifier/services/notifier/internal/models"
)

const workerCount = 10

const (
	loadRetryDelay    = time.Second
	maxLoadRetryDelay = 30 * time.Second
)

// work represents a unit of work for the worker pool.
type work struct {
	ev  *events.TriggerAction
	msg *kafka.Message
}

// messageSource is the part of the Kafka consumer the processor needs.
type messageSource interface {
	ReadMessage(ctx context.Context) (*events.TriggerAction, *kafka.Message, error)
	CommitMessage(ctx context.Context, msg *kafka.Message) error
}

// store loads the records a trigger action refers to.
type store interface {
	GetAction(ctx context.Context, actionID int64) (*models.Action, error)
	GetIncident(ctx context.Context, incidentID int64) (*models.Incident, error)
	GetProject(ctx context.Context, projectID int64) (*models.Project, error)
}

// dispatcher runs one fire or resolve.
type dispatcher interface {
	Dispatch(ctx context.Context, method handler.Method, metricValue float64, action *models.Action, incident *models.Incident, project *models.Project) (*handler.Result, error)
}

// processorDeps holds all dependencies needed for trigger action processing.
type processorDeps struct {
	consumer   messageSource
	store      store
	dispatcher dispatcher
	metrics    metrics.Recorder
	workers    int
	retryDelay time.Duration
}

// processTriggerActions reads trigger action events from Kafka and dispatches them concurrently.
func processTriggerActions(ctx context.Context, deps *processorDeps) error {
	workers := deps.workers
	if workers <= 0 {
		workers = workerCount
	}
	slog.Info("Starting trigger action processing loop", "workers", workers)

	jobs := make(chan work, workers*2)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go runWorker(ctx, deps, jobs, &wg)
	}

	dispatchMessages(ctx, deps, jobs)

	close(jobs)
	wg.Wait()
	slog.Info("Trigger action processing loop stopped")
	return nil
}

// runWorker processes jobs from the channel until it's closed.
func runWorker(ctx context.Context, deps *processorDeps, jobs <-chan work, wg *sync.WaitGroup) {
	defer wg.Done()
	for job := range jobs {
		processOne(ctx, deps, job.ev, job.msg)
	}
}

// dispatchMessages reads messages from Kafka and hands them to workers.
// Undecodable messages are committed and skipped.
func dispatchMessages(ctx context.Context, deps *processorDeps, jobs chan<- work) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			ev, msg, err := deps.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if msg != nil {
					slog.Warn("Skipping undecodable trigger action event",
						"partition", msg.Partition, "offset", msg.Offset, "error", err)
					deps.metrics.RecordSkipped()
					commitOffset(ctx, deps.consumer, msg)
					continue
				}
				slog.Error("Failed to read trigger action event", "error", err)
				continue
			}
			deps.metrics.RecordReceived()
			select {
			case jobs <- work{ev: ev, msg: msg}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// processOne handles a single trigger action: load, dispatch, commit.
// Transient store errors are retried in place until the records load, since a
// later commit on the same partition would move the offset past this event.
// The offset stays uncommitted only when shutdown interrupts that retry.
func processOne(ctx context.Context, deps *processorDeps, ev *events.TriggerAction, msg *kafka.Message) {
	startTime := time.Now()

	if err := ev.Validate(); err != nil {
		slog.Warn("Skipping invalid trigger action event", "error", err)
		deps.metrics.RecordSkipped()
		commitOffset(ctx, deps.consumer, msg)
		return
	}

	action, incident, project, err := loadWithRetry(ctx, deps, ev)
	if errors.Is(err, models.ErrNotFound) {
		slog.Warn("Skipping trigger action for missing record",
			"action_id", ev.ActionID, "incident_id", ev.IncidentID, "error", err)
		deps.metrics.RecordSkipped()
		commitOffset(ctx, deps.consumer, msg)
		return
	}
	if err != nil {
		slog.Warn("Stopped loading trigger action records on shutdown",
			"action_id", ev.ActionID, "incident_id", ev.IncidentID, "error", err)
		return
	}

	result, err := deps.dispatcher.Dispatch(ctx, handler.Method(ev.Method), ev.MetricValue, action, incident, project)
	if err != nil {
		logAndRecordError(deps.metrics, "Failed to dispatch trigger action",
			"action_id", ev.ActionID,
			"incident_id", ev.IncidentID,
			"method", ev.Method,
			"error", err,
		)
		commitOffset(ctx, deps.consumer, msg)
		return
	}

	deps.metrics.RecordProcessed(time.Since(startTime))
	if err := result.Err(); err != nil {
		logAndRecordError(deps.metrics, "Trigger action delivered with failures",
			"dispatch_id", result.DispatchID,
			"action_id", ev.ActionID,
			"incident_id", ev.IncidentID,
			"delivered", len(result.Delivered),
			"failed", len(result.Failures),
			"error", err,
		)
	} else {
		slog.Info("Successfully processed trigger action",
			"dispatch_id", result.DispatchID,
			"action_id", ev.ActionID,
			"incident_id", ev.IncidentID,
			"method", ev.Method,
			"status", result.Status.Key(),
			"delivered", len(result.Delivered),
		)
	}

	commitOffset(ctx, deps.consumer, msg)
}

// loadWithRetry loads the event's records, backing off between transient
// failures. It returns on success, on ErrNotFound, or when ctx is done.
func loadWithRetry(ctx context.Context, deps *processorDeps, ev *events.TriggerAction) (*models.Action, *models.Incident, *models.Project, error) {
	delay := deps.retryDelay
	if delay <= 0 {
		delay = loadRetryDelay
	}
	for {
		action, incident, project, err := loadRecords(ctx, deps.store, ev)
		if err == nil || errors.Is(err, models.ErrNotFound) {
			return action, incident, project, err
		}
		logAndRecordError(deps.metrics, "Failed to load trigger action records, retrying",
			"action_id", ev.ActionID,
			"incident_id", ev.IncidentID,
			"retry_in", delay.String(),
			"error", err,
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, nil, nil, err
		case <-timer.C:
		}
		delay = min(delay*2, maxLoadRetryDelay)
	}
}

// loadRecords fetches the action, incident and project an event refers to.
func loadRecords(ctx context.Context, s store, ev *events.TriggerAction) (*models.Action, *models.Incident, *models.Project, error) {
	action, err := s.GetAction(ctx, ev.ActionID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to get action %d: %w", ev.ActionID, err)
	}
	incident, err := s.GetIncident(ctx, ev.IncidentID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to get incident %d: %w", ev.IncidentID, err)
	}
	project, err := s.GetProject(ctx, ev.ProjectID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to get project %d: %w", ev.ProjectID, err)
	}
	return action, incident, project, nil
}

// commitOffset commits the Kafka offset for the given message.
func commitOffset(ctx context.Context, c messageSource, msg *kafka.Message) {
	if msg == nil {
		return
	}
	if err := c.CommitMessage(ctx, msg); err != nil {
		slog.Error("Failed to commit offset", "error", err)
	}
}

// logAndRecordError logs an error and records it in metrics.
func logAndRecordError(m metrics.Recorder, msg string, args ...any) {
	slog.Error(msg, args...)
	m.RecordError()
}
