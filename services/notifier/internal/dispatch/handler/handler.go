package handler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/afikmenashe/incident-notifier/services/notifier/internal/metrics"
	"github.com/afikmenashe/incident-notifier/services/notifier/internal/models"
)

// Handler dispatches fire and resolve events for one action of one incident.
// It holds no mutable state and may be used from several goroutines.
type Handler struct {
	channel  Channel
	action   *models.Action
	incident *models.Incident
	project  *models.Project

	clock    Clock
	recorder metrics.Recorder
	logger   *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithClock sets the clock used for "now" fields.
func WithClock(c Clock) Option {
	return func(h *Handler) { h.clock = c }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(h *Handler) { h.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) { h.logger = l }
}

// New creates a handler for the action. The channel must serve the action's type.
func New(ch Channel, action *models.Action, incident *models.Incident, project *models.Project, opts ...Option) (*Handler, error) {
	if ch == nil {
		return nil, fmt.Errorf("channel is required")
	}
	if action == nil || incident == nil || project == nil {
		return nil, fmt.Errorf("action, incident and project are required")
	}
	if ch.Type() != action.Type {
		return nil, fmt.Errorf("channel %s cannot handle %s action %d", ch.Type(), action.Type, action.ID)
	}

	h := &Handler{
		channel:  ch,
		action:   action,
		incident: incident,
		project:  project,
		clock:    SystemClock{},
		recorder: metrics.NewNoOp(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Fire notifies every target that the incident entered or escalated a trigger state.
func (h *Handler) Fire(ctx context.Context, metricValue float64) (*Result, error) {
	return h.dispatch(ctx, MethodFire, h.fireStatus(), metricValue)
}

// Resolve notifies every target that the incident returned to a closed state.
func (h *Handler) Resolve(ctx context.Context, metricValue float64) (*Result, error) {
	return h.dispatch(ctx, MethodResolve, models.StatusClosed, metricValue)
}

// fireStatus reads the incident's current trigger state once. Incidents that are
// not (yet) critical or warning fall back to the label of the action's trigger.
func (h *Handler) fireStatus() models.IncidentStatus {
	if h.incident.Status.IsTriggered() {
		return h.incident.Status
	}
	if h.action.Trigger != nil && h.action.Trigger.Label == "warning" {
		return models.StatusWarning
	}
	return models.StatusCritical
}

func (h *Handler) dispatch(ctx context.Context, method Method, status models.IncidentStatus, metricValue float64) (*Result, error) {
	ev := &Event{
		DispatchID:  uuid.New().String(),
		Method:      method,
		Status:      status,
		MetricValue: metricValue,
		Now:         h.clock.Now(),
		Action:      h.action,
		Incident:    h.incident,
		Project:     h.project,
	}
	channelName := h.channel.Type().String()
	log := h.logger.With(
		"dispatch_id", ev.DispatchID,
		"channel", channelName,
		"method", string(method),
		"action_id", h.action.ID,
		"incident_id", h.incident.ID,
	)

	targets, err := h.channel.ResolveTargets(ctx, ev)
	if err != nil {
		h.recorder.RecordResolutionFailed(channelName)
		log.Error("Failed to resolve notification targets", "error", err)
		return nil, fmt.Errorf("failed to resolve %s targets for action %d: %w", channelName, h.action.ID, err)
	}

	result := &Result{
		DispatchID: ev.DispatchID,
		Method:     method,
		Status:     status,
		Targets:    targets,
	}
	if len(targets) == 0 {
		log.Info("No notification targets resolved")
		return result, nil
	}

	payload, err := h.channel.Render(ctx, ev)
	if err != nil {
		h.recorder.RecordRenderFailed(channelName)
		log.Error("Failed to render notification payload", "error", err)
		return nil, fmt.Errorf("failed to render %s payload for incident %d: %w", channelName, h.incident.ID, err)
	}

	for _, target := range targets {
		if err := h.channel.Deliver(ctx, ev, target, payload); err != nil {
			h.recorder.RecordDeliveryFailed(channelName)
			log.Error("Failed to deliver notification", "target", target.String(), "error", err)
			result.Failures = append(result.Failures, &DeliveryError{
				ActionType: h.action.Type,
				Target:     target,
				Err:        err,
			})
			continue
		}
		h.recorder.RecordDelivered(channelName)
		result.Delivered = append(result.Delivered, target)
	}

	log.Info("Dispatched notification",
		"status", status.Key(),
		"targets", len(targets),
		"delivered", len(result.Delivered),
		"failed", len(result.Failures),
	)
	return result, nil
}
