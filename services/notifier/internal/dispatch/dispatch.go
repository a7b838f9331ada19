// Package dispatch provides a coordinator that routes trigger actions to the
// channel registered for their action type.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/afikmenashe/incident-notifier/services/notifier/internal/dispatch/handler"
	"github.com/afikmenashe/incident-notifier/services/notifier/internal/metrics"
	"github.com/afikmenashe/incident-notifier/services/notifier/internal/models"
)

// UnsupportedActionError means no channel is registered for the action type.
type UnsupportedActionError struct {
	ActionType models.ActionType
}

func (e *UnsupportedActionError) Error() string {
	return fmt.Sprintf("no channel registered for %s actions", e.ActionType)
}

// Dispatcher builds action handlers from a channel registry.
type Dispatcher struct {
	registry *handler.Registry
	opts     []handler.Option
}

// New creates a dispatcher with the given channels registered.
func New(recorder metrics.Recorder, logger *slog.Logger, channels ...handler.Channel) *Dispatcher {
	registry := handler.NewRegistry()
	for _, ch := range channels {
		registry.Register(ch)
	}
	return NewWithRegistry(registry, handler.WithRecorder(recorder), handler.WithLogger(logger))
}

// NewWithRegistry creates a dispatcher over a custom registry.
// This is useful for testing or custom channel configurations.
func NewWithRegistry(registry *handler.Registry, opts ...handler.Option) *Dispatcher {
	return &Dispatcher{registry: registry, opts: opts}
}

// Handler returns the action handler for one action of an incident.
func (d *Dispatcher) Handler(action *models.Action, incident *models.Incident, project *models.Project, opts ...handler.Option) (*handler.Handler, error) {
	ch, ok := d.registry.Get(action.Type)
	if !ok {
		return nil, &UnsupportedActionError{ActionType: action.Type}
	}
	all := make([]handler.Option, 0, len(d.opts)+len(opts))
	all = append(all, d.opts...)
	all = append(all, opts...)
	return handler.New(ch, action, incident, project, all...)
}

// Dispatch runs a fire or resolve for one action.
func (d *Dispatcher) Dispatch(ctx context.Context, method handler.Method, metricValue float64, action *models.Action, incident *models.Incident, project *models.Project) (*handler.Result, error) {
	h, err := d.Handler(action, incident, project)
	if err != nil {
		return nil, err
	}
	switch method {
	case handler.MethodFire:
		return h.Fire(ctx, metricValue)
	case handler.MethodResolve:
		return h.Resolve(ctx, metricValue)
	default:
		return nil, fmt.Errorf("unknown dispatch method %q", method)
	}
}

// Channels returns the registered action types.
func (d *Dispatcher) Channels() []models.ActionType {
	return d.registry.List()
}
