// Package pagerduty sends incident trigger and resolve events to the PagerDuty
// Events API for a service configured on an organization integration.
package pagerduty

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/afikmenashe/incident-notifier/services/notifier/internal/dispatch/handler"
	"github.com/afikmenashe/incident-notifier/services/notifier/internal/dispatch/render"
	"github.com/afikmenashe/incident-notifier/services/notifier/internal/dispatch/transport"
	"github.com/afikmenashe/incident-notifier/services/notifier/internal/models"
)

// DefaultEventsURL is the Events API v2 ingestion endpoint.
const DefaultEventsURL = "https://events.pagerduty.com/v2/enqueue/"

// ServiceStore reads PagerDuty services configured on an integration.
type ServiceStore interface {
	// GetPagerDutyService returns models.ErrNotFound when the service is not
	// configured on the integration.
	GetPagerDutyService(ctx context.Context, integrationID, serviceID int64) (*models.PagerDutyService, error)
}

// Config configures a Channel.
type Config struct {
	EventsURL string
	Brand     string
	Links     render.Links
}

// Channel implements handler.Channel for PagerDuty actions.
type Channel struct {
	cfg       Config
	transport transport.Transport
	services  ServiceStore
}

// NewChannel creates a PagerDuty channel.
func NewChannel(t transport.Transport, services ServiceStore, cfg Config) *Channel {
	if cfg.EventsURL == "" {
		cfg.EventsURL = DefaultEventsURL
	}
	return &Channel{cfg: cfg, transport: t, services: services}
}

// Type returns the action type this channel serves.
func (c *Channel) Type() models.ActionType {
	return models.ActionTypePagerDuty
}

// ResolveTargets returns the integration key of the service the action names.
// Other services on the same integration are never used.
func (c *Channel) ResolveTargets(ctx context.Context, ev *handler.Event) ([]handler.Target, error) {
	action := ev.Action
	if action.TargetType != models.TargetTypeSpecific {
		return nil, &handler.InvalidTargetError{ActionType: action.Type, TargetType: action.TargetType}
	}
	if action.Integration == nil {
		return nil, &handler.CredentialError{Reason: "pagerduty action has no integration"}
	}

	serviceID, err := strconv.ParseInt(strings.TrimSpace(action.TargetIdentifier), 10, 64)
	if err != nil {
		return nil, &handler.TargetNotFoundError{ActionType: action.Type, Identifier: action.TargetIdentifier, Err: err}
	}

	service, err := c.services.GetPagerDutyService(ctx, action.Integration.ID, serviceID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, &handler.TargetNotFoundError{ActionType: action.Type, Identifier: action.TargetIdentifier, Err: err}
		}
		return nil, fmt.Errorf("failed to load pagerduty service %d: %w", serviceID, err)
	}
	if service.IntegrationKey == "" {
		return nil, &handler.CredentialError{IntegrationID: action.Integration.ID, Reason: "service has no integration key"}
	}

	return []handler.Target{{ID: service.ServiceName, Address: service.IntegrationKey}}, nil
}

// Render builds the event without a routing key; the key is bound per target.
func (c *Channel) Render(_ context.Context, ev *handler.Event) (handler.Payload, error) {
	return BuildIncidentAttachment(c.cfg.Links, c.cfg.Brand, ev.Incident, ev.Status, ev.Method, "", ev.MetricValue), nil
}

// Deliver posts the event routed to the target's integration key.
func (c *Channel) Deliver(ctx context.Context, _ *handler.Event, target handler.Target, payload handler.Payload) error {
	event, ok := payload.(Event)
	if !ok {
		return fmt.Errorf("unexpected pagerduty payload %T", payload)
	}
	event.RoutingKey = target.Address
	return transport.PostJSON(ctx, c.transport, c.cfg.EventsURL, nil, event, nil)
}
