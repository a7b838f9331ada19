// Package msteams posts incident cards into Microsoft Teams channels through
// the Bot Framework connector of an installed team.
package msteams

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/afikmenashe/incident-notifier/services/notifier/internal/dispatch/handler"
	"github.com/afikmenashe/incident-notifier/services/notifier/internal/dispatch/render"
	"github.com/afikmenashe/incident-notifier/services/notifier/internal/dispatch/transport"
	"github.com/afikmenashe/incident-notifier/services/notifier/internal/models"
)

// DefaultCacheTTL bounds how long a team roster is reused.
const DefaultCacheTTL = 5 * time.Minute

// generalChannel is the display name of a team's default channel, which the roster lists without a name.
const generalChannel = "General"

type metadata struct {
	ServiceURL  string `json:"service_url"`
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"`
}

type conversation struct {
	ID   string  `json:"id"`
	Name *string `json:"name"`
}

type rosterResponse struct {
	Conversations []conversation `json:"conversations"`
}

type activityAttachment struct {
	ContentType string `json:"contentType"`
	Content     Card   `json:"content"`
}

// Activity is the message posted to a conversation.
type Activity struct {
	Type        string               `json:"type"`
	Attachments []activityAttachment `json:"attachments"`
}

// Config configures a Channel.
type Config struct {
	Brand    string
	Links    render.Links
	CacheTTL time.Duration
}

// Channel implements handler.Channel for Microsoft Teams actions.
type Channel struct {
	cfg       Config
	transport transport.Transport
	rosters   *cache.Cache
}

// NewChannel creates a Microsoft Teams channel.
func NewChannel(t transport.Transport, cfg Config) *Channel {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	return &Channel{
		cfg:       cfg,
		transport: t,
		rosters:   cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
	}
}

// Type returns the action type this channel serves.
func (c *Channel) Type() models.ActionType {
	return models.ActionTypeMSTeams
}

// ResolveTargets finds the conversation whose name (or id) matches the target.
// The unnamed default channel matches "General".
func (c *Channel) ResolveTargets(ctx context.Context, ev *handler.Event) ([]handler.Target, error) {
	action := ev.Action
	if action.TargetType != models.TargetTypeSpecific {
		return nil, &handler.InvalidTargetError{ActionType: action.Type, TargetType: action.TargetType}
	}
	md, err := credentials(action.Integration, ev.Now)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(action.TargetIdentifier)
	key := fmt.Sprintf("%d:%s", action.Integration.ID, md.AccessToken)
	if cached, ok := c.rosters.Get(key); ok {
		if id, found := findConversation(cached.([]conversation), name); found {
			return []handler.Target{{ID: action.TargetIdentifier, Address: id}}, nil
		}
		// the roster may predate the channel
		c.rosters.Delete(key)
	}

	roster, err := c.fetchRoster(ctx, action.Integration, md)
	if err != nil {
		return nil, err
	}
	c.rosters.SetDefault(key, roster)

	if id, found := findConversation(roster, name); found {
		return []handler.Target{{ID: action.TargetIdentifier, Address: id}}, nil
	}
	return nil, &handler.TargetNotFoundError{ActionType: action.Type, Identifier: action.TargetIdentifier}
}

func findConversation(roster []conversation, name string) (string, bool) {
	for _, conv := range roster {
		convName := generalChannel
		if conv.Name != nil {
			convName = *conv.Name
		}
		if conv.ID == name || strings.EqualFold(convName, name) {
			return conv.ID, true
		}
	}
	return "", false
}

func (c *Channel) fetchRoster(ctx context.Context, integration *models.Integration, md metadata) ([]conversation, error) {
	rawURL := fmt.Sprintf("%s/v3/teams/%s/conversations", md.serviceURL(), url.PathEscape(integration.ExternalID))
	var resp rosterResponse
	if err := transport.GetJSON(ctx, c.transport, rawURL, transport.Bearer(md.AccessToken), &resp); err != nil {
		return nil, fmt.Errorf("failed to list msteams conversations for integration %d: %w", integration.ID, err)
	}

	return resp.Conversations, nil
}

// Render builds the card posted for the dispatch.
func (c *Channel) Render(_ context.Context, ev *handler.Event) (handler.Payload, error) {
	return BuildIncidentAttachment(c.cfg.Links, c.cfg.Brand, ev.Incident, ev.Status, ev.MetricValue), nil
}

// Deliver posts one activity carrying the card to the target conversation.
func (c *Channel) Deliver(ctx context.Context, ev *handler.Event, target handler.Target, payload handler.Payload) error {
	card, ok := payload.(Card)
	if !ok {
		return fmt.Errorf("unexpected msteams payload %T", payload)
	}
	md, err := credentials(ev.Action.Integration, ev.Now)
	if err != nil {
		return err
	}

	activity := Activity{
		Type:        "message",
		Attachments: []activityAttachment{{ContentType: adaptiveCardContentType, Content: card}},
	}
	rawURL := fmt.Sprintf("%s/v3/conversations/%s/activities", md.serviceURL(), url.PathEscape(target.Address))
	return transport.PostJSON(ctx, c.transport, rawURL, transport.Bearer(md.AccessToken), activity, nil)
}

func (m metadata) serviceURL() string {
	return strings.TrimRight(m.ServiceURL, "/")
}

// credentials decodes the integration metadata and rejects tokens expired at now.
// Tokens are never refreshed here.
func credentials(integration *models.Integration, now time.Time) (metadata, error) {
	if integration == nil {
		return metadata{}, &handler.CredentialError{Reason: "msteams action has no integration"}
	}
	var md metadata
	if err := integration.DecodeMetadata(&md); err != nil {
		return metadata{}, &handler.CredentialError{IntegrationID: integration.ID, Reason: err.Error()}
	}
	switch {
	case md.AccessToken == "":
		return metadata{}, &handler.CredentialError{IntegrationID: integration.ID, Reason: "missing access token"}
	case md.ServiceURL == "":
		return metadata{}, &handler.CredentialError{IntegrationID: integration.ID, Reason: "missing service url"}
	case md.ExpiresAt > 0 && !now.Before(time.Unix(md.ExpiresAt, 0)):
		return metadata{}, &handler.CredentialError{IntegrationID: integration.ID, Reason: "access token expired"}
	}
	return md, nil
}
