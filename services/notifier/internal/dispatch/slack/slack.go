// Package slack posts incident attachments to Slack channels, private channels
// and direct messages using an integration's bot token.
package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/afikmenashe/incident-notifier/services/notifier/internal/dispatch/handler"
	"github.com/afikmenashe/incident-notifier/services/notifier/internal/dispatch/render"
	"github.com/afikmenashe/incident-notifier/services/notifier/internal/dispatch/transport"
	"github.com/afikmenashe/incident-notifier/services/notifier/internal/models"
)

// DefaultBaseURL is the Slack Web API root.
const DefaultBaseURL = "https://slack.com/api"

// DefaultCacheTTL bounds how long a channel list is reused.
const DefaultCacheTTL = 5 * time.Minute

var credentialErrors = map[string]bool{
	"not_authed":       true,
	"invalid_auth":     true,
	"account_inactive": true,
	"token_revoked":    true,
	"token_expired":    true,
}

type apiResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func (r apiResponse) err(integrationID int64, method string) error {
	if r.OK {
		return nil
	}
	if credentialErrors[r.Error] {
		return &handler.CredentialError{IntegrationID: integrationID, Reason: r.Error}
	}
	return fmt.Errorf("slack %s failed: %s", method, r.Error)
}

type metadata struct {
	AccessToken string `json:"access_token"`
}

// Config configures a Channel.
type Config struct {
	BaseURL  string
	Brand    string
	Links    render.Links
	CacheTTL time.Duration
}

// Channel implements handler.Channel for Slack actions.
type Channel struct {
	cfg       Config
	transport transport.Transport
	directory *directory
}

// NewChannel creates a Slack channel.
func NewChannel(t transport.Transport, cfg Config) *Channel {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	return &Channel{
		cfg:       cfg,
		transport: t,
		directory: newDirectory(cfg.BaseURL, t, cfg.CacheTTL),
	}
}

// Type returns the action type this channel serves.
func (c *Channel) Type() models.ActionType {
	return models.ActionTypeSlack
}

// ResolveTargets looks the target name up in the workspace. "@name" targets
// resolve against members; other names against public then private channels.
func (c *Channel) ResolveTargets(ctx context.Context, ev *handler.Event) ([]handler.Target, error) {
	action := ev.Action
	if action.TargetType != models.TargetTypeSpecific {
		return nil, &handler.InvalidTargetError{ActionType: action.Type, TargetType: action.TargetType}
	}
	token, err := accessToken(action.Integration)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(action.TargetIdentifier)
	kinds := []listKind{kindChannels, kindGroups}
	switch {
	case strings.HasPrefix(name, "@"):
		kinds = []listKind{kindUsers}
		name = strings.TrimPrefix(name, "@")
	case strings.HasPrefix(name, "#"):
		name = strings.TrimPrefix(name, "#")
	}

	for _, kind := range kinds {
		id, err := c.directory.lookup(ctx, action.Integration.ID, token, kind, name)
		if err != nil {
			return nil, err
		}
		if id != "" {
			return []handler.Target{{ID: action.TargetIdentifier, Address: id}}, nil
		}
	}
	return nil, &handler.TargetNotFoundError{ActionType: action.Type, Identifier: action.TargetIdentifier}
}

// Render builds the single attachment posted for the dispatch.
func (c *Channel) Render(_ context.Context, ev *handler.Event) (handler.Payload, error) {
	return BuildIncidentAttachment(c.cfg.Links, c.cfg.Brand, ev.Incident, ev.Status, ev.MetricValue), nil
}

// Deliver posts chat.postMessage with channel, token and a one-element attachments array.
func (c *Channel) Deliver(ctx context.Context, ev *handler.Event, target handler.Target, payload handler.Payload) error {
	attachment, ok := payload.(Attachment)
	if !ok {
		return fmt.Errorf("unexpected slack payload %T", payload)
	}
	token, err := accessToken(ev.Action.Integration)
	if err != nil {
		return err
	}

	attachments, err := json.Marshal([]Attachment{attachment})
	if err != nil {
		return fmt.Errorf("failed to marshal slack attachment: %w", err)
	}
	form := url.Values{
		"channel":     {target.Address},
		"token":       {token},
		"attachments": {string(attachments)},
	}

	var resp apiResponse
	if err := transport.PostForm(ctx, c.transport, c.cfg.BaseURL+"/chat.postMessage", nil, form, &resp); err != nil {
		return err
	}
	return resp.err(ev.Action.Integration.ID, "chat.postMessage")
}

func accessToken(integration *models.Integration) (string, error) {
	if integration == nil {
		return "", &handler.CredentialError{Reason: "slack action has no integration"}
	}
	var md metadata
	if err := integration.DecodeMetadata(&md); err != nil {
		return "", &handler.CredentialError{IntegrationID: integration.ID, Reason: err.Error()}
	}
	if md.AccessToken == "" {
		return "", &handler.CredentialError{IntegrationID: integration.ID, Reason: "missing access token"}
	}
	return md.AccessToken, nil
}
