// Package email delivers incident notifications by email to a single user or to
// every member of a team, honouring each user's alert mail preferences.
package email

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/afikmenashe/incident-notifier/services/notifier/internal/dispatch/email/provider"
	"github.com/afikmenashe/incident-notifier/services/notifier/internal/dispatch/handler"
	"github.com/afikmenashe/incident-notifier/services/notifier/internal/dispatch/render"
	"github.com/afikmenashe/incident-notifier/services/notifier/internal/models"
)

// Directory reads users, team membership and alert mail options.
type Directory interface {
	GetUser(ctx context.Context, userID int64) (*models.User, error)
	// ListTeamMembers returns members in membership insertion order.
	ListTeamMembers(ctx context.Context, teamID int64) ([]models.User, error)
	// GetAlertOptions returns options keyed by user id. Users without options may be absent.
	GetAlertOptions(ctx context.Context, userIDs []int64, projectID int64) (map[int64]models.AlertOptions, error)
}

// Mailer hands a message to an email backend. *provider.Registry satisfies it.
type Mailer interface {
	Send(ctx context.Context, req *provider.EmailRequest) error
}

// UnsubscribeSigner builds a per-recipient unsubscribe link.
type UnsubscribeSigner interface {
	UnsubscribeURL(userID string, projectID int64) (string, error)
}

// Message is the rendered email payload shared by every recipient of a dispatch.
type Message struct {
	Subject string
	Context render.EmailContext
	Text    string
	HTML    string
}

// Channel implements handler.Channel for email actions.
type Channel struct {
	directory Directory
	mailer    Mailer
	links     render.Links
	from      string
	signer    UnsubscribeSigner
}

// Option configures a Channel.
type Option func(*Channel)

// WithUnsubscribeSigner adds a per-recipient unsubscribe link to every message.
func WithUnsubscribeSigner(s UnsubscribeSigner) Option {
	return func(c *Channel) { c.signer = s }
}

// NewChannel creates an email channel sending from the given address.
func NewChannel(directory Directory, mailer Mailer, links render.Links, from string, opts ...Option) *Channel {
	c := &Channel{
		directory: directory,
		mailer:    mailer,
		links:     links,
		from:      from,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Type returns the action type this channel serves.
func (c *Channel) Type() models.ActionType {
	return models.ActionTypeEmail
}

// ResolveTargets returns (user id, email) targets. A USER target is dropped when
// the user disabled alert mail for the project. TEAM members are also dropped when
// they unsubscribed by default and never opted the project back in.
func (c *Channel) ResolveTargets(ctx context.Context, ev *handler.Event) ([]handler.Target, error) {
	action := ev.Action
	switch action.TargetType {
	case models.TargetTypeUser:
		return c.resolveUser(ctx, ev)
	case models.TargetTypeTeam:
		return c.resolveTeam(ctx, ev)
	default:
		return nil, &handler.InvalidTargetError{ActionType: action.Type, TargetType: action.TargetType}
	}
}

func (c *Channel) resolveUser(ctx context.Context, ev *handler.Event) ([]handler.Target, error) {
	userID, err := parseID(ev.Action)
	if err != nil {
		return nil, err
	}

	user, err := c.directory.GetUser(ctx, userID)
	if err != nil {
		return nil, notFoundOr(ev.Action, err)
	}

	options, err := c.directory.GetAlertOptions(ctx, []int64{user.ID}, ev.Project.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load alert options for user %d: %w", user.ID, err)
	}
	if options[user.ID].AlertsDisabled() {
		return []handler.Target{}, nil
	}
	return []handler.Target{userTarget(*user)}, nil
}

func (c *Channel) resolveTeam(ctx context.Context, ev *handler.Event) ([]handler.Target, error) {
	teamID, err := parseID(ev.Action)
	if err != nil {
		return nil, err
	}

	members, err := c.directory.ListTeamMembers(ctx, teamID)
	if err != nil {
		return nil, notFoundOr(ev.Action, err)
	}
	if len(members) == 0 {
		return []handler.Target{}, nil
	}

	ids := make([]int64, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
	}
	options, err := c.directory.GetAlertOptions(ctx, ids, ev.Project.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load alert options for team %d: %w", teamID, err)
	}

	targets := make([]handler.Target, 0, len(members))
	for _, m := range members {
		if options[m.ID].Unsubscribed() {
			continue
		}
		targets = append(targets, userTarget(m))
	}
	return targets, nil
}

// Render builds the subject and bodies once for the whole dispatch.
func (c *Channel) Render(_ context.Context, ev *handler.Event) (handler.Payload, error) {
	trigger := ev.Action.Trigger
	if trigger == nil {
		return nil, fmt.Errorf("action %d has no trigger", ev.Action.ID)
	}

	emailCtx := render.BuildEmailContext(c.links, ev.Project, ev.Incident, trigger, ev.Status, ev.Now)
	text, html, err := renderBodies(emailCtx)
	if err != nil {
		return nil, err
	}
	return &Message{
		Subject: Subject(ev.Status, ev.Incident, ev.Project),
		Context: emailCtx,
		Text:    text,
		HTML:    html,
	}, nil
}

// Deliver sends one message addressed to target.
func (c *Channel) Deliver(ctx context.Context, ev *handler.Event, target handler.Target, payload handler.Payload) error {
	msg, ok := payload.(*Message)
	if !ok {
		return fmt.Errorf("unexpected email payload %T", payload)
	}

	text, html := msg.Text, msg.HTML
	if c.signer != nil {
		link, err := c.signer.UnsubscribeURL(target.ID, ev.Project.ID)
		if err != nil {
			return fmt.Errorf("failed to sign unsubscribe link: %w", err)
		}
		if text, html, err = renderBodies(msg.Context.WithUnsubscribeLink(link)); err != nil {
			return err
		}
	}

	return c.mailer.Send(ctx, &provider.EmailRequest{
		From:    c.from,
		To:      []string{target.Address},
		Subject: msg.Subject,
		Body:    text,
		HTML:    html,
	})
}

// Subject formats "[{StatusLabel}] {title} - {project slug}".
func Subject(status models.IncidentStatus, incident *models.Incident, project *models.Project) string {
	return fmt.Sprintf("[%s] %s - %s", status.Label(), incident.Title, project.Slug)
}

func userTarget(u models.User) handler.Target {
	return handler.Target{ID: strconv.FormatInt(u.ID, 10), Address: u.Email}
}

func parseID(action *models.Action) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(action.TargetIdentifier), 10, 64)
	if err != nil {
		return 0, &handler.TargetNotFoundError{ActionType: action.Type, Identifier: action.TargetIdentifier, Err: err}
	}
	return id, nil
}

func notFoundOr(action *models.Action, err error) error {
	if errors.Is(err, models.ErrNotFound) {
		return &handler.TargetNotFoundError{ActionType: action.Type, Identifier: action.TargetIdentifier, Err: err}
	}
	return fmt.Errorf("failed to resolve %s target %q: %w", action.TargetType, action.TargetIdentifier, err)
}

// HMACSigner signs unsubscribe links with a shared secret.
type HMACSigner struct {
	BaseURL string
	Secret  []byte
}

// UnsubscribeURL returns {base}/unsubscribe/incidents/{project}/?user={id}&signature={hmac}.
func (s HMACSigner) UnsubscribeURL(userID string, projectID int64) (string, error) {
	if len(s.Secret) == 0 {
		return "", fmt.Errorf("unsubscribe secret is not configured")
	}
	mac := hmac.New(sha256.New, s.Secret)
	fmt.Fprintf(mac, "%s:%d", userID, projectID)

	q := url.Values{}
	q.Set("user", userID)
	q.Set("signature", hex.EncodeToString(mac.Sum(nil)))
	return fmt.Sprintf("%s/unsubscribe/incidents/%d/?%s", strings.TrimRight(s.BaseURL, "/"), projectID, q.Encode()), nil
}
