package email

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afikmenashe/incident-notifier/services/notifier/internal/dispatch/email/provider"
	"github.com/afikmenashe/incident-notifier/services/notifier/internal/dispatch/handler"
	"github.com/afikmenashe/incident-notifier/services/notifier/internal/dispatch/render"
	"github.com/afikmenashe/incident-notifier/services/notifier/internal/models"
)

type fakeDirectory struct {
	users   map[int64]models.User
	teams   map[int64][]int64
	options map[int64]models.AlertOptions
}

func (d *fakeDirectory) GetUser(_ context.Context, id int64) (*models.User, error) {
	u, ok := d.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, models.ErrNotFound)
	}
	return &u, nil
}

func (d *fakeDirectory) ListTeamMembers(_ context.Context, teamID int64) ([]models.User, error) {
	ids, ok := d.teams[teamID]
	if !ok {
		return nil, fmt.Errorf("team %d: %w", teamID, models.ErrNotFound)
	}
	members := make([]models.User, 0, len(ids))
	for _, id := range ids {
		members = append(members, d.users[id])
	}
	return members, nil
}

func (d *fakeDirectory) GetAlertOptions(_ context.Context, ids []int64, _ int64) (map[int64]models.AlertOptions, error) {
	out := make(map[int64]models.AlertOptions)
	for _, id := range ids {
		if o, ok := d.options[id]; ok {
			out[id] = o
		}
	}
	return out, nil
}

type fakeMailer struct {
	sent []*provider.EmailRequest
	err  error
}

func (m *fakeMailer) Send(_ context.Context, req *provider.EmailRequest) error {
	m.sent = append(m.sent, req)
	return m.err
}

func boolPtr(b bool) *bool { return &b }

func newDirectory() *fakeDirectory {
	return &fakeDirectory{
		users: map[int64]models.User{
			1: {ID: 1, Email: "owner@example.com"},
			2: {ID: 2, Email: "member@example.com"},
			3: {ID: 3, Email: "new@example.com"},
		},
		teams:   map[int64][]int64{10: {1, 2, 3}},
		options: map[int64]models.AlertOptions{},
	}
}

func fixture(targetType models.TargetType, identifier string, status models.IncidentStatus) (*models.Action, *models.Incident, *models.Project) {
	rule := &models.AlertRule{
		ID:         1,
		Name:       "High error rate",
		Aggregate:  "count()",
		Query:      "level:error",
		TimeWindow: 10 * time.Minute,
	}
	action := &models.Action{
		ID:               4,
		Type:             models.ActionTypeEmail,
		TargetType:       targetType,
		TargetIdentifier: identifier,
		Trigger:          &models.Trigger{ID: 5, Label: "critical", AlertThreshold: 100, AlertRule: rule},
	}
	incident := &models.Incident{
		ID:           21,
		Identifier:   1,
		Title:        "Errors spiking",
		Status:       status,
		Organization: models.Organization{ID: 3, Slug: "baz"},
		AlertRule:    rule,
	}
	return action, incident, &models.Project{ID: 2, Slug: "bar"}
}

func resolve(t *testing.T, ch *Channel, targetType models.TargetType, identifier string) ([]handler.Target, error) {
	t.Helper()
	action, incident, project := fixture(targetType, identifier, models.StatusCritical)
	return ch.ResolveTargets(context.Background(), &handler.Event{Action: action, Incident: incident, Project: project})
}

func TestResolveTargets_User(t *testing.T) {
	dir := newDirectory()
	ch := NewChannel(dir, &fakeMailer{}, render.Links{}, "alerts@example.com")

	targets, err := resolve(t, ch, models.TargetTypeUser, "1")
	require.NoError(t, err)
	assert.Equal(t, []handler.Target{{ID: "1", Address: "owner@example.com"}}, targets)

	dir.options[1] = models.AlertOptions{ProjectAlerts: boolPtr(true)}
	targets, err = resolve(t, ch, models.TargetTypeUser, "1")
	require.NoError(t, err)
	assert.Len(t, targets, 1)
}

func TestResolveTargets_UserAlertsDisabled(t *testing.T) {
	dir := newDirectory()
	dir.options[1] = models.AlertOptions{ProjectAlerts: boolPtr(false)}
	ch := NewChannel(dir, &fakeMailer{}, render.Links{}, "alerts@example.com")

	targets, err := resolve(t, ch, models.TargetTypeUser, "1")
	require.NoError(t, err)
	assert.Empty(t, targets)
}

func TestResolveTargets_UserSubscribeByDefaultOffStillNotified(t *testing.T) {
	dir := newDirectory()
	dir.options[1] = models.AlertOptions{SubscribeByDefault: boolPtr(false)}
	ch := NewChannel(dir, &fakeMailer{}, render.Links{}, "alerts@example.com")

	targets, err := resolve(t, ch, models.TargetTypeUser, "1")
	require.NoError(t, err)
	assert.Len(t, targets, 1)
}

func TestResolveTargets_Team(t *testing.T) {
	ch := NewChannel(newDirectory(), &fakeMailer{}, render.Links{}, "alerts@example.com")

	targets, err := resolve(t, ch, models.TargetTypeTeam, "10")
	require.NoError(t, err)
	assert.ElementsMatch(t, []handler.Target{
		{ID: "1", Address: "owner@example.com"},
		{ID: "2", Address: "member@example.com"},
		{ID: "3", Address: "new@example.com"},
	}, targets)
}

func TestResolveTargets_TeamAlertsDisabled(t *testing.T) {
	dir := newDirectory()
	dir.options[1] = models.AlertOptions{ProjectAlerts: boolPtr(false)}
	dir.options[2] = models.AlertOptions{SubscribeByDefault: boolPtr(false)}
	// explicit project opt-in overrides the global default
	dir.options[3] = models.AlertOptions{ProjectAlerts: boolPtr(true), SubscribeByDefault: boolPtr(false)}
	ch := NewChannel(dir, &fakeMailer{}, render.Links{}, "alerts@example.com")

	targets, err := resolve(t, ch, models.TargetTypeTeam, "10")
	require.NoError(t, err)
	assert.ElementsMatch(t, []handler.Target{{ID: "3", Address: "new@example.com"}}, targets)
}

func TestResolveTargets_Errors(t *testing.T) {
	ch := NewChannel(newDirectory(), &fakeMailer{}, render.Links{}, "alerts@example.com")

	_, err := resolve(t, ch, models.TargetTypeSpecific, "#hello")
	var invalid *handler.InvalidTargetError
	assert.True(t, errors.As(err, &invalid))

	var notFound *handler.TargetNotFoundError
	_, err = resolve(t, ch, models.TargetTypeUser, "99")
	assert.True(t, errors.As(err, &notFound))
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = resolve(t, ch, models.TargetTypeTeam, "not-a-number")
	assert.True(t, errors.As(err, &notFound))
}

func TestFireAndResolve_Subjects(t *testing.T) {
	tests := []struct {
		name    string
		status  models.IncidentStatus
		fire    bool
		subject string
	}{
		{name: "fire critical", status: models.StatusCritical, fire: true, subject: "[Critical] Errors spiking - bar"},
		{name: "fire warning", status: models.StatusWarning, fire: true, subject: "[Warning] Errors spiking - bar"},
		{name: "resolve", status: models.StatusClosed, subject: "[Resolved] Errors spiking - bar"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mailer := &fakeMailer{}
			ch := NewChannel(newDirectory(), mailer, render.Links{BaseURL: "http://testserver"}, "alerts@example.com")
			action, incident, project := fixture(models.TargetTypeUser, "1", tt.status)

			h, err := handler.New(ch, action, incident, project)
			require.NoError(t, err)

			var res *handler.Result
			if tt.fire {
				res, err = h.Fire(context.Background(), 1000)
			} else {
				res, err = h.Resolve(context.Background(), 1000)
			}
			require.NoError(t, err)
			require.NoError(t, res.Err())

			require.Len(t, mailer.sent, 1)
			msg := mailer.sent[0]
			assert.Equal(t, []string{"owner@example.com"}, msg.To)
			assert.Equal(t, "alerts@example.com", msg.From)
			assert.Equal(t, tt.subject, msg.Subject)
			assert.Contains(t, msg.Body, "http://testserver/organizations/baz/alerts/1/")
			assert.Contains(t, msg.HTML, "Errors spiking")
			assert.NotContains(t, msg.Body, "Unsubscribe")
		})
	}
}

func TestDeliver_UnsubscribeLinkPerRecipient(t *testing.T) {
	mailer := &fakeMailer{}
	signer := HMACSigner{BaseURL: "http://testserver/", Secret: []byte("secret")}
	ch := NewChannel(newDirectory(), mailer, render.Links{BaseURL: "http://testserver"}, "alerts@example.com",
		WithUnsubscribeSigner(signer))
	action, incident, project := fixture(models.TargetTypeTeam, "10", models.StatusCritical)

	h, err := handler.New(ch, action, incident, project)
	require.NoError(t, err)
	_, err = h.Fire(context.Background(), 1000)
	require.NoError(t, err)

	require.Len(t, mailer.sent, 3)
	link1, err := signer.UnsubscribeURL("1", 2)
	require.NoError(t, err)
	link2, err := signer.UnsubscribeURL("2", 2)
	require.NoError(t, err)
	assert.NotEqual(t, link1, link2)
	assert.True(t, strings.HasPrefix(link1, "http://testserver/unsubscribe/incidents/2/?"))
	assert.Contains(t, mailer.sent[0].Body, link1)
}

func TestDeliver_MailerFailureIsPerTarget(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("SES send failed")}
	ch := NewChannel(newDirectory(), mailer, render.Links{}, "alerts@example.com")
	action, incident, project := fixture(models.TargetTypeTeam, "10", models.StatusCritical)

	h, err := handler.New(ch, action, incident, project)
	require.NoError(t, err)
	res, err := h.Fire(context.Background(), 1000)
	require.NoError(t, err)

	assert.Len(t, mailer.sent, 3)
	assert.Len(t, res.Failures, 3)
}
