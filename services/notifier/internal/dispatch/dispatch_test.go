package dispatch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afikmenashe/incident-notifier/services/notifier/internal/dispatch/handler"
	"github.com/afikmenashe/incident-notifier/services/notifier/internal/metrics"
	"github.com/afikmenashe/incident-notifier/services/notifier/internal/models"
)

type stubChannel struct {
	actionType models.ActionType
	statuses   []models.IncidentStatus
}

func (s *stubChannel) Type() models.ActionType { return s.actionType }

func (s *stubChannel) ResolveTargets(context.Context, *handler.Event) ([]handler.Target, error) {
	return []handler.Target{{ID: "t"}}, nil
}

func (s *stubChannel) Render(_ context.Context, ev *handler.Event) (handler.Payload, error) {
	return ev.Status, nil
}

func (s *stubChannel) Deliver(_ context.Context, _ *handler.Event, _ handler.Target, p handler.Payload) error {
	s.statuses = append(s.statuses, p.(models.IncidentStatus))
	return nil
}

func fixture(actionType models.ActionType) (*models.Action, *models.Incident, *models.Project) {
	return &models.Action{ID: 1, Type: actionType, TargetType: models.TargetTypeSpecific},
		&models.Incident{ID: 2, Status: models.StatusWarning},
		&models.Project{ID: 3, Slug: "bar"}
}

func TestDispatch_RoutesByActionType(t *testing.T) {
	slackCh := &stubChannel{actionType: models.ActionTypeSlack}
	pdCh := &stubChannel{actionType: models.ActionTypePagerDuty}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := New(metrics.NewNoOp(), logger, slackCh, pdCh)

	action, incident, project := fixture(models.ActionTypePagerDuty)
	_, err := d.Dispatch(context.Background(), handler.MethodFire, 10, action, incident, project)
	require.NoError(t, err)
	_, err = d.Dispatch(context.Background(), handler.MethodResolve, 10, action, incident, project)
	require.NoError(t, err)

	assert.Empty(t, slackCh.statuses)
	assert.Equal(t, []models.IncidentStatus{models.StatusWarning, models.StatusClosed}, pdCh.statuses)
	assert.Equal(t, []models.ActionType{models.ActionTypePagerDuty, models.ActionTypeSlack}, d.Channels())
}

func TestDispatch_Errors(t *testing.T) {
	d := New(metrics.NewNoOp(), slog.Default(), &stubChannel{actionType: models.ActionTypeSlack})

	action, incident, project := fixture(models.ActionTypeMSTeams)
	_, err := d.Dispatch(context.Background(), handler.MethodFire, 1, action, incident, project)
	var unsupported *UnsupportedActionError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, models.ActionTypeMSTeams, unsupported.ActionType)

	action.Type = models.ActionTypeSlack
	_, err = d.Dispatch(context.Background(), handler.Method("escalate"), 1, action, incident, project)
	assert.Error(t, err)
}
