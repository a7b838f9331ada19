// Package handler defines the channel contract and the action handler that
// drives fire and resolve dispatches through it.
package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/afikmenashe/incident-notifier/services/notifier/internal/models"
)

// Method is the direction of a dispatch.
type Method string

const (
	MethodFire    Method = "fire"
	MethodResolve Method = "resolve"
)

// EventAction returns the paging-provider event action for the method.
func (m Method) EventAction() string {
	if m == MethodResolve {
		return "resolve"
	}
	return "trigger"
}

// Target is a resolved recipient: an opaque id and a channel-specific address
// (email address, channel id, conversation id or integration key).
type Target struct {
	ID      string
	Address string
}

func (t Target) String() string {
	if t.Address == "" || t.Address == t.ID {
		return t.ID
	}
	return fmt.Sprintf("%s <%s>", t.ID, t.Address)
}

// Payload is a channel-native rendered message body.
type Payload interface{}

// Event is the immutable input of a single fire or resolve call. Status is the
// status being dispatched and must be used instead of Incident.Status.
type Event struct {
	DispatchID  string
	Method      Method
	Status      models.IncidentStatus
	MetricValue float64
	Now         time.Time

	Action   *models.Action
	Incident *models.Incident
	Project  *models.Project
}

// Channel resolves targets, renders and delivers for one action type.
type Channel interface {
	// Type returns the action type this channel serves.
	Type() models.ActionType

	// ResolveTargets turns the action's abstract target into recipients.
	// A non-nil error aborts the whole dispatch.
	ResolveTargets(ctx context.Context, ev *Event) ([]Target, error)

	// Render builds the payload shared by every target of the dispatch.
	Render(ctx context.Context, ev *Event) (Payload, error)

	// Deliver sends the payload to a single target.
	Deliver(ctx context.Context, ev *Event, target Target, payload Payload) error
}

// Clock supplies the wall-clock time used for "now" fields.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real time in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always returns the same instant.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }
