// Package models defines the read-only view of incidents, alert rules and actions
// that the notifier dispatches on. Records are owned by the alerting backend;
// the notifier never mutates them.
package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by stores when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Organization owns projects, alert rules and integrations.
type Organization struct {
	ID   int64
	Slug string
}

// Project is the project an incident is reported for.
type Project struct {
	ID             int64
	Slug           string
	OrganizationID int64
}

// ThresholdType is the comparison direction of an alert rule.
type ThresholdType int

const (
	ThresholdAbove ThresholdType = 0
	ThresholdBelow ThresholdType = 1
)

// AlertRule is a metric alert rule. Query fields mirror the rule's metric query.
type AlertRule struct {
	ID               int64
	OrganizationID   int64
	Name             string
	Aggregate        string
	Query            string
	TimeWindow       time.Duration
	Environment      string // empty means every environment
	ThresholdType    ThresholdType
	ResolveThreshold *float64
}

// Trigger is a threshold condition on an alert rule.
type Trigger struct {
	ID             int64
	Label          string // "critical" or "warning"
	AlertThreshold float64
	AlertRule      *AlertRule
}

// Incident is a detected anomalous period for a monitored metric.
type Incident struct {
	ID           int64
	Identifier   int64
	Title        string
	Status       IncidentStatus
	Organization Organization
	AlertRule    *AlertRule
	DateStarted  time.Time
}

// ActionType selects the channel an action notifies through.
type ActionType int

const (
	ActionTypeEmail     ActionType = 0
	ActionTypePagerDuty ActionType = 1
	ActionTypeSlack     ActionType = 2
	ActionTypeMSTeams   ActionType = 3
)

func (t ActionType) String() string {
	switch t {
	case ActionTypeEmail:
		return "email"
	case ActionTypePagerDuty:
		return "pagerduty"
	case ActionTypeSlack:
		return "slack"
	case ActionTypeMSTeams:
		return "msteams"
	default:
		return fmt.Sprintf("action_type(%d)", int(t))
	}
}

// TargetType selects how an action's target identifier is interpreted.
type TargetType int

const (
	TargetTypeUser     TargetType = 0
	TargetTypeTeam     TargetType = 1
	TargetTypeSpecific TargetType = 2
)

func (t TargetType) String() string {
	switch t {
	case TargetTypeUser:
		return "user"
	case TargetTypeTeam:
		return "team"
	case TargetTypeSpecific:
		return "specific"
	default:
		return fmt.Sprintf("target_type(%d)", int(t))
	}
}

// Action is one configured notification attached to an alert rule trigger.
type Action struct {
	ID               int64
	Type             ActionType
	TargetType       TargetType
	TargetIdentifier string
	Integration      *Integration // nil for email actions
	Trigger          *Trigger
}

// Integration is a stored third-party credential bundle. Metadata shape depends on Provider.
type Integration struct {
	ID         int64
	Provider   string
	Name       string
	ExternalID string
	Metadata   json.RawMessage
}

// DecodeMetadata unmarshals the integration metadata blob into v.
func (i *Integration) DecodeMetadata(v any) error {
	if len(i.Metadata) == 0 {
		return fmt.Errorf("integration %d has no metadata", i.ID)
	}
	if err := json.Unmarshal(i.Metadata, v); err != nil {
		return fmt.Errorf("failed to decode %s integration %d metadata: %w", i.Provider, i.ID, err)
	}
	return nil
}

// PagerDutyService is a PagerDuty service configured on an organization integration.
type PagerDutyService struct {
	ID             int64
	IntegrationID  int64
	ServiceName    string
	IntegrationKey string
}

// User is a member of the organization that can receive email.
type User struct {
	ID    int64
	Email string
	Name  string
}

// AlertOptions are a user's alert mail preferences. Nil means the option is unset.
type AlertOptions struct {
	ProjectAlerts      *bool // "mail:alert" for the incident's project
	SubscribeByDefault *bool // global "subscribe_by_default"
}

// AlertsDisabled reports whether the user opted out of alert mail for the project.
func (o AlertOptions) AlertsDisabled() bool {
	return o.ProjectAlerts != nil && !*o.ProjectAlerts
}

// Unsubscribed reports whether the user receives no alert mail for the project,
// either explicitly or because they unsubscribed by default and never opted back in.
func (o AlertOptions) Unsubscribed() bool {
	if o.ProjectAlerts != nil {
		return !*o.ProjectAlerts
	}
	return o.SubscribeByDefault != nil && !*o.SubscribeByDefault
}
