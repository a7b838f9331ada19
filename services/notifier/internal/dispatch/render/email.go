package render

import (
	"time"

	"github.com/afikmenashe/incident-notifier/services/notifier/internal/models"
)

const allEnvironments = "All"

// EmailContext holds the named fields the incident email templates render.
type EmailContext struct {
	Link                     string
	RuleLink                 string
	IncidentName             string
	Aggregate                string
	Query                    string
	Threshold                float64
	Status                   string
	StatusKey                string
	Environment              string
	IsCritical               bool
	IsWarning                bool
	ThresholdDirectionString string
	TimeWindow               string
	TriggeredAt              time.Time
	ProjectSlug              string
	UnsubscribeLink          *string
}

// BuildEmailContext builds the context for an incident email. Labels and flags come
// from status, never from incident.Status, which may already have moved on.
// Rendering a closed status shows the resolve threshold with the direction flipped.
func BuildEmailContext(links Links, project *models.Project, incident *models.Incident, trigger *models.Trigger, status models.IncidentStatus, now time.Time) EmailContext {
	rule := trigger.AlertRule
	if rule == nil {
		rule = incident.AlertRule
	}
	if rule == nil {
		rule = &models.AlertRule{}
	}

	resolving := status == models.StatusClosed
	threshold := trigger.AlertThreshold
	if resolving && rule.ResolveThreshold != nil {
		threshold = *rule.ResolveThreshold
	}

	above := rule.ThresholdType == models.ThresholdAbove
	if resolving {
		above = !above
	}
	direction := "<"
	if above {
		direction = ">"
	}

	environment := rule.Environment
	if environment == "" {
		environment = allEnvironments
	}

	return EmailContext{
		Link:                     links.IncidentURL(incident.Organization.Slug, incident.Identifier),
		RuleLink:                 links.AlertRuleURL(incident.Organization.Slug, project.Slug, rule.ID),
		IncidentName:             incident.Title,
		Aggregate:                rule.Aggregate,
		Query:                    rule.Query,
		Threshold:                threshold,
		Status:                   status.Label(),
		StatusKey:                status.Key(),
		Environment:              environment,
		IsCritical:               status == models.StatusCritical,
		IsWarning:                status == models.StatusWarning,
		ThresholdDirectionString: direction,
		TimeWindow:               FormatDuration(rule.TimeWindow),
		TriggeredAt:              now,
		ProjectSlug:              project.Slug,
	}
}

// WithUnsubscribeLink returns a copy of the context carrying a per-recipient link.
func (c EmailContext) WithUnsubscribeLink(link string) EmailContext {
	c.UnsubscribeLink = &link
	return c
}

// Fields exposes the context under its template field names.
// unsubscribe_link is nil when no per-recipient link applies.
func (c EmailContext) Fields() map[string]any {
	var unsubscribe any
	if c.UnsubscribeLink != nil {
		unsubscribe = *c.UnsubscribeLink
	}
	return map[string]any{
		"link":                       c.Link,
		"rule_link":                  c.RuleLink,
		"incident_name":              c.IncidentName,
		"aggregate":                  c.Aggregate,
		"query":                      c.Query,
		"threshold":                  c.Threshold,
		"status":                     c.Status,
		"status_key":                 c.StatusKey,
		"environment":                c.Environment,
		"is_critical":                c.IsCritical,
		"is_warning":                 c.IsWarning,
		"threshold_direction_string": c.ThresholdDirectionString,
		"time_window":                c.TimeWindow,
		"triggered_at":               c.TriggeredAt,
		"project_slug":               c.ProjectSlug,
		"unsubscribe_link":           unsubscribe,
	}
}
