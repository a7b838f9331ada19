package render

import (
	"fmt"

	"github.com/afikmenashe/incident-notifier/services/notifier/internal/models"
)

// AttachmentInfo is the summary shared by the Slack, Microsoft Teams and PagerDuty renderers.
type AttachmentInfo struct {
	Title     string
	TitleLink string
	Text      string
	Status    models.IncidentStatus
	RuleName  string
}

// IncidentAttachmentInfo summarizes an incident for status and metricValue.
func IncidentAttachmentInfo(links Links, incident *models.Incident, status models.IncidentStatus, metricValue float64) AttachmentInfo {
	rule := incident.AlertRule
	if rule == nil {
		rule = &models.AlertRule{}
	}

	text := fmt.Sprintf("%s %s in the last %s",
		FormatValue(metricValue), AggregateText(rule.Aggregate), FormatDuration(rule.TimeWindow))
	if rule.Query != "" {
		text += "\nFilter: " + rule.Query
	}

	return AttachmentInfo{
		Title:     fmt.Sprintf("%s: %s", status.Label(), rule.Name),
		TitleLink: links.IncidentURL(incident.Organization.Slug, incident.Identifier),
		Text:      text,
		Status:    status,
		RuleName:  rule.Name,
	}
}
