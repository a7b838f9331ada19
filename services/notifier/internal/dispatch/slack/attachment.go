package slack

import (
	"github.com/afikmenashe/incident-notifier/services/notifier/internal/dispatch/render"
	"github.com/afikmenashe/incident-notifier/services/notifier/internal/models"
)

var statusColors = map[models.IncidentStatus]string{
	models.StatusClosed:   "#4DC771",
	models.StatusWarning:  "#FFC227",
	models.StatusCritical: "#E03E2F",
}

const defaultColor = "#E03E2F"

// Attachment is a Slack message attachment.
type Attachment struct {
	Fallback  string   `json:"fallback"`
	Title     string   `json:"title"`
	TitleLink string   `json:"title_link"`
	Text      string   `json:"text"`
	Color     string   `json:"color"`
	Footer    string   `json:"footer"`
	Ts        int64    `json:"ts"`
	MrkdwnIn  []string `json:"mrkdwn_in"`
}

// BuildIncidentAttachment renders the incident for status and metricValue.
func BuildIncidentAttachment(links render.Links, brand string, incident *models.Incident, status models.IncidentStatus, metricValue float64) Attachment {
	info := render.IncidentAttachmentInfo(links, incident, status, metricValue)

	color, ok := statusColors[status]
	if !ok {
		color = defaultColor
	}

	return Attachment{
		Fallback:  info.Title,
		Title:     info.Title,
		TitleLink: info.TitleLink,
		Text:      info.Text,
		Color:     color,
		Footer:    render.Footer(brand, incident.DateStarted),
		Ts:        incident.DateStarted.Unix(),
		MrkdwnIn:  []string{"text"},
	}
}
