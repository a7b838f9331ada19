package msteams

import (
	"fmt"

	"github.com/afikmenashe/incident-notifier/services/notifier/internal/dispatch/render"
	"github.com/afikmenashe/incident-notifier/services/notifier/internal/models"
)

const adaptiveCardContentType = "application/vnd.microsoft.card.adaptive"

// Card is an Adaptive Card.
type Card struct {
	Schema  string      `json:"$schema"`
	Type    string      `json:"type"`
	Version string      `json:"version"`
	Body    []TextBlock `json:"body"`
}

// TextBlock is an Adaptive Card text element.
type TextBlock struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	Size     string `json:"size,omitempty"`
	Weight   string `json:"weight,omitempty"`
	Color    string `json:"color,omitempty"`
	IsSubtle bool   `json:"isSubtle,omitempty"`
	Wrap     bool   `json:"wrap"`
}

var statusColors = map[models.IncidentStatus]string{
	models.StatusClosed:   "good",
	models.StatusWarning:  "warning",
	models.StatusCritical: "attention",
}

// BuildIncidentAttachment renders the incident as an Adaptive Card.
func BuildIncidentAttachment(links render.Links, brand string, incident *models.Incident, status models.IncidentStatus, metricValue float64) Card {
	info := render.IncidentAttachmentInfo(links, incident, status, metricValue)

	return Card{
		Schema:  "http://adaptivecards.io/schemas/adaptive-card.json",
		Type:    "AdaptiveCard",
		Version: "1.2",
		Body: []TextBlock{
			{
				Type:   "TextBlock",
				Text:   fmt.Sprintf("[%s](%s)", info.Title, info.TitleLink),
				Size:   "Large",
				Weight: "Bolder",
				Color:  statusColors[status],
				Wrap:   true,
			},
			{Type: "TextBlock", Text: info.Text, Wrap: true},
			{
				Type:     "TextBlock",
				Text:     render.Footer(brand, incident.DateStarted),
				Size:     "Small",
				IsSubtle: true,
				Wrap:     true,
			},
		},
	}
}
