package pagerduty

import (
	"fmt"
	"strconv"

	"github.com/afikmenashe/incident-notifier/services/notifier/internal/dispatch/handler"
	"github.com/afikmenashe/incident-notifier/services/notifier/internal/dispatch/render"
	"github.com/afikmenashe/incident-notifier/services/notifier/internal/models"
)

// Event is a PagerDuty Events API v2 request body.
type Event struct {
	RoutingKey  string       `json:"routing_key"`
	EventAction string       `json:"event_action"`
	DedupKey    string       `json:"dedup_key"`
	Payload     EventPayload `json:"payload"`
	Links       []Link       `json:"links"`
}

// EventPayload is the alert detail of an Event.
type EventPayload struct {
	Summary       string `json:"summary"`
	Severity      string `json:"severity"`
	Source        string `json:"source"`
	CustomDetails string `json:"custom_details"`
}

// Link is a link shown on the PagerDuty incident.
type Link struct {
	Href string `json:"href"`
	Text string `json:"text"`
}

// DedupKey correlates the trigger and resolve events of one incident.
func DedupKey(incident *models.Incident) string {
	return fmt.Sprintf("incident_%d_%d", incident.Organization.ID, incident.Identifier)
}

// BuildIncidentAttachment renders the event for integrationKey. Fire dispatches
// trigger and resolve dispatches resolve, whatever the status.
func BuildIncidentAttachment(links render.Links, brand string, incident *models.Incident, status models.IncidentStatus, method handler.Method, integrationKey string, metricValue float64) Event {
	info := render.IncidentAttachmentInfo(links, incident, status, metricValue)

	return Event{
		RoutingKey:  integrationKey,
		EventAction: method.EventAction(),
		DedupKey:    DedupKey(incident),
		Payload: EventPayload{
			Summary:       info.Text,
			Severity:      status.Severity(),
			Source:        strconv.FormatInt(incident.Identifier, 10),
			CustomDetails: render.Footer(brand, incident.DateStarted),
		},
		Links: []Link{{Href: info.TitleLink, Text: info.Title}},
	}
}
