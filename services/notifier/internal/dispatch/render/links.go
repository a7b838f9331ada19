// Package render builds the channel-independent view of an incident that every
// channel renderer starts from: deep links, the email template context, and the
// short attachment summary shared by chat and paging channels.
package render

import (
	"fmt"
	"strings"
)

// Links builds absolute URLs into the alerting UI.
type Links struct {
	BaseURL string
}

func (l Links) base() string {
	return strings.TrimRight(l.BaseURL, "/")
}

// IncidentURL links to a single metric alert incident.
func (l Links) IncidentURL(orgSlug string, identifier int64) string {
	return fmt.Sprintf("%s/organizations/%s/alerts/%d/", l.base(), orgSlug, identifier)
}

// AlertRuleURL links to the alert rule of a project.
func (l Links) AlertRuleURL(orgSlug, projectSlug string, ruleID int64) string {
	return fmt.Sprintf("%s/organizations/%s/alerts/rules/%s/%d/", l.base(), orgSlug, projectSlug, ruleID)
}
