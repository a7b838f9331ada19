package models

import "fmt"

// IncidentStatus is the lifecycle status of an incident.
type IncidentStatus int

const (
	StatusOpen     IncidentStatus = 1
	StatusClosed   IncidentStatus = 2
	StatusWarning  IncidentStatus = 10
	StatusCritical IncidentStatus = 20
)

// Label returns the human status label used in subjects and titles.
func (s IncidentStatus) Label() string {
	switch s {
	case StatusOpen:
		return "Open"
	case StatusClosed:
		return "Resolved"
	case StatusWarning:
		return "Warning"
	case StatusCritical:
		return "Critical"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Key returns the short lowercase status key.
func (s IncidentStatus) Key() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusClosed:
		return "resolved"
	case StatusWarning:
		return "warning"
	case StatusCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Severity maps the status onto the severity scale shared by paging providers.
func (s IncidentStatus) Severity() string {
	switch s {
	case StatusCritical:
		return "critical"
	case StatusWarning:
		return "warning"
	default:
		return "info"
	}
}

// IsTriggered reports whether the status is one of the trigger states.
func (s IncidentStatus) IsTriggered() bool {
	return s == StatusCritical || s == StatusWarning
}

func (s IncidentStatus) String() string {
	return s.Key()
}
