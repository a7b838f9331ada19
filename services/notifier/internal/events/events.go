// Package events defines the event structures for the incidents.actions topic.
package events

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// SchemaVersion is the current trigger action event schema version.
const SchemaVersion = 1

const (
	MethodFire    = "fire"
	MethodResolve = "resolve"
)

// TriggerAction asks the notifier to run one alert rule trigger action for an
// incident. It is emitted when an incident enters or leaves a trigger state.
type TriggerAction struct {
	ActionID      int64   `json:"action_id"`
	IncidentID    int64   `json:"incident_id"`
	ProjectID     int64   `json:"project_id"`
	Method        string  `json:"method"`
	MetricValue   float64 `json:"metric_value"`
	SchemaVersion int     `json:"schema_version"`
}

// Validate checks that the event names an action, incident, project and method.
func (e *TriggerAction) Validate() error {
	switch {
	case e.ActionID <= 0:
		return fmt.Errorf("action_id must be positive, got %d", e.ActionID)
	case e.IncidentID <= 0:
		return fmt.Errorf("incident_id must be positive, got %d", e.IncidentID)
	case e.ProjectID <= 0:
		return fmt.Errorf("project_id must be positive, got %d", e.ProjectID)
	case e.Method != MethodFire && e.Method != MethodResolve:
		return fmt.Errorf("unknown method %q", e.Method)
	case math.IsNaN(e.MetricValue) || math.IsInf(e.MetricValue, 0):
		return fmt.Errorf("metric_value must be finite")
	}
	return nil
}

// Marshal encodes the event as a protobuf Struct.
func (e *TriggerAction) Marshal() ([]byte, error) {
	s, err := structpb.NewStruct(map[string]any{
		"action_id":      float64(e.ActionID),
		"incident_id":    float64(e.IncidentID),
		"project_id":     float64(e.ProjectID),
		"method":         e.Method,
		"metric_value":   e.MetricValue,
		"schema_version": float64(e.SchemaVersion),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build trigger action struct: %w", err)
	}
	return proto.Marshal(s)
}

// Unmarshal decodes a protobuf Struct encoded trigger action.
func Unmarshal(data []byte) (*TriggerAction, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trigger action protobuf: %w", err)
	}

	fields := s.GetFields()
	e := &TriggerAction{
		ActionID:      int64(fields["action_id"].GetNumberValue()),
		IncidentID:    int64(fields["incident_id"].GetNumberValue()),
		ProjectID:     int64(fields["project_id"].GetNumberValue()),
		Method:        fields["method"].GetStringValue(),
		MetricValue:   fields["metric_value"].GetNumberValue(),
		SchemaVersion: int(fields["schema_version"].GetNumberValue()),
	}
	if e.SchemaVersion > SchemaVersion {
		return nil, fmt.Errorf("unsupported trigger action schema version %d", e.SchemaVersion)
	}
	return e, nil
}
