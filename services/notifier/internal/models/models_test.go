package models

import (
	"encoding/json"
	"testing"
)

func boolPtr(b bool) *bool { return &b }

func TestIncidentStatus_Labels(t *testing.T) {
	tests := []struct {
		status   IncidentStatus
		label    string
		key      string
		severity string
	}{
		{StatusOpen, "Open", "open", "info"},
		{StatusClosed, "Resolved", "resolved", "info"},
		{StatusWarning, "Warning", "warning", "warning"},
		{StatusCritical, "Critical", "critical", "critical"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := tt.status.Label(); got != tt.label {
				t.Errorf("Label() = %q, want %q", got, tt.label)
			}
			if got := tt.status.Key(); got != tt.key {
				t.Errorf("Key() = %q, want %q", got, tt.key)
			}
			if got := tt.status.Severity(); got != tt.severity {
				t.Errorf("Severity() = %q, want %q", got, tt.severity)
			}
		})
	}
}

func TestAlertOptions(t *testing.T) {
	tests := []struct {
		name         string
		opts         AlertOptions
		disabled     bool
		unsubscribed bool
	}{
		{name: "no options", opts: AlertOptions{}},
		{name: "project enabled", opts: AlertOptions{ProjectAlerts: boolPtr(true)}},
		{name: "project disabled", opts: AlertOptions{ProjectAlerts: boolPtr(false)}, disabled: true, unsubscribed: true},
		{name: "unsubscribed by default", opts: AlertOptions{SubscribeByDefault: boolPtr(false)}, unsubscribed: true},
		{
			name:         "project override wins over default",
			opts:         AlertOptions{ProjectAlerts: boolPtr(true), SubscribeByDefault: boolPtr(false)},
			unsubscribed: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.opts.AlertsDisabled(); got != tt.disabled {
				t.Errorf("AlertsDisabled() = %v, want %v", got, tt.disabled)
			}
			if got := tt.opts.Unsubscribed(); got != tt.unsubscribed {
				t.Errorf("Unsubscribed() = %v, want %v", got, tt.unsubscribed)
			}
		})
	}
}

func TestIntegration_DecodeMetadata(t *testing.T) {
	integration := &Integration{ID: 1, Provider: "slack", Metadata: json.RawMessage(`{"access_token":"xoxp-1"}`)}

	var meta struct {
		AccessToken string `json:"access_token"`
	}
	if err := integration.DecodeMetadata(&meta); err != nil {
		t.Fatalf("DecodeMetadata() error = %v", err)
	}
	if meta.AccessToken != "xoxp-1" {
		t.Errorf("AccessToken = %q, want xoxp-1", meta.AccessToken)
	}

	empty := &Integration{ID: 2, Provider: "slack"}
	if err := empty.DecodeMetadata(&meta); err == nil {
		t.Error("DecodeMetadata() should fail without metadata")
	}
}

func TestActionType_String(t *testing.T) {
	if ActionTypeMSTeams.String() != "msteams" {
		t.Errorf("String() = %q, want msteams", ActionTypeMSTeams.String())
	}
	if TargetTypeTeam.String() != "team" {
		t.Errorf("String() = %q, want team", TargetTypeTeam.String())
	}
}
