package handler

import (
	"fmt"

	"github.com/afikmenashe/incident-notifier/services/notifier/internal/models"
)

// InvalidTargetError means the action's target type is not supported by its channel.
// It is a configuration bug and is never retried.
type InvalidTargetError struct {
	ActionType models.ActionType
	TargetType models.TargetType
}

func (e *InvalidTargetError) Error() string {
	return fmt.Sprintf("target type %s is not supported for %s actions", e.TargetType, e.ActionType)
}

// TargetNotFoundError means the named user, team, channel, conversation or service does not exist.
type TargetNotFoundError struct {
	ActionType models.ActionType
	Identifier string
	Err        error
}

func (e *TargetNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s target %q not found: %v", e.ActionType, e.Identifier, e.Err)
	}
	return fmt.Sprintf("%s target %q not found", e.ActionType, e.Identifier)
}

func (e *TargetNotFoundError) Unwrap() error { return e.Err }

// CredentialError means the integration credentials are missing, invalid or expired.
// Tokens are never refreshed here.
type CredentialError struct {
	IntegrationID int64
	Reason        string
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("integration %d credentials unusable: %s", e.IntegrationID, e.Reason)
}

// DeliveryError is a per-target transport failure. Sibling deliveries are still attempted.
type DeliveryError struct {
	ActionType models.ActionType
	Target     Target
	Err        error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("failed to deliver %s notification to %s: %v", e.ActionType, e.Target, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
