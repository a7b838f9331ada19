package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/afikmenashe/incident-notifier/services/notifier/internal/models"
)

const alertRuleColumns = `r.id, r.organization_id, r.name, r.aggregate, r.query, r.time_window,
		r.environment, r.threshold_type, r.resolve_threshold`

func alertRuleDest(r *models.AlertRule, timeWindow *int64, environment *sql.NullString, resolve *sql.NullFloat64) []any {
	return []any{
		&r.ID, &r.OrganizationID, &r.Name, &r.Aggregate, &r.Query, timeWindow,
		environment, &r.ThresholdType, resolve,
	}
}

func finishAlertRule(r *models.AlertRule, timeWindow int64, environment sql.NullString, resolve sql.NullFloat64) {
	r.TimeWindow = time.Duration(timeWindow) * time.Second
	r.Environment = environment.String
	if resolve.Valid {
		v := resolve.Float64
		r.ResolveThreshold = &v
	}
}

// GetAction retrieves a trigger action with its trigger, alert rule and integration.
func (db *DB) GetAction(ctx context.Context, actionID int64) (*models.Action, error) {
	query := `
		SELECT a.id, a.type, a.target_type, a.target_identifier, a.integration_id,
		       t.id, t.label, t.alert_threshold,
		       ` + alertRuleColumns + `
		FROM alert_rule_trigger_actions a
		JOIN alert_rule_triggers t ON t.id = a.alert_rule_trigger_id
		JOIN alert_rules r ON r.id = t.alert_rule_id
		WHERE a.id = $1
	`
	var (
		action        models.Action
		trigger       models.Trigger
		rule          models.AlertRule
		targetID      sql.NullString
		integrationID sql.NullInt64
		timeWindow    int64
		environment   sql.NullString
		resolve       sql.NullFloat64
	)
	dest := []any{
		&action.ID, &action.Type, &action.TargetType, &targetID, &integrationID,
		&trigger.ID, &trigger.Label, &trigger.AlertThreshold,
	}
	dest = append(dest, alertRuleDest(&rule, &timeWindow, &environment, &resolve)...)

	err := db.conn.QueryRowContext(ctx, query, actionID).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("action %d: %w", actionID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get action: %w", err)
	}

	finishAlertRule(&rule, timeWindow, environment, resolve)
	trigger.AlertRule = &rule
	action.Trigger = &trigger
	action.TargetIdentifier = targetID.String

	if integrationID.Valid {
		integration, err := db.GetIntegration(ctx, integrationID.Int64)
		if err != nil {
			return nil, err
		}
		action.Integration = integration
	}

	return &action, nil
}

// GetIntegration retrieves an integration and its metadata blob.
func (db *DB) GetIntegration(ctx context.Context, integrationID int64) (*models.Integration, error) {
	query := `
		SELECT id, provider, name, external_id, metadata
		FROM integrations
		WHERE id = $1
	`
	var (
		integration models.Integration
		metadata    []byte
	)
	err := db.conn.QueryRowContext(ctx, query, integrationID).Scan(
		&integration.ID,
		&integration.Provider,
		&integration.Name,
		&integration.ExternalID,
		&metadata,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("integration %d: %w", integrationID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get integration: %w", err)
	}
	integration.Metadata = json.RawMessage(metadata)
	return &integration, nil
}

// GetPagerDutyService retrieves a PagerDuty service configured on the integration.
func (db *DB) GetPagerDutyService(ctx context.Context, integrationID, serviceID int64) (*models.PagerDutyService, error) {
	query := `
		SELECT id, integration_id, service_name, integration_key
		FROM pagerduty_services
		WHERE id = $1 AND integration_id = $2
	`
	var s models.PagerDutyService
	err := db.conn.QueryRowContext(ctx, query, serviceID, integrationID).Scan(
		&s.ID,
		&s.IntegrationID,
		&s.ServiceName,
		&s.IntegrationKey,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("pagerduty service %d: %w", serviceID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pagerduty service: %w", err)
	}
	return &s, nil
}
