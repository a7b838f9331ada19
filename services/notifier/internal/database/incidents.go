package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/afikmenashe/incident-notifier/services/notifier/internal/models"
)

// GetIncident retrieves an incident with its organization and alert rule.
func (db *DB) GetIncident(ctx context.Context, incidentID int64) (*models.Incident, error) {
	query := `
		SELECT i.id, i.identifier, i.title, i.status, i.date_started,
		       o.id, o.slug,
		       ` + alertRuleColumns + `
		FROM incidents i
		JOIN organizations o ON o.id = i.organization_id
		JOIN alert_rules r ON r.id = i.alert_rule_id
		WHERE i.id = $1
	`
	var (
		incident    models.Incident
		rule        models.AlertRule
		timeWindow  int64
		environment sql.NullString
		resolve     sql.NullFloat64
	)
	dest := []any{
		&incident.ID, &incident.Identifier, &incident.Title, &incident.Status, &incident.DateStarted,
		&incident.Organization.ID, &incident.Organization.Slug,
	}
	dest = append(dest, alertRuleDest(&rule, &timeWindow, &environment, &resolve)...)

	err := db.conn.QueryRowContext(ctx, query, incidentID).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("incident %d: %w", incidentID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get incident: %w", err)
	}

	finishAlertRule(&rule, timeWindow, environment, resolve)
	incident.AlertRule = &rule
	return &incident, nil
}

// GetProject retrieves a project.
func (db *DB) GetProject(ctx context.Context, projectID int64) (*models.Project, error) {
	query := `
		SELECT id, slug, organization_id
		FROM projects
		WHERE id = $1
	`
	var p models.Project
	err := db.conn.QueryRowContext(ctx, query, projectID).Scan(&p.ID, &p.Slug, &p.OrganizationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %d: %w", projectID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &p, nil
}
