package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/afikmenashe/incident-notifier/services/notifier/internal/models"
)

const (
	optionMailAlert          = "mail:alert"
	optionSubscribeByDefault = "subscribe_by_default"
)

// GetUser retrieves an active user.
func (db *DB) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	query := `
		SELECT id, email, name
		FROM users
		WHERE id = $1 AND is_active = TRUE
	`
	var u models.User
	err := db.conn.QueryRowContext(ctx, query, userID).Scan(&u.ID, &u.Email, &u.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", userID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// ListTeamMembers returns the active members of a team in the order they joined.
func (db *DB) ListTeamMembers(ctx context.Context, teamID int64) ([]models.User, error) {
	var exists bool
	if err := db.conn.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM teams WHERE id = $1)`, teamID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check team: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("team %d: %w", teamID, models.ErrNotFound)
	}

	query := `
		SELECT u.id, u.email, u.name
		FROM team_members tm
		JOIN users u ON u.id = tm.user_id
		WHERE tm.team_id = $1 AND u.is_active = TRUE
		ORDER BY tm.id ASC
	`
	rows, err := db.conn.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to query team members: %w", err)
	}
	defer rows.Close()

	var members []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name); err != nil {
			return nil, fmt.Errorf("failed to scan team member: %w", err)
		}
		members = append(members, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating team members: %w", err)
	}
	return members, nil
}

// GetAlertOptions returns each user's project "mail:alert" and global
// "subscribe_by_default" options. Users with neither option are absent.
func (db *DB) GetAlertOptions(ctx context.Context, userIDs []int64, projectID int64) (map[int64]models.AlertOptions, error) {
	result := make(map[int64]models.AlertOptions)
	if len(userIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT user_id, key, value
		FROM user_options
		WHERE user_id = ANY($1)
		  AND ((key = $2 AND project_id = $3) OR (key = $4 AND project_id IS NULL))
	`
	rows, err := db.conn.QueryContext(ctx, query, pq.Array(userIDs), optionMailAlert, projectID, optionSubscribeByDefault)
	if err != nil {
		return nil, fmt.Errorf("failed to query user options: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			userID int64
			key    string
			value  string
		)
		if err := rows.Scan(&userID, &key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan user option: %w", err)
		}
		enabled := value != "0"
		opts := result[userID]
		switch key {
		case optionMailAlert:
			opts.ProjectAlerts = &enabled
		case optionSubscribeByDefault:
			opts.SubscribeByDefault = &enabled
		}
		result[userID] = opts
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user options: %w", err)
	}
	return result, nil
}
