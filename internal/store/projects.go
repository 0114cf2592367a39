package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"matching-workers/internal/models"
)

const getProjectQuery = `
	SELECT id, COALESCE(profile_id, ''), title, requirements, created_at, updated_at
	FROM projects
	WHERE id = $1`

// GetProject loads a project and decodes its requirements.
func (s *Store) GetProject(ctx context.Context, projectID string) (*models.Project, error) {
	var (
		p   models.Project
		raw []byte
	)
	err := s.db.QueryRowContext(ctx, getProjectQuery, projectID).Scan(
		&p.ID, &p.RequesterProfileID, &p.Title, &raw, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, projectID)
	}
	if err != nil {
		return nil, fmt.Errorf("query project %s: %w", projectID, err)
	}

	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p.Requirements); err != nil {
			return nil, &MalformedRecordError{Kind: "project", ID: projectID, Err: err}
		}
	}
	return &p, nil
}

// MalformedRecordError reports a stored JSON column that could not be decoded.
type MalformedRecordError struct {
	Kind string
	ID   string
	Err  error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed %s %s: %v", e.Kind, e.ID, e.Err)
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}
