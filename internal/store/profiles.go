package store

import (
	"context"
	"encoding/json"
	"fmt"

	"matching-workers/internal/models"
)

const (
	listCandidatesQuery = `
	SELECT id, name, kind, profile_details
	FROM profiles
	WHERE kind = $1
	ORDER BY id`

	getCandidateQuery = `
	SELECT id, name, kind, profile_details
	FROM profiles
	WHERE kind = $1 AND id = $2`
)

// ListCandidates returns every professional profile, or only profileID when it
// is set. A profile of another kind is never returned, even by id.
func (s *Store) ListCandidates(ctx context.Context, profileID string) ([]models.Profile, error) {
	query, args := listCandidatesQuery, []interface{}{string(models.KindProfessional)}
	if profileID != "" {
		query, args = getCandidateQuery, append(args, profileID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		var (
			p    models.Profile
			kind string
			raw  []byte
		)
		if err := rows.Scan(&p.ID, &p.Name, &kind, &raw); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		p.Kind = models.ProfileKind(kind)
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &p.Details); err != nil {
				return nil, &MalformedRecordError{Kind: "profile", ID: p.ID, Err: err}
			}
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}
	return profiles, nil
}
