package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"matching-workers/internal/models"
)

// upsertScoreQuery replaces the pair's row in one statement. The id and
// created_at of an existing row survive the update.
const upsertScoreQuery = `
	INSERT INTO matching_scores (
		id, project_id, profile_id,
		level_match_score, tool_match_score, domain_match_score,
		experience_score, availability_score, total_score,
		percentage, reason, match_details, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
	ON CONFLICT (project_id, profile_id) DO UPDATE SET
		level_match_score  = EXCLUDED.level_match_score,
		tool_match_score   = EXCLUDED.tool_match_score,
		domain_match_score = EXCLUDED.domain_match_score,
		experience_score   = EXCLUDED.experience_score,
		availability_score = EXCLUDED.availability_score,
		total_score        = EXCLUDED.total_score,
		percentage         = EXCLUDED.percentage,
		reason             = EXCLUDED.reason,
		match_details      = EXCLUDED.match_details,
		updated_at         = NOW()
	RETURNING id, created_at, updated_at`

const topScoresQuery = `
	SELECT ms.id, ms.project_id, ms.profile_id, p.name,
		ms.level_match_score, ms.tool_match_score, ms.domain_match_score,
		ms.experience_score, ms.availability_score, ms.total_score,
		ms.percentage, ms.reason, ms.match_details, ms.created_at, ms.updated_at
	FROM matching_scores ms
	JOIN profiles p ON p.id = ms.profile_id
	WHERE ms.project_id = $1 AND p.kind = $2
	ORDER BY ms.total_score DESC, ms.profile_id ASC
	LIMIT $3`

// UpsertScore writes the current score for (ProjectID, ProfileID) and fills in
// the stored id and timestamps.
func (s *Store) UpsertScore(ctx context.Context, score *models.MatchingScore) error {
	details, err := json.Marshal(score.Details)
	if err != nil {
		return fmt.Errorf("encode match details: %w", err)
	}

	b := score.Breakdown
	err = s.db.QueryRowContext(ctx, upsertScoreQuery,
		uuid.NewString(), score.ProjectID, score.ProfileID,
		b.Level, b.Tool, b.Domain,
		b.Experience, b.Availability, b.Total,
		b.Percentage, score.Reason, string(details),
	).Scan(&score.ID, &score.CreatedAt, &score.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert matching score %s/%s: %w", score.ProjectID, score.ProfileID, err)
	}
	return nil
}

// TopScores reads the stored ranking for a project. Rows whose profile is no
// longer a professional are skipped.
func (s *Store) TopScores(ctx context.Context, projectID string, limit int) ([]models.MatchingScore, error) {
	rows, err := s.db.QueryContext(ctx, topScoresQuery, projectID, string(models.KindProfessional), limit)
	if err != nil {
		return nil, fmt.Errorf("query matching scores: %w", err)
	}
	defer rows.Close()

	var scores []models.MatchingScore
	for rows.Next() {
		var (
			ms  models.MatchingScore
			raw []byte
		)
		b := &ms.Breakdown
		if err := rows.Scan(
			&ms.ID, &ms.ProjectID, &ms.ProfileID, &ms.ProfileName,
			&b.Level, &b.Tool, &b.Domain,
			&b.Experience, &b.Availability, &b.Total,
			&b.Percentage, &ms.Reason, &raw, &ms.CreatedAt, &ms.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan matching score: %w", err)
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &ms.Details); err != nil {
				return nil, &MalformedRecordError{Kind: "matching score", ID: ms.ID, Err: err}
			}
		}
		scores = append(scores, ms)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matching scores: %w", err)
	}
	return scores, nil
}
