package models

import "time"

// ScoreBreakdown holds the five capped components and their sum.
type ScoreBreakdown struct {
	Level        float64 `json:"level_match_score"`
	Tool         float64 `json:"tool_match_score"`
	Domain       float64 `json:"domain_match_score"`
	Experience   float64 `json:"experience_score"`
	Availability float64 `json:"availability_score"`
	Total        float64 `json:"total_score"`
	Percentage   int     `json:"percentage"`
}

// MatchDetails is the snapshot stored next to a score.
type MatchDetails struct {
	RequiredLevel  SkillLevel `json:"required_level"`
	CandidateLevel SkillLevel `json:"candidate_level"`
	MatchedTools   []string   `json:"matched_tools"`
}

// MatchingScore is the single current score for a (project, profile) pair.
type MatchingScore struct {
	ID          string         `json:"id" db:"id"`
	ProjectID   string         `json:"project_id" db:"project_id"`
	ProfileID   string         `json:"profile_id" db:"profile_id"`
	ProfileName string         `json:"profile_name" db:"-"`
	Breakdown   ScoreBreakdown `json:"breakdown"`
	Reason      string         `json:"reason" db:"reason"`
	Details     MatchDetails   `json:"match_details" db:"match_details"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}

// RankedMatch is one entry of a ranked response.
type RankedMatch struct {
	ProfileID         string  `json:"profile_id"`
	ProfileName       string  `json:"profile_name"`
	LevelMatchScore   float64 `json:"level_match_score"`
	ToolMatchScore    float64 `json:"tool_match_score"`
	DomainMatchScore  float64 `json:"domain_match_score"`
	ExperienceScore   float64 `json:"experience_score"`
	AvailabilityScore float64 `json:"availability_score"`
	TotalScore        float64 `json:"total_score"`
}

// Ranked projects a stored score onto the response shape.
func (s MatchingScore) Ranked() RankedMatch {
	return RankedMatch{
		ProfileID:         s.ProfileID,
		ProfileName:       s.ProfileName,
		LevelMatchScore:   s.Breakdown.Level,
		ToolMatchScore:    s.Breakdown.Tool,
		DomainMatchScore:  s.Breakdown.Domain,
		ExperienceScore:   s.Breakdown.Experience,
		AvailabilityScore: s.Breakdown.Availability,
		TotalScore:        s.Breakdown.Total,
	}
}
