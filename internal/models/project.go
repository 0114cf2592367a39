package models

import "time"

// SkillLevel is a skill tier. The tiers are totally ordered; see matching.LevelOrdinal.
type SkillLevel string

const (
	LevelSupporter SkillLevel = "supporter"
	LevelUser      SkillLevel = "user"
	LevelDeveloper SkillLevel = "developer"
	LevelExpert    SkillLevel = "expert"
)

// Difficulty drives the ideal years of experience for a project.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Requirements is the structured demand side of a project, stored as JSONB.
type Requirements struct {
	RequiredLevel     SkillLevel `json:"required_level,omitempty"`
	RequiredTools     []string   `json:"required_tools,omitempty"`
	BusinessDomain    string     `json:"business_domain,omitempty"`
	ProjectDifficulty Difficulty `json:"project_difficulty,omitempty"`
}

// Difficulty returns the project difficulty, defaulting to intermediate.
func (r Requirements) Difficulty() Difficulty {
	if r.ProjectDifficulty == "" {
		return DifficultyIntermediate
	}
	return r.ProjectDifficulty
}

type Project struct {
	ID                 string       `json:"id" db:"id"`
	RequesterProfileID string       `json:"profile_id,omitempty" db:"profile_id"`
	Title              string       `json:"title,omitempty" db:"title"`
	Requirements       Requirements `json:"requirements" db:"requirements"`
	CreatedAt          time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at" db:"updated_at"`
}
