package calculatematchingscores

import "matching-workers/internal/models"

type Input struct {
	ProjectID string `json:"projectId"`
	ProfileID string `json:"profileId,omitempty"`
}

type Output struct {
	Success        bool                 `json:"success"`
	ProjectID      string               `json:"projectId"`
	Scored         int                  `json:"scored"`
	Persisted      int                  `json:"persisted"`
	FailedProfiles []string             `json:"failedProfiles,omitempty"`
	MatchingScores []models.RankedMatch `json:"matchingScores"`
}
