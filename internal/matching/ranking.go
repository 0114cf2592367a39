package matching

import (
	"sort"

	"matching-workers/internal/models"
)

// DefaultResultLimit caps the ranked response.
const DefaultResultLimit = 10

// Rank orders scores by total descending, then profile id ascending, and keeps
// at most limit entries. The input slice is not modified.
func Rank(scores []models.MatchingScore, limit int) []models.MatchingScore {
	if limit <= 0 {
		limit = DefaultResultLimit
	}

	ranked := make([]models.MatchingScore, len(scores))
	copy(ranked, scores)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Breakdown.Total != ranked[j].Breakdown.Total {
			return ranked[i].Breakdown.Total > ranked[j].Breakdown.Total
		}
		return ranked[i].ProfileID < ranked[j].ProfileID
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
