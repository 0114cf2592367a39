package matching

import (
	"math"

	"matching-workers/internal/models"
)

// Component caps.
const (
	MaxLevelScore      = 30.0
	MaxToolScore       = 25.0
	MaxDomainScore     = 20.0
	MaxExperienceScore = 15.0
	AvailabilityScore  = 10.0
	MaxTotalScore      = 100.0

	noToolsRequiredScore = 20.0
	relatedToolBonus     = 2.5
)

// Result is the engine's output for one candidate.
type Result struct {
	Breakdown models.ScoreBreakdown
	Details   models.MatchDetails
}

// Score computes the breakdown of a candidate against a project's requirements.
// It is pure and deterministic.
func Score(req models.Requirements, profile models.ProfileDetails) Result {
	matched := matchedTools(req.RequiredTools, profile)

	b := models.ScoreBreakdown{
		Level:        levelScore(req.RequiredLevel, profile.PrimaryLevel()),
		Tool:         toolScore(req.RequiredTools, matched, profile),
		Domain:       domainScore(req.BusinessDomain, profile),
		Experience:   experienceScore(req.Difficulty(), profile.Experience.Years),
		Availability: AvailabilityScore,
	}
	b.Total = math.Min(MaxTotalScore, b.Level+b.Tool+b.Domain+b.Experience+b.Availability)
	b.Percentage = int(math.Round(b.Total))

	return Result{
		Breakdown: b,
		Details: models.MatchDetails{
			RequiredLevel:  req.RequiredLevel,
			CandidateLevel: profile.PrimaryLevel(),
			MatchedTools:   matched,
		},
	}
}

func levelScore(required, candidate models.SkillLevel) float64 {
	if required == "" || candidate == "" {
		return 0
	}
	req, ok := LevelOrdinal(required)
	if !ok {
		return 0
	}
	cand, ok := LevelOrdinal(candidate)
	if !ok {
		return 0
	}

	switch diff := cand - req; {
	case diff == 0:
		return 30
	case diff > 0:
		return 25
	case diff == -1:
		return 15
	default:
		return 5
	}
}

// matchedTools returns the required tools the candidate has, in requirement order.
// Duplicated requirements are counted as listed.
func matchedTools(required []string, profile models.ProfileDetails) []string {
	matched := make([]string, 0, len(required))
	for _, tool := range required {
		if profile.HasTool(tool) {
			matched = append(matched, tool)
		}
	}
	return matched
}

func toolScore(required, matched []string, profile models.ProfileDetails) float64 {
	if len(required) == 0 {
		return noToolsRequiredScore
	}

	base := math.Round(MaxToolScore * float64(len(matched)) / float64(len(required)))

	bonus := 0.0
	for _, tool := range required {
		if profile.HasTool(tool) {
			continue
		}
		if hasRelatedTool(tool, profile) {
			bonus += relatedToolBonus
		}
	}

	return math.Min(MaxToolScore, base+bonus)
}

func hasRelatedTool(tool string, profile models.ProfileDetails) bool {
	for _, related := range relatedTools[tool] {
		if profile.HasTool(related) {
			return true
		}
	}
	return false
}

// domainScore gives 10 to any candidate with some domain experience when the
// required domain is unset or unmatched.
func domainScore(required string, profile models.ProfileDetails) float64 {
	if required != "" && profile.HasDomain(required) {
		return 20
	}
	if len(profile.Experience.Domains) > 0 {
		return 10
	}
	return 5
}

func experienceScore(difficulty models.Difficulty, years float64) float64 {
	ideal := IdealYears(difficulty)
	if years >= ideal {
		return 15
	} else if years >= ideal*0.7 {
		return 10
	}
	return 5
}
