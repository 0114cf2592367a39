package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"matching-workers/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func developerProfile(tools []string, years float64, domains ...string) models.ProfileDetails {
	return models.ProfileDetails{
		SkillLevels: []models.SkillLevel{models.LevelDeveloper},
		Tools:       tools,
		Experience:  models.ExperienceDetails{Years: years, Domains: domains},
	}
}

// ==========================
// Scenarios
// ==========================

func TestScore_PerfectMatch(t *testing.T) {
	req := models.Requirements{
		RequiredLevel:     models.LevelDeveloper,
		RequiredTools:     []string{"ChatGPT"},
		BusinessDomain:    "営業支援",
		ProjectDifficulty: models.DifficultyIntermediate,
	}

	res := Score(req, developerProfile([]string{"ChatGPT"}, 2, "営業支援"))

	assert.Equal(t, models.ScoreBreakdown{
		Level: 30, Tool: 25, Domain: 20, Experience: 15, Availability: 10,
		Total: 100, Percentage: 100,
	}, res.Breakdown)
	assert.Equal(t, []string{"ChatGPT"}, res.Details.MatchedTools)
	assert.Equal(t, models.LevelDeveloper, res.Details.RequiredLevel)
	assert.Equal(t, models.LevelDeveloper, res.Details.CandidateLevel)
}

func TestScore_PartialToolMatchRoundsHalfUp(t *testing.T) {
	req := models.Requirements{RequiredTools: []string{"ChatGPT", "Python"}}

	res := Score(req, developerProfile([]string{"ChatGPT"}, 0))

	assert.Equal(t, 13.0, res.Breakdown.Tool)
}

// ==========================
// Component Tests
// ==========================

func TestLevelScore(t *testing.T) {
	tests := []struct {
		name      string
		required  models.SkillLevel
		candidate models.SkillLevel
		want      float64
	}{
		{"equal", models.LevelDeveloper, models.LevelDeveloper, 30},
		{"candidate higher", models.LevelUser, models.LevelExpert, 25},
		{"one below", models.LevelExpert, models.LevelDeveloper, 15},
		{"two below", models.LevelExpert, models.LevelUser, 5},
		{"three below", models.LevelExpert, models.LevelSupporter, 5},
		{"required missing", "", models.LevelExpert, 0},
		{"candidate missing", models.LevelUser, "", 0},
		{"unknown tier", "wizard", models.LevelUser, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, levelScore(tt.required, tt.candidate))
		})
	}
}

func TestScore_LevelUsesPrimaryTier(t *testing.T) {
	profile := models.ProfileDetails{SkillLevels: []models.SkillLevel{models.LevelUser, models.LevelExpert}}
	res := Score(models.Requirements{RequiredLevel: models.LevelExpert}, profile)
	assert.Equal(t, 5.0, res.Breakdown.Level)

	res = Score(models.Requirements{RequiredLevel: models.LevelExpert}, models.ProfileDetails{})
	assert.Equal(t, 0.0, res.Breakdown.Level)
}

func TestToolScore(t *testing.T) {
	tests := []struct {
		name      string
		required  []string
		candidate []string
		want      float64
	}{
		{"nothing required", nil, []string{"ChatGPT"}, 20},
		{"nothing required empty slice", []string{}, nil, 20},
		{"all matched", []string{"ChatGPT", "Python"}, []string{"Python", "ChatGPT"}, 25},
		{"none matched no relation", []string{"Python"}, []string{"Excel"}, 0},
		{"related substitute present", []string{"ChatGPT"}, []string{"Claude"}, 2.5},
		{"half matched plus related", []string{"ChatGPT", "Python"}, []string{"ChatGPT", "TypeScript"}, 15.5},
		{"one of three", []string{"ChatGPT", "Zapier", "Python"}, []string{"ChatGPT"}, 8},
		{"one of three with two bonuses", []string{"ChatGPT", "Zapier", "Python"}, []string{"ChatGPT", "Make", "JavaScript"}, 13},
		{"case sensitive", []string{"ChatGPT"}, []string{"chatgpt"}, 0},
		{"duplicate requirement counted twice", []string{"ChatGPT", "ChatGPT", "Python"}, []string{"ChatGPT"}, 17},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Score(models.Requirements{RequiredTools: tt.required}, models.ProfileDetails{Tools: tt.candidate})
			assert.Equal(t, tt.want, res.Breakdown.Tool)
		})
	}
}

func TestToolScore_ClampedAt25(t *testing.T) {
	required := []string{"ChatGPT", "Claude", "Gemini", "Zapier", "Make", "n8n", "Midjourney", "DALL-E", "Python", "JavaScript"}
	// Candidate has half the tools; every missing one has a substitute present.
	candidate := []string{"ChatGPT", "Zapier", "Midjourney", "Python", "Claude"}

	res := Score(models.Requirements{RequiredTools: required}, models.ProfileDetails{Tools: candidate})
	assert.Equal(t, MaxToolScore, res.Breakdown.Tool)
}

func TestDomainScore(t *testing.T) {
	tests := []struct {
		name     string
		required string
		domains  []string
		want     float64
	}{
		{"matched", "営業支援", []string{"経理", "営業支援"}, 20},
		{"unmatched but experienced", "営業支援", []string{"経理"}, 10},
		{"none required, experienced", "", []string{"経理"}, 10},
		{"none required, no domains", "", nil, 5},
		{"required, no domains", "営業支援", nil, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := models.ProfileDetails{Experience: models.ExperienceDetails{Domains: tt.domains}}
			assert.Equal(t, tt.want, domainScore(tt.required, profile))
		})
	}
}

func TestExperienceScore(t *testing.T) {
	tests := []struct {
		name       string
		difficulty models.Difficulty
		years      float64
		want       float64
	}{
		{"beginner meets ideal", models.DifficultyBeginner, 0.5, 15},
		{"beginner zero years", models.DifficultyBeginner, 0, 5},
		{"intermediate at 70 percent", models.DifficultyIntermediate, 1.05, 10},
		{"intermediate just short of 70 percent", models.DifficultyIntermediate, 1.0, 5},
		{"default is intermediate", "", 1.5, 15},
		{"advanced three years", models.DifficultyAdvanced, 3, 15},
		{"advanced 2.1 years", models.DifficultyAdvanced, 2.1, 10},
		{"advanced two years", models.DifficultyAdvanced, 2, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, experienceScore(tt.difficulty, tt.years))
		})
	}
}

// ==========================
// Properties
// ==========================

func TestScore_BoundsAndDeterminism(t *testing.T) {
	levels := []models.SkillLevel{"", models.LevelSupporter, models.LevelUser, models.LevelDeveloper, models.LevelExpert}
	toolSets := [][]string{nil, {"ChatGPT"}, {"ChatGPT", "Python"}, {"Zapier", "Midjourney", "Cursor"}}
	difficulties := []models.Difficulty{"", models.DifficultyBeginner, models.DifficultyIntermediate, models.DifficultyAdvanced}

	for _, reqLevel := range levels {
		for _, candLevel := range levels {
			for _, reqTools := range toolSets {
				for _, candTools := range toolSets {
					for _, diff := range difficulties {
						req := models.Requirements{RequiredLevel: reqLevel, RequiredTools: reqTools, BusinessDomain: "営業支援", ProjectDifficulty: diff}
						profile := models.ProfileDetails{
							SkillLevels: []models.SkillLevel{candLevel},
							Tools:       candTools,
							Experience:  models.ExperienceDetails{Years: 1, Domains: []string{"営業支援"}},
						}

						first := Score(req, profile)
						b := first.Breakdown

						assert.True(t, b.Level >= 0 && b.Level <= MaxLevelScore)
						assert.True(t, b.Tool >= 0 && b.Tool <= MaxToolScore)
						assert.True(t, b.Domain >= 0 && b.Domain <= MaxDomainScore)
						assert.True(t, b.Experience >= 0 && b.Experience <= MaxExperienceScore)
						assert.Equal(t, AvailabilityScore, b.Availability)
						assert.Equal(t, b.Level+b.Tool+b.Domain+b.Experience+b.Availability, b.Total)
						assert.True(t, b.Total >= 0 && b.Total <= MaxTotalScore)
						assert.Equal(t, first, Score(req, profile))
					}
				}
			}
		}
	}
}

func TestRelatedTools_PythonHasNoAssistantSubstitute(t *testing.T) {
	assert.NotContains(t, RelatedTools("Python"), "ChatGPT")
	assert.Empty(t, RelatedTools("Excel"))

	related := RelatedTools("ChatGPT")
	related[0] = "mutated"
	assert.Equal(t, "Claude", RelatedTools("ChatGPT")[0])
}

func TestIdealYears_UnknownFallsBack(t *testing.T) {
	assert.Equal(t, 1.5, IdealYears("heroic"))
}
