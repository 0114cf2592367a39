package matching

import "matching-workers/internal/models"

// levelOrdinals orders the skill tiers. Unknown tiers have no ordinal.
var levelOrdinals = map[models.SkillLevel]int{
	models.LevelSupporter: 1,
	models.LevelUser:      2,
	models.LevelDeveloper: 3,
	models.LevelExpert:    4,
}

// LevelOrdinal returns the tier's position and whether the tier is known.
func LevelOrdinal(level models.SkillLevel) (int, bool) {
	ord, ok := levelOrdinals[level]
	return ord, ok
}

var idealYears = map[models.Difficulty]float64{
	models.DifficultyBeginner:     0.5,
	models.DifficultyIntermediate: 1.5,
	models.DifficultyAdvanced:     3,
}

// IdealYears is the experience a project of the given difficulty asks for.
// Unknown difficulties fall back to intermediate.
func IdealYears(d models.Difficulty) float64 {
	if y, ok := idealYears[d]; ok {
		return y
	}
	return idealYears[models.DifficultyIntermediate]
}

// relatedTools lists substitutes for a tool. Used only for the tool bonus.
// The relation is directed; symmetric groups are spelled out both ways.
var relatedTools = map[string][]string{
	"ChatGPT":          {"Claude", "Gemini", "Copilot"},
	"Claude":           {"ChatGPT", "Gemini"},
	"Gemini":           {"ChatGPT", "Claude"},
	"Copilot":          {"ChatGPT", "Cursor"},
	"Cursor":           {"Copilot"},
	"Python":           {"JavaScript", "TypeScript"},
	"JavaScript":       {"TypeScript", "Python"},
	"TypeScript":       {"JavaScript"},
	"Zapier":           {"Make", "n8n"},
	"Make":             {"Zapier", "n8n"},
	"n8n":              {"Zapier", "Make"},
	"Midjourney":       {"Stable Diffusion", "DALL-E"},
	"Stable Diffusion": {"Midjourney", "DALL-E"},
	"DALL-E":           {"Midjourney", "Stable Diffusion"},
	"Notion AI":        {"ChatGPT"},
	"Power Automate":   {"Zapier", "Make"},
}

// RelatedTools returns a copy of the substitutes listed for tool.
func RelatedTools(tool string) []string {
	related := relatedTools[tool]
	out := make([]string, len(related))
	copy(out, related)
	return out
}
