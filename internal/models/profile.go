package models

// ProfileKind separates supply (professionals) from demand (requesters).
type ProfileKind string

const (
	KindProfessional ProfileKind = "professional"
	KindRequester    ProfileKind = "requester"
)

type Profile struct {
	ID      string         `json:"id" db:"id"`
	Name    string         `json:"name" db:"name"`
	Kind    ProfileKind    `json:"kind" db:"kind"`
	Details ProfileDetails `json:"profile_details" db:"profile_details"`
}

// ProfileDetails is the supply-side record stored as JSONB.
type ProfileDetails struct {
	SkillLevels []SkillLevel      `json:"skill_levels,omitempty"`
	Tools       []string          `json:"tools,omitempty"`
	Experience  ExperienceDetails `json:"experience"`
}

type ExperienceDetails struct {
	Years   float64  `json:"years"`
	Domains []string `json:"domains,omitempty"`
}

// PrimaryLevel is the first listed skill level, or "" when none is listed.
func (d ProfileDetails) PrimaryLevel() SkillLevel {
	if len(d.SkillLevels) == 0 {
		return ""
	}
	return d.SkillLevels[0]
}

// HasTool reports exact, case-sensitive membership.
func (d ProfileDetails) HasTool(tool string) bool {
	for _, t := range d.Tools {
		if t == tool {
			return true
		}
	}
	return false
}

// HasDomain reports exact membership in the experience domains.
func (d ProfileDetails) HasDomain(domain string) bool {
	for _, dom := range d.Experience.Domains {
		if dom == domain {
			return true
		}
	}
	return false
}
