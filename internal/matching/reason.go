package matching

import (
	"fmt"
	"strconv"
	"strings"

	"matching-workers/internal/models"
)

const fallbackReason = "candidate is viable for this project"

// Reason explains a result in short clauses joined by ". ".
func Reason(res Result, req models.Requirements, profile models.ProfileDetails) string {
	b := res.Breakdown
	clauses := make([]string, 0, 4)

	if b.Level >= 25 {
		clauses = append(clauses, "skill level matches requirement")
	}
	if b.Tool >= 20 {
		if len(res.Details.MatchedTools) > 0 {
			clauses = append(clauses, "has required tools: "+strings.Join(res.Details.MatchedTools, ", "))
		} else {
			clauses = append(clauses, "tool requirements satisfied")
		}
	}
	if b.Domain >= 15 {
		clauses = append(clauses, fmt.Sprintf("experience in %s", req.BusinessDomain))
	}
	if b.Experience >= 10 {
		clauses = append(clauses, fmt.Sprintf("%s years of experience", strconv.FormatFloat(profile.Experience.Years, 'f', -1, 64)))
	}

	if len(clauses) == 0 {
		return fallbackReason
	}
	return strings.Join(clauses, ". ")
}
