package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"matching-workers/internal/common/validation"
	"matching-workers/internal/matching"
	"matching-workers/internal/models"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score one candidate profile against project requirements",
	Long:  "Reads a requirements JSON file and a profile_details JSON file, and prints the score breakdown, percentage and reason without touching any database.",
	RunE:  runScore,
}

var (
	scoreRequirements string
	scoreProfile      string
)

var requirementsSchema = validation.MustSchema(`{
	"type": "object",
	"properties": {
		"required_level": {"type": "string"},
		"required_tools": {"type": "array", "items": {"type": "string"}},
		"business_domain": {"type": "string"},
		"project_difficulty": {"type": "string"}
	}
}`)

var profileSchema = validation.MustSchema(`{
	"type": "object",
	"properties": {
		"skill_levels": {"type": "array", "items": {"type": "string"}},
		"tools": {"type": "array", "items": {"type": "string"}},
		"experience": {
			"type": "object",
			"properties": {
				"years": {"type": "number", "minimum": 0},
				"domains": {"type": "array", "items": {"type": "string"}}
			}
		}
	}
}`)

// ScoreReport is what `matchctl score` prints.
type ScoreReport struct {
	models.ScoreBreakdown
	Reason  string              `json:"reason"`
	Details models.MatchDetails `json:"match_details"`
}

func init() {
	scoreCmd.Flags().StringVarP(&scoreRequirements, "requirements", "r", "", "Path to project requirements JSON file (required)")
	scoreCmd.Flags().StringVarP(&scoreProfile, "profile", "p", "", "Path to profile_details JSON file (required)")

	if err := scoreCmd.MarkFlagRequired("requirements"); err != nil {
		panic(fmt.Sprintf("failed to mark requirements flag as required: %v", err))
	}
	if err := scoreCmd.MarkFlagRequired("profile"); err != nil {
		panic(fmt.Sprintf("failed to mark profile flag as required: %v", err))
	}

	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, _ []string) error {
	return scoreFiles(scoreRequirements, scoreProfile, cmd.OutOrStdout())
}

func scoreFiles(requirementsPath, profilePath string, out io.Writer) error {
	var req models.Requirements
	if err := readValidated(requirementsPath, requirementsSchema, &req); err != nil {
		return fmt.Errorf("requirements: %w", err)
	}

	var profile models.ProfileDetails
	if err := readValidated(profilePath, profileSchema, &profile); err != nil {
		return fmt.Errorf("profile: %w", err)
	}

	res := matching.Score(req, profile)
	report := ScoreReport{
		ScoreBreakdown: res.Breakdown,
		Reason:         matching.Reason(res, req, profile),
		Details:        res.Details,
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func readValidated(path string, schema *validation.Schema, dst interface{}) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if result := schema.ValidateBytes(content); !result.Valid {
		return fmt.Errorf("%s is invalid: %s", path, result.String())
	}
	if err := json.Unmarshal(content, dst); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", path, err)
	}
	return nil
}
