package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"matching-workers/internal/bootstrap"
	"matching-workers/internal/common/logger"
	"matching-workers/internal/common/observability"
	"matching-workers/internal/service"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Recompute and store matching scores for a project",
	Long:  "Runs one matching invocation against the configured database: every eligible candidate (or the one named by --profile) is scored and upserted, and the ranked result is printed.",
	RunE:  runMatching,
}

var (
	runProject string
	runProfile string
	runTimeout time.Duration
)

func init() {
	runCmd.Flags().StringVar(&runProject, "project", "", "Project id to match (required)")
	runCmd.Flags().StringVar(&runProfile, "profile", "", "Restrict the run to one candidate profile id")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 2*time.Minute, "Abort the run after this long")

	if err := runCmd.MarkFlagRequired("project"); err != nil {
		panic(fmt.Sprintf("failed to mark project flag as required: %v", err))
	}

	rootCmd.AddCommand(runCmd)
}

func runMatching(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	zapLog := logger.New(cfg.Logging.Level, "console", "stderr")
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	ctx, cancel := contextWithTimeout(cmd, runTimeout)
	defer cancel()

	infra, err := bootstrap.Connect(ctx, cfg, bootstrap.ConnectOptions{MaxRetries: 3, InitialDelay: time.Second}, zapLog)
	if err != nil {
		return err
	}
	defer infra.Close()

	if err := bootstrap.Migrate(cfg, zapLog); err != nil {
		return err
	}

	obs := observability.New("matchctl", log)
	defer obs.Shutdown()

	svc := bootstrap.NewMatchingService(cfg, infra, obs, log)
	outcome, err := svc.Calculate(ctx, service.Request{
		ProjectID: runProject,
		ProfileID: runProfile,
		Source:    "cli",
	})
	if err != nil {
		return err
	}

	zapLog.Info("Matching run finished",
		zap.String("projectId", outcome.ProjectID),
		zap.Int("scored", outcome.Scored),
		zap.Int("persisted", outcome.Persisted),
		zap.Strings("failed", outcome.Failed),
	)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(outcome)
}

func contextWithTimeout(cmd *cobra.Command, timeout time.Duration) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, timeout)
}
