// Command matchctl scores candidates offline, triggers matching runs and
// manages the database schema.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"matching-workers/internal/common/config"
)

var rootCmd = &cobra.Command{
	Use:           "matchctl",
	Short:         "Candidate matching operations",
	Long:          "matchctl computes candidate/project matching scores from files, runs a full matching invocation against the configured database and applies schema migrations.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var configPath string

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a config YAML file (defaults to configs/config.yaml)")
}

// loadConfig reads configuration for commands that touch the database.
// matchctl never opens a Zeebe connection, so camunda is disabled unless set.
func loadConfig() (*config.Config, error) {
	if _, ok := os.LookupEnv("CAMUNDA_ENABLED"); !ok {
		_ = os.Setenv("CAMUNDA_ENABLED", "false")
	}
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
