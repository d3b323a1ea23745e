// Package main provides the sankalp command: the proposal evaluation HTTP API
// server plus one-shot commands for ingesting, evaluating and comparing proposals.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// newRootCmd builds the command tree. build creates the application for commands
// that need the store or the providers.
func newRootCmd(build appBuilder) *cobra.Command {
	var (
		configPath string
		verbose    bool
	)

	rootCmd := &cobra.Command{
		Use:           "sankalp",
		Short:         "Sankalp proposal evaluation",
		Long:          "Sankalp scores R&D funding proposals on finance, technical merit, relevance and novelty, keeps one scorecard per proposal and compares proposals pairwise.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a JSON or YAML config file (environment variables take precedence)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print human-readable summaries instead of JSON")

	env := &cliEnv{configPath: &configPath, verbose: &verbose, build: build}
	rootCmd.AddCommand(
		newServeCmd(env),
		newIngestCmd(env),
		newEvaluateCmd(env),
		newCompareCmd(env),
		newScorecardCmd(env),
		newTokenCmd(),
	)
	return rootCmd
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCmd(buildApp).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
