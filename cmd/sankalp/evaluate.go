package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sankalp-ai/sankalp/internal/types"
)

func newEvaluateCmd(env *cliEnv) *cobra.Command {
	var (
		proposalID string
		dimension  string
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate a stored proposal and update its scorecard",
		Long:  "Run the finance, technical, relevance and novelty providers (or one of them) against a stored proposal text and store each result on its scorecard.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dimensions := types.AllDimensions()
			if dimension != "all" {
				d, err := types.ParseDimension(dimension)
				if err != nil {
					return err
				}
				dimensions = []types.Dimension{d}
			}

			a, err := env.open(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			run, err := a.service.Evaluate(cmd.Context(), proposalID, dimensions...)
			if err != nil {
				return fmt.Errorf("evaluation failed: %w", err)
			}
			if p := env.printer(cmd.OutOrStdout()); p != nil {
				p.PrintDimensionErrors(run.Errors)
				p.PrintScorecard(run.Scorecard)
				return nil
			}
			for d, msg := range run.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s not scored: %s\n", d, msg)
			}
			return printJSON(cmd.OutOrStdout(), run)
		},
	}

	cmd.Flags().StringVarP(&proposalID, "proposal", "p", "", "Proposal ID (required)")
	cmd.Flags().StringVarP(&dimension, "dimension", "d", "all", "Dimension to evaluate: finance, technical, relevance, novelty or all")
	_ = cmd.MarkFlagRequired("proposal")
	return cmd
}
