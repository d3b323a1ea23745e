package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/sankalp-ai/sankalp/internal/types"
)

func newScorecardCmd(env *cliEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scorecard",
		Short: "Read or edit a proposal's scorecard",
	}
	cmd.AddCommand(newScorecardGetCmd(env), newScorecardRemarksCmd(env), newScorecardClearCmd(env))
	return cmd
}

// printScorecard writes sc as a summary box with --verbose, otherwise as JSON.
func (e *cliEnv) printScorecard(w io.Writer, sc *types.Scorecard) error {
	if p := e.printer(w); p != nil {
		p.PrintScorecard(sc)
		return nil
	}
	return printJSON(w, sc)
}

func newScorecardGetCmd(env *cliEnv) *cobra.Command {
	var proposalID string

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Print a proposal's scorecard",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := env.open(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			sc, err := a.service.GetScorecard(cmd.Context(), proposalID)
			if err != nil {
				return err
			}
			return env.printScorecard(cmd.OutOrStdout(), sc)
		},
	}

	cmd.Flags().StringVarP(&proposalID, "proposal", "p", "", "Proposal ID (required)")
	_ = cmd.MarkFlagRequired("proposal")
	return cmd
}

func newScorecardRemarksCmd(env *cliEnv) *cobra.Command {
	var proposalID, remarks string

	cmd := &cobra.Command{
		Use:   "remarks",
		Short: "Replace the evaluator remarks on a scorecard",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := env.open(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			sc, err := a.service.SetRemarks(cmd.Context(), proposalID, remarks)
			if err != nil {
				return err
			}
			return env.printScorecard(cmd.OutOrStdout(), sc)
		},
	}

	cmd.Flags().StringVarP(&proposalID, "proposal", "p", "", "Proposal ID (required)")
	cmd.Flags().StringVar(&remarks, "text", "", "Remarks text; empty clears them")
	_ = cmd.MarkFlagRequired("proposal")
	return cmd
}

func newScorecardClearCmd(env *cliEnv) *cobra.Command {
	var proposalID, dimension string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Mark one dimension of a scorecard unscored",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := types.ParseDimension(dimension)
			if err != nil {
				return err
			}

			a, err := env.open(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			sc, err := a.service.ClearDimension(cmd.Context(), proposalID, d)
			if err != nil {
				return err
			}
			return env.printScorecard(cmd.OutOrStdout(), sc)
		},
	}

	cmd.Flags().StringVarP(&proposalID, "proposal", "p", "", "Proposal ID (required)")
	cmd.Flags().StringVarP(&dimension, "dimension", "d", "", "Dimension to clear (required)")
	_ = cmd.MarkFlagRequired("proposal")
	_ = cmd.MarkFlagRequired("dimension")
	return cmd
}
