package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCompareCmd(env *cliEnv) *cobra.Command {
	var proposalA, proposalB string

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare two stored proposals",
		Long:  "Ask the completion service how similar two stored proposals are and print the similarity report. Nothing is stored.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := env.open(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			report, err := a.service.CompareSimilarity(cmd.Context(), proposalA, proposalB)
			if err != nil {
				return fmt.Errorf("comparison failed: %w", err)
			}
			if p := env.printer(cmd.OutOrStdout()); p != nil {
				p.PrintSimilarityReport(report)
				return nil
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().StringVar(&proposalA, "a", "", "First proposal ID (required)")
	cmd.Flags().StringVar(&proposalB, "b", "", "Second proposal ID (required)")
	_ = cmd.MarkFlagRequired("a")
	_ = cmd.MarkFlagRequired("b")
	return cmd
}
