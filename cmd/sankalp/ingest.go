package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sankalp-ai/sankalp/internal/ingestion"
)

func newIngestCmd(env *cliEnv) *cobra.Command {
	var (
		proposalID string
		file       string
		metaOut    string
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Store a proposal's text from a file",
		Long:  "Read a text, Markdown or HTML proposal document, clean it and store it as the proposal's text, replacing any earlier version.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			text, metadata, err := ingestion.IngestFromFile(file)
			if err != nil {
				return fmt.Errorf("failed to ingest from file: %w", err)
			}

			a, err := env.open(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if _, err := a.service.SubmitText(cmd.Context(), proposalID, text); err != nil {
				return fmt.Errorf("failed to store proposal text: %w", err)
			}

			if metaOut != "" {
				data, err := metadata.ToJSON()
				if err != nil {
					return err
				}
				if err := os.MkdirAll(filepath.Dir(metaOut), 0o755); err != nil {
					return fmt.Errorf("failed to create output directory: %w", err)
				}
				if err := os.WriteFile(metaOut, data, 0o644); err != nil {
					return fmt.Errorf("failed to write metadata: %w", err)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Stored proposal %s (%d characters, %s, sha256 %s)\n",
				proposalID, metadata.Characters, metadata.Format, metadata.Hash)
			return nil
		},
	}

	cmd.Flags().StringVarP(&proposalID, "proposal", "p", "", "Proposal ID (required)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to the proposal document (required)")
	cmd.Flags().StringVar(&metaOut, "meta-out", "", "Optional path to write ingestion metadata JSON")
	_ = cmd.MarkFlagRequired("proposal")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
