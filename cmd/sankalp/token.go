package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sankalp-ai/sankalp/internal/config"
	"github.com/sankalp-ai/sankalp/internal/server"
)

func newTokenCmd() *cobra.Command {
	var subject, role string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an evaluator token for the API",
		Long:  "Sign a bearer token for the write endpoints of the API with JWT_SECRET.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			jwtConfig, err := config.NewJWTConfig()
			if err != nil {
				return err
			}
			token, err := server.NewJWTService(jwtConfig).GenerateToken(subject, role)
			if err != nil {
				return fmt.Errorf("failed to generate token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVarP(&subject, "subject", "s", "", "Evaluator identity, e.g. an email address (required)")
	cmd.Flags().StringVar(&role, "role", "evaluator", "Role claim")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
