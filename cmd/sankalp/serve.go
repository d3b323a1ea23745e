package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/sankalp-ai/sankalp/internal/config"
	"github.com/sankalp-ai/sankalp/internal/server"
	"github.com/sankalp-ai/sankalp/internal/server/ratelimit"
)

func newServeCmd(env *cliEnv) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		Long:  `Start an HTTP server that exposes proposal text submission, evaluation, scorecards and similarity over REST.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			jwtConfig, err := config.NewJWTConfig()
			if err != nil {
				return err
			}

			a, err := env.open(cmd.Context())
			if err != nil {
				return err
			}
			onShutdown := []func() error{a.Close}

			cfg := server.Config{
				Port:       a.cfg.Port,
				Service:    a.service,
				JWT:        jwtConfig,
				RateLimit:  ratelimit.LoadConfig(),
				Metrics:    a.metrics,
				OnShutdown: onShutdown,
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}

			if a.cfg.RedisURL != "" {
				client, err := ratelimit.NewRedisClient(a.cfg.RedisURL)
				if err != nil {
					_ = a.Close()
					return err
				}
				log.Printf("[rate-limit] Using Redis backend")
				cfg.RateLimitBackend = ratelimit.NewRedisBackend(client)
				cfg.OnShutdown = append(cfg.OnShutdown, client.Close)
			}

			srv, err := server.New(cfg)
			if err != nil {
				_ = a.Close()
				return fmt.Errorf("failed to create server: %w", err)
			}

			return srv.Start()
		},
	}

	cmd.Flags().IntVar(&port, "port", config.DefaultPort, "Port to listen on (overrides PORT)")
	return cmd
}
