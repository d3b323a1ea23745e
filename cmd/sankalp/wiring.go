package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/sankalp-ai/sankalp/internal/config"
	"github.com/sankalp-ai/sankalp/internal/db"
	"github.com/sankalp-ai/sankalp/internal/evaluation"
	"github.com/sankalp-ai/sankalp/internal/events"
	"github.com/sankalp-ai/sankalp/internal/llm"
	"github.com/sankalp-ai/sankalp/internal/metrics"
	"github.com/sankalp-ai/sankalp/internal/mongostore"
	"github.com/sankalp-ai/sankalp/internal/novelty"
	"github.com/sankalp-ai/sankalp/internal/observability"
	"github.com/sankalp-ai/sankalp/internal/store"
)

// app holds everything a command needs, plus the resources to release afterwards.
type app struct {
	cfg     *config.Config
	service *evaluation.Service
	metrics *metrics.Metrics
	closers []func() error
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type appBuilder func(ctx context.Context, cfg *config.Config) (*app, error)

// cliEnv is shared by subcommands.
type cliEnv struct {
	configPath *string
	verbose    *bool
	build      appBuilder
}

// printer returns a box printer when --verbose is set, otherwise nil.
func (e *cliEnv) printer(w io.Writer) *observability.Printer {
	if e.verbose == nil || !*e.verbose {
		return nil
	}
	return observability.NewPrinter(w)
}

// open loads configuration and builds the application.
func (e *cliEnv) open(ctx context.Context) (*app, error) {
	cfg, err := config.Load(*e.configPath)
	if err != nil {
		return nil, err
	}
	return e.build(ctx, cfg)
}

// buildApp connects the configured store, completion client, novelty service and
// event publisher and wires them into an evaluation service.
func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg, metrics: metrics.New()}
	fail := func(err error) (*app, error) {
		_ = a.Close()
		return nil, err
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	a.closers = append(a.closers, st.Close)

	client, err := newLLMClient(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	a.closers = append(a.closers, client.Close)

	checker, err := newNoveltyChecker(cfg)
	if err != nil {
		return fail(err)
	}

	publisher, err := newPublisher(cfg)
	if err != nil {
		return fail(err)
	}
	a.closers = append(a.closers, publisher.Close)

	opts := evaluation.Options{
		Store:     st,
		LLM:       client,
		Publisher: publisher,
		Metrics:   a.metrics,
		TextCap:   cfg.LLMTextCap,
	}
	if checker != nil {
		opts.Novelty = checker
	}
	a.service, err = evaluation.NewService(opts)
	if err != nil {
		return fail(err)
	}
	return a, nil
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StoreDriver {
	case store.DriverPostgres:
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := database.EnsureSchema(ctx); err != nil {
			_ = database.Close()
			return nil, err
		}
		return database, nil
	case store.DriverMongo:
		s, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		log.Printf("[store] Using in-memory store; scorecards are lost on exit")
		return store.NewMemory(), nil
	}
}

func newLLMClient(ctx context.Context, cfg *config.Config) (llm.Client, error) {
	apiKey := cfg.APIKey()
	if apiKey == "" {
		return nil, fmt.Errorf("an API key for llm provider %q is required (GEMINI_API_KEY or OPENAI_API_KEY)", cfg.LLMProvider)
	}
	llmConfig, err := llm.ConfigForProvider(cfg.LLMProvider)
	if err != nil {
		return nil, err
	}
	timeout, err := cfg.LLMTimeoutDuration()
	if err != nil {
		return nil, err
	}
	return llm.NewClient(ctx, llmConfig.WithTimeout(timeout), apiKey)
}

// newNoveltyChecker returns nil when no novelty service is configured.
func newNoveltyChecker(cfg *config.Config) (*novelty.Client, error) {
	if cfg.NoveltyURL == "" {
		log.Printf("[novelty] NOVELTY_URL not set; novelty will stay unscored")
		return nil, nil
	}
	timeout, err := cfg.NoveltyTimeoutDuration()
	if err != nil {
		return nil, err
	}
	opts := novelty.DefaultOptions(cfg.NoveltyURL)
	opts.Timeout = timeout
	opts.Scale = cfg.NoveltyScale
	return novelty.NewClient(opts)
}

func newPublisher(cfg *config.Config) (events.Publisher, error) {
	if cfg.NATSURL == "" {
		return events.Noop{}, nil
	}
	publisher, err := events.NewNATSPublisher(cfg.NATSURL)
	if err != nil {
		return nil, err
	}
	return publisher, nil
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
