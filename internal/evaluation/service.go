package evaluation

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sankalp-ai/sankalp/internal/events"
	"github.com/sankalp-ai/sankalp/internal/ingestion"
	"github.com/sankalp-ai/sankalp/internal/llm"
	"github.com/sankalp-ai/sankalp/internal/metrics"
	"github.com/sankalp-ai/sankalp/internal/novelty"
	"github.com/sankalp-ai/sankalp/internal/store"
	"github.com/sankalp-ai/sankalp/internal/types"
)

// RemarksField labels scorecard writes that change only the evaluator remarks.
const RemarksField = "remarks"

// Options configures a Service.
type Options struct {
	Store     store.Store
	LLM       llm.Client
	Novelty   novelty.Checker // nil leaves novelty unscored with an UpstreamUnavailableError
	Publisher events.Publisher
	Metrics   *metrics.Metrics
	TextCap   int
}

// Service is the evaluation entry point used by the HTTP API and the CLI.
type Service struct {
	store      store.Store
	providers  map[types.Dimension]*DimensionProvider
	novelty    *NoveltyProvider
	comparator *Comparator
	publisher  events.Publisher
	metrics    *metrics.Metrics
}

// EvaluationRun is the outcome of evaluating one or more dimensions of a proposal.
type EvaluationRun struct {
	ProposalID string                                    `json:"proposal_id"`
	Results    map[types.Dimension]types.DimensionResult `json:"results"`
	// Errors holds dimensions left unscored because their provider failed.
	Errors    map[types.Dimension]string `json:"errors,omitempty"`
	Scorecard *types.Scorecard           `json:"scorecard,omitempty"`
}

// NewService wires providers for every dimension.
func NewService(opts Options) (*Service, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if opts.LLM == nil {
		return nil, fmt.Errorf("completion client is required")
	}
	publisher := opts.Publisher
	if publisher == nil {
		publisher = events.Noop{}
	}

	providers := make(map[types.Dimension]*DimensionProvider, 3)
	for _, def := range Definitions() {
		providers[def.Dimension] = NewDimensionProvider(def, opts.Store, opts.LLM, opts.TextCap, opts.Metrics)
	}

	return &Service{
		store:      opts.Store,
		providers:  providers,
		novelty:    NewNoveltyProvider(opts.Store, opts.Novelty, opts.Metrics),
		comparator: NewComparator(opts.Store, opts.LLM, opts.Metrics),
		publisher:  publisher,
		metrics:    opts.Metrics,
	}, nil
}

// SubmitText cleans and stores a proposal's text, replacing any earlier version.
func (s *Service) SubmitText(ctx context.Context, proposalID, rawText string) (*types.ProposalText, error) {
	text := &types.ProposalText{
		ProposalID: proposalID,
		RawText:    ingestion.CleanText(rawText),
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.PutProposalText(ctx, text); err != nil {
		return nil, err
	}
	return text, nil
}

// EvaluateDimension runs one provider without storing its result.
func (s *Service) EvaluateDimension(ctx context.Context, proposalID string, dimension types.Dimension) (types.DimensionResult, error) {
	if dimension == types.DimensionNovelty {
		score, err := s.novelty.Evaluate(ctx, proposalID)
		if err != nil {
			return nil, err
		}
		return score, nil
	}
	provider, ok := s.providers[dimension]
	if !ok {
		return nil, &types.ValidationError{Field: "dimension", Message: fmt.Sprintf("unknown dimension %q", dimension)}
	}
	score, err := provider.Evaluate(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	return score, nil
}

// EvaluateAll runs every provider and stores each result.
func (s *Service) EvaluateAll(ctx context.Context, proposalID string) (*EvaluationRun, error) {
	return s.Evaluate(ctx, proposalID, types.AllDimensions()...)
}

// Evaluate runs the providers of the given dimensions concurrently and stores each
// result as soon as it is available. A provider failure leaves that dimension
// unscored and is reported in EvaluationRun.Errors; a missing proposal text or a
// store failure aborts the run.
func (s *Service) Evaluate(ctx context.Context, proposalID string, dimensions ...types.Dimension) (*EvaluationRun, error) {
	dimensions, err := dedupe(dimensions)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetProposalText(ctx, proposalID); err != nil {
		return nil, err
	}

	run := &EvaluationRun{
		ProposalID: proposalID,
		Results:    make(map[types.Dimension]types.DimensionResult, len(dimensions)),
		Errors:     make(map[types.Dimension]string),
	}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, d := range dimensions {
		g.Go(func() error {
			result, err := s.EvaluateDimension(gctx, proposalID, d)
			if err != nil {
				if types.IsNotFound(err) || gctx.Err() != nil {
					return err
				}
				log.Printf("[EVALUATION] %s left unscored for %s: %v", d, proposalID, err)
				mu.Lock()
				run.Errors[d] = (&DimensionError{Dimension: d, Cause: err}).Error()
				mu.Unlock()
				return nil
			}

			if _, err := s.upsert(gctx, proposalID, result); err != nil {
				return err
			}
			mu.Lock()
			run.Results[d] = result
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sc, err := s.store.GetScorecard(ctx, proposalID)
	switch {
	case err == nil:
		run.Scorecard = sc
	case !types.IsNotFound(err):
		return nil, err
	}
	return run, nil
}

// GetScorecard returns the stored scorecard for a proposal.
func (s *Service) GetScorecard(ctx context.Context, proposalID string) (*types.Scorecard, error) {
	return s.store.GetScorecard(ctx, proposalID)
}

// UpsertScorecard stores a provider result or a manual evaluator edit for one dimension.
func (s *Service) UpsertScorecard(ctx context.Context, proposalID string, result types.DimensionResult) (*types.Scorecard, error) {
	if result == nil {
		return nil, &types.ValidationError{Field: "result", Message: "result is required"}
	}
	if err := result.Validate(); err != nil {
		return nil, err
	}
	return s.upsert(ctx, proposalID, result)
}

// SetRemarks replaces the evaluator remarks of a proposal's scorecard.
func (s *Service) SetRemarks(ctx context.Context, proposalID, remarks string) (*types.Scorecard, error) {
	sc, err := s.store.SetRemarks(ctx, proposalID, remarks)
	if err != nil {
		return nil, err
	}
	s.written(ctx, RemarksField, sc)
	return sc, nil
}

// ClearDimension marks a dimension unscored again.
func (s *Service) ClearDimension(ctx context.Context, proposalID string, dimension types.Dimension) (*types.Scorecard, error) {
	if !dimension.Valid() {
		return nil, &types.ValidationError{Field: "dimension", Message: fmt.Sprintf("unknown dimension %q", dimension)}
	}
	sc, err := s.store.ClearDimension(ctx, proposalID, dimension)
	if err != nil {
		return nil, err
	}
	s.written(ctx, dimension.String(), sc)
	return sc, nil
}

// CompareSimilarity compares two proposals. The report is not stored.
func (s *Service) CompareSimilarity(ctx context.Context, proposalIDA, proposalIDB string) (*types.SimilarityReport, error) {
	return s.comparator.Compare(ctx, proposalIDA, proposalIDB)
}

func (s *Service) upsert(ctx context.Context, proposalID string, result types.DimensionResult) (*types.Scorecard, error) {
	sc, err := s.store.UpsertDimension(ctx, proposalID, result)
	if err != nil {
		return nil, err
	}
	s.written(ctx, result.ScoreDimension().String(), sc)
	return sc, nil
}

// written records and announces a successful scorecard write. Publish failures are only logged.
func (s *Service) written(ctx context.Context, field string, sc *types.Scorecard) {
	s.metrics.ObserveScorecardWrite(field)
	event := &events.ScorecardUpdated{
		ProposalID: sc.ProposalID,
		Field:      field,
		Scorecard:  sc,
		At:         sc.UpdatedAt,
	}
	if err := s.publisher.PublishScorecardUpdated(ctx, event); err != nil {
		log.Printf("[events] Failed to publish scorecard update for %s: %v", sc.ProposalID, err)
	}
}

// dedupe validates dimensions and returns them once each in canonical order.
func dedupe(dimensions []types.Dimension) ([]types.Dimension, error) {
	if len(dimensions) == 0 {
		return nil, &types.ValidationError{Field: "dimension", Message: "at least one dimension is required"}
	}
	seen := make(map[types.Dimension]bool, len(dimensions))
	for _, d := range dimensions {
		if !d.Valid() {
			return nil, &types.ValidationError{Field: "dimension", Message: fmt.Sprintf("unknown dimension %q", d)}
		}
		seen[d] = true
	}
	out := make([]types.Dimension, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	order := make(map[types.Dimension]int)
	for i, d := range types.AllDimensions() {
		order[d] = i
	}
	sort.Slice(out, func(i, j int) bool { return order[out[i]] < order[out[j]] })
	return out, nil
}
