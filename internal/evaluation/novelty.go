package evaluation

import (
	"context"
	"log"
	"time"

	"github.com/sankalp-ai/sankalp/internal/metrics"
	"github.com/sankalp-ai/sankalp/internal/novelty"
	"github.com/sankalp-ai/sankalp/internal/store"
	"github.com/sankalp-ai/sankalp/internal/types"
)

// NoveltyProvider delegates novelty scoring to the external novelty service.
// Unlike DimensionProvider it propagates every upstream failure to the caller.
type NoveltyProvider struct {
	texts   store.TextStore
	checker novelty.Checker
	metrics *metrics.Metrics
}

// NewNoveltyProvider creates a novelty provider.
func NewNoveltyProvider(texts store.TextStore, checker novelty.Checker, m *metrics.Metrics) *NoveltyProvider {
	return &NoveltyProvider{texts: texts, checker: checker, metrics: m}
}

// Evaluate returns the proposal's novelty on the 0-10 scale.
func (p *NoveltyProvider) Evaluate(ctx context.Context, proposalID string) (*types.NoveltyScore, error) {
	start := time.Now()

	text, err := p.texts.GetProposalText(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if p.checker == nil {
		return nil, &types.UpstreamUnavailableError{Service: "novelty service", Cause: errNoveltyNotConfigured}
	}

	score, err := p.checker.Check(ctx, proposalID, text.RawText)
	if err != nil {
		log.Printf("[EVALUATION] novelty evaluation of %s failed: %v", proposalID, err)
		p.metrics.ObserveProvider(types.DimensionNovelty.String(), metrics.OutcomeError, time.Since(start))
		return nil, err
	}

	p.metrics.ObserveProvider(types.DimensionNovelty.String(), metrics.OutcomeOK, time.Since(start))
	return score, nil
}
