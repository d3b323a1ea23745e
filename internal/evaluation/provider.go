package evaluation

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/sankalp-ai/sankalp/internal/llm"
	"github.com/sankalp-ai/sankalp/internal/metrics"
	"github.com/sankalp-ai/sankalp/internal/prompts"
	"github.com/sankalp-ai/sankalp/internal/schemas"
	"github.com/sankalp-ai/sankalp/internal/store"
	"github.com/sankalp-ai/sankalp/internal/types"
)

// DefaultTextCap is the largest number of characters of proposal text sent in a scoring prompt.
const DefaultTextCap = 30000

// Prefixes of the in-band failure note carried by a degraded DimensionScore.
const (
	APIErrorPrefix   = "API Error: "
	ParseErrorPrefix = "Parse Error: "
)

// completionService names the completion upstream in errors
const completionService = "completion service"

// DimensionProvider scores one of Finance, Technical or Relevance with the completion service.
//
// Evaluate never fails because of the completion service: an unreachable service or an
// unusable reply yields an all-zero, Degraded score whose first note describes the failure.
// A missing proposal text is still returned as *types.NotFoundError.
type DimensionProvider struct {
	def     Definition
	texts   store.TextStore
	client  llm.Client
	textCap int
	metrics *metrics.Metrics
}

// NewDimensionProvider creates a provider for def. A textCap of 0 selects DefaultTextCap.
func NewDimensionProvider(def Definition, texts store.TextStore, client llm.Client, textCap int, m *metrics.Metrics) *DimensionProvider {
	if textCap <= 0 {
		textCap = DefaultTextCap
	}
	return &DimensionProvider{def: def, texts: texts, client: client, textCap: textCap, metrics: m}
}

// Dimension returns the dimension this provider scores.
func (p *DimensionProvider) Dimension() types.Dimension {
	return p.def.Dimension
}

// Evaluate scores the proposal.
func (p *DimensionProvider) Evaluate(ctx context.Context, proposalID string) (*types.DimensionScore, error) {
	start := time.Now()

	text, err := p.texts.GetProposalText(ctx, proposalID)
	if err != nil {
		return nil, err
	}

	prompt, err := prompts.Render(PromptFile, p.def.PromptKey, map[string]string{
		"ProposalID":   proposalID,
		"OutputFormat": llm.RenderOutputFormat(p.def.OutputSchema()),
		"ProposalText": capText(text.RawText, p.textCap),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build %s prompt: %w", p.def.Dimension, err)
	}

	response, err := p.client.GenerateContent(ctx, prompt, llm.TierStandard)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		upstream := &types.UpstreamUnavailableError{Service: completionService, Cause: err}
		log.Printf("[EVALUATION] %s evaluation of %s degraded: %v", p.def.Dimension, proposalID, upstream)
		p.metrics.ObserveProvider(p.def.Dimension.String(), metrics.OutcomeDegraded, time.Since(start))
		return p.degraded(APIErrorPrefix + err.Error()), nil
	}

	score, err := p.parse(response)
	if err != nil {
		log.Printf("[EVALUATION] %s evaluation of %s degraded: %v", p.def.Dimension, proposalID, err)
		p.metrics.ObserveProvider(p.def.Dimension.String(), metrics.OutcomeDegraded, time.Since(start))
		return p.degraded(ParseErrorPrefix + err.Error()), nil
	}

	p.metrics.ObserveProvider(p.def.Dimension.String(), metrics.OutcomeOK, time.Since(start))
	return score, nil
}

// parse extracts, validates and normalizes the completion's JSON object.
func (p *DimensionProvider) parse(response string) (*types.DimensionScore, error) {
	raw, err := llm.ExtractJSONObject(response)
	if err != nil {
		return nil, &types.MalformedResponseError{Service: completionService, Message: "no JSON object in response", Cause: err}
	}
	if err := schemas.Validate(p.def.Schema, []byte(raw)); err != nil {
		return nil, &types.MalformedResponseError{Service: completionService, Message: "unexpected response shape", Cause: err}
	}
	fields, err := llm.ExtractJSON(raw)
	if err != nil {
		return nil, &types.MalformedResponseError{Service: completionService, Message: "invalid JSON", Cause: err}
	}

	score := &types.DimensionScore{
		Dimension: p.def.Dimension,
		Score:     types.ClampScore(number(fields[p.def.PrimaryKey])),
		SubScores: make(map[string]float64, len(p.def.SubScores)),
		Notes:     notes(fields[p.def.NotesKey]),
	}
	for _, name := range p.def.SubScores {
		score.SubScores[name] = types.ClampScore(number(fields[name]))
	}
	return score, nil
}

// degraded returns the all-zero score recorded when evaluation could not complete.
func (p *DimensionProvider) degraded(note string) *types.DimensionScore {
	subs := make(map[string]float64, len(p.def.SubScores))
	for _, name := range p.def.SubScores {
		subs[name] = 0
	}
	return &types.DimensionScore{
		Dimension: p.def.Dimension,
		Score:     0,
		SubScores: subs,
		Notes:     []string{note},
		Degraded:  true,
	}
}

// number returns v as a float64, or 0 when it is absent or not a finite number.
func number(v any) float64 {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// notes accepts a list of strings, a single string or null.
func notes(v any) []string {
	switch n := v.(type) {
	case string:
		if n == "" {
			return []string{}
		}
		return []string{n}
	case []any:
		out := make([]string, 0, len(n))
		for _, item := range n {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{}
	}
}

// capText truncates s to at most limit runes.
func capText(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
