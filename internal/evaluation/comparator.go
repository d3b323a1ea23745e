package evaluation

import (
	"context"
	"encoding/json"
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

// ExcerptLength is the number of leading characters of each proposal sent to the comparator.
const ExcerptLength = 4000

// similarityOutput is the JSON contract requested by the similarity prompt.
var similarityOutput = llm.OutputSchema{
	Name: "SimilarityReport",
	Fields: []llm.SchemaField{
		{Name: "similarity_percentage", Type: "number 0-100", Description: "0 unrelated, 100 the same proposal", Required: true},
		{Name: "technical_novelty", Type: "number 0-10", Description: "0 same technique, 10 completely different", Required: true},
		{Name: "application_novelty", Type: "number 0-10", Description: "0 same application domain, 10 completely different", Required: true},
		{Name: "same_idea", Type: "boolean", Required: true},
		{Name: "same_idea_explanation", Description: "only when same_idea is true"},
		{Name: "same_technique", Type: "boolean", Required: true},
		{Name: "same_technique_explanation", Description: "only when same_technique is true"},
		{Name: "same_application", Type: "boolean", Required: true},
		{Name: "same_application_explanation", Description: "only when same_application is true"},
		{Name: "same_problem", Type: "boolean", Required: true},
		{Name: "same_problem_explanation", Description: "only when same_problem is true"},
		{Name: "matching_details", Type: `{"concepts": ["string"], "techniques": ["string"], "applications": ["string"], "keywords": ["string"]}`},
		{Name: "matching_text_a", Type: `["string"]`, Description: "overlapping excerpts from proposal A"},
		{Name: "matching_text_b", Type: `["string"]`, Description: "overlapping excerpts from proposal B"},
		{Name: "explanation", Description: "short overall explanation"},
	},
}

type similarityResponse struct {
	SimilarityPercentage       float64         `json:"similarity_percentage"`
	TechnicalNovelty           float64         `json:"technical_novelty"`
	ApplicationNovelty         float64         `json:"application_novelty"`
	SameIdea                   bool            `json:"same_idea"`
	SameIdeaExplanation        *string         `json:"same_idea_explanation"`
	SameTechnique              bool            `json:"same_technique"`
	SameTechniqueExplanation   *string         `json:"same_technique_explanation"`
	SameApplication            bool            `json:"same_application"`
	SameApplicationExplanation *string         `json:"same_application_explanation"`
	SameProblem                bool            `json:"same_problem"`
	SameProblemExplanation     *string         `json:"same_problem_explanation"`
	MatchingDetails            matchingDetails `json:"matching_details"`
	MatchingTextA              []string        `json:"matching_text_a"`
	MatchingTextB              []string        `json:"matching_text_b"`
	Explanation                *string         `json:"explanation"`
}

type matchingDetails struct {
	Concepts     []string `json:"concepts"`
	Techniques   []string `json:"techniques"`
	Applications []string `json:"applications"`
	Keywords     []string `json:"keywords"`
}

// Comparator produces a pairwise similarity report for two proposals.
// Every failure is returned to the caller; there is no degraded report.
type Comparator struct {
	texts   store.TextStore
	client  llm.Client
	metrics *metrics.Metrics
}

// NewComparator creates a comparator.
func NewComparator(texts store.TextStore, client llm.Client, m *metrics.Metrics) *Comparator {
	return &Comparator{texts: texts, client: client, metrics: m}
}

// Compare asks the completion service to compare the leading excerpts of both proposals.
func (c *Comparator) Compare(ctx context.Context, proposalIDA, proposalIDB string) (*types.SimilarityReport, error) {
	start := time.Now()

	textA, err := c.texts.GetProposalText(ctx, proposalIDA)
	if err != nil {
		return nil, err
	}
	textB, err := c.texts.GetProposalText(ctx, proposalIDB)
	if err != nil {
		return nil, err
	}

	prompt, err := prompts.Render(PromptFile, "similarity", map[string]string{
		"ProposalIDA":  proposalIDA,
		"ProposalIDB":  proposalIDB,
		"TextA":        capText(textA.RawText, ExcerptLength),
		"TextB":        capText(textB.RawText, ExcerptLength),
		"OutputFormat": llm.RenderOutputFormat(similarityOutput),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build similarity prompt: %w", err)
	}

	response, err := c.client.GenerateContent(ctx, prompt, llm.TierAdvanced)
	if err != nil {
		c.metrics.ObserveProvider("similarity", metrics.OutcomeError, time.Since(start))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &types.UpstreamUnavailableError{Service: completionService, Cause: err}
	}

	report, err := parseSimilarity(response)
	if err != nil {
		log.Printf("[SIMILARITY] comparison of %s and %s failed: %v", proposalIDA, proposalIDB, err)
		c.metrics.ObserveProvider("similarity", metrics.OutcomeError, time.Since(start))
		return nil, err
	}
	report.ProposalIDA = proposalIDA
	report.ProposalIDB = proposalIDB

	c.metrics.ObserveProvider("similarity", metrics.OutcomeOK, time.Since(start))
	return report, nil
}

func parseSimilarity(response string) (*types.SimilarityReport, error) {
	raw, err := llm.ExtractJSONObject(response)
	if err != nil {
		return nil, &types.MalformedResponseError{Service: completionService, Message: "no JSON object in response", Cause: err}
	}
	if err := schemas.Validate(schemas.Similarity, []byte(raw)); err != nil {
		return nil, &types.MalformedResponseError{Service: completionService, Message: "unexpected response shape", Cause: err}
	}
	var r similarityResponse
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil, &types.MalformedResponseError{Service: completionService, Message: "invalid JSON", Cause: err}
	}

	return &types.SimilarityReport{
		SimilarityPercentage: clampPercentage(r.SimilarityPercentage),
		TechnicalNovelty:     types.ClampScore(r.TechnicalNovelty),
		ApplicationNovelty:   types.ClampScore(r.ApplicationNovelty),
		Flags: types.SimilarityFlags{
			SameIdea:                   r.SameIdea,
			SameIdeaExplanation:        explanation(r.SameIdea, r.SameIdeaExplanation),
			SameTechnique:              r.SameTechnique,
			SameTechniqueExplanation:   explanation(r.SameTechnique, r.SameTechniqueExplanation),
			SameApplication:            r.SameApplication,
			SameApplicationExplanation: explanation(r.SameApplication, r.SameApplicationExplanation),
			SameProblem:                r.SameProblem,
			SameProblemExplanation:     explanation(r.SameProblem, r.SameProblemExplanation),
		},
		MatchingDetails: types.MatchingDetails{
			Concepts:     nonNil(r.MatchingDetails.Concepts),
			Techniques:   nonNil(r.MatchingDetails.Techniques),
			Applications: nonNil(r.MatchingDetails.Applications),
			Keywords:     nonNil(r.MatchingDetails.Keywords),
		},
		ExcerptsA:   nonNil(r.MatchingTextA),
		ExcerptsB:   nonNil(r.MatchingTextB),
		Explanation: deref(r.Explanation),
	}, nil
}

// explanation keeps a flag's explanation only when the flag is set.
func explanation(flag bool, text *string) string {
	if !flag {
		return ""
	}
	return deref(text)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func clampPercentage(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
