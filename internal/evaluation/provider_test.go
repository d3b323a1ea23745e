package evaluation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sankalp-ai/sankalp/internal/llm/llmtest"
	"github.com/sankalp-ai/sankalp/internal/store"
	"github.com/sankalp-ai/sankalp/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const methaneText = "industrial methane sensor using MWCNT"

func seededStore(t *testing.T, texts map[string]string) *store.Memory {
	t.Helper()
	m := store.NewMemory()
	for id, text := range texts {
		require.NoError(t, m.PutProposalText(context.Background(), &types.ProposalText{ProposalID: id, RawText: text}))
	}
	return m
}

func TestDimensionProvider_ParsesFencedResponse(t *testing.T) {
	client := llmtest.Respond("Here is my assessment:\n```json\n" +
		`{"financial_score": 7, "commercialization_potential": 6, "financial_risks": ["high capex"]}` +
		"\n```\nLet me know if you need more.")
	p := NewDimensionProvider(Finance, seededStore(t, map[string]string{"P-1": methaneText}), client, 0, nil)

	score, err := p.Evaluate(context.Background(), "P-1")
	require.NoError(t, err)

	assert.Equal(t, &types.DimensionScore{
		Dimension: types.DimensionFinance,
		Score:     7,
		SubScores: map[string]float64{
			"commercialization_potential": 6,
			"cost_effectiveness":          0,
			"budget_justification":        0,
			"funding_sustainability":      0,
		},
		Notes: []string{"high capex"},
	}, score)
	assert.NoError(t, score.Validate())

	prompts := client.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], methaneText)
	assert.Contains(t, prompts[0], "Proposal ID: P-1")
	assert.Contains(t, prompts[0], `"financial_score": number 0-10 (required)`)
	assert.NotContains(t, prompts[0], "{{.")
}

func TestDimensionProvider_ClampsOutOfRangeScores(t *testing.T) {
	client := llmtest.Respond(`{"technical_score": 12, "feasibility": -3, "methodology": 7.5, "technical_risks": null}`)
	p := NewDimensionProvider(Technical, seededStore(t, map[string]string{"P-1": methaneText}), client, 0, nil)

	score, err := p.Evaluate(context.Background(), "P-1")
	require.NoError(t, err)
	assert.Equal(t, 10.0, score.Score)
	assert.Equal(t, 0.0, score.SubScores["feasibility"])
	assert.Equal(t, 7.5, score.SubScores["methodology"])
	assert.Empty(t, score.Notes)
	assert.False(t, score.Degraded)
}

func TestDimensionProvider_RelevanceExplanationString(t *testing.T) {
	client := llmtest.Respond(`{"relevance_score": 9, "ministry_alignment": 9, "national_priority": 8, "societal_impact": 7, "relevance_explanation": "Directly supports mine safety."}`)
	p := NewDimensionProvider(Relevance, seededStore(t, map[string]string{"P-1": methaneText}), client, 0, nil)

	score, err := p.Evaluate(context.Background(), "P-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Directly supports mine safety."}, score.Notes)
	assert.Len(t, score.SubScores, 3)
}

func TestDimensionProvider_SoftFails(t *testing.T) {
	tests := []struct {
		name       string
		client     *llmtest.Client
		wantPrefix string
		wantInNote string
	}{
		{
			name:       "completion service down",
			client:     llmtest.Fail(errors.New("connection refused")),
			wantPrefix: APIErrorPrefix,
			wantInNote: "connection refused",
		},
		{
			name:       "no JSON in reply",
			client:     llmtest.Respond("I cannot evaluate this proposal."),
			wantPrefix: ParseErrorPrefix,
		},
		{
			name:       "broken JSON",
			client:     llmtest.Respond(`{"technical_score": 8,}`),
			wantPrefix: ParseErrorPrefix,
		},
		{
			name:       "missing primary score",
			client:     llmtest.Respond(`{"feasibility": 8}`),
			wantPrefix: ParseErrorPrefix,
			wantInNote: "technical_score",
		},
		{
			name:       "score as text",
			client:     llmtest.Respond(`{"technical_score": "eight"}`),
			wantPrefix: ParseErrorPrefix,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewDimensionProvider(Technical, seededStore(t, map[string]string{"P-1": methaneText}), tt.client, 0, nil)

			score, err := p.Evaluate(context.Background(), "P-1")
			require.NoError(t, err)

			assert.True(t, score.Degraded)
			assert.Equal(t, types.DimensionTechnical, score.Dimension)
			assert.Equal(t, 0.0, score.Score)
			assert.Len(t, score.SubScores, 4)
			for name, v := range score.SubScores {
				assert.Equal(t, 0.0, v, name)
			}
			require.Len(t, score.Notes, 1)
			assert.True(t, strings.HasPrefix(score.Notes[0], tt.wantPrefix), score.Notes[0])
			if tt.wantInNote != "" {
				assert.Contains(t, score.Notes[0], tt.wantInNote)
			}
			assert.NoError(t, score.Validate())
		})
	}
}

func TestDimensionProvider_NotFoundPropagates(t *testing.T) {
	for _, def := range Definitions() {
		t.Run(string(def.Dimension), func(t *testing.T) {
			client := llmtest.Respond(`{}`)
			p := NewDimensionProvider(def, store.NewMemory(), client, 0, nil)

			_, err := p.Evaluate(context.Background(), "missing")
			assert.True(t, types.IsNotFound(err))
			assert.Equal(t, 0, client.Calls())
		})
	}
}

func TestDimensionProvider_CancelledContextIsReturned(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewDimensionProvider(Finance, seededStore(t, map[string]string{"P-1": methaneText}), llmtest.Respond(`{"financial_score": 5}`), 0, nil)
	_, err := p.Evaluate(ctx, "P-1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDimensionProvider_CapsText(t *testing.T) {
	long := strings.Repeat("a", 50) + "TAIL"
	client := llmtest.Respond(`{"financial_score": 5}`)
	p := NewDimensionProvider(Finance, seededStore(t, map[string]string{"P-1": long}), client, 50, nil)

	_, err := p.Evaluate(context.Background(), "P-1")
	require.NoError(t, err)
	assert.NotContains(t, client.Prompts()[0], "TAIL")
}

func TestCapText(t *testing.T) {
	assert.Equal(t, "abc", capText("abc", 10))
	assert.Equal(t, "ab", capText("abc", 2))
	assert.Equal(t, "मीथे", capText("मीथेन", 4))
	assert.Equal(t, "abc", capText("abc", 0))
}
