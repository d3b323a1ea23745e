package observability

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sankalp-ai/sankalp/internal/types"
	"github.com/stretchr/testify/assert"
)

func floatPtr(v float64) *float64 { return &v }

func TestPrintScorecard(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	sc := &types.Scorecard{
		ProposalID: "P-1",
		Finance: &types.DimensionScore{
			Dimension: types.DimensionFinance,
			Score:     7,
			SubScores: map[string]float64{"cost_effectiveness": 6.5},
		},
		Technical: &types.DimensionScore{
			Dimension: types.DimensionTechnical,
			SubScores: map[string]float64{"feasibility": 0},
			Degraded:  true,
		},
		Novelty: &types.NoveltyScore{
			Score:                 8.2,
			TotalProposalsChecked: 40,
			SimilarProposals:      []types.SimilarProposal{{ProposalID: "P-9", SimilarityPercentage: 31}},
		},
		OverallScore:     floatPtr(5.1),
		EvaluatorRemarks: "Needs budget detail",
		Version:          3,
	}

	p.PrintScorecard(sc)
	output := buf.String()

	assert.Contains(t, output, "SCORECARD")
	assert.Contains(t, output, "Overall:  5.1 / 10")
	assert.Contains(t, output, "cost_effectiveness")
	assert.Contains(t, output, "6.5")
	assert.Contains(t, output, "(degraded)")
	assert.Contains(t, output, "relevance   -")
	assert.Contains(t, output, "P-9 (31%)")
	assert.Contains(t, output, "Needs budget detail")
}

func TestPrintScorecard_Unscored(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintScorecard(&types.Scorecard{ProposalID: "P-2"})
	assert.Contains(t, buf.String(), "not scored")
}

func TestPrintScorecard_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintScorecard(nil)
	assert.Empty(t, buf.String())
}

func TestPrintDimensionErrors(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintDimensionErrors(nil)
	assert.Empty(t, buf.String())

	p.PrintDimensionErrors(map[types.Dimension]string{
		types.DimensionNovelty: "novelty evaluation failed: connection refused",
	})
	output := buf.String()
	assert.Contains(t, output, "UNSCORED DIMENSIONS")
	assert.Contains(t, output, "⚠ novelty")
	assert.Contains(t, output, "connection refused")
}

func TestPrintSimilarityReport(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintSimilarityReport(&types.SimilarityReport{
		ProposalIDA:          "P-1",
		ProposalIDB:          "P-2",
		SimilarityPercentage: 85,
		TechnicalNovelty:     1.5,
		Flags: types.SimilarityFlags{
			SameIdea:            true,
			SameIdeaExplanation: "Both build an MWCNT methane sensor",
		},
		Explanation: "Near duplicates.",
	})
	output := buf.String()

	assert.Contains(t, output, "P-1 vs P-2")
	assert.Contains(t, output, "85%")
	assert.Contains(t, output, "✓ Same idea")
	assert.Contains(t, output, "✗ Same problem")
	assert.Contains(t, output, "Both build an MWCNT methane sensor")
}

func TestPrintBox_LongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintScorecard(&types.Scorecard{
		ProposalID:       "P-3",
		EvaluatorRemarks: strings.Repeat("मीथेन संवेदक ", 20),
	})
	output := buf.String()

	assert.True(t, strings.Contains(output, "┌"))
	assert.True(t, strings.Contains(output, "..."))
}
