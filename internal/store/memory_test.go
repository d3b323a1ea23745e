package store

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/sankalp-ai/sankalp/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func finance(score float64) *types.DimensionScore {
	return &types.DimensionScore{
		Dimension: types.DimensionFinance,
		Score:     score,
		SubScores: map[string]float64{"commercialization_potential": 6},
		Notes:     []string{"high capex"},
	}
}

func TestMemory_ProposalText(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.GetProposalText(ctx, "P-1")
	assert.True(t, types.IsNotFound(err))

	require.NoError(t, m.PutProposalText(ctx, &types.ProposalText{ProposalID: "P-1", RawText: "industrial methane sensor using MWCNT"}))

	text, err := m.GetProposalText(ctx, "P-1")
	require.NoError(t, err)
	assert.Equal(t, "industrial methane sensor using MWCNT", text.RawText)
	assert.False(t, text.CreatedAt.IsZero())
}

func TestMemory_PutProposalText_RejectsEmpty(t *testing.T) {
	m := NewMemory()
	err := m.PutProposalText(context.Background(), &types.ProposalText{ProposalID: "P-1"})

	var ve *types.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestMemory_UpsertThenGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	tech := &types.DimensionScore{Dimension: types.DimensionTechnical, Score: 8, SubScores: map[string]float64{"feasibility": 7}}
	_, err := m.UpsertDimension(ctx, "P-1", tech)
	require.NoError(t, err)

	x := finance(7)
	_, err = m.UpsertDimension(ctx, "P-1", x)
	require.NoError(t, err)

	sc, err := m.GetScorecard(ctx, "P-1")
	require.NoError(t, err)
	assert.Equal(t, x, sc.Finance)
	assert.Equal(t, tech, sc.Technical)
	assert.Nil(t, sc.Relevance)
	assert.Nil(t, sc.Novelty)
	assert.Equal(t, 7.5, *sc.OverallScore)
}

func TestMemory_GetScorecard_ReturnsCopy(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_, err := m.UpsertDimension(ctx, "P-1", finance(7))
	require.NoError(t, err)

	sc, err := m.GetScorecard(ctx, "P-1")
	require.NoError(t, err)
	sc.Finance.Score = 1

	again, err := m.GetScorecard(ctx, "P-1")
	require.NoError(t, err)
	assert.Equal(t, 7.0, again.Finance.Score)
}

func TestMemory_UpsertDimension_CopiesResult(t *testing.T) {
	tests := []struct {
		name  string
		setup func() (types.DimensionResult, func())
		check func(t *testing.T, sc *types.Scorecard)
	}{
		{
			name: "finance",
			setup: func() (types.DimensionResult, func()) {
				x := finance(7)
				return x, func() {
					x.Score = 2
					x.SubScores["commercialization_potential"] = 1
				}
			},
			check: func(t *testing.T, sc *types.Scorecard) {
				assert.Equal(t, 7.0, sc.Finance.Score)
				assert.Equal(t, 6.0, sc.Finance.SubScores["commercialization_potential"])
				assert.Equal(t, 7.0, *sc.OverallScore)
			},
		},
		{
			name: "novelty",
			setup: func() (types.DimensionResult, func()) {
				x := &types.NoveltyScore{
					Score:                 9,
					TotalProposalsChecked: 1,
					SimilarProposals:      []types.SimilarProposal{{ProposalID: "P-2", SimilarityPercentage: 12}},
				}
				return x, func() {
					x.Score = 3
					x.SimilarProposals[0].SimilarityPercentage = 90
				}
			},
			check: func(t *testing.T, sc *types.Scorecard) {
				assert.Equal(t, 9.0, sc.Novelty.Score)
				assert.Equal(t, 12.0, sc.Novelty.SimilarProposals[0].SimilarityPercentage)
				assert.Equal(t, 9.0, *sc.OverallScore)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			m := NewMemory()
			result, edit := tt.setup()
			_, err := m.UpsertDimension(ctx, "P-1", result)
			require.NoError(t, err)

			edit()

			sc, err := m.GetScorecard(ctx, "P-1")
			require.NoError(t, err)
			tt.check(t, sc)
		})
	}
}

func TestMemory_GetScorecard_NotFound(t *testing.T) {
	_, err := NewMemory().GetScorecard(context.Background(), "missing")
	assert.True(t, types.IsNotFound(err))
}

func TestMemory_ClearDimension(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.ClearDimension(ctx, "P-1", types.DimensionFinance)
	assert.True(t, types.IsNotFound(err))

	_, err = m.UpsertDimension(ctx, "P-1", finance(7))
	require.NoError(t, err)
	sc, err := m.ClearDimension(ctx, "P-1", types.DimensionFinance)
	require.NoError(t, err)
	assert.Nil(t, sc.Finance)
	assert.Nil(t, sc.OverallScore)
}

func TestMemory_SetRemarksCreatesScorecard(t *testing.T) {
	sc, err := NewMemory().SetRemarks(context.Background(), "P-9", "awaiting site visit")
	require.NoError(t, err)
	assert.Equal(t, "awaiting site visit", sc.EvaluatorRemarks)
	assert.Nil(t, sc.OverallScore)
}

func TestMemory_ConcurrentUpsertsDoNotLoseWrites(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	const proposals = 20
	var wg sync.WaitGroup
	for i := 0; i < proposals; i++ {
		id := fmt.Sprintf("P-%d", i)
		for _, r := range []types.DimensionResult{
			finance(7),
			&types.DimensionScore{Dimension: types.DimensionTechnical, Score: 8, SubScores: map[string]float64{"feasibility": 8}},
			&types.DimensionScore{Dimension: types.DimensionRelevance, Score: 9, SubScores: map[string]float64{"ministry_alignment": 9}},
			&types.NoveltyScore{Score: 6},
		} {
			wg.Add(1)
			go func(r types.DimensionResult) {
				defer wg.Done()
				_, err := m.UpsertDimension(ctx, id, r)
				assert.NoError(t, err)
			}(r)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.SetRemarks(ctx, id, "reviewed")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	for i := 0; i < proposals; i++ {
		sc, err := m.GetScorecard(ctx, fmt.Sprintf("P-%d", i))
		require.NoError(t, err)
		assert.NotNil(t, sc.Finance)
		assert.NotNil(t, sc.Technical)
		assert.NotNil(t, sc.Relevance)
		assert.NotNil(t, sc.Novelty)
		assert.Equal(t, "reviewed", sc.EvaluatorRemarks)
		assert.Equal(t, 7.5, *sc.OverallScore)
		assert.Equal(t, int64(5), sc.Version)
	}
}
