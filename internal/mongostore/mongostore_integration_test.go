//go:build integration

package mongostore

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/sankalp-ai/sankalp/internal/types"
)

// These tests require a running MongoDB server.
// Set TEST_MONGO_URI to run them, e.g. TEST_MONGO_URI=mongodb://localhost:27017

func getTestStore(t *testing.T) *Store {
	t.Helper()

	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set, skipping integration test")
	}

	ctx := context.Background()
	s, err := Connect(ctx, uri, "sankalp_test")
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	_, _ = s.texts.DeleteMany(ctx, bson.M{})
	_, _ = s.scorecards.DeleteMany(ctx, bson.M{})
	return s
}

func TestIntegration_TextRoundTrip(t *testing.T) {
	s := getTestStore(t)
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.PutProposalText(ctx, &types.ProposalText{ProposalID: "P-1", RawText: "v1"}))
	require.NoError(t, s.PutProposalText(ctx, &types.ProposalText{ProposalID: "P-1", RawText: "v2"}))

	text, err := s.GetProposalText(ctx, "P-1")
	require.NoError(t, err)
	assert.Equal(t, "v2", text.RawText)
	assert.False(t, text.CreatedAt.IsZero())
}

func TestIntegration_ConcurrentWritersKeepEveryField(t *testing.T) {
	s := getTestStore(t)
	defer s.Close()
	ctx := context.Background()

	results := []types.DimensionResult{
		&types.DimensionScore{Dimension: types.DimensionFinance, Score: 6, SubScores: map[string]float64{"a": 6}},
		&types.DimensionScore{Dimension: types.DimensionTechnical, Score: 8, SubScores: map[string]float64{"a": 8}},
		&types.DimensionScore{Dimension: types.DimensionRelevance, Score: 9, SubScores: map[string]float64{"a": 9}},
		&types.NoveltyScore{Score: 7, TotalProposalsChecked: 1},
	}

	var wg sync.WaitGroup
	for _, r := range results {
		wg.Add(1)
		go func(r types.DimensionResult) {
			defer wg.Done()
			_, err := s.UpsertDimension(ctx, "P-2", r)
			assert.NoError(t, err)
		}(r)
	}
	wg.Wait()

	sc, err := s.GetScorecard(ctx, "P-2")
	require.NoError(t, err)
	for _, d := range types.AllDimensions() {
		assert.NotNil(t, sc.Result(d), d)
	}
	assert.Equal(t, int64(4), sc.Version)
	assert.Equal(t, 7.5, *sc.OverallScore)

	sc, err = s.ClearDimension(ctx, "P-2", types.DimensionNovelty)
	require.NoError(t, err)
	assert.Nil(t, sc.Novelty)
	assert.Equal(t, 7.7, *sc.OverallScore)
}
