package mongostore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/sankalp-ai/sankalp/internal/store"
	"github.com/sankalp-ai/sankalp/internal/types"
)

const scorecardsNS = DefaultDatabase + "." + ScorecardsCollection

func existing(version int64) bson.D {
	return bson.D{
		{Key: "_id", Value: "sc-1"},
		{Key: "proposalId", Value: "P-1"},
		{Key: "technical", Value: bson.D{
			{Key: "dimension", Value: "technical"},
			{Key: "score", Value: 8.0},
			{Key: "subScores", Value: bson.D{{Key: "feasibility", Value: 8.0}}},
		}},
		{Key: "version", Value: version},
	}
}

func found(doc bson.D) bson.D {
	return mtest.CreateCursorResponse(0, scorecardsNS, mtest.FirstBatch, doc)
}

func missing() bson.D {
	return mtest.CreateCursorResponse(0, scorecardsNS, mtest.FirstBatch)
}

func updated(n int) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "n", Value: n}, bson.E{Key: "nModified", Value: n})
}

func finance(v float64) *types.DimensionScore {
	return &types.DimensionScore{Dimension: types.DimensionFinance, Score: v, SubScores: map[string]float64{"cost_effectiveness": v}}
}

func TestStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("missing text is not found", func(mt *mtest.T) {
		s := New(mt.Client, "")
		mt.AddMockResponses(mtest.CreateCursorResponse(0, DefaultDatabase+"."+TextsCollection, mtest.FirstBatch))

		_, err := s.GetProposalText(context.Background(), "P-404")
		assert.True(mt, types.IsNotFound(err))
	})

	mt.Run("empty text is rejected before any round trip", func(mt *mtest.T) {
		s := New(mt.Client, "")
		err := s.PutProposalText(context.Background(), &types.ProposalText{ProposalID: "P-1"})
		var verr *types.ValidationError
		assert.ErrorAs(mt, err, &verr)
	})

	mt.Run("first write creates the scorecard", func(mt *mtest.T) {
		s := New(mt.Client, "")
		mt.AddMockResponses(missing(), mtest.CreateSuccessResponse())

		sc, err := s.UpsertDimension(context.Background(), "P-1", finance(6))
		require.NoError(mt, err)
		assert.Equal(mt, int64(1), sc.Version)
		assert.Equal(mt, 6.0, *sc.OverallScore)
		assert.NotEmpty(mt, sc.ID)
	})

	mt.Run("write merges into the stored scorecard", func(mt *mtest.T) {
		s := New(mt.Client, "")
		mt.AddMockResponses(found(existing(3)), updated(1))

		sc, err := s.UpsertDimension(context.Background(), "P-1", finance(6))
		require.NoError(mt, err)
		assert.Equal(mt, int64(4), sc.Version)
		assert.Equal(mt, 8.0, sc.Technical.Score)
		assert.Equal(mt, 7.0, *sc.OverallScore)
	})

	mt.Run("lost insert race retries as an update", func(mt *mtest.T) {
		s := New(mt.Client, "")
		mt.AddMockResponses(
			missing(),
			mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key"}),
			found(existing(1)),
			updated(1),
		)

		sc, err := s.UpsertDimension(context.Background(), "P-1", finance(4))
		require.NoError(mt, err)
		assert.Equal(mt, int64(2), sc.Version)
		assert.Equal(mt, 6.0, *sc.OverallScore)
	})

	mt.Run("version mismatch retries", func(mt *mtest.T) {
		s := New(mt.Client, "")
		mt.AddMockResponses(found(existing(1)), updated(0), found(existing(2)), updated(1))

		sc, err := s.SetRemarks(context.Background(), "P-1", "strong team")
		require.NoError(mt, err)
		assert.Equal(mt, int64(3), sc.Version)
		assert.Equal(mt, "strong team", sc.EvaluatorRemarks)
	})

	mt.Run("gives up after the retry budget", func(mt *mtest.T) {
		s := New(mt.Client, "")
		var waits []int
		s.retryDelay = func(n int) time.Duration {
			waits = append(waits, n)
			return 0
		}
		for i := 0; i < store.MaxWriteAttempts; i++ {
			mt.AddMockResponses(found(existing(int64(i))), updated(0))
		}

		_, err := s.UpsertDimension(context.Background(), "P-1", finance(5))
		var conflict *types.ConflictError
		require.ErrorAs(mt, err, &conflict)
		assert.Equal(mt, store.MaxWriteAttempts, conflict.Attempts)
		assert.Equal(mt, []int{1, 2, 3, 4, 5, 6, 7}, waits)
	})

	mt.Run("cancellation during the retry wait stops the write", func(mt *mtest.T) {
		s := New(mt.Client, "")
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		s.retryDelay = func(int) time.Duration {
			cancel()
			return time.Hour
		}
		mt.AddMockResponses(found(existing(1)), updated(0))

		start := time.Now()
		_, err := s.SetRemarks(ctx, "P-1", "strong team")
		require.ErrorIs(mt, err, context.Canceled)
		assert.Less(mt, time.Since(start), time.Minute)
	})

	mt.Run("clearing a missing scorecard does not create one", func(mt *mtest.T) {
		s := New(mt.Client, "")
		mt.AddMockResponses(missing())

		_, err := s.ClearDimension(context.Background(), "P-1", types.DimensionFinance)
		assert.True(mt, types.IsNotFound(err))
	})
}

func TestJitteredDelay(t *testing.T) {
	tests := []struct {
		name string
		n    int
	}{
		{name: "first retry", n: 1},
		{name: "middle retry", n: 4},
		{name: "last retry", n: store.MaxWriteAttempts - 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo := time.Duration(tt.n) * retryBaseDelay
			for i := 0; i < 50; i++ {
				d := jitteredDelay(tt.n)
				assert.GreaterOrEqual(t, d, lo)
				assert.Less(t, d, 2*lo)
			}
		})
	}
}

func TestSleep(t *testing.T) {
	t.Run("returns after the delay", func(t *testing.T) {
		assert.NoError(t, sleep(context.Background(), time.Millisecond))
	})

	t.Run("cancelled context returns early", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, sleep(ctx, time.Hour), context.Canceled)
	})

	t.Run("zero delay still honours cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, sleep(ctx, 0), context.Canceled)
	})
}
