// Package mongostore implements the proposal text and scorecard stores on MongoDB.
package mongostore

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sankalp-ai/sankalp/internal/scorecard"
	"github.com/sankalp-ai/sankalp/internal/store"
	"github.com/sankalp-ai/sankalp/internal/types"
)

// DefaultDatabase is used when no database name is configured.
const DefaultDatabase = "sankalp"

// Collection names
const (
	TextsCollection      = "proposal_texts"
	ScorecardsCollection = "scorecards"
)

const pingTimeout = 5 * time.Second

// retryBaseDelay is the first wait between scorecard write attempts; later waits grow linearly.
const retryBaseDelay = 5 * time.Millisecond

// Store keeps proposal texts and scorecards in two collections keyed by proposalId.
// Scorecard writes use the document version for optimistic concurrency.
type Store struct {
	client     *mongo.Client
	texts      *mongo.Collection
	scorecards *mongo.Collection
	now        func() time.Time
	retryDelay func(attempt int) time.Duration
}

// Connect dials MongoDB, verifies the connection and ensures indexes exist.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	s := New(client, database)
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

// New wraps an existing client.
func New(client *mongo.Client, database string) *Store {
	if database == "" {
		database = DefaultDatabase
	}
	db := client.Database(database)
	return &Store{
		client:     client,
		texts:      db.Collection(TextsCollection),
		scorecards: db.Collection(ScorecardsCollection),
		now:        func() time.Time { return time.Now().UTC() },
		retryDelay: jitteredDelay,
	}
}

// EnsureIndexes creates the unique proposalId indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	for _, c := range []*mongo.Collection{s.texts, s.scorecards} {
		_, err := c.Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: "proposalId", Value: 1}},
			Options: options.Index().SetUnique(true),
		})
		if err != nil {
			return fmt.Errorf("failed to create index on %s: %w", c.Name(), err)
		}
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// GetProposalText implements store.TextStore.
func (s *Store) GetProposalText(ctx context.Context, proposalID string) (*types.ProposalText, error) {
	var text types.ProposalText
	err := s.texts.FindOne(ctx, bson.M{"proposalId": proposalID}).Decode(&text)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, &types.NotFoundError{Resource: "proposal text", ID: proposalID}
		}
		return nil, fmt.Errorf("failed to get proposal text: %w", err)
	}
	return &text, nil
}

// PutProposalText implements store.TextStore.
func (s *Store) PutProposalText(ctx context.Context, text *types.ProposalText) error {
	if err := store.ValidateProposalText(text); err != nil {
		return err
	}
	doc := *text
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = s.now()
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := s.texts.ReplaceOne(ctx, bson.M{"proposalId": doc.ProposalID}, doc, opts); err != nil {
		return fmt.Errorf("failed to save proposal text %s: %w", doc.ProposalID, err)
	}
	return nil
}

// GetScorecard implements store.ScorecardStore.
func (s *Store) GetScorecard(ctx context.Context, proposalID string) (*types.Scorecard, error) {
	sc, err := s.findScorecard(ctx, proposalID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, &types.NotFoundError{Resource: "scorecard", ID: proposalID}
		}
		return nil, fmt.Errorf("failed to get scorecard: %w", err)
	}
	return sc, nil
}

// UpsertDimension implements store.ScorecardStore.
func (s *Store) UpsertDimension(ctx context.Context, proposalID string, result types.DimensionResult) (*types.Scorecard, error) {
	return s.mutate(ctx, proposalID, true, func(sc *types.Scorecard, now time.Time) error {
		return scorecard.Apply(sc, result, now)
	})
}

// ClearDimension implements store.ScorecardStore.
func (s *Store) ClearDimension(ctx context.Context, proposalID string, dimension types.Dimension) (*types.Scorecard, error) {
	return s.mutate(ctx, proposalID, false, func(sc *types.Scorecard, now time.Time) error {
		return scorecard.Clear(sc, dimension, now)
	})
}

// SetRemarks implements store.ScorecardStore.
func (s *Store) SetRemarks(ctx context.Context, proposalID string, remarks string) (*types.Scorecard, error) {
	return s.mutate(ctx, proposalID, true, func(sc *types.Scorecard, now time.Time) error {
		scorecard.SetRemarks(sc, remarks, now)
		return nil
	})
}

func (s *Store) findScorecard(ctx context.Context, proposalID string) (*types.Scorecard, error) {
	var sc types.Scorecard
	if err := s.scorecards.FindOne(ctx, bson.M{"proposalId": proposalID}).Decode(&sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

// mutate reads the scorecard, applies fn and writes it back only if no other writer
// bumped the version in between. Lost races are retried up to store.MaxWriteAttempts.
func (s *Store) mutate(ctx context.Context, proposalID string, create bool, fn func(*types.Scorecard, time.Time) error) (*types.Scorecard, error) {
	for attempt := 1; attempt <= store.MaxWriteAttempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, s.retryDelay(attempt-1)); err != nil {
				return nil, err
			}
		}
		now := s.now()
		sc, err := s.findScorecard(ctx, proposalID)
		switch {
		case err == mongo.ErrNoDocuments:
			if !create {
				return nil, &types.NotFoundError{Resource: "scorecard", ID: proposalID}
			}
			sc = scorecard.New(proposalID, now)
			if err := fn(sc, now); err != nil {
				return nil, err
			}
			_, err = s.scorecards.InsertOne(ctx, sc)
			if mongo.IsDuplicateKeyError(err) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("failed to create scorecard: %w", err)
			}
			return sc, nil
		case err != nil:
			return nil, fmt.Errorf("failed to get scorecard: %w", err)
		}

		expected := sc.Version
		if err := fn(sc, now); err != nil {
			return nil, err
		}
		res, err := s.scorecards.UpdateOne(ctx,
			bson.M{"proposalId": proposalID, "version": expected},
			bson.M{"$set": bson.M{
				"finance":          sc.Finance,
				"technical":        sc.Technical,
				"relevance":        sc.Relevance,
				"novelty":          sc.Novelty,
				"overallScore":     sc.OverallScore,
				"evaluatorRemarks": sc.EvaluatorRemarks,
				"version":          sc.Version,
				"updatedAt":        sc.UpdatedAt,
			}},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to update scorecard: %w", err)
		}
		if res.MatchedCount == 1 {
			return sc, nil
		}
	}
	return nil, &types.ConflictError{ProposalID: proposalID, Attempts: store.MaxWriteAttempts}
}

// jitteredDelay returns a wait in [n*base, 2*n*base) after the nth lost race.
func jitteredDelay(n int) time.Duration {
	d := time.Duration(n) * retryBaseDelay
	return d + rand.N(d)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
