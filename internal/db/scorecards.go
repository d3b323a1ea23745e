package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sankalp-ai/sankalp/internal/scorecard"
	"github.com/sankalp-ai/sankalp/internal/types"
)

const scorecardColumns = `id, proposal_id, finance, technical, relevance, novelty,
	overall_score, evaluator_remarks, version, created_at, updated_at`

// GetScorecard retrieves the scorecard of a proposal
func (db *DB) GetScorecard(ctx context.Context, proposalID string) (*types.Scorecard, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+scorecardColumns+` FROM scorecards WHERE proposal_id = $1`,
		proposalID,
	)
	sc, err := scanScorecard(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, &types.NotFoundError{Resource: "scorecard", ID: proposalID}
		}
		return nil, fmt.Errorf("failed to get scorecard: %w", err)
	}
	return sc, nil
}

// UpsertDimension creates the scorecard if needed and replaces one dimension
func (db *DB) UpsertDimension(ctx context.Context, proposalID string, result types.DimensionResult) (*types.Scorecard, error) {
	return db.mutate(ctx, proposalID, true, func(sc *types.Scorecard, now time.Time) error {
		return scorecard.Apply(sc, result, now)
	})
}

// ClearDimension marks one dimension of an existing scorecard unscored
func (db *DB) ClearDimension(ctx context.Context, proposalID string, dimension types.Dimension) (*types.Scorecard, error) {
	return db.mutate(ctx, proposalID, false, func(sc *types.Scorecard, now time.Time) error {
		return scorecard.Clear(sc, dimension, now)
	})
}

// SetRemarks replaces the evaluator remarks, creating the scorecard if needed
func (db *DB) SetRemarks(ctx context.Context, proposalID string, remarks string) (*types.Scorecard, error) {
	return db.mutate(ctx, proposalID, true, func(sc *types.Scorecard, now time.Time) error {
		scorecard.SetRemarks(sc, remarks, now)
		return nil
	})
}

// mutate locks the scorecard row for the duration of fn, so concurrent writers to
// different dimensions of one proposal serialize instead of overwriting each other.
func (db *DB) mutate(ctx context.Context, proposalID string, create bool, fn func(*types.Scorecard, time.Time) error) (*types.Scorecard, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()
	if create {
		_, err = tx.Exec(ctx,
			`INSERT INTO scorecards (id, proposal_id, created_at, updated_at)
			 VALUES ($1, $2, $3, $3)
			 ON CONFLICT (proposal_id) DO NOTHING`,
			uuid.New(), proposalID, now,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create scorecard: %w", err)
		}
	}

	sc, err := scanScorecard(tx.QueryRow(ctx,
		`SELECT `+scorecardColumns+` FROM scorecards WHERE proposal_id = $1 FOR UPDATE`,
		proposalID,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, &types.NotFoundError{Resource: "scorecard", ID: proposalID}
		}
		return nil, fmt.Errorf("failed to lock scorecard: %w", err)
	}

	if err := fn(sc, now); err != nil {
		return nil, err
	}

	cols, err := encodeDimensions(sc)
	if err != nil {
		return nil, err
	}
	_, err = tx.Exec(ctx,
		`UPDATE scorecards
		 SET finance = $1, technical = $2, relevance = $3, novelty = $4,
		     overall_score = $5, evaluator_remarks = $6, version = $7, updated_at = $8
		 WHERE proposal_id = $9`,
		cols.finance, cols.technical, cols.relevance, cols.novelty,
		sc.OverallScore, sc.EvaluatorRemarks, sc.Version, sc.UpdatedAt, proposalID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update scorecard: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit scorecard: %w", err)
	}
	return sc, nil
}

// dimensionColumns holds the JSONB payloads of the four dimension columns. A nil
// slice is written as SQL NULL, meaning the dimension is unscored.
type dimensionColumns struct {
	finance, technical, relevance, novelty []byte
}

func encodeDimensions(sc *types.Scorecard) (dimensionColumns, error) {
	var cols dimensionColumns
	var err error
	if sc.Finance != nil {
		if cols.finance, err = encodeJSON(types.DimensionFinance, sc.Finance); err != nil {
			return cols, err
		}
	}
	if sc.Technical != nil {
		if cols.technical, err = encodeJSON(types.DimensionTechnical, sc.Technical); err != nil {
			return cols, err
		}
	}
	if sc.Relevance != nil {
		if cols.relevance, err = encodeJSON(types.DimensionRelevance, sc.Relevance); err != nil {
			return cols, err
		}
	}
	if sc.Novelty != nil {
		if cols.novelty, err = encodeJSON(types.DimensionNovelty, sc.Novelty); err != nil {
			return cols, err
		}
	}
	return cols, nil
}

func encodeJSON(d types.Dimension, v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s score: %w", d, err)
	}
	return b, nil
}

func scanScorecard(row pgx.Row) (*types.Scorecard, error) {
	var sc types.Scorecard
	var id uuid.UUID
	var finance, technical, relevance, novelty []byte
	err := row.Scan(&id, &sc.ProposalID, &finance, &technical, &relevance, &novelty,
		&sc.OverallScore, &sc.EvaluatorRemarks, &sc.Version, &sc.CreatedAt, &sc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	sc.ID = id.String()
	if err := decodeDimensions(&sc, finance, technical, relevance, novelty); err != nil {
		return nil, err
	}
	return &sc, nil
}

func decodeDimensions(sc *types.Scorecard, finance, technical, relevance, novelty []byte) error {
	var err error
	if sc.Finance, err = decodeScore(finance); err != nil {
		return err
	}
	if sc.Technical, err = decodeScore(technical); err != nil {
		return err
	}
	if sc.Relevance, err = decodeScore(relevance); err != nil {
		return err
	}
	if len(novelty) > 0 {
		var n types.NoveltyScore
		if err := json.Unmarshal(novelty, &n); err != nil {
			return fmt.Errorf("failed to unmarshal novelty score: %w", err)
		}
		sc.Novelty = &n
	}
	return nil
}

func decodeScore(b []byte) (*types.DimensionScore, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var s types.DimensionScore
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal dimension score: %w", err)
	}
	return &s, nil
}
