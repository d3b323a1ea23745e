package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sankalp-ai/sankalp/internal/store"
	"github.com/sankalp-ai/sankalp/internal/types"
)

// GetProposalText retrieves the stored text of a proposal
func (db *DB) GetProposalText(ctx context.Context, proposalID string) (*types.ProposalText, error) {
	var text types.ProposalText
	err := db.pool.QueryRow(ctx,
		`SELECT proposal_id, raw_text, created_at FROM proposal_texts WHERE proposal_id = $1`,
		proposalID,
	).Scan(&text.ProposalID, &text.RawText, &text.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, &types.NotFoundError{Resource: "proposal text", ID: proposalID}
		}
		return nil, fmt.Errorf("failed to get proposal text: %w", err)
	}
	return &text, nil
}

// PutProposalText creates or replaces the text of a proposal
func (db *DB) PutProposalText(ctx context.Context, text *types.ProposalText) error {
	if err := store.ValidateProposalText(text); err != nil {
		return err
	}
	createdAt := text.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO proposal_texts (proposal_id, raw_text, created_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (proposal_id) DO UPDATE SET raw_text = $2, created_at = $3`,
		text.ProposalID, text.RawText, createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save proposal text %s: %w", text.ProposalID, err)
	}
	return nil
}
