// Package store defines the persistence contracts for proposal text and scorecards,
// plus an in-process implementation used for development and tests.
package store

import (
	"context"
	"fmt"

	"github.com/sankalp-ai/sankalp/internal/types"
)

// TextStore holds the extracted plain text of submitted proposals.
type TextStore interface {
	// GetProposalText returns the text for proposalID, or a *types.NotFoundError.
	GetProposalText(ctx context.Context, proposalID string) (*types.ProposalText, error)
	// PutProposalText creates or replaces the text for a proposal.
	PutProposalText(ctx context.Context, text *types.ProposalText) error
}

// ScorecardStore persists scorecards. Every mutating method must be safe against
// concurrent writers touching other fields of the same scorecard: last writer wins
// per field, never per document.
type ScorecardStore interface {
	// GetScorecard returns the scorecard for proposalID, or a *types.NotFoundError.
	GetScorecard(ctx context.Context, proposalID string) (*types.Scorecard, error)
	// UpsertDimension creates the scorecard if needed, replaces one dimension and recomputes the overall score.
	UpsertDimension(ctx context.Context, proposalID string, result types.DimensionResult) (*types.Scorecard, error)
	// ClearDimension marks one dimension unscored and recomputes the overall score.
	ClearDimension(ctx context.Context, proposalID string, dimension types.Dimension) (*types.Scorecard, error)
	// SetRemarks replaces the evaluator remarks and recomputes the overall score.
	SetRemarks(ctx context.Context, proposalID string, remarks string) (*types.Scorecard, error)
}

// Store is the full persistence surface used by the evaluation service.
type Store interface {
	TextStore
	ScorecardStore
	Close() error
}

// Driver names accepted by configuration.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// MaxWriteAttempts bounds optimistic-concurrency retries in stores that use them.
const MaxWriteAttempts = 8

// ValidateProposalText checks the invariants of a ProposalText before it is stored.
func ValidateProposalText(text *types.ProposalText) error {
	if text == nil {
		return &types.ValidationError{Field: "proposal_text", Message: "is required"}
	}
	if text.ProposalID == "" {
		return &types.ValidationError{Field: "proposal_id", Message: "is required"}
	}
	if text.RawText == "" {
		return &types.ValidationError{Field: "raw_text", Message: fmt.Sprintf("proposal %s has empty text", text.ProposalID)}
	}
	return nil
}
