package store

import (
	"context"
	"sync"
	"time"

	"github.com/sankalp-ai/sankalp/internal/scorecard"
	"github.com/sankalp-ai/sankalp/internal/types"
)

// Memory is a mutex-guarded in-process Store. Writes hold the lock across the
// whole read-modify-write, so concurrent dimension upserts never lose updates.
type Memory struct {
	mu         sync.RWMutex
	texts      map[string]types.ProposalText
	scorecards map[string]*types.Scorecard
	now        func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		texts:      make(map[string]types.ProposalText),
		scorecards: make(map[string]*types.Scorecard),
		now:        time.Now,
	}
}

// GetProposalText implements TextStore.
func (m *Memory) GetProposalText(_ context.Context, proposalID string) (*types.ProposalText, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	text, ok := m.texts[proposalID]
	if !ok || text.RawText == "" {
		return nil, &types.NotFoundError{Resource: "proposal text", ID: proposalID}
	}
	return &text, nil
}

// PutProposalText implements TextStore.
func (m *Memory) PutProposalText(_ context.Context, text *types.ProposalText) error {
	if err := ValidateProposalText(text); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *text
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = m.now()
	}
	m.texts[text.ProposalID] = stored
	return nil
}

// GetScorecard implements ScorecardStore.
func (m *Memory) GetScorecard(_ context.Context, proposalID string) (*types.Scorecard, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sc, ok := m.scorecards[proposalID]
	if !ok {
		return nil, &types.NotFoundError{Resource: "scorecard", ID: proposalID}
	}
	return sc.Clone(), nil
}

// UpsertDimension implements ScorecardStore.
func (m *Memory) UpsertDimension(_ context.Context, proposalID string, result types.DimensionResult) (*types.Scorecard, error) {
	return m.mutate(proposalID, true, func(sc *types.Scorecard, now time.Time) error {
		return scorecard.Apply(sc, result, now)
	})
}

// ClearDimension implements ScorecardStore.
func (m *Memory) ClearDimension(_ context.Context, proposalID string, dimension types.Dimension) (*types.Scorecard, error) {
	return m.mutate(proposalID, false, func(sc *types.Scorecard, now time.Time) error {
		return scorecard.Clear(sc, dimension, now)
	})
}

// SetRemarks implements ScorecardStore.
func (m *Memory) SetRemarks(_ context.Context, proposalID string, remarks string) (*types.Scorecard, error) {
	return m.mutate(proposalID, true, func(sc *types.Scorecard, now time.Time) error {
		scorecard.SetRemarks(sc, remarks, now)
		return nil
	})
}

func (m *Memory) mutate(proposalID string, create bool, fn func(*types.Scorecard, time.Time) error) (*types.Scorecard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	current, ok := m.scorecards[proposalID]
	var working *types.Scorecard
	switch {
	case ok:
		working = current.Clone()
	case create:
		working = scorecard.New(proposalID, now)
	default:
		return nil, &types.NotFoundError{Resource: "scorecard", ID: proposalID}
	}

	if err := fn(working, now); err != nil {
		return nil, err
	}
	m.scorecards[proposalID] = working
	return working.Clone(), nil
}

// Close implements Store.
func (m *Memory) Close() error {
	return nil
}
