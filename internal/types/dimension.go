// Package types provides type definitions for structured data used throughout the proposal evaluation system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"fmt"
	"math"
	"strings"
)

// Dimension is one of the four independent evaluation axes
type Dimension string

// Dimension constants
const (
	DimensionFinance   Dimension = "finance"
	DimensionTechnical Dimension = "technical"
	DimensionRelevance Dimension = "relevance"
	DimensionNovelty   Dimension = "novelty"
)

// ScoreMin and ScoreMax bound every primary score and sub-score on the canonical scale.
const (
	ScoreMin = 0.0
	ScoreMax = 10.0
)

// MaxDimensionSubScores is the largest number of named sub-scores a Finance/Technical/Relevance result may carry.
const MaxDimensionSubScores = 4

// MaxNoveltySubScores is the largest number of named sub-scores a novelty result may carry.
const MaxNoveltySubScores = 3

// AllDimensions returns the four dimensions in their canonical order.
func AllDimensions() []Dimension {
	return []Dimension{DimensionFinance, DimensionTechnical, DimensionRelevance, DimensionNovelty}
}

// ParseDimension parses a dimension tag, case-insensitively.
func ParseDimension(s string) (Dimension, error) {
	d := Dimension(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", &ValidationError{Field: "dimension", Message: fmt.Sprintf("unknown dimension %q", s)}
	}
	return d, nil
}

// Valid reports whether d is one of the known dimensions.
func (d Dimension) Valid() bool {
	switch d {
	case DimensionFinance, DimensionTechnical, DimensionRelevance, DimensionNovelty:
		return true
	}
	return false
}

// String implements fmt.Stringer.
func (d Dimension) String() string {
	return string(d)
}

// DimensionResult is the common view over a dimension's stored result.
// Both DimensionScore and NoveltyScore implement it.
type DimensionResult interface {
	ScoreDimension() Dimension
	PrimaryScore() float64
	Validate() error
}

// DimensionScore is the result of the Finance, Technical or Relevance provider.
type DimensionScore struct {
	Dimension Dimension          `json:"dimension" bson:"dimension"`
	Score     float64            `json:"score" bson:"score"`
	SubScores map[string]float64 `json:"sub_scores" bson:"subScores"`
	// Notes holds risks or explanations. When Degraded is set, Notes[0] describes the failure.
	Notes    []string `json:"notes" bson:"notes"`
	Degraded bool     `json:"degraded,omitempty" bson:"degraded,omitempty"`
}

// ScoreDimension implements DimensionResult.
func (s *DimensionScore) ScoreDimension() Dimension { return s.Dimension }

// PrimaryScore implements DimensionResult.
func (s *DimensionScore) PrimaryScore() float64 { return s.Score }

// Validate checks ranges and the sub-score count.
func (s *DimensionScore) Validate() error {
	switch s.Dimension {
	case DimensionFinance, DimensionTechnical, DimensionRelevance:
	default:
		return &ValidationError{Field: "dimension", Message: fmt.Sprintf("%q is not a scored dimension", s.Dimension)}
	}
	if err := checkRange("score", s.Score); err != nil {
		return err
	}
	if len(s.SubScores) == 0 || len(s.SubScores) > MaxDimensionSubScores {
		return &ValidationError{
			Field:   "sub_scores",
			Message: fmt.Sprintf("expected 1-%d sub-scores, got %d", MaxDimensionSubScores, len(s.SubScores)),
		}
	}
	for name, v := range s.SubScores {
		if err := checkRange("sub_scores."+name, v); err != nil {
			return err
		}
	}
	return nil
}

// SimilarProposal is one entry of a novelty check's ranked similarity list.
type SimilarProposal struct {
	ProposalID           string  `json:"proposal_id" bson:"proposalId"`
	SimilarityPercentage float64 `json:"similarity_percentage" bson:"similarityPercentage"`
}

// Novelty sub-score names.
const (
	NoveltyOriginality        = "originality"
	NoveltyTechnicalNovelty   = "technical_novelty"
	NoveltyApplicationNovelty = "application_novelty"
)

// NoveltyScore is the result of the novelty provider, always on the canonical 0-10 scale.
type NoveltyScore struct {
	Score                 float64            `json:"score" bson:"score"`
	TotalProposalsChecked int                `json:"total_proposals_checked" bson:"totalProposalsChecked"`
	SimilarProposals      []SimilarProposal  `json:"similar_proposals" bson:"similarProposals"`
	SubScores             map[string]float64 `json:"sub_scores,omitempty" bson:"subScores,omitempty"`
}

// ScoreDimension implements DimensionResult.
func (s *NoveltyScore) ScoreDimension() Dimension { return DimensionNovelty }

// PrimaryScore implements DimensionResult.
func (s *NoveltyScore) PrimaryScore() float64 { return s.Score }

// Validate checks ranges, the proposal count and the sub-score count.
func (s *NoveltyScore) Validate() error {
	if err := checkRange("score", s.Score); err != nil {
		return err
	}
	if s.TotalProposalsChecked < 0 {
		return &ValidationError{Field: "total_proposals_checked", Message: "must be non-negative"}
	}
	if len(s.SubScores) > MaxNoveltySubScores {
		return &ValidationError{
			Field:   "sub_scores",
			Message: fmt.Sprintf("expected at most %d sub-scores, got %d", MaxNoveltySubScores, len(s.SubScores)),
		}
	}
	for name, v := range s.SubScores {
		if err := checkRange("sub_scores."+name, v); err != nil {
			return err
		}
	}
	for i, p := range s.SimilarProposals {
		if math.IsNaN(p.SimilarityPercentage) || p.SimilarityPercentage < 0 || p.SimilarityPercentage > 100 {
			return &ValidationError{
				Field:   fmt.Sprintf("similar_proposals[%d].similarity_percentage", i),
				Message: fmt.Sprintf("%v is outside [0, 100]", p.SimilarityPercentage),
			}
		}
	}
	return nil
}

func checkRange(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < ScoreMin || v > ScoreMax {
		return &ValidationError{Field: field, Message: fmt.Sprintf("%v is outside [%g, %g]", v, ScoreMin, ScoreMax)}
	}
	return nil
}

// ClampScore bounds v to the canonical score range. NaN becomes ScoreMin.
func ClampScore(v float64) float64 {
	if math.IsNaN(v) || v < ScoreMin {
		return ScoreMin
	}
	if v > ScoreMax {
		return ScoreMax
	}
	return v
}
