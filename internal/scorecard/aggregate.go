// Package scorecard combines per-dimension results into a proposal's scorecard.
// It is pure: stores call into it inside their own atomic or optimistic write paths.
package scorecard

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sankalp-ai/sankalp/internal/types"
)

// overallPrecision is the number of decimal places kept in the overall score
const overallPrecision = 1

// New returns an empty scorecard for proposalID.
func New(proposalID string, now time.Time) *types.Scorecard {
	return &types.Scorecard{
		ID:         uuid.New().String(),
		ProposalID: proposalID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Apply replaces the stored value of result's dimension and recomputes the overall score.
func Apply(sc *types.Scorecard, result types.DimensionResult, now time.Time) error {
	if result == nil {
		return &types.ValidationError{Field: "result", Message: "result is required"}
	}
	switch r := result.(type) {
	case *types.DimensionScore:
		switch r.Dimension {
		case types.DimensionFinance:
			sc.Finance = r.Clone()
		case types.DimensionTechnical:
			sc.Technical = r.Clone()
		case types.DimensionRelevance:
			sc.Relevance = r.Clone()
		default:
			return &types.ValidationError{Field: "dimension", Message: fmt.Sprintf("%q is not a scored dimension", r.Dimension)}
		}
	case *types.NoveltyScore:
		sc.Novelty = r.Clone()
	default:
		return &types.ValidationError{Field: "result", Message: fmt.Sprintf("unsupported result type %T", result)}
	}
	touch(sc, now)
	return nil
}

// Clear marks dimension d as unscored and recomputes the overall score.
func Clear(sc *types.Scorecard, d types.Dimension, now time.Time) error {
	switch d {
	case types.DimensionFinance:
		sc.Finance = nil
	case types.DimensionTechnical:
		sc.Technical = nil
	case types.DimensionRelevance:
		sc.Relevance = nil
	case types.DimensionNovelty:
		sc.Novelty = nil
	default:
		return &types.ValidationError{Field: "dimension", Message: fmt.Sprintf("unknown dimension %q", d)}
	}
	touch(sc, now)
	return nil
}

// SetRemarks replaces the evaluator remarks and recomputes the overall score.
func SetRemarks(sc *types.Scorecard, remarks string, now time.Time) {
	sc.EvaluatorRemarks = remarks
	touch(sc, now)
}

func touch(sc *types.Scorecard, now time.Time) {
	sc.OverallScore = Overall(sc)
	sc.UpdatedAt = now
	sc.Version++
}

// Overall returns the mean of the present, finite primary scores rounded to one
// decimal place, or nil when no dimension is present. Zero is a valid score.
func Overall(sc *types.Scorecard) *float64 {
	var sum float64
	var n int
	for _, d := range types.AllDimensions() {
		r := sc.Result(d)
		if r == nil {
			continue
		}
		v := r.PrimaryScore()
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return nil
	}
	mean := Round(sum/float64(n), overallPrecision)
	return &mean
}

// Round rounds v half away from zero to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
