package types

import (
	"time"
)

// ProposalText holds the extracted plain text of a submitted proposal
type ProposalText struct {
	ProposalID string    `json:"proposal_id" bson:"proposalId" validate:"required"`
	RawText    string    `json:"raw_text" bson:"rawText" validate:"required"`
	CreatedAt  time.Time `json:"created_at" bson:"createdAt"`
}

// Scorecard is the persisted aggregate of all dimension results for one proposal
type Scorecard struct {
	ID               string          `json:"id" bson:"_id"`
	ProposalID       string          `json:"proposal_id" bson:"proposalId"`
	Finance          *DimensionScore `json:"finance_score" bson:"finance"`
	Technical        *DimensionScore `json:"technical_score" bson:"technical"`
	Relevance        *DimensionScore `json:"relevance_score" bson:"relevance"`
	Novelty          *NoveltyScore   `json:"novelty_score" bson:"novelty"`
	OverallScore     *float64        `json:"overall_score" bson:"overallScore"`
	EvaluatorRemarks string          `json:"evaluator_remarks" bson:"evaluatorRemarks"`
	// Version increases on every write; stores use it for optimistic concurrency.
	Version   int64     `json:"version" bson:"version"`
	CreatedAt time.Time `json:"created_at" bson:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" bson:"updatedAt"`
}

// Result returns the stored result for d, or nil when the dimension is unscored.
func (s *Scorecard) Result(d Dimension) DimensionResult {
	switch d {
	case DimensionFinance:
		if s.Finance != nil {
			return s.Finance
		}
	case DimensionTechnical:
		if s.Technical != nil {
			return s.Technical
		}
	case DimensionRelevance:
		if s.Relevance != nil {
			return s.Relevance
		}
	case DimensionNovelty:
		if s.Novelty != nil {
			return s.Novelty
		}
	}
	return nil
}

// Clone returns a deep copy of the scorecard.
func (s *Scorecard) Clone() *Scorecard {
	if s == nil {
		return nil
	}
	out := *s
	out.Finance = s.Finance.Clone()
	out.Technical = s.Technical.Clone()
	out.Relevance = s.Relevance.Clone()
	out.Novelty = s.Novelty.Clone()
	if s.OverallScore != nil {
		v := *s.OverallScore
		out.OverallScore = &v
	}
	return &out
}

// Clone returns a deep copy of the score.
func (s *DimensionScore) Clone() *DimensionScore {
	if s == nil {
		return nil
	}
	out := *s
	out.SubScores = cloneFloats(s.SubScores)
	out.Notes = append([]string(nil), s.Notes...)
	return &out
}

// Clone returns a deep copy of the score.
func (s *NoveltyScore) Clone() *NoveltyScore {
	if s == nil {
		return nil
	}
	out := *s
	out.SimilarProposals = append([]SimilarProposal(nil), s.SimilarProposals...)
	out.SubScores = cloneFloats(s.SubScores)
	return &out
}

func cloneFloats(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// SimilarityReport is the ephemeral result of a pairwise proposal comparison.
// TechnicalNovelty and ApplicationNovelty use inverted polarity: 0 means the
// same technique/domain, 10 means completely different.
type SimilarityReport struct {
	ProposalIDA          string          `json:"proposal_id_a"`
	ProposalIDB          string          `json:"proposal_id_b"`
	SimilarityPercentage float64         `json:"similarity_percentage"`
	TechnicalNovelty     float64         `json:"technical_novelty"`
	ApplicationNovelty   float64         `json:"application_novelty"`
	Flags                SimilarityFlags `json:"flags"`
	MatchingDetails      MatchingDetails `json:"matching_details"`
	ExcerptsA            []string        `json:"excerpts_a"`
	ExcerptsB            []string        `json:"excerpts_b"`
	Explanation          string          `json:"explanation"`
}

// SimilarityFlags records whether two proposals share an idea, technique, application or problem.
// Each explanation is only meaningful when its flag is set.
type SimilarityFlags struct {
	SameIdea                   bool   `json:"same_idea"`
	SameIdeaExplanation        string `json:"same_idea_explanation,omitempty"`
	SameTechnique              bool   `json:"same_technique"`
	SameTechniqueExplanation   string `json:"same_technique_explanation,omitempty"`
	SameApplication            bool   `json:"same_application"`
	SameApplicationExplanation string `json:"same_application_explanation,omitempty"`
	SameProblem                bool   `json:"same_problem"`
	SameProblemExplanation     string `json:"same_problem_explanation,omitempty"`
}

// MatchingDetails lists matched concepts between two proposals
type MatchingDetails struct {
	Concepts     []string `json:"concepts"`
	Techniques   []string `json:"techniques"`
	Applications []string `json:"applications"`
	Keywords     []string `json:"keywords"`
}
