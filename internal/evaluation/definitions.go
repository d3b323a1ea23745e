// Package evaluation runs the score providers and the similarity comparator,
// and orchestrates their results into stored scorecards.
package evaluation

import (
	"fmt"

	"github.com/sankalp-ai/sankalp/internal/llm"
	"github.com/sankalp-ai/sankalp/internal/schemas"
	"github.com/sankalp-ai/sankalp/internal/types"
)

// PromptFile is the embedded prompt file holding every evaluation template.
const PromptFile = "evaluation.json"

// Definition describes the fixed response contract of one LLM-scored dimension.
type Definition struct {
	Dimension  types.Dimension
	PromptKey  string
	Schema     string
	PrimaryKey string
	SubScores  []string
	NotesKey   string
	// NotesDescription tells the model what belongs in NotesKey.
	NotesDescription string
}

// OutputSchema renders the JSON contract requested from the completion service.
func (d Definition) OutputSchema() llm.OutputSchema {
	fields := []llm.SchemaField{{
		Name:        d.PrimaryKey,
		Type:        "number 0-10",
		Description: fmt.Sprintf("overall %s score", d.Dimension),
		Required:    true,
	}}
	for _, name := range d.SubScores {
		fields = append(fields, llm.SchemaField{Name: name, Type: "number 0-10", Required: true})
	}
	fields = append(fields, llm.SchemaField{
		Name:        d.NotesKey,
		Type:        `["string"]`,
		Description: d.NotesDescription,
	})
	return llm.OutputSchema{Name: string(d.Dimension), Fields: fields}
}

// Finance scores budget soundness and commercial viability.
var Finance = Definition{
	Dimension:  types.DimensionFinance,
	PromptKey:  "finance",
	Schema:     schemas.Finance,
	PrimaryKey: "financial_score",
	SubScores: []string{
		"commercialization_potential",
		"cost_effectiveness",
		"budget_justification",
		"funding_sustainability",
	},
	NotesKey:         "financial_risks",
	NotesDescription: "specific financial risks",
}

// Technical scores feasibility and methodology.
var Technical = Definition{
	Dimension:  types.DimensionTechnical,
	PromptKey:  "technical",
	Schema:     schemas.Technical,
	PrimaryKey: "technical_score",
	SubScores: []string{
		"feasibility",
		"methodology",
		"innovation",
		"team_capability",
	},
	NotesKey:         "technical_risks",
	NotesDescription: "specific technical risks",
}

// Relevance scores alignment with the ministry's mandate.
var Relevance = Definition{
	Dimension:  types.DimensionRelevance,
	PromptKey:  "relevance",
	Schema:     schemas.Relevance,
	PrimaryKey: "relevance_score",
	SubScores: []string{
		"ministry_alignment",
		"national_priority",
		"societal_impact",
	},
	NotesKey:         "relevance_explanation",
	NotesDescription: "short explanation of the relevance score",
}

// Definitions returns the LLM-scored dimension definitions in canonical order.
func Definitions() []Definition {
	return []Definition{Finance, Technical, Relevance}
}

// DefinitionFor returns the definition of an LLM-scored dimension.
func DefinitionFor(d types.Dimension) (Definition, bool) {
	for _, def := range Definitions() {
		if def.Dimension == d {
			return def, true
		}
	}
	return Definition{}, false
}
