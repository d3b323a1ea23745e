package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_ValidPrompt(t *testing.T) {
	ClearCache()

	prompt, err := Get("evaluation.json", "finance")
	require.NoError(t, err)
	assert.Contains(t, prompt, "FINANCIAL soundness")
	assert.Contains(t, prompt, "{{.ProposalText}}")
}

func TestGet_InvalidFile(t *testing.T) {
	ClearCache()

	_, err := Get("nonexistent.json", "some-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")
}

func TestGet_InvalidKey(t *testing.T) {
	ClearCache()

	_, err := Get("evaluation.json", "nonexistent-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestMustGet_Panics(t *testing.T) {
	ClearCache()

	assert.Panics(t, func() {
		MustGet("nonexistent.json", "some-key")
	})
}

func TestList_EvaluationPrompts(t *testing.T) {
	ClearCache()

	keys, err := List("evaluation.json")
	require.NoError(t, err)
	assert.Equal(t, []string{"finance", "relevance", "similarity", "technical"}, keys)
}

func TestFormat(t *testing.T) {
	out := Format("A={{.A}} B={{.B}} missing={{.C}}", map[string]string{
		"A": "1",
		"B": "2",
	})
	assert.Equal(t, "A=1 B=2 missing={{.C}}", out)
}

func TestFormat_DoesNotReexpandValues(t *testing.T) {
	out := Format("{{.Text}} / {{.ID}}", map[string]string{
		"Text": "literal {{.ID}} inside proposal",
		"ID":   "P-1",
	})
	assert.Equal(t, "literal {{.ID}} inside proposal / P-1", out)
}

func TestRender(t *testing.T) {
	ClearCache()

	out, err := Render("evaluation.json", "similarity", map[string]string{
		"ProposalIDA":  "P-1",
		"ProposalIDB":  "P-2",
		"TextA":        "methane sensor",
		"TextB":        "coal dust monitor",
		"OutputFormat": "FORMAT",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "PROPOSAL A (P-1)")
	assert.Contains(t, out, "coal dust monitor")
	assert.NotContains(t, out, "{{.")
}
