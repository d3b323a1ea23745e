package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain JSON",
			input:    `{"financial_score": 7}`,
			expected: `{"financial_score": 7}`,
		},
		{
			name:     "json code block",
			input:    "```json\n{\"financial_score\": 7}\n```",
			expected: `{"financial_score": 7}`,
		},
		{
			name:     "generic code block",
			input:    "```\n{\"key\": \"value\"}\n```",
			expected: `{"key": "value"}`,
		},
		{
			name:     "leading and trailing prose",
			input:    "Here is my assessment:\n{\"technical_score\": 8}\n\nLet me know if you need anything else!",
			expected: `{"technical_score": 8}`,
		},
		{
			name:     "nested objects",
			input:    "Output:\n{\"outer\": {\"inner\": \"value\"}}",
			expected: `{"outer": {"inner": "value"}}`,
		},
		{
			name:     "string with braces inside",
			input:    `{"template": "Hello {name}!"}`,
			expected: `{"template": "Hello {name}!"}`,
		},
		{
			name:     "multiple JSON-like substrings are spanned greedily",
			input:    `first {"a": 1} then {"b": 2} done`,
			expected: `{"a": 1} then {"b": 2}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ExtractJSONObject(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestExtractJSONObject_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty input", input: ""},
		{name: "no braces", input: "I cannot evaluate this proposal."},
		{name: "closing before opening", input: "} nothing {"},
		{name: "only opening brace", input: "{\"score\": 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractJSONObject(tt.input)
			var pe *ParseError
			assert.ErrorAs(t, err, &pe)
		})
	}
}

func TestExtractJSON(t *testing.T) {
	obj, err := ExtractJSON("```json\n{\"financial_score\": 7, \"financial_risks\": [\"high capex\"]}\n```")
	require.NoError(t, err)
	assert.Equal(t, 7.0, obj["financial_score"])
	assert.Equal(t, []any{"high capex"}, obj["financial_risks"])
}

func TestExtractJSON_MultipleObjectsFailToParse(t *testing.T) {
	_, err := ExtractJSON(`first {"a": 1} then {"b": 2} done`)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, err.Error(), "invalid JSON object")
	assert.NotNil(t, pe.Unwrap())
}

func TestRenderOutputFormat(t *testing.T) {
	out := RenderOutputFormat(OutputSchema{
		Name: "FinanceScore",
		Fields: []SchemaField{
			{Name: "financial_score", Type: "number", Description: "overall", Required: true},
			{Name: "financial_risks", Type: "[\"string\"]"},
		},
	})

	assert.Contains(t, out, `"financial_score": number (required) // overall,`)
	assert.Contains(t, out, `"financial_risks": ["string"]`)
	assert.Contains(t, out, "Return ONLY the JSON object")
}
