// Package llm - util.go provides the shared JSON extraction used on every completion response.
package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseError represents a completion response that holds no parseable JSON object
type ParseError struct {
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ExtractJSONObject returns the substring from the first '{' to the last '}' of text.
// Prose and code fences around the object are dropped; nested objects stay intact.
func ExtractJSONObject(text string) (string, error) {
	start := strings.Index(text, "{")
	if start < 0 {
		return "", &ParseError{Message: "no JSON object found in response"}
	}
	end := strings.LastIndex(text, "}")
	if end < start {
		return "", &ParseError{Message: "unterminated JSON object in response"}
	}
	return text[start : end+1], nil
}

// ExtractJSON decodes the JSON object embedded in a free-text completion.
func ExtractJSON(text string) (map[string]any, error) {
	raw, err := ExtractJSONObject(text)
	if err != nil {
		return nil, err
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil, &ParseError{Message: "invalid JSON object", Cause: err}
	}
	return obj, nil
}
