// Package llm - extractor.go renders the output contract appended to structured-output prompts.
package llm

import (
	"fmt"
	"strings"
)

// OutputSchema describes the single JSON object a prompt asks the model to return.
type OutputSchema struct {
	Name   string        // Schema name (e.g., "FinanceScore")
	Fields []SchemaField // Expected output fields, in prompt order
}

// SchemaField defines a single field in the expected output.
type SchemaField struct {
	Name        string // JSON field name
	Type        string // Type hint: "number 0-10", "[\"string\"]", ...
	Description string // Description for the model
	Required    bool   // Whether this field is required
}

// RenderOutputFormat builds the "return only this JSON" block for a schema.
func RenderOutputFormat(schema OutputSchema) string {
	var sb strings.Builder

	sb.WriteString("Return ONLY valid JSON matching this exact structure:\n{\n")
	for i, field := range schema.Fields {
		typeHint := field.Type
		if typeHint == "" {
			typeHint = "string"
		}
		requiredHint := ""
		if field.Required {
			requiredHint = " (required)"
		}
		sb.WriteString(fmt.Sprintf("  \"%s\": %s%s", field.Name, typeHint, requiredHint))
		if field.Description != "" {
			sb.WriteString(fmt.Sprintf(" // %s", field.Description))
		}
		if i < len(schema.Fields)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}\n\n")

	sb.WriteString("IMPORTANT:\n")
	sb.WriteString("- Every score is a number between 0 and 10 inclusive.\n")
	sb.WriteString("- Return ONLY the JSON object, no markdown, no explanation, no code blocks.\n")

	return sb.String()
}
