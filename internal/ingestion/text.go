// Package ingestion turns submitted proposal documents into clean plain text.
package ingestion

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	multiSpace      = regexp.MustCompile(`[ \t\p{Zs}]+`)
	excessiveBlanks = regexp.MustCompile(`\n\n\n+`)
)

// CleanText normalizes proposal text while preserving its line structure.
// It applies NFKC so ligatures and full-width characters extracted from PDFs compare equal.
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = norm.NFKC.String(content)

	// Normalize line endings (CRLF → LF)
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	content = strings.Map(dropControl, content)

	lines := strings.Split(content, "\n")
	cleanedLines := make([]string, 0, len(lines))
	for _, line := range lines {
		cleanedLines = append(cleanedLines, cleanLine(line))
	}

	result := strings.Join(cleanedLines, "\n")
	result = removeExcessiveBlankLines(result)
	return strings.TrimSpace(result)
}

// dropControl removes control characters other than newline and tab.
func dropControl(r rune) rune {
	if r == '\n' || r == '\t' {
		return r
	}
	if unicode.IsControl(r) || r == '\uFEFF' {
		return -1
	}
	return r
}

// cleanLine cleans a single line while preserving structure
func cleanLine(line string) string {
	line = strings.TrimRightFunc(line, unicode.IsSpace)
	if strings.TrimSpace(line) == "" {
		return ""
	}

	trimmed := strings.TrimLeftFunc(line, unicode.IsSpace)

	// Markdown headings lose their indentation
	if strings.HasPrefix(trimmed, "#") {
		return multiSpace.ReplaceAllString(trimmed, " ")
	}

	// Keep indentation of regular lines and bullets, collapse inner runs of spaces
	indent := len(line) - len(trimmed)
	content := multiSpace.ReplaceAllString(trimmed, " ")
	if isBulletLine(trimmed) || indent > 0 {
		return strings.Repeat(" ", indent) + content
	}
	return content
}

// isBulletLine checks if a line is a bullet list item
func isBulletLine(line string) bool {
	trimmed := strings.TrimLeft(line, " \t")
	return strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") ||
		strings.HasPrefix(trimmed, "• ") || strings.HasPrefix(trimmed, "· ")
}

// removeExcessiveBlankLines reduces consecutive blank lines to max 2
func removeExcessiveBlankLines(content string) string {
	return excessiveBlanks.ReplaceAllString(content, "\n\n")
}

// IngestFromFile reads a proposal document, converts HTML to text when needed,
// cleans it and returns the text with metadata.
func IngestFromFile(path string) (string, *Metadata, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, fmt.Errorf("file not found: %w", err)
		}
		return "", nil, fmt.Errorf("failed to read file: %w", err)
	}

	format := DetectFormat(path, content)
	text := string(content)
	if format == FormatHTML {
		text, err = ExtractHTMLText(text)
		if err != nil {
			return "", nil, err
		}
	}

	cleanedText := CleanText(text)
	if cleanedText == "" {
		return "", nil, fmt.Errorf("no text found in %s", filepath.Base(path))
	}

	metadata := NewMetadata(cleanedText, filepath.Base(path), format)
	return cleanedText, metadata, nil
}
