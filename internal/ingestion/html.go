package ingestion

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Document formats accepted for ingestion.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

// contentSelectors locate the body of exported proposal documents, most specific first.
var contentSelectors = []string{
	"main",
	"article",
	".proposal",
	"#proposal",
	".content",
	"#content",
}

// blockElements end a line when their text is extracted.
const blockElements = "p, div, section, li, tr, br, h1, h2, h3, h4, h5, h6, table, ul, ol, blockquote, pre"

// DetectFormat guesses a document's format from its extension, then its content.
func DetectFormat(path string, content []byte) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return FormatHTML
	case ".md", ".markdown":
		return FormatMarkdown
	case ".txt":
		return FormatText
	}
	head := bytes.ToLower(bytes.TrimSpace(content))
	if len(head) > 512 {
		head = head[:512]
	}
	if bytes.HasPrefix(head, []byte("<!doctype html")) || bytes.HasPrefix(head, []byte("<html")) {
		return FormatHTML
	}
	return FormatText
}

// ExtractHTMLText returns the readable text of an HTML document, one block per line.
// Scripts, styles and page chrome are removed; the first matching content
// container is used when present, otherwise the whole body.
func ExtractHTMLText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, noscript, nav, footer, header, iframe, svg").Remove()

	var main *goquery.Selection
	for _, selector := range contentSelectors {
		if selection := doc.Find(selector); selection.Length() > 0 {
			main = selection.First()
			break
		}
	}
	if main == nil {
		main = doc.Find("body")
	}

	main.Find(blockElements).Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})
	main.Find("li").Each(func(_ int, s *goquery.Selection) {
		s.PrependHtml("- ")
	})

	return main.Text(), nil
}
