// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/sankalp-ai/sankalp/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes, marking the cut with "..."
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-3]) + "..."
}

// PrintScorecard outputs a summary of a proposal's scorecard.
func (p *Printer) PrintScorecard(sc *types.Scorecard) {
	if sc == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Proposal: %s\n", sc.ProposalID))
	if sc.OverallScore != nil {
		sb.WriteString(fmt.Sprintf("Overall:  %.1f / 10\n", *sc.OverallScore))
	} else {
		sb.WriteString("Overall:  not scored\n")
	}
	sb.WriteString(fmt.Sprintf("Version:  %d\n", sc.Version))
	sb.WriteString("\n")

	for _, d := range types.AllDimensions() {
		result := sc.Result(d)
		if result == nil {
			sb.WriteString(fmt.Sprintf("%-10s  -\n", d))
			continue
		}
		line := fmt.Sprintf("%-10s  %4.1f", d, result.PrimaryScore())
		if ds, ok := result.(*types.DimensionScore); ok && ds.Degraded {
			line += "  (degraded)"
		}
		sb.WriteString(line + "\n")
		sb.WriteString(subScoreLines(subScoresOf(result)))
	}

	if sc.Novelty != nil && len(sc.Novelty.SimilarProposals) > 0 {
		sb.WriteString("\nSimilar proposals:\n")
		similar := sc.Novelty.SimilarProposals
		count := min(len(similar), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s (%.0f%%)\n", similar[i].ProposalID, similar[i].SimilarityPercentage))
		}
		if len(similar) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(similar)-maxItemsToShow))
		}
	}

	if sc.EvaluatorRemarks != "" {
		sb.WriteString(fmt.Sprintf("\nRemarks: %s\n", sc.EvaluatorRemarks))
	}

	p.printBox("SCORECARD", strings.TrimSuffix(sb.String(), "\n"))
}

func subScoresOf(result types.DimensionResult) map[string]float64 {
	switch r := result.(type) {
	case *types.DimensionScore:
		return r.SubScores
	case *types.NoveltyScore:
		return r.SubScores
	}
	return nil
}

// subScoreLines renders sub-scores in name order, one per line.
func subScoreLines(subScores map[string]float64) string {
	names := make([]string, 0, len(subScores))
	for name := range subScores {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		sb.WriteString(fmt.Sprintf("    %-28s %4.1f\n", name, subScores[name]))
	}
	return sb.String()
}

// PrintDimensionErrors outputs the dimensions an evaluation run left unscored.
func (p *Printer) PrintDimensionErrors(errs map[types.Dimension]string) {
	if len(errs) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d dimension(s) left unscored:\n\n", len(errs)))
	for _, d := range types.AllDimensions() {
		msg, ok := errs[d]
		if !ok {
			continue
		}
		sb.WriteString(fmt.Sprintf("⚠ %s\n", d))
		sb.WriteString(fmt.Sprintf("  %s\n", msg))
	}

	p.printBox("UNSCORED DIMENSIONS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSimilarityReport outputs the verdict of a pairwise comparison.
func (p *Printer) PrintSimilarityReport(report *types.SimilarityReport) {
	if report == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s vs %s\n", report.ProposalIDA, report.ProposalIDB))
	sb.WriteString(fmt.Sprintf("Similarity:          %.0f%%\n", report.SimilarityPercentage))
	sb.WriteString(fmt.Sprintf("Technical novelty:   %.1f / 10\n", report.TechnicalNovelty))
	sb.WriteString(fmt.Sprintf("Application novelty: %.1f / 10\n", report.ApplicationNovelty))
	sb.WriteString("\n")

	flags := []struct {
		label       string
		set         bool
		explanation string
	}{
		{"Same idea", report.Flags.SameIdea, report.Flags.SameIdeaExplanation},
		{"Same technique", report.Flags.SameTechnique, report.Flags.SameTechniqueExplanation},
		{"Same application", report.Flags.SameApplication, report.Flags.SameApplicationExplanation},
		{"Same problem", report.Flags.SameProblem, report.Flags.SameProblemExplanation},
	}
	for _, f := range flags {
		mark := "✗"
		if f.set {
			mark = "✓"
		}
		sb.WriteString(fmt.Sprintf("%s %s\n", mark, f.label))
		if f.set && f.explanation != "" {
			sb.WriteString(fmt.Sprintf("  %s\n", f.explanation))
		}
	}

	if report.Explanation != "" {
		sb.WriteString(fmt.Sprintf("\n%s\n", report.Explanation))
	}

	p.printBox("SIMILARITY REPORT", strings.TrimSuffix(sb.String(), "\n"))
}
