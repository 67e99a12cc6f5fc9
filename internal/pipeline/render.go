package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mvickers/citecheck/internal/model"
)

// Renderer writes analysis reports as JSON, Markdown, and a terminal summary.
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer.
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the report as indented JSON.
func (r *Renderer) RenderJSON(report *model.DocumentReport, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// RenderMarkdown writes the report as a Markdown document.
func (r *Renderer) RenderMarkdown(report *model.DocumentReport, path string) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Citation Report: %s\n\n", report.Source)
	fmt.Fprintf(&b, "Analyzed: %s\n\n", report.AnalyzedAt.Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "**Hygiene index: %d/100** (confidence: %s)\n\n", report.Score.Index, report.Score.Confidence)

	b.WriteString("## Citations\n\n")
	if len(report.Citations) == 0 {
		b.WriteString("No citations found.\n\n")
	} else {
		b.WriteString("| Citation | Case Name | Year | Method | Confidence | Verified | Cluster |\n")
		b.WriteString("|----------|-----------|------|--------|-----------:|----------|---------|\n")
		for _, c := range report.Citations {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %.2f | %s | %s |\n",
				c.Citation,
				derefOr(c.ExtractedCaseName, "—"),
				derefOr(c.ExtractedDate, "—"),
				c.Method,
				c.Confidence,
				verifiedMark(c),
				c.ClusterID)
		}
		b.WriteString("\n")
	}

	if parallel := parallelClusters(report.Clusters); len(parallel) > 0 {
		b.WriteString("## Parallel Citations\n\n")
		for _, cl := range parallel {
			fmt.Fprintf(&b, "- **%s** (%s): %s\n",
				derefOr(cl.CaseName, "unknown case"),
				derefOr(cl.Year, "year unknown"),
				strings.Join(cl.MemberCitations, "; "))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Data Separation\n\n")
	sep := report.Separation
	fmt.Fprintf(&b, "Health: **%s** (%.1f%% contamination, %d legitimate agreements)\n\n",
		sep.Health, sep.Contamination*100, sep.Agreements)

	if len(report.Score.Signals) > 0 {
		b.WriteString("## Signals\n\n")
		for _, sig := range report.Score.Signals {
			fmt.Fprintf(&b, "- `%s` [%s]: %s\n", sig.Type, sig.Severity, sig.Description)
		}
		b.WriteString("\n")
	}

	if r.includeFooter {
		b.WriteString("---\n\ngenerated by citecheck\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}
	return nil
}

// RenderSummary prints a short terminal summary to stdout.
func (r *Renderer) RenderSummary(report *model.DocumentReport) {
	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Printf("  %s\n", report.Source)
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Printf("  Citations:   %d (%d verified)\n", len(report.Citations), report.VerifiedCount())
	fmt.Printf("  Clusters:    %d\n", len(report.Clusters))
	if report.VerificationEnabled {
		fmt.Printf("  Coverage:    %.0f%%\n", report.Coverage*100)
	}
	fmt.Printf("  Separation:  %s\n", report.Separation.Health)
	fmt.Printf("  Index:       %d/100 (%s)\n", report.Score.Index, report.Score.Confidence)
	fmt.Println()
}

func derefOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}

func verifiedMark(c model.CitationRecord) string {
	if c.Verified {
		return "✓"
	}
	if c.Error != "" {
		return "✗ " + c.Source
	}
	return "✗"
}

func parallelClusters(clusters []model.ClusterSummary) []model.ClusterSummary {
	out := make([]model.ClusterSummary, 0, len(clusters))
	for _, cl := range clusters {
		if cl.IsParallel {
			out = append(out, cl)
		}
	}
	return out
}
