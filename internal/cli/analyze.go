package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mvickers/citecheck/internal/logging"
	"github.com/mvickers/citecheck/internal/model"
	"github.com/mvickers/citecheck/internal/pipeline"
)

var (
	outJSON        string
	outMD          string
	timeout        time.Duration
	noCache        bool
	noFooter       bool
	verifyEnabled  bool
	verifyBaseURL  string
	verifyAPIToken string
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyze a document and report its citations",
	Long: `Analyze extracts citations from a legal document:
- Match reporter citations (U.S., S. Ct., F.3d, Wn.2d, P.3d, WL, ...)
- Attribute case names and years from the surrounding text
- Group parallel citations of the same case
- Optionally verify citations against a canonical database

Use "-" to read the document from stdin.

Example:
  citecheck analyze brief.txt
  citecheck analyze brief.txt --json report.json --md report.md
  citecheck analyze brief.txt --verify --api-token $CITECHECK_API_TOKEN`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Output flags
	analyzeCmd.Flags().StringVar(&outJSON, "json", "report.json", "output JSON path")
	analyzeCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	analyzeCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	// Analysis flags
	analyzeCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall analysis timeout")
	analyzeCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the verification cache")

	// Verification flags
	analyzeCmd.Flags().BoolVar(&verifyEnabled, "verify", false, "verify citations against the canonical database")
	analyzeCmd.Flags().StringVar(&verifyBaseURL, "base-url", "", "verification API base URL (overrides config)")
	analyzeCmd.Flags().StringVar(&verifyAPIToken, "api-token", "", "verification API token (overrides config and env)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	input := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg := loadConfig()
	cfg.Cache.Enabled = !noCache
	cfg.Output.Verbose = verbose
	cfg.Output.IncludeFooter = !noFooter
	if verifyEnabled {
		cfg.Verification.Enabled = true
	}
	if verifyBaseURL != "" {
		cfg.Verification.BaseURL = verifyBaseURL
	}
	if verifyAPIToken != "" {
		cfg.Verification.APIToken = verifyAPIToken
	}

	logger := logging.New(verbose)
	defer func() { _ = logger.Sync() }()

	p := pipeline.NewPipeline(cfg, logger)

	var report *model.DocumentReport
	if input == "-" {
		text, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		report, err = p.AnalyzeText(ctx, string(text), "stdin")
		if err != nil {
			return fmt.Errorf("analyze failed: %w", err)
		}
	} else {
		var err error
		report, err = p.AnalyzeFile(ctx, input)
		if err != nil {
			return fmt.Errorf("analyze failed: %w", err)
		}
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Extracted %d citations in %d clusters\n",
			len(report.Citations), len(report.Clusters))
		if report.VerificationEnabled {
			fmt.Fprintf(os.Stderr, "✓ Verified %.0f%% of distinct citations\n", report.Coverage*100)
		}
		fmt.Fprintf(os.Stderr, "✓ Hygiene index: %d/100\n", report.Score.Index)
		fmt.Fprintln(os.Stderr)
	}

	if err := p.RenderReport(report, outJSON, outMD, verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	return nil
}
