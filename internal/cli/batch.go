package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mvickers/citecheck/internal/logging"
	"github.com/mvickers/citecheck/internal/pipeline"
	"github.com/mvickers/citecheck/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	// noFooter and the verification flags are defined in analyze.go and shared here
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Analyze multiple documents from a list in parallel",
	Long: `Batch processes multiple documents concurrently:
- Read document paths from the input file (one per line)
- Analyze documents in parallel with a configurable worker count
- Generate individual JSON and Markdown reports per document

Example:
  citecheck batch documents.txt
  citecheck batch documents.txt --concurrency 10 --output-dir ./reports
  citecheck batch documents.txt --verify --timeout 10m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./citecheck-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	batchCmd.Flags().BoolVar(&verifyEnabled, "verify", false, "verify citations against the canonical database")
	batchCmd.Flags().StringVar(&verifyAPIToken, "api-token", "", "verification API token (overrides config and env)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Citecheck Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	cfg := loadConfig()
	cfg.Concurrency.Workers = concurrency
	cfg.Output.Verbose = verbose
	cfg.Output.IncludeFooter = !noFooter
	if verifyEnabled {
		cfg.Verification.Enabled = true
	}
	if verifyAPIToken != "" {
		cfg.Verification.APIToken = verifyAPIToken
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	paths, err := worker.ReadPathsFromFile(file)
	if err != nil {
		return fmt.Errorf("read document list: %w", err)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no document paths found in %s", file)
	}

	logger := logging.New(verbose)
	defer func() { _ = logger.Sync() }()

	p := pipeline.NewPipeline(cfg, logger)
	processor := worker.NewBatchProcessor(p, concurrency)

	start := time.Now()
	results := processor.ProcessPaths(ctx, paths)

	succeeded, failed := 0, 0
	for _, res := range results {
		if res.Error != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", res.Path, res.Error)
			continue
		}

		base := reportBaseName(res.Path)
		jsonPath := filepath.Join(outputDir, base+".json")
		mdPath := filepath.Join(outputDir, base+".md")
		if err := p.RenderReport(res.Report, jsonPath, mdPath, false); err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", res.Path, err)
			continue
		}
		succeeded++
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Processed: %d documents in %v\n", len(results), time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(os.Stderr, "  Succeeded: %d\n", succeeded)
	fmt.Fprintf(os.Stderr, "  Failed:    %d\n", failed)
	fmt.Fprintf(os.Stderr, "\n")

	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(results))
	}
	return nil
}

// reportBaseName derives a report file stem from a document path.
func reportBaseName(path string) string {
	base := filepath.Base(path)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}
