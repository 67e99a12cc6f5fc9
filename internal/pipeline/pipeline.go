package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/mvickers/citecheck/internal/attribute"
	"github.com/mvickers/citecheck/internal/cache"
	"github.com/mvickers/citecheck/internal/cluster"
	"github.com/mvickers/citecheck/internal/extract"
	"github.com/mvickers/citecheck/internal/guard"
	"github.com/mvickers/citecheck/internal/model"
	"github.com/mvickers/citecheck/internal/score"
	"github.com/mvickers/citecheck/internal/verify"
)

// Verifier resolves citations against an external canonical database.
// Satisfied by verify.Orchestrator; nil disables verification.
type Verifier interface {
	Verify(ctx context.Context, citations []string, progress verify.ProgressFunc) (map[string]model.VerificationRecord, error)
}

// Pipeline orchestrates the complete document analysis: extraction,
// attribution, clustering, optional verification, separation check,
// scoring, and rendering.
type Pipeline struct {
	extractor  *extract.Extractor
	attributor *attribute.Attributor
	builder    *cluster.Builder
	checker    *guard.Checker
	scorer     *score.Scorer
	renderer   *Renderer
	verifier   Verifier
	config     *model.Config
	logger     *zap.Logger
}

// NewPipeline creates a pipeline from configuration. The verification
// tier chain is wired only when verification is enabled.
func NewPipeline(cfg *model.Config, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}

	var verifier Verifier
	if cfg.Verification.Enabled {
		var backend cache.Cache
		if cfg.Cache.Enabled {
			backend = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
		}
		src := verify.NewHTTPSource(cfg.HTTP, cfg.Verification)
		verifier = verify.NewOrchestrator(
			cfg.Verification,
			verify.DefaultTiers(src),
			verify.NewRecordCache(backend, cfg.Verification.CacheTTL),
			logger,
		)
	}

	return &Pipeline{
		extractor:  extract.NewExtractor(),
		attributor: attribute.NewAttributor(cfg.Attribution, logger),
		builder:    cluster.NewBuilder(cfg.Clustering, logger),
		checker:    guard.NewChecker(cfg.Guard, logger),
		scorer:     score.NewScorer(),
		renderer:   NewRenderer(cfg.Output.IncludeFooter),
		verifier:   verifier,
		config:     cfg,
		logger:     logger,
	}
}

// SetVerifier replaces the verification backend, primarily for tests and
// for the verify command which builds its own orchestrator.
func (p *Pipeline) SetVerifier(v Verifier) { p.verifier = v }

// AnalyzeText runs the full analysis over raw document text. The label
// identifies the input in the report (file path, "stdin", or similar).
func (p *Pipeline) AnalyzeText(ctx context.Context, text, label string) (*model.DocumentReport, error) {
	spans := p.extractor.Extract(text)
	// Same-length OCR repair keeps every span offset valid.
	clean := extract.NormalizeOCR(text, spans)

	results := make([]model.ExtractionResult, 0, len(spans))
	prevEnd := 0
	for _, span := range spans {
		res := p.attributor.Attribute(clean, span, prevEnd)
		res.Citation = extract.NormalizeCitation(span.Text)
		results = append(results, res)
		prevEnd = span.End
	}

	clusters := p.builder.Build(clean, results)

	var verification map[string]model.VerificationRecord
	if p.verifier != nil {
		distinct := distinctCitations(results)
		var err error
		verification, err = p.verifier.Verify(ctx, distinct, nil)
		if err != nil {
			return nil, fmt.Errorf("verification: %w", err)
		}
	}

	records := mergeRecords(results, clusters, verification)

	report := &model.DocumentReport{
		Source:              label,
		AnalyzedAt:          time.Now().UTC(),
		Citations:           records,
		Clusters:            clusterSummaries(clusters),
		VerificationEnabled: p.verifier != nil,
		Coverage:            verifiedCoverage(results, verification),
	}
	report.Separation = p.checker.Inspect(records)
	report.Score = p.scorer.Calculate(report)

	p.logger.Info("document analyzed",
		zap.String("source", label),
		zap.Int("citations", len(records)),
		zap.Int("clusters", len(clusters)),
		zap.Float64("coverage", report.Coverage),
		zap.Int("score", report.Score.Index))

	return report, nil
}

// AnalyzeFile reads a document from disk and analyzes it. Satisfies
// worker.Analyzer for batch processing.
func (p *Pipeline) AnalyzeFile(ctx context.Context, path string) (*model.DocumentReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return p.AnalyzeText(ctx, string(data), path)
}

// RenderReport renders the report to the requested outputs and prints the
// summary to stdout.
func (p *Pipeline) RenderReport(report *model.DocumentReport, jsonPath, mdPath string, verbose bool) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Printf("✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Printf("✓ Wrote Markdown: %s\n", mdPath)
		}
	}

	p.renderer.RenderSummary(report)
	return nil
}

func distinctCitations(results []model.ExtractionResult) []string {
	seen := make(map[string]struct{}, len(results))
	out := make([]string, 0, len(results))
	for _, r := range results {
		if _, ok := seen[r.Citation]; ok {
			continue
		}
		seen[r.Citation] = struct{}{}
		out = append(out, r.Citation)
	}
	return out
}

func clusterSummaries(clusters []model.Cluster) []model.ClusterSummary {
	out := make([]model.ClusterSummary, 0, len(clusters))
	for i := range clusters {
		out = append(out, clusters[i].Summary())
	}
	return out
}

func verifiedCoverage(results []model.ExtractionResult, verification map[string]model.VerificationRecord) float64 {
	distinct := distinctCitations(results)
	if len(distinct) == 0 || verification == nil {
		return 0
	}
	verified := 0
	for _, c := range distinct {
		if verification[c].Verified {
			verified++
		}
	}
	return float64(verified) / float64(len(distinct))
}
