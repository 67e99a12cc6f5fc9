package verify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/mvickers/citecheck/internal/model"
	"github.com/mvickers/citecheck/internal/worker"
)

// Tier is one stage of the verification chain. Batch tiers resolve many
// citations per call; single tiers resolve one at a time through the
// worker pool.
type Tier struct {
	Name   string
	Source Source
	Batch  bool
}

// DefaultTiers builds the standard chain: batch citation lookup, then
// per-citation search against the same source, then the no-op fallback.
func DefaultTiers(src Source) []Tier {
	return []Tier{
		{Name: "citation_lookup", Source: src, Batch: true},
		{Name: "search", Source: src, Batch: false},
		{Name: "fallback", Source: StubSource{}, Batch: false},
	}
}

// ProgressFunc receives orchestrator progress updates. Called from the
// verification goroutine; implementations must not block.
type ProgressFunc func(processed, total int, method string)

// Orchestrator resolves citations through a tier chain with a coverage
// short-circuit: once verified/total reaches the configured threshold after
// a tier, the remaining tiers are never invoked.
type Orchestrator struct {
	cfg     model.VerificationConfig
	tiers   []Tier
	cache   *RecordCache
	limiter *worker.SourceLimiter
	group   singleflight.Group
	logger  *zap.Logger
}

// NewOrchestrator creates an orchestrator over the given tier chain.
// A nil cache disables caching; a nil logger is replaced with a nop.
func NewOrchestrator(cfg model.VerificationConfig, tiers []Tier, recCache *RecordCache, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CoverageThreshold <= 0 || cfg.CoverageThreshold > 1 {
		cfg.CoverageThreshold = 0.70
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	return &Orchestrator{
		cfg:     cfg,
		tiers:   tiers,
		cache:   recCache,
		// Burst 1 keeps the per-source budget strict: the Nth sequential
		// call waits the full interval even on a cold limiter.
		limiter: worker.NewSourceLimiter(cfg.RequestsPerMinute, 1),
		logger:  logger,
	}
}

// Verify resolves a set of citations and returns one record per distinct
// citation. Tier failures degrade the affected citations to unverified
// records instead of failing the run; the only error returns are context
// cancellation and deadline.
func (o *Orchestrator) Verify(ctx context.Context, citations []string, progress ProgressFunc) (map[string]model.VerificationRecord, error) {
	distinct := dedupe(citations)
	total := len(distinct)
	results := make(map[string]model.VerificationRecord, total)
	if total == 0 {
		return results, nil
	}
	if progress == nil {
		progress = func(int, int, string) {}
	}

	pending := make([]string, 0, total)
	for _, c := range distinct {
		if rec, ok := o.cache.Get(c); ok {
			results[c] = rec
			continue
		}
		pending = append(pending, c)
	}
	if len(results) > 0 {
		progress(len(results), total, "cache")
	}

	for _, tier := range o.tiers {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		if len(pending) == 0 {
			break
		}
		if cov := coverage(results, total); cov >= o.cfg.CoverageThreshold {
			o.logger.Debug("coverage threshold reached, skipping remaining tiers",
				zap.Float64("coverage", cov),
				zap.String("next_tier", tier.Name))
			break
		}

		tierCtx, cancel := context.WithTimeout(ctx, o.tierTimeout())
		if tier.Batch {
			o.runBatchTier(tierCtx, tier, pending, results, progress, total)
		} else {
			o.runSingleTier(tierCtx, tier, pending, results, progress, total)
		}
		cancel()

		pending = unresolved(pending, results)
	}

	// Citations skipped by the coverage short-circuit still get a record.
	for _, c := range pending {
		if _, ok := results[c]; !ok {
			results[c] = model.VerificationRecord{
				Citation:         c,
				Verified:         false,
				Source:           "skipped",
				ValidationMethod: "none",
			}
		}
	}

	return results, ctx.Err()
}

// runBatchTier resolves pending citations in BatchSize slices through the
// tier's batch endpoint. A failed call degrades its whole slice.
func (o *Orchestrator) runBatchTier(ctx context.Context, tier Tier, pending []string, results map[string]model.VerificationRecord, progress ProgressFunc, total int) {
	for start := 0; start < len(pending); start += o.cfg.BatchSize {
		end := start + o.cfg.BatchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		if err := o.limiter.Wait(ctx, tier.Source.Name()); err != nil {
			degradeAll(batch, tier.Name, err, results)
			continue
		}

		callCtx, cancel := context.WithTimeout(ctx, o.callTimeout())
		found, err := tier.Source.Lookup(callCtx, batch)
		cancel()
		if err != nil {
			o.logger.Warn("batch lookup failed",
				zap.String("tier", tier.Name),
				zap.Int("citations", len(batch)),
				zap.Error(err))
			degradeAll(batch, tier.Name, err, results)
			progressUpdate(progress, results, total, tier.Name)
			continue
		}

		for _, c := range batch {
			cand, ok := found[c]
			if !ok {
				results[c] = unverifiedRecord(c, tier.Name)
				continue
			}
			rec := verifiedRecord(c, cand, tier.Name, "exact_citation", 0.95)
			results[c] = rec
			o.cache.Set(rec)
		}
		progressUpdate(progress, results, total, tier.Name)
	}
}

// runSingleTier resolves pending citations one at a time through the worker
// pool, with singleflight dedup so concurrent requests for the same
// citation share one external call.
func (o *Orchestrator) runSingleTier(ctx context.Context, tier Tier, pending []string, results map[string]model.VerificationRecord, progress ProgressFunc, total int) {
	pool := worker.NewPool(o.cfg.Workers)
	pool.Start()

	for _, c := range pending {
		pool.Submit(&searchJob{ctx: ctx, orch: o, tier: tier, citation: c})
	}

	for _, res := range pool.Wait() {
		sr := res.(*searchResult)
		results[sr.record.Citation] = sr.record
		progressUpdate(progress, results, total, tier.Name)
	}
}

type searchJob struct {
	ctx      context.Context
	orch     *Orchestrator
	tier     Tier
	citation string
}

type searchResult struct {
	record model.VerificationRecord
	err    error
}

func (r *searchResult) GetError() error { return r.err }

// Execute ignores the pool context: cancellation and the tier deadline flow
// through the context captured at submission.
func (j *searchJob) Execute(_ context.Context) worker.Result {
	rec, err := j.orch.searchOne(j.ctx, j.tier, j.citation)
	return &searchResult{record: rec, err: err}
}

// searchOne resolves a single citation through the tier's search endpoint,
// retrying per configuration. Concurrent calls for the same citation are
// collapsed into one in-flight request.
func (o *Orchestrator) searchOne(ctx context.Context, tier Tier, citation string) (model.VerificationRecord, error) {
	v, err, _ := o.group.Do(tier.Name+":"+citation, func() (interface{}, error) {
		if rec, ok := o.cache.Get(citation); ok {
			return rec, nil
		}

		var lastErr error
		for attempt := 0; attempt <= o.cfg.SearchRetries; attempt++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := o.limiter.Wait(ctx, tier.Source.Name()); err != nil {
				return nil, err
			}

			callCtx, cancel := context.WithTimeout(ctx, o.callTimeout())
			candidates, err := tier.Source.Search(callCtx, citation)
			cancel()
			if err != nil {
				lastErr = fmt.Errorf("search attempt %d: %w", attempt+1, err)
				continue
			}

			if len(candidates) == 0 {
				return unverifiedRecord(citation, tier.Name), nil
			}
			rec := verifiedRecord(citation, candidates[0], tier.Name, "search_match", 0.85)
			o.cache.Set(rec)
			return rec, nil
		}
		return nil, lastErr
	})
	if err != nil {
		return degradedRecord(citation, tier.Name, err), err
	}
	return v.(model.VerificationRecord), nil
}

func (o *Orchestrator) tierTimeout() time.Duration {
	if o.cfg.TierTimeout > 0 {
		return o.cfg.TierTimeout
	}
	return 2 * time.Minute
}

func (o *Orchestrator) callTimeout() time.Duration {
	if o.cfg.CallTimeout > 0 {
		return o.cfg.CallTimeout
	}
	return 15 * time.Second
}

func verifiedRecord(citation string, cand Candidate, tier, method string, confidence float64) model.VerificationRecord {
	return model.VerificationRecord{
		Citation:         citation,
		Verified:         true,
		CanonicalName:    cand.CaseName,
		CanonicalDate:    cand.DateFiled,
		CanonicalURL:     cand.URL,
		Confidence:       confidence,
		Source:           tier,
		ValidationMethod: method,
	}
}

func unverifiedRecord(citation, tier string) model.VerificationRecord {
	return model.VerificationRecord{
		Citation:         citation,
		Verified:         false,
		Source:           tier,
		ValidationMethod: "none",
	}
}

func degradedRecord(citation, tier string, err error) model.VerificationRecord {
	return model.VerificationRecord{
		Citation:         citation,
		Verified:         false,
		Confidence:       0,
		Source:           tier,
		ValidationMethod: "none",
		Error:            err.Error(),
	}
}

func degradeAll(citations []string, tier string, err error, results map[string]model.VerificationRecord) {
	for _, c := range citations {
		results[c] = degradedRecord(c, tier, err)
	}
}

func progressUpdate(progress ProgressFunc, results map[string]model.VerificationRecord, total int, method string) {
	progress(len(results), total, method)
}

func coverage(results map[string]model.VerificationRecord, total int) float64 {
	if total == 0 {
		return 1
	}
	verified := 0
	for _, r := range results {
		if r.Verified {
			verified++
		}
	}
	return float64(verified) / float64(total)
}

func unresolved(pending []string, results map[string]model.VerificationRecord) []string {
	out := pending[:0]
	for _, c := range pending {
		if rec, ok := results[c]; ok && rec.Verified {
			continue
		}
		out = append(out, c)
	}
	return out
}

func dedupe(citations []string) []string {
	seen := make(map[string]struct{}, len(citations))
	out := make([]string, 0, len(citations))
	for _, c := range citations {
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
