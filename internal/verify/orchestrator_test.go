package verify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mvickers/citecheck/internal/cache"
	"github.com/mvickers/citecheck/internal/model"
)

// fakeSource is a scriptable in-memory Source that counts calls.
type fakeSource struct {
	mu          sync.Mutex
	name        string
	lookupCalls int
	searchCalls int
	lookupFn    func(citations []string) (map[string]Candidate, error)
	searchFn    func(citation string) ([]Candidate, error)
	searchDelay time.Duration
}

func (f *fakeSource) Name() string {
	if f.name != "" {
		return f.name
	}
	return "fake"
}

func (f *fakeSource) Lookup(ctx context.Context, citations []string) (map[string]Candidate, error) {
	f.mu.Lock()
	f.lookupCalls++
	f.mu.Unlock()
	if f.lookupFn == nil {
		return map[string]Candidate{}, nil
	}
	return f.lookupFn(citations)
}

func (f *fakeSource) Search(ctx context.Context, citation string) ([]Candidate, error) {
	f.mu.Lock()
	f.searchCalls++
	f.mu.Unlock()
	if f.searchDelay > 0 {
		select {
		case <-time.After(f.searchDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.searchFn == nil {
		return nil, nil
	}
	return f.searchFn(citation)
}

func (f *fakeSource) calls() (lookup, search int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lookupCalls, f.searchCalls
}

func testConfig() model.VerificationConfig {
	cfg := model.DefaultConfig().Verification
	cfg.Enabled = true
	cfg.RequestsPerMinute = 60000 // Keep the limiter out of timing-sensitive tests
	return cfg
}

func candidateFor(citation string) Candidate {
	return Candidate{
		CaseName:  "Case for " + citation,
		DateFiled: "1954-05-17",
		URL:       "https://example.org/opinion/" + citation,
	}
}

func TestVerify_CoverageShortCircuit(t *testing.T) {
	// Tier 1 resolves 3 of 4 citations (coverage 0.75 >= 0.70), so tier 2
	// must never be invoked.
	batch := &fakeSource{
		lookupFn: func(citations []string) (map[string]Candidate, error) {
			found := make(map[string]Candidate)
			for _, c := range citations {
				if c != "999 U.S. 999" {
					found[c] = candidateFor(c)
				}
			}
			return found, nil
		},
	}
	search := &fakeSource{name: "search_source"}

	tiers := []Tier{
		{Name: "citation_lookup", Source: batch, Batch: true},
		{Name: "search", Source: search, Batch: false},
	}
	orch := NewOrchestrator(testConfig(), tiers, nil, nil)

	citations := []string{"347 U.S. 483", "384 U.S. 436", "392 U.S. 1", "999 U.S. 999"}
	results, err := orch.Verify(context.Background(), citations, nil)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}

	if _, searchCalls := search.calls(); searchCalls != 0 {
		t.Errorf("coverage threshold reached after tier 1, but search tier was called %d times", searchCalls)
	}

	verified := 0
	for _, rec := range results {
		if rec.Verified {
			verified++
		}
	}
	if verified != 3 {
		t.Errorf("expected 3 verified, got %d", verified)
	}
	if rec := results["999 U.S. 999"]; rec.Verified || rec.Source != "citation_lookup" {
		t.Errorf("unresolved citation should keep the last attempted tier: %+v", rec)
	}
}

func TestVerify_LowCoverageFallsThroughTiers(t *testing.T) {
	batch := &fakeSource{
		lookupFn: func(citations []string) (map[string]Candidate, error) {
			// Resolves only 1 of 4: coverage 0.25 < 0.70.
			return map[string]Candidate{citations[0]: candidateFor(citations[0])}, nil
		},
	}
	search := &fakeSource{
		searchFn: func(citation string) ([]Candidate, error) {
			return []Candidate{candidateFor(citation)}, nil
		},
	}

	tiers := []Tier{
		{Name: "citation_lookup", Source: batch, Batch: true},
		{Name: "search", Source: search, Batch: false},
	}
	orch := NewOrchestrator(testConfig(), tiers, nil, nil)

	citations := []string{"347 U.S. 483", "384 U.S. 436", "392 U.S. 1", "200 Wn.2d 72"}
	results, err := orch.Verify(context.Background(), citations, nil)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}

	if _, searchCalls := search.calls(); searchCalls != 3 {
		t.Errorf("expected search tier to handle the 3 unresolved citations, got %d calls", searchCalls)
	}
	for _, c := range citations {
		if !results[c].Verified {
			t.Errorf("%s not verified: %+v", c, results[c])
		}
	}
	if rec := results["384 U.S. 436"]; rec.Source != "search" || rec.ValidationMethod != "search_match" {
		t.Errorf("search-resolved record mis-tagged: %+v", rec)
	}
}

func TestVerify_BatchFailureDegradesWholeBatch(t *testing.T) {
	// An HTTP 500 from the batch endpoint must degrade every citation in
	// the batch and still let the run complete.
	batch := &fakeSource{
		lookupFn: func([]string) (map[string]Candidate, error) {
			return nil, errors.New("unexpected status: 500 Internal Server Error")
		},
	}
	tiers := []Tier{{Name: "citation_lookup", Source: batch, Batch: true}}
	orch := NewOrchestrator(testConfig(), tiers, nil, nil)

	citations := []string{"347 U.S. 483", "384 U.S. 436", "392 U.S. 1"}
	results, err := orch.Verify(context.Background(), citations, nil)
	if err != nil {
		t.Fatalf("batch failure must not fail the run: %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("expected 3 records, got %d", len(results))
	}
	for _, c := range citations {
		rec := results[c]
		if rec.Verified {
			t.Errorf("%s: degraded record marked verified", c)
		}
		if rec.Source != "citation_lookup" {
			t.Errorf("%s: expected source citation_lookup, got %q", c, rec.Source)
		}
		if rec.Confidence != 0 {
			t.Errorf("%s: degraded confidence should be 0, got %v", c, rec.Confidence)
		}
		if rec.Error == "" {
			t.Errorf("%s: degraded record missing error", c)
		}
	}
}

func TestVerify_SingleFlightCollapsesConcurrentCalls(t *testing.T) {
	search := &fakeSource{
		searchDelay: 100 * time.Millisecond,
		searchFn: func(citation string) ([]Candidate, error) {
			return []Candidate{candidateFor(citation)}, nil
		},
	}
	tiers := []Tier{{Name: "search", Source: search, Batch: false}}
	orch := NewOrchestrator(testConfig(), tiers, nil, nil)

	const citation = "347 U.S. 483"
	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make(chan error, 2)

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			results, err := orch.Verify(context.Background(), []string{citation}, nil)
			if err != nil {
				errs <- err
				return
			}
			if !results[citation].Verified {
				errs <- errors.New("citation not verified")
			}
		}()
	}
	close(start)
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}

	if _, searchCalls := search.calls(); searchCalls != 1 {
		t.Errorf("expected concurrent requests to share one external call, got %d", searchCalls)
	}
}

func TestVerify_SearchRetriesThenDegrades(t *testing.T) {
	search := &fakeSource{
		searchFn: func(string) ([]Candidate, error) {
			return nil, errors.New("unexpected status: 502 Bad Gateway")
		},
	}
	cfg := testConfig()
	cfg.SearchRetries = 2
	tiers := []Tier{{Name: "search", Source: search, Batch: false}}
	orch := NewOrchestrator(cfg, tiers, nil, nil)

	results, err := orch.Verify(context.Background(), []string{"347 U.S. 483"}, nil)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}

	if _, searchCalls := search.calls(); searchCalls != 3 {
		t.Errorf("expected 1 attempt + 2 retries, got %d calls", searchCalls)
	}
	rec := results["347 U.S. 483"]
	if rec.Verified || rec.Error == "" || rec.Source != "search" {
		t.Errorf("expected degraded record after retries, got %+v", rec)
	}
}

func TestVerify_CacheHitSkipsSource(t *testing.T) {
	recCache := NewRecordCache(cache.NewMemoryCache(time.Hour, 0), time.Hour)
	recCache.Set(model.VerificationRecord{
		Citation:      "347 U.S. 483",
		Verified:      true,
		CanonicalName: "Brown v. Board of Education",
		Source:        "citation_lookup",
	})

	batch := &fakeSource{}
	tiers := []Tier{{Name: "citation_lookup", Source: batch, Batch: true}}
	orch := NewOrchestrator(testConfig(), tiers, recCache, nil)

	results, err := orch.Verify(context.Background(), []string{"347 U.S. 483"}, nil)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if lookupCalls, _ := batch.calls(); lookupCalls != 0 {
		t.Errorf("cached citation still hit the source %d times", lookupCalls)
	}
	if rec := results["347 U.S. 483"]; !rec.Verified || rec.CanonicalName != "Brown v. Board of Education" {
		t.Errorf("cache record not returned: %+v", rec)
	}
}

func TestVerify_FallbackTierReturnsUnverified(t *testing.T) {
	tiers := []Tier{{Name: "fallback", Source: StubSource{}, Batch: false}}
	orch := NewOrchestrator(testConfig(), tiers, nil, nil)

	results, err := orch.Verify(context.Background(), []string{"347 U.S. 483"}, nil)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	rec := results["347 U.S. 483"]
	if rec.Verified || rec.Source != "fallback" || rec.Error != "" {
		t.Errorf("fallback should yield a clean unverified record, got %+v", rec)
	}
}

func TestVerify_DeduplicatesInput(t *testing.T) {
	batch := &fakeSource{
		lookupFn: func(citations []string) (map[string]Candidate, error) {
			if len(citations) != 2 {
				t.Errorf("expected 2 distinct citations in batch, got %d", len(citations))
			}
			found := make(map[string]Candidate)
			for _, c := range citations {
				found[c] = candidateFor(c)
			}
			return found, nil
		},
	}
	tiers := []Tier{{Name: "citation_lookup", Source: batch, Batch: true}}
	orch := NewOrchestrator(testConfig(), tiers, nil, nil)

	results, err := orch.Verify(context.Background(),
		[]string{"347 U.S. 483", "347 U.S. 483", "392 U.S. 1", ""}, nil)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 records, got %d", len(results))
	}
}

func TestVerify_CancelBetweenTiers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	batch := &fakeSource{
		lookupFn: func([]string) (map[string]Candidate, error) {
			cancel() // Cancel while tier 1 is in flight
			return map[string]Candidate{}, nil
		},
	}
	search := &fakeSource{}
	tiers := []Tier{
		{Name: "citation_lookup", Source: batch, Batch: true},
		{Name: "search", Source: search, Batch: false},
	}
	orch := NewOrchestrator(testConfig(), tiers, nil, nil)

	_, err := orch.Verify(ctx, []string{"347 U.S. 483"}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, searchCalls := search.calls(); searchCalls != 0 {
		t.Errorf("canceled run still invoked the next tier %d times", searchCalls)
	}
}

func TestVerify_ProgressReporting(t *testing.T) {
	batch := &fakeSource{
		lookupFn: func(citations []string) (map[string]Candidate, error) {
			found := make(map[string]Candidate)
			for _, c := range citations {
				found[c] = candidateFor(c)
			}
			return found, nil
		},
	}
	tiers := []Tier{{Name: "citation_lookup", Source: batch, Batch: true}}
	orch := NewOrchestrator(testConfig(), tiers, nil, nil)

	var mu sync.Mutex
	var lastProcessed, lastTotal int
	var lastMethod string
	progress := func(processed, total int, method string) {
		mu.Lock()
		lastProcessed, lastTotal, lastMethod = processed, total, method
		mu.Unlock()
	}

	if _, err := orch.Verify(context.Background(), []string{"347 U.S. 483", "392 U.S. 1"}, progress); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if lastProcessed != 2 || lastTotal != 2 {
		t.Errorf("expected final progress 2/2, got %d/%d", lastProcessed, lastTotal)
	}
	if lastMethod != "citation_lookup" {
		t.Errorf("expected method citation_lookup, got %q", lastMethod)
	}
}

func TestVerify_Empty(t *testing.T) {
	orch := NewOrchestrator(testConfig(), DefaultTiers(&fakeSource{}), nil, nil)
	results, err := orch.Verify(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no records, got %d", len(results))
	}
}

func TestVerify_SequentialCallsAreRateLimited(t *testing.T) {
	// The per-source limiter carries a burst of one, so N sequential calls
	// to the same source take at least (N-1) intervals even on a cold
	// orchestrator.
	src := &fakeSource{
		lookupFn: func(citations []string) (map[string]Candidate, error) {
			found := make(map[string]Candidate, len(citations))
			for _, c := range citations {
				found[c] = candidateFor(c)
			}
			return found, nil
		},
	}
	cfg := testConfig()
	cfg.RequestsPerMinute = 1200 // 50ms interval
	cfg.BatchSize = 1            // one external call per citation

	orch := NewOrchestrator(cfg, []Tier{{Name: "citation_lookup", Source: src, Batch: true}}, nil, nil)

	start := time.Now()
	citations := []string{"347 U.S. 483", "384 U.S. 436", "392 U.S. 1"}
	if _, err := orch.Verify(context.Background(), citations, nil); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	elapsed := time.Since(start)

	if lookups, _ := src.calls(); lookups != 3 {
		t.Fatalf("expected 3 lookup calls, got %d", lookups)
	}
	if min := 100 * time.Millisecond; elapsed < min {
		t.Errorf("3 sequential calls at 1200 rpm finished in %v, want >= %v", elapsed, min)
	}
}
