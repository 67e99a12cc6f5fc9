package attribute

import (
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/mvickers/citecheck/internal/cache"
	"github.com/mvickers/citecheck/internal/extract"
	"github.com/mvickers/citecheck/internal/model"
)

// strategyName identifies an attribution strategy, tightest first.
const (
	StrategyAdjacent  = "case_name_adjacent"
	StrategySentence  = "sentence_window"
	StrategyParagraph = "paragraph_window"
	StrategyDocument  = "document_scan"
	StrategyYearOnly  = "year_only"
	StrategyNone      = "none"
)

// adjacentGap is how close (in bytes) a case name must end to the citation
// start to count as directly preceding it. Only comma/space glue may fill
// the gap.
const adjacentGap = 8

// candidate is one scored attribution outcome.
type candidate struct {
	name       string
	score      float64
	method     string
	windowSize int
	trailComma bool
}

// Attributor determines case name and year for citation spans using
// cross-validated window strategies with a bounded LRU result cache.
type Attributor struct {
	cfg    model.AttributionConfig
	cache  *lru.Cache[string, model.ExtractionResult]
	logger *zap.Logger
}

// NewAttributor creates an attributor. A nil logger is replaced with a nop.
func NewAttributor(cfg model.AttributionConfig, logger *zap.Logger) *Attributor {
	if logger == nil {
		logger = zap.NewNop()
	}
	size := cfg.CacheSize
	if size <= 0 {
		size = 4096
	}
	c, _ := lru.New[string, model.ExtractionResult](size)
	return &Attributor{
		cfg:    cfg,
		cache:  c,
		logger: logger,
	}
}

// Attribute resolves the case name and year for one span. prevEnd is the
// end offset of the previous citation span (0 for the first), which caps
// how far back any strategy may look so attribution never bleeds into a
// previously cited case's context. Fails soft: nil name/date, confidence 0.
func (a *Attributor) Attribute(text string, span model.CitationSpan, prevEnd int) model.ExtractionResult {
	fwdEnd := span.End + a.cfg.ForwardYearWindow
	if fwdEnd > len(text) {
		fwdEnd = len(text)
	}
	context := text[prevEnd:fwdEnd]
	key := cache.Key("attribution", context,
		strconv.Itoa(span.Start-prevEnd), strconv.Itoa(span.End-prevEnd))
	if hit, ok := a.cache.Get(key); ok {
		return hit
	}

	result := a.attribute(text, span, prevEnd, fwdEnd)
	a.cache.Add(key, result)
	return result
}

func (a *Attributor) attribute(text string, span model.CitationSpan, prevEnd, fwdEnd int) model.ExtractionResult {
	result := model.ExtractionResult{
		Citation: span.Text,
		Span:     span,
		Method:   StrategyNone,
	}

	// Year resolution is shared by all strategies.
	forward := text[span.End:fwdEnd]
	sentCtx := text[backWindow(text, span.Start, prevEnd, sentenceStart):span.Start]
	year := findYear(forward, sentCtx)

	best := a.crossValidate(text, span, prevEnd)
	if best == nil {
		// No name anywhere; a year alone still carries some signal.
		if year != nil {
			result.Date = &year.year
			result.Method = StrategyYearOnly
			result.Confidence = 0.3 * year.confidence
		}
		return result
	}

	score := best.score
	if year != nil {
		score = score*0.8 + year.confidence*0.2
		result.Date = &year.year
	} else {
		score = score * 0.8
	}
	score *= extract.RuleWeight(span.PatternID)
	if score > 1 {
		score = 1
	}

	result.CaseName = &best.name
	result.Method = best.method
	result.Confidence = score

	a.logger.Debug("attributed citation",
		zap.String("citation", span.Text),
		zap.String("method", best.method),
		zap.Float64("confidence", score))

	return result
}

// crossValidate runs the strategy chain tightest-first, widening only while
// nothing has been found, then keeps the single highest-scoring candidate.
// Ties favor the tightest window.
func (a *Attributor) crossValidate(text string, span model.CitationSpan, prevEnd int) *candidate {
	strategies := []struct {
		name string
		run  func() []candidate
	}{
		{StrategyAdjacent, func() []candidate { return a.adjacentCandidates(text, span, prevEnd) }},
		{StrategySentence, func() []candidate { return a.windowCandidates(text, span, prevEnd, sentenceStart, StrategySentence, 0.7) }},
		{StrategyParagraph, func() []candidate { return a.windowCandidates(text, span, prevEnd, paragraphStart, StrategyParagraph, 0.55) }},
		{StrategyDocument, func() []candidate { return a.windowCandidates(text, span, prevEnd, func(string, int) int { return 0 }, StrategyDocument, 0.35) }},
	}

	var pool []candidate
	for _, s := range strategies {
		pool = append(pool, s.run()...)
		if len(pool) > 0 {
			break // Tighter window succeeded; don't widen.
		}
	}
	if len(pool) == 0 {
		return nil
	}

	best := &pool[0]
	for i := 1; i < len(pool); i++ {
		c := &pool[i]
		if c.score > best.score || (c.score == best.score && c.windowSize < best.windowSize) {
			best = c
		}
	}
	return best
}

// adjacentCandidates finds a case name ending directly before the citation
// within the tight (sentence-bounded) window.
func (a *Attributor) adjacentCandidates(text string, span model.CitationSpan, prevEnd int) []candidate {
	start := backWindow(text, span.Start, prevEnd, sentenceStart)
	window := text[start:span.Start]
	matches := findNames(window)

	var out []candidate
	for _, m := range matches {
		gap := window[m.end:]
		if len(strings.TrimSpace(strings.Trim(gap, ", "))) > 0 || len(gap) > adjacentGap {
			continue
		}
		if !a.nameLengthOK(m.name) {
			continue
		}
		out = append(out, a.scored(m.name, StrategyAdjacent, 0.85, len(window), strings.Contains(gap, ",")))
	}
	return out
}

// windowCandidates finds the name nearest the citation within a wider
// window, scored by that window's base confidence.
func (a *Attributor) windowCandidates(text string, span model.CitationSpan, prevEnd int, bound func(string, int) int, method string, base float64) []candidate {
	start := backWindow(text, span.Start, prevEnd, bound)
	window := text[start:span.Start]
	m := lastNameBefore(findNames(window))
	if m == nil || !a.nameLengthOK(m.name) {
		return nil
	}
	gap := window[m.end:]
	return []candidate{a.scored(m.name, method, base, len(window), strings.Contains(gap, ","))}
}

// scored applies the structural confidence signals to a raw match.
func (a *Attributor) scored(name, method string, base float64, windowSize int, trailComma bool) candidate {
	score := base
	if strings.Contains(name, " v. ") || strings.Contains(name, " vs. ") ||
		strings.HasPrefix(name, "In re") || strings.HasPrefix(name, "Estate of") ||
		strings.HasPrefix(name, "Ex parte") || strings.HasPrefix(name, "Matter of") {
		score += 0.05
	}
	if trailComma {
		score += 0.05
	}
	if score > 1 {
		score = 1
	}
	return candidate{
		name:       name,
		score:      score,
		method:     method,
		windowSize: windowSize,
		trailComma: trailComma,
	}
}

func (a *Attributor) nameLengthOK(name string) bool {
	minLen := a.cfg.MinNameLength
	maxLen := a.cfg.MaxNameLength
	if minLen <= 0 {
		minLen = 10
	}
	if maxLen <= 0 {
		maxLen = 200
	}
	return len(name) >= minLen && len(name) <= maxLen
}

// CacheLen reports how many attribution results are cached, for diagnostics.
func (a *Attributor) CacheLen() int {
	return a.cache.Len()
}
