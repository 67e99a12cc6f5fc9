package cluster

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/mvickers/citecheck/internal/attribute"
	"github.com/mvickers/citecheck/internal/model"
)

// forwardYearScan bounds how far past the last member the builder looks for
// the shared parenthesized year.
const forwardYearScan = 100

var clusterYearRe = regexp.MustCompile(`\(([^)]*?)((?:(?:1[89]|20)\d{2}|2100))\)`)

// Builder groups parallel citations of the same case. A contiguous run of
// citations sharing the same nearest-preceding case-name span is one
// cluster; the run ends where the next case-name span appears. When that
// primary signal is ambiguous, two citations merge only when at least two
// secondary signals corroborate. Adjacency alone never merges.
type Builder struct {
	proximity int
	logger    *zap.Logger
}

// NewBuilder creates a cluster builder. A nil logger is replaced with a nop.
func NewBuilder(cfg model.ClusteringConfig, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	proximity := cfg.ProximityChars
	if proximity <= 0 {
		proximity = 400
	}
	return &Builder{proximity: proximity, logger: logger}
}

// Build runs a single pass over the extraction results (ordered by offset)
// and produces immutable clusters. Membership is never revisited.
func (b *Builder) Build(text string, results []model.ExtractionResult) []model.Cluster {
	if len(results) == 0 {
		return nil
	}

	var clusters []model.Cluster
	var current []model.ExtractionResult

	flush := func() {
		if len(current) == 0 {
			return
		}
		clusters = append(clusters, b.finalize(text, current, len(clusters)+1))
		current = nil
	}

	for i, r := range results {
		if len(current) == 0 {
			current = append(current, r)
			continue
		}
		if b.sameCase(current, results[i-1], r) {
			current = append(current, r)
			continue
		}
		flush()
		current = append(current, r)
	}
	flush()

	return clusters
}

// sameCase decides whether next continues the current run.
func (b *Builder) sameCase(run []model.ExtractionResult, prev, next model.ExtractionResult) bool {
	anchor := run[0]

	// A citation with its own directly-preceding case name starts a new
	// cluster: a fresh name span ends the parallel run.
	if next.CaseName != nil && next.Method == attribute.StrategyAdjacent {
		return false
	}

	// Primary signal: no intervening name span means the nearest preceding
	// name span is still the run's anchor. That holds only when the run has
	// an anchor name at all; two nameless citations back-to-back are just
	// consecutive citations, not a parallel list.
	if next.CaseName == nil {
		if yearsConflict(anchor, next) {
			return false
		}
		if anchor.CaseName != nil && nearlyAdjacent(prev, next) {
			return true
		}
		return b.corroborated(anchor, prev, next) >= 2
	}

	// The citation picked up a name from a wider window. If it is the
	// anchor's own name the run continues.
	if anchor.CaseName != nil && strings.EqualFold(*next.CaseName, *anchor.CaseName) {
		return true
	}

	// Ambiguous: require at least two corroborating signals.
	return b.corroborated(anchor, prev, next) >= 2
}

// nearlyAdjacent reports whether only pinpoint/punctuation glue separates
// two spans, the shape of a parallel citation list.
func nearlyAdjacent(prev, next model.ExtractionResult) bool {
	return next.Span.Start-prev.Span.End <= 12
}

// yearsConflict reports whether both citations carry extracted years and
// they differ. Conflicting years veto a merge regardless of adjacency.
func yearsConflict(a, b model.ExtractionResult) bool {
	return a.Date != nil && b.Date != nil && *a.Date != *b.Date
}

// corroborated counts the secondary merge signals between the run anchor
// and a candidate member.
func (b *Builder) corroborated(anchor, prev, next model.ExtractionResult) int {
	signals := 0

	if anchor.CaseName != nil && next.CaseName != nil &&
		namesCorroborate(*anchor.CaseName, *next.CaseName) {
		signals++
	}
	if next.Span.Start-prev.Span.End <= b.proximity {
		signals++
	}
	if anchor.Date != nil && next.Date != nil && *anchor.Date == *next.Date {
		signals++
	}

	return signals
}

// namesCorroborate reports whether two extracted names share at least two
// significant tokens or one contains the other.
func namesCorroborate(a, bName string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(bName)
	if strings.Contains(la, lb) || strings.Contains(lb, la) {
		return true
	}
	return sharedSignificantTokens(la, lb) >= 2
}

var insignificantTokens = map[string]bool{
	"v": true, "vs": true, "of": true, "the": true, "in": true, "re": true,
	"llc": true, "inc": true, "corp": true, "co": true, "ltd": true,
	"state": true, "united": true, "states": true, "estate": true,
}

func sharedSignificantTokens(a, b string) int {
	tokens := func(s string) map[string]bool {
		out := make(map[string]bool)
		for _, t := range strings.FieldsFunc(s, func(r rune) bool {
			return r == ' ' || r == ',' || r == '.' || r == ';'
		}) {
			if len(t) > 1 && !insignificantTokens[t] {
				out[t] = true
			}
		}
		return out
	}

	ta, tb := tokens(a), tokens(b)
	shared := 0
	for t := range ta {
		if tb[t] {
			shared++
		}
	}
	return shared
}

// finalize builds the immutable cluster for a finished run: the shared name
// comes from the first member that has one, and the shared year is scanned
// forward from the end of the LAST member, where the year conventionally
// follows the full parallel citation list.
func (b *Builder) finalize(text string, members []model.ExtractionResult, ordinal int) model.Cluster {
	c := model.Cluster{
		ID:         fmt.Sprintf("cluster-%d", ordinal),
		Members:    members,
		IsParallel: len(members) > 1,
	}

	for _, m := range members {
		if m.CaseName != nil {
			c.CaseName = m.CaseName
			break
		}
	}

	if year := b.yearAfter(text, members[len(members)-1].Span.End); year != "" {
		c.Year = &year
	} else {
		// Fall back to any member's extracted date.
		for _, m := range members {
			if m.Date != nil {
				c.Year = m.Date
				break
			}
		}
	}

	b.logger.Debug("built cluster",
		zap.String("cluster", c.ID),
		zap.Int("members", len(members)),
		zap.Bool("parallel", c.IsParallel))

	return c
}

// yearAfter finds the nearest parenthesized year after offset.
func (b *Builder) yearAfter(text string, offset int) string {
	end := offset + forwardYearScan
	if end > len(text) {
		end = len(text)
	}
	if m := clusterYearRe.FindStringSubmatch(text[offset:end]); m != nil {
		return m[2]
	}
	return ""
}
