package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/mvickers/citecheck/internal/model"
)

var ocrTokenRe = regexp.MustCompile(`[A-Za-z01]{3,}`)

// Extractor finds case citation spans in document text. It never errors:
// malformed or empty text yields zero citations.
type Extractor struct {
	rules []PatternRule
}

// NewExtractor creates an extractor with the built-in reporter catalogue.
func NewExtractor() *Extractor {
	return &Extractor{rules: Catalogue()}
}

// Extract returns the ordered, non-overlapping citation spans in text.
// Statutory citations (U.S.C., C.F.R., RCW, WAC and friends) are masked
// first so they can never surface as case citations. Duplicate citations
// keep only their first occurrence.
func (e *Extractor) Extract(text string) []model.CitationSpan {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	masks := statuteMask(text)

	// Collect core matches (volume reporter page) from every rule.
	var cores []model.CitationSpan
	for _, rule := range e.rules {
		for _, loc := range rule.re.FindAllStringIndex(text, -1) {
			if overlapsMask(masks, loc[0], loc[1]) {
				continue
			}
			cores = append(cores, model.CitationSpan{
				Text:      text[loc[0]:loc[1]],
				Start:     loc[0],
				End:       loc[1],
				Reporter:  rule.Family,
				PatternID: rule.ID,
			})
		}
	}
	if len(cores) == 0 {
		return nil
	}

	cores = resolveOverlaps(cores)
	cores = extendPinpoints(text, cores)
	cores = dedupeSpans(cores)

	return cores
}

// resolveOverlaps keeps one span per text region: longer matches win, and
// on equal length catalogue order (earlier rule) wins. Input order follows
// catalogue order, so a stable sort by position preserves that preference.
func resolveOverlaps(spans []model.CitationSpan) []model.CitationSpan {
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].Start != spans[j].Start {
			return spans[i].Start < spans[j].Start
		}
		return spans[i].End-spans[i].Start > spans[j].End-spans[j].Start
	})

	var out []model.CitationSpan
	for _, s := range spans {
		if len(out) == 0 {
			out = append(out, s)
			continue
		}
		last := &out[len(out)-1]
		if s.Start >= last.End {
			out = append(out, s)
			continue
		}
		// Overlap: keep whichever span is longer.
		if s.End-s.Start > last.End-last.Start {
			*last = s
		}
	}
	return out
}

// extendPinpoints grows each span over trailing pinpoint pages (", 73")
// but never into the volume number of the next citation. That guard is what
// keeps "200 Wn.2d 72, 73, 514 P.3d 643" from swallowing the parallel cite.
func extendPinpoints(text string, spans []model.CitationSpan) []model.CitationSpan {
	for i := range spans {
		nextStart := len(text)
		if i+1 < len(spans) {
			nextStart = spans[i+1].Start
		}
		for {
			rest := text[spans[i].End:]
			loc := pinpointRe.FindStringIndex(rest)
			if loc == nil {
				break
			}
			end := spans[i].End + loc[1]
			if end > nextStart {
				break
			}
			spans[i].End = end
			spans[i].Text = text[spans[i].Start:spans[i].End]
		}
	}
	return spans
}

// dedupeSpans drops later occurrences of the same normalized citation.
func dedupeSpans(spans []model.CitationSpan) []model.CitationSpan {
	seen := make(map[string]bool)
	var out []model.CitationSpan
	for _, s := range spans {
		key := NormalizeCitation(s.Text)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}

var (
	spaceRe        = regexp.MustCompile(`\s+`)
	pinpointTailRe = regexp.MustCompile(`^(?:,\s*\d{1,5})+$`)
)

// NormalizeCitation collapses whitespace, strips trailing punctuation, and
// drops pinpoint pages so parallel mentions of one citation compare equal.
func NormalizeCitation(citation string) string {
	c := spaceRe.ReplaceAllString(strings.TrimSpace(citation), " ")
	c = strings.TrimRight(c, ",.;")
	// Strip pinpoints: everything from the first ", <digits>" suffix run.
	if idx := strings.Index(c, ","); idx > 0 {
		if pinpointTailRe.MatchString(c[idx:]) {
			c = c[:idx]
		}
	}
	return c
}
