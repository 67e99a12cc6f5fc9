package extract

import "regexp"

// statuteRule masks a statutory-citation grammar so it can never be picked
// up as a case citation (U.S.C. volumes look a lot like reporter volumes).
type statuteRule struct {
	id string
	re *regexp.Regexp
}

var statuteRules = []statuteRule{
	{"usc", regexp.MustCompile(`\b\d{1,3}\s+U\.\s?S\.\s?C\.(?:A\.)?(?:\s*§{1,2}\s*[\w.\-()]+(?:\([a-z0-9]+\))*)?`)},
	{"cfr", regexp.MustCompile(`\b\d{1,3}\s+C\.\s?F\.\s?R\.(?:\s*§{1,2})?\s*[\d.]+`)},
	{"rcw", regexp.MustCompile(`\bRCW\s+\d[\w.]*`)},
	{"wac", regexp.MustCompile(`\bWAC\s+[\d\-.]+`)},
	{"public_law", regexp.MustCompile(`\bPub\.\s?L\.\s?(?:No\.\s?)?[\d\-]+`)},
	{"statutes_at_large", regexp.MustCompile(`\b\d{1,4}\s+Stat\.\s+\d+`)},
}

type maskRange struct {
	start, end int
}

// statuteMask returns the text ranges covered by statutory citations.
func statuteMask(text string) []maskRange {
	var masks []maskRange
	for _, rule := range statuteRules {
		for _, loc := range rule.re.FindAllStringIndex(text, -1) {
			masks = append(masks, maskRange{loc[0], loc[1]})
		}
	}
	return masks
}

// overlapsMask reports whether [start,end) intersects any masked range.
func overlapsMask(masks []maskRange, start, end int) bool {
	for _, m := range masks {
		if start < m.end && end > m.start {
			return true
		}
	}
	return false
}
