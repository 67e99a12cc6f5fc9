package attribute

import (
	"regexp"
	"strings"
)

// Case-name grammar building blocks. A party is a capitalized token
// followed by more capitalized tokens and a small set of connectors.
const (
	partyToken = `[A-Z][A-Za-z0-9'.&\-]*`
	partySeg   = partyToken + `(?:,? (?:` + partyToken + `|of|et al\.|ex rel\.))*`
)

// nameRule is one named case-name pattern. Keeping the catalogue as an
// ordered list of named rules lets each one be unit-tested on its own.
type nameRule struct {
	id string
	re *regexp.Regexp
}

var nameRules = []nameRule{
	{"party_v_party", regexp.MustCompile(partySeg + `\s+vs?\.\s+` + partySeg)},
	{"in_re", regexp.MustCompile(`In re (?:the )?` + partySeg)},
	{"matter_of", regexp.MustCompile(`(?:In the )?Matter of ` + partySeg)},
	{"estate_of", regexp.MustCompile(`Estate of ` + partySeg)},
	{"ex_parte", regexp.MustCompile(`Ex parte ` + partySeg)},
}

// nameMatch is one case-name hit inside a window.
type nameMatch struct {
	name   string
	start  int // Offsets relative to the window
	end    int
	ruleID string
}

// findNames returns every case-name match in the window, in rule order
// then position order.
func findNames(window string) []nameMatch {
	var out []nameMatch
	for _, rule := range nameRules {
		for _, loc := range rule.re.FindAllStringIndex(window, -1) {
			name := cleanName(window[loc[0]:loc[1]])
			if name == "" {
				continue
			}
			out = append(out, nameMatch{
				name:   name,
				start:  loc[0],
				end:    loc[1],
				ruleID: rule.id,
			})
		}
	}
	return out
}

// lastNameBefore picks the match that ends nearest the window end, which is
// the name directly preceding the citation. Ties go to the earlier rule.
func lastNameBefore(matches []nameMatch) *nameMatch {
	var best *nameMatch
	for i := range matches {
		m := &matches[i]
		if best == nil || m.end > best.end {
			best = m
		}
	}
	return best
}

// cleanName trims citation-status leftovers from a matched name.
func cleanName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.Trim(name, ",;:")
	// Signal words glued to the front by the capitalized-token grammar.
	for _, prefix := range []string{"See ", "Accord ", "Cf. ", "Compare ", "In "} {
		if !strings.HasPrefix(name, "In re") {
			name = strings.TrimPrefix(name, prefix)
		}
	}
	return strings.TrimSpace(name)
}

// Year extraction rules, strongest first.
var (
	parenYearRe = regexp.MustCompile(`\(([^)]*?)((?:(?:1[89]|20)\d{2}|2100))\)`)
	bareYearRe  = regexp.MustCompile(`\b((?:(?:1[89]|20)\d{2}|2100))\b`)
)

// yearCandidate is a year plus the confidence of the rule that found it.
type yearCandidate struct {
	year       string
	confidence float64
}

// findYear resolves the citation year. A parenthesized year immediately
// after the citation wins; a bare year in the short forward window is
// weaker; any valid year in the wider context is weakest.
func findYear(forward, context string) *yearCandidate {
	if m := parenYearRe.FindStringSubmatch(forward); m != nil {
		return &yearCandidate{year: m[2], confidence: 0.95}
	}
	if m := bareYearRe.FindStringSubmatch(forward); m != nil {
		return &yearCandidate{year: m[1], confidence: 0.7}
	}
	if m := bareYearRe.FindStringSubmatch(context); m != nil {
		return &yearCandidate{year: m[1], confidence: 0.4}
	}
	return nil
}
