package attribute

import "strings"

// Abbreviations whose trailing period never ends a sentence. Keeps the
// back boundary from landing in the middle of "Brown v. Board" or "Wn. App.".
var nonTerminalAbbrevs = map[string]bool{
	"v":    true,
	"vs":   true,
	"no":   true,
	"nos":  true,
	"inc":  true,
	"corp": true,
	"co":   true,
	"ltd":  true,
	"u.s":  true,
	"wn":   true,
	"wash": true,
	"app":  true,
	"f":    true,
	"p":    true,
	"l":    true,
	"ed":   true,
	"ct":   true,
	"supp": true,
	"cir":  true,
	"al":   true,
	"rev":  true,
	"stat": true,
}

// paragraphStart returns the offset just after the nearest blank line
// before pos, or 0.
func paragraphStart(text string, pos int) int {
	if pos > len(text) {
		pos = len(text)
	}
	idx := strings.LastIndex(text[:pos], "\n\n")
	if idx < 0 {
		return 0
	}
	return idx + 2
}

// sentenceStart returns the offset just after the nearest sentence
// terminator before pos, skipping abbreviation periods.
func sentenceStart(text string, pos int) int {
	if pos > len(text) {
		pos = len(text)
	}
	for i := pos - 1; i > 0; i-- {
		c := text[i-1]
		if c != '.' && c != '!' && c != '?' && c != '\n' {
			continue
		}
		if i < len(text) && text[i] != ' ' && text[i] != '\t' && text[i] != '\n' {
			continue
		}
		if c == '.' && isAbbreviationAt(text, i-1) {
			continue
		}
		// Skip whitespace after the terminator.
		j := i
		for j < pos && (text[j] == ' ' || text[j] == '\t' || text[j] == '\n') {
			j++
		}
		return j
	}
	return 0
}

// isAbbreviationAt reports whether the period at dot ends a known
// non-terminal abbreviation or a single capital initial.
func isAbbreviationAt(text string, dot int) bool {
	start := dot
	for start > 0 {
		c := text[start-1]
		if c == ' ' || c == '\t' || c == '\n' || c == '(' || c == ',' {
			break
		}
		start--
	}
	token := strings.ToLower(strings.TrimSuffix(text[start:dot], "."))
	token = strings.TrimSuffix(token, ".")
	if token == "" {
		return false
	}
	if len(token) == 1 {
		return true // Single initial, "J." or "v."
	}
	return nonTerminalAbbrevs[token]
}

// backWindow computes the adaptive back boundary for a citation at start:
// never before the end of the previous citation, never across the
// containing boundary returned by bound.
func backWindow(text string, start, prevEnd int, bound func(string, int) int) int {
	b := bound(text, start)
	if prevEnd > b {
		return prevEnd
	}
	return b
}
