package extract

import (
	"strings"
	"unicode"

	"github.com/mvickers/citecheck/internal/model"
)

// ocrTokenRe is defined in extractor.go's package scope to keep regexes together.

// NormalizeOCR fixes common OCR character confusions (0/O, 1/l/I) in
// alphabetic tokens of the surrounding text. Matched citation spans are
// never rewritten, and replacements are always the same length so span
// offsets stay valid on the normalized copy.
func NormalizeOCR(text string, protect []model.CitationSpan) string {
	if text == "" {
		return text
	}

	out := []byte(text)
	locs := ocrTokenRe.FindAllStringIndex(text, -1)
	for _, loc := range locs {
		if overlapsSpan(protect, loc[0], loc[1]) {
			continue
		}
		token := text[loc[0]:loc[1]]
		if !safeOCRToken(token) {
			continue
		}
		fixed := fixToken(token)
		copy(out[loc[0]:loc[1]], fixed)
	}
	return string(out)
}

// safeOCRToken accepts tokens that are clearly words with digit intrusions:
// at least two letters and at least one 0 or 1. Digit-dominant tokens are
// left alone so volumes and page numbers survive untouched.
func safeOCRToken(token string) bool {
	letters, suspects, digits := 0, 0, 0
	for _, r := range token {
		switch {
		case r == '0' || r == '1':
			suspects++
		case unicode.IsDigit(r):
			digits++
		case unicode.IsLetter(r):
			letters++
		}
	}
	return suspects > 0 && digits == 0 && letters >= 2 && letters > suspects
}

// fixToken replaces 0/1 with the letter matching the token's case.
func fixToken(token string) string {
	upper := 0
	for _, r := range token {
		if unicode.IsUpper(r) {
			upper++
		}
	}
	mostlyUpper := upper*2 > len(token)

	var b strings.Builder
	b.Grow(len(token))
	for _, r := range token {
		switch r {
		case '0':
			if mostlyUpper {
				b.WriteRune('O')
			} else {
				b.WriteRune('o')
			}
		case '1':
			if mostlyUpper {
				b.WriteRune('I')
			} else {
				b.WriteRune('l')
			}
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func overlapsSpan(spans []model.CitationSpan, start, end int) bool {
	for _, s := range spans {
		if start < s.End && end > s.Start {
			return true
		}
	}
	return false
}
