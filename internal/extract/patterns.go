package extract

import (
	"regexp"

	"github.com/mvickers/citecheck/internal/model"
)

// PatternRule is a named reporter grammar. Rules are kept as an ordered
// catalogue so each one can be unit-tested on its own and so more specific
// reporters (F. Supp.) are tried before the families they shadow (F.).
type PatternRule struct {
	ID     string
	Family model.ReporterFamily
	Weight float64 // Specificity weight used downstream for confidence
	re     *regexp.Regexp
}

// pinpointRe matches one trailing pinpoint page (", 495").
var pinpointRe = regexp.MustCompile(`^,\s*\d{1,5}`)

// catalogue is the ordered set of recognized reporter grammars.
// Each rule matches "<volume> <reporter> <page>" without pinpoints or the
// trailing parenthetical year; both are handled by the extractor.
var catalogue = []PatternRule{
	{
		ID:     "us_reports",
		Family: model.FamilyUSReports,
		Weight: 1.0,
		re:     regexp.MustCompile(`\b\d{1,4}\s+U\.\s?S\.\s+\d{1,5}\b`),
	},
	{
		ID:     "supreme_court_reporter",
		Family: model.FamilySupremeCourt,
		Weight: 1.0,
		re:     regexp.MustCompile(`\b\d{1,4}\s+S\.\s?Ct\.\s+\d{1,5}\b`),
	},
	{
		ID:     "lawyers_edition",
		Family: model.FamilyLawyersEd,
		Weight: 0.95,
		re:     regexp.MustCompile(`\b\d{1,4}\s+L\.\s?Ed\.(?:\s?2d)?\s+\d{1,5}\b`),
	},
	{
		ID:     "federal_supplement",
		Family: model.FamilyFedSupp,
		Weight: 0.95,
		re:     regexp.MustCompile(`\b\d{1,4}\s+F\.\s?Supp\.(?:\s?[23]d)?\s+\d{1,5}\b`),
	},
	{
		ID:     "federal_reporter",
		Family: model.FamilyFederal,
		Weight: 0.95,
		re:     regexp.MustCompile(`\b\d{1,4}\s+F\.(?:\s?(?:2d|3d|4th))?\s+\d{1,5}\b`),
	},
	{
		ID:     "washington_official",
		Family: model.FamilyWashington,
		Weight: 0.9,
		re:     regexp.MustCompile(`\b\d{1,4}\s+Wn\.(?:\s?2d|\s?App\.(?:\s?2d)?)?\s+\d{1,5}\b`),
	},
	{
		ID:     "washington_reports",
		Family: model.FamilyWashington,
		Weight: 0.9,
		re:     regexp.MustCompile(`\b\d{1,4}\s+Wash\.(?:\s?2d|\s?App\.)?\s+\d{1,5}\b`),
	},
	{
		ID:     "pacific_reporter",
		Family: model.FamilyPacific,
		Weight: 0.9,
		re:     regexp.MustCompile(`\b\d{1,4}\s+P\.(?:\s?[23]d)?\s+\d{1,5}\b`),
	},
	{
		ID:     "regional_reporter",
		Family: model.FamilyRegional,
		Weight: 0.8,
		re:     regexp.MustCompile(`\b\d{1,4}\s+(?:N\.\s?E\.|N\.\s?W\.|S\.\s?E\.|S\.\s?W\.|So\.|A\.)(?:\s?[23]d)?\s+\d{1,5}\b`),
	},
	{
		ID:     "westlaw",
		Family: model.FamilyWestlaw,
		Weight: 0.85,
		re:     regexp.MustCompile(`\b(?:(?:1[89]|20)\d{2}|2100)\s+WL\s+\d{1,10}\b`),
	},
}

// Catalogue returns the built-in pattern rules in match order.
func Catalogue() []PatternRule {
	return catalogue
}

// RuleWeight returns the specificity weight of a pattern rule, used by the
// attributor when scoring candidates. Unknown IDs weigh like the weakest rule.
func RuleWeight(patternID string) float64 {
	for _, rule := range catalogue {
		if rule.ID == patternID {
			return rule.Weight
		}
	}
	return 0.8
}
