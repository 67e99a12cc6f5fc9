package guard

import (
	"strings"

	"github.com/agnivade/levenshtein"
	"go.uber.org/zap"

	"github.com/mvickers/citecheck/internal/model"
)

// Health tags for the batch report.
const (
	HealthGood     = "GOOD"
	HealthModerate = "MODERATE"
	HealthPoor     = "POOR"
)

// Checker is the data separation guard: it verifies that document-extracted
// fields were never silently replaced by verification-sourced values. The
// guard only flags; fixing requires an explicit Restore call. A silent
// auto-fix is impossible to get right because a legitimate match
// (extraction and verification agreeing) looks identical to contamination
// by value alone; provenance tags are the deciding signal.
type Checker struct {
	threshold float64
	logger    *zap.Logger
}

// NewChecker creates a guard with the given similarity threshold.
// A nil logger is replaced with a nop.
func NewChecker(cfg model.GuardConfig, logger *zap.Logger) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}
	threshold := cfg.SimilarityThreshold
	if threshold <= 0 || threshold > 1 {
		threshold = 0.85
	}
	return &Checker{threshold: threshold, logger: logger}
}

// Inspect produces the batch separation report for a set of merged records.
func (c *Checker) Inspect(records []model.CitationRecord) model.SeparationReport {
	report := model.SeparationReport{Total: len(records)}

	contaminated := 0
	for i := range records {
		switch c.classify(&records[i]) {
		case exactContamination:
			report.Exact++
			contaminated++
		case fuzzyContamination:
			report.HighSimilarity++
			contaminated++
		case legitimateAgreement:
			report.Agreements++
			report.Separated++
		default:
			report.Separated++
		}
	}

	if report.Total > 0 {
		report.Contamination = float64(contaminated) / float64(report.Total)
	}
	report.Health = healthTag(report.Contamination)

	if contaminated > 0 {
		c.logger.Warn("data separation violations detected",
			zap.Int("exact", report.Exact),
			zap.Int("high_similarity", report.HighSimilarity),
			zap.String("health", report.Health))
	}

	return report
}

type verdict int

const (
	properlySeparated verdict = iota
	legitimateAgreement
	exactContamination
	fuzzyContamination
)

// classify inspects one record. Provenance decides first: an extracted name
// still tagged with document origin cannot be contaminated no matter how
// similar the values are. Value comparison is only the fallback for records
// that carry no provenance at all.
func (c *Checker) classify(rec *model.CitationRecord) verdict {
	if rec.ExtractedCaseName == nil || rec.CanonicalName == "" {
		return properlySeparated
	}

	extracted := normalizeName(*rec.ExtractedCaseName)
	canonical := normalizeName(rec.CanonicalName)
	exact := extracted == canonical
	fuzzy := !exact && SimilarityRatio(extracted, canonical) >= c.threshold

	switch rec.NameOrigin {
	case model.OriginDocument:
		if exact || fuzzy {
			return legitimateAgreement
		}
		return properlySeparated
	case model.OriginVerification:
		// A verification-origin write into an extracted field is the
		// contamination this guard exists for.
		if exact {
			return exactContamination
		}
		return fuzzyContamination
	default:
		// No provenance recorded; infer from values alone.
		if exact {
			return exactContamination
		}
		if fuzzy {
			return fuzzyContamination
		}
		return properlySeparated
	}
}

// Restore re-applies the preserved original extracted value. It is the only
// sanctioned way to undo contamination and must be requested explicitly.
// Returns false when there is nothing to restore.
func Restore(rec *model.CitationRecord) bool {
	if rec.OriginalCaseName == nil {
		return false
	}
	rec.ExtractedCaseName = rec.OriginalCaseName
	rec.NameOrigin = model.OriginDocument
	if rec.OriginalDate != nil {
		rec.ExtractedDate = rec.OriginalDate
		rec.DateOrigin = model.OriginDocument
	}
	return true
}

// SimilarityRatio returns a normalized similarity in [0,1] based on
// levenshtein distance.
func SimilarityRatio(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}

func normalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

func healthTag(contamination float64) string {
	switch {
	case contamination < 0.05:
		return HealthGood
	case contamination < 0.20:
		return HealthModerate
	default:
		return HealthPoor
	}
}
