package score

import (
	"fmt"
	"math"

	"github.com/mvickers/citecheck/internal/model"
)

// Scorer calculates the citation hygiene index and generates signals
type Scorer struct{}

// NewScorer creates a new scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Calculate produces the document-level hygiene index from the merged
// citation records and the separation report.
func (s *Scorer) Calculate(report *model.DocumentReport) model.Score {
	var signals []model.Signal

	// 1. Verification coverage (0-40 points)
	coverageScore, coverageSignal := s.calculateCoverage(report)
	signals = append(signals, coverageSignal)

	// 2. Attribution quality (0-30 points)
	attributionScore, attributionSignal := s.calculateAttribution(report.Citations)
	signals = append(signals, attributionSignal)

	// 3. Data separation (0-20 points)
	separationScore, separationSignal := s.calculateSeparation(report.Separation)
	signals = append(signals, separationSignal)

	// 4. Name resolution (0-10 points)
	resolutionScore, resolutionSignal := s.calculateResolution(report.Citations)
	signals = append(signals, resolutionSignal)

	// 5. Contamination penalty
	contaminated := report.Separation.Exact + report.Separation.HighSimilarity
	totalScore := coverageScore + attributionScore + separationScore + resolutionScore
	if contaminated > 0 {
		totalScore -= 10
		if totalScore < 0 {
			totalScore = 0
		}
		signals = append(signals, model.Signal{
			Type:        model.SignalContamination,
			Severity:    model.SeverityCritical,
			Description: fmt.Sprintf("%d record(s) show verification data written into extraction fields", contaminated),
			Data: map[string]interface{}{
				"exact":           report.Separation.Exact,
				"high_similarity": report.Separation.HighSimilarity,
				"penalty":         10,
			},
		})
	}

	return model.Score{
		Index:      totalScore,
		Confidence: s.determineConfidence(totalScore, len(report.Citations), contaminated > 0),
		Signals:    signals,
	}
}

// calculateCoverage scores verification coverage (0-40 points). When
// verification is disabled the component is neutral rather than zero.
func (s *Scorer) calculateCoverage(report *model.DocumentReport) (int, model.Signal) {
	if !report.VerificationEnabled {
		return 20, model.Signal{
			Type:        model.SignalVerificationCoverage,
			Severity:    model.SeverityInfo,
			Description: "Verification disabled (neutral coverage assumed)",
			Data:        map[string]interface{}{"score": 20},
		}
	}

	if len(report.Citations) == 0 {
		return 0, model.Signal{
			Type:        model.SignalVerificationCoverage,
			Severity:    model.SeverityInfo,
			Description: "No citations found",
			Data:        map[string]interface{}{"citations": 0},
		}
	}

	score := int(math.Min(report.Coverage*40, 40))
	severity := model.SeverityInfo
	if report.Coverage < 0.5 {
		severity = model.SeverityCritical
	} else if report.Coverage < 0.7 {
		severity = model.SeverityWarning
	}

	return score, model.Signal{
		Type:        model.SignalVerificationCoverage,
		Severity:    severity,
		Description: fmt.Sprintf("Verified %.0f%% of distinct citations", report.Coverage*100),
		Data: map[string]interface{}{
			"coverage": report.Coverage,
			"score":    score,
			"formula":  "min(coverage * 40, 40)",
		},
	}
}

// calculateAttribution scores mean extraction confidence (0-30 points).
func (s *Scorer) calculateAttribution(citations []model.CitationRecord) (int, model.Signal) {
	if len(citations) == 0 {
		return 0, model.Signal{
			Type:        model.SignalAttributionQuality,
			Severity:    model.SeverityInfo,
			Description: "No citations to attribute",
			Data:        map[string]interface{}{"citations": 0},
		}
	}

	var sum float64
	unattributed := 0
	for _, c := range citations {
		sum += c.Confidence
		if c.ExtractedCaseName == nil {
			unattributed++
		}
	}
	mean := sum / float64(len(citations))
	score := int(mean * 30)

	severity := model.SeverityInfo
	if mean < 0.3 {
		severity = model.SeverityCritical
	} else if mean < 0.6 {
		severity = model.SeverityWarning
	}

	return score, model.Signal{
		Type:        model.SignalAttributionQuality,
		Severity:    severity,
		Description: fmt.Sprintf("Mean confidence %.2f, %d citation(s) without a case name", mean, unattributed),
		Data: map[string]interface{}{
			"mean_confidence": mean,
			"unattributed":    unattributed,
			"score":           score,
			"formula":         "mean_confidence * 30",
		},
	}
}

// calculateSeparation scores the guard health (0-20 points).
func (s *Scorer) calculateSeparation(sep model.SeparationReport) (int, model.Signal) {
	score := 0
	severity := model.SeverityCritical
	switch sep.Health {
	case "GOOD", "":
		score = 20
		severity = model.SeverityInfo
	case "MODERATE":
		score = 10
		severity = model.SeverityWarning
	}

	return score, model.Signal{
		Type:        model.SignalDataSeparation,
		Severity:    severity,
		Description: fmt.Sprintf("Separation health %s (%.1f%% contamination)", sep.Health, sep.Contamination*100),
		Data: map[string]interface{}{
			"health":        sep.Health,
			"contamination": sep.Contamination,
			"score":         score,
		},
	}
}

// calculateResolution scores how many citations resolved to a case name
// from either extraction or verification (0-10 points).
func (s *Scorer) calculateResolution(citations []model.CitationRecord) (int, model.Signal) {
	if len(citations) == 0 {
		return 0, model.Signal{
			Type:        model.SignalNameResolution,
			Severity:    model.SeverityInfo,
			Description: "No citations to resolve",
			Data:        map[string]interface{}{"citations": 0},
		}
	}

	named := 0
	for _, c := range citations {
		if (c.ExtractedCaseName != nil && *c.ExtractedCaseName != "") || c.CanonicalName != "" {
			named++
		}
	}
	ratio := float64(named) / float64(len(citations))
	score := int(ratio * 10)

	severity := model.SeverityInfo
	if ratio < 0.5 {
		severity = model.SeverityWarning
	}

	return score, model.Signal{
		Type:        model.SignalNameResolution,
		Severity:    severity,
		Description: fmt.Sprintf("%d of %d citation(s) resolved to a case name", named, len(citations)),
		Data: map[string]interface{}{
			"named": named,
			"total": len(citations),
			"score": score,
		},
	}
}

// determineConfidence assigns the confidence band for the index.
func (s *Scorer) determineConfidence(totalScore, citationCount int, contaminated bool) string {
	if contaminated || citationCount == 0 {
		return "low"
	}
	switch {
	case totalScore >= 70 && citationCount >= 3:
		return "high"
	case totalScore >= 40:
		return "medium"
	default:
		return "low"
	}
}
