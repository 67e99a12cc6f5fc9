package score

import (
	"testing"

	"github.com/mvickers/citecheck/internal/model"
)

func strptr(s string) *string { return &s }

func namedRecord(citation, name string, confidence float64, verified bool) model.CitationRecord {
	rec := model.CitationRecord{
		Citation:          citation,
		ExtractedCaseName: strptr(name),
		NameOrigin:        model.OriginDocument,
		Confidence:        confidence,
		Verified:          verified,
	}
	if verified {
		rec.CanonicalName = name
	}
	return rec
}

func TestCalculate_HealthyVerifiedDocument(t *testing.T) {
	report := &model.DocumentReport{
		Citations: []model.CitationRecord{
			namedRecord("347 U.S. 483", "Brown v. Board of Education", 0.9, true),
			namedRecord("384 U.S. 436", "Miranda v. Arizona", 0.85, true),
			namedRecord("392 U.S. 1", "Terry v. Ohio", 0.9, true),
		},
		Separation:          model.SeparationReport{Health: "GOOD"},
		VerificationEnabled: true,
		Coverage:            1.0,
	}

	result := NewScorer().Calculate(report)

	if result.Index < 70 {
		t.Errorf("healthy document scored %d, expected >= 70", result.Index)
	}
	if result.Confidence != "high" {
		t.Errorf("confidence = %s, want high", result.Confidence)
	}
	if len(result.Signals) != 4 {
		t.Errorf("expected 4 signals, got %d", len(result.Signals))
	}
}

func TestCalculate_ContaminationPenalty(t *testing.T) {
	base := &model.DocumentReport{
		Citations: []model.CitationRecord{
			namedRecord("347 U.S. 483", "Brown v. Board of Education", 0.9, true),
		},
		Separation:          model.SeparationReport{Health: "GOOD"},
		VerificationEnabled: true,
		Coverage:            1.0,
	}
	clean := NewScorer().Calculate(base)

	base.Separation = model.SeparationReport{Health: "POOR", Exact: 1, Contamination: 1.0}
	dirty := NewScorer().Calculate(base)

	if dirty.Index >= clean.Index {
		t.Errorf("contaminated document (%d) should score below clean (%d)", dirty.Index, clean.Index)
	}
	if dirty.Confidence != "low" {
		t.Errorf("contaminated confidence = %s, want low", dirty.Confidence)
	}

	found := false
	for _, sig := range dirty.Signals {
		if sig.Type == model.SignalContamination && sig.Severity == model.SeverityCritical {
			found = true
		}
	}
	if !found {
		t.Error("missing critical contamination signal")
	}
}

func TestCalculate_VerificationDisabledIsNeutral(t *testing.T) {
	report := &model.DocumentReport{
		Citations: []model.CitationRecord{
			namedRecord("347 U.S. 483", "Brown v. Board of Education", 0.9, false),
		},
		Separation: model.SeparationReport{Health: "GOOD"},
	}

	result := NewScorer().Calculate(report)

	for _, sig := range result.Signals {
		if sig.Type == model.SignalVerificationCoverage {
			if sig.Severity != model.SeverityInfo {
				t.Errorf("disabled verification should not alarm: %+v", sig)
			}
			return
		}
	}
	t.Error("missing coverage signal")
}

func TestCalculate_LowCoverageIsCritical(t *testing.T) {
	report := &model.DocumentReport{
		Citations: []model.CitationRecord{
			namedRecord("347 U.S. 483", "Brown v. Board of Education", 0.9, true),
			{Citation: "999 U.S. 999", Confidence: 0.2},
			{Citation: "998 U.S. 998", Confidence: 0.2},
		},
		Separation:          model.SeparationReport{Health: "GOOD"},
		VerificationEnabled: true,
		Coverage:            1.0 / 3.0,
	}

	result := NewScorer().Calculate(report)

	for _, sig := range result.Signals {
		if sig.Type == model.SignalVerificationCoverage {
			if sig.Severity != model.SeverityCritical {
				t.Errorf("coverage 33%% should be critical, got %s", sig.Severity)
			}
			return
		}
	}
	t.Error("missing coverage signal")
}

func TestCalculate_EmptyDocument(t *testing.T) {
	result := NewScorer().Calculate(&model.DocumentReport{})

	if result.Confidence != "low" {
		t.Errorf("empty document confidence = %s, want low", result.Confidence)
	}
	if result.Index < 0 || result.Index > 100 {
		t.Errorf("index out of range: %d", result.Index)
	}
}
