package pipeline

import (
	"testing"

	"github.com/mvickers/citecheck/internal/model"
)

func strptr(s string) *string { return &s }

func extraction(citation string, start int, name, date *string, confidence float64) model.ExtractionResult {
	return model.ExtractionResult{
		Citation:   citation,
		Span:       model.CitationSpan{Text: citation, Start: start, End: start + len(citation)},
		CaseName:   name,
		Date:       date,
		Confidence: confidence,
		Method:     "case_name_adjacent",
	}
}

func TestMergeRecords_ClusterNameTakesDisplayPrecedence(t *testing.T) {
	named := extraction("200 Wn.2d 72", 40, strptr("Convoyant, LLC v. DeepThink, LLC"), strptr("2022"), 0.85)
	nameless := extraction("514 P.3d 643", 60, nil, nil, 0.2)

	clusters := []model.Cluster{{
		ID:         "cluster-1",
		CaseName:   strptr("Convoyant, LLC v. DeepThink, LLC"),
		Year:       strptr("2022"),
		Members:    []model.ExtractionResult{named, nameless},
		IsParallel: true,
	}}

	records := mergeRecords([]model.ExtractionResult{named, nameless}, clusters, nil)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	second := records[1]
	if second.ExtractedCaseName == nil || *second.ExtractedCaseName != "Convoyant, LLC v. DeepThink, LLC" {
		t.Errorf("cluster name not applied: %v", second.ExtractedCaseName)
	}
	if second.OriginalCaseName != nil {
		t.Error("per-span original overwritten")
	}
	if second.ExtractedDate == nil || *second.ExtractedDate != "2022" {
		t.Errorf("cluster year not applied: %v", second.ExtractedDate)
	}
	if !second.IsParallel || second.ClusterID != "cluster-1" {
		t.Errorf("cluster tags missing: %+v", second)
	}
	if len(records[0].ParallelCitations) != 1 || records[0].ParallelCitations[0] != "514 P.3d 643" {
		t.Errorf("parallel citations = %v", records[0].ParallelCitations)
	}
}

func TestMergeRecords_CanonicalNeverEntersExtractedFields(t *testing.T) {
	res := extraction("347 U.S. 483", 0, strptr("Brown v. Bd. of Ed."), nil, 0.7)
	verification := map[string]model.VerificationRecord{
		"347 U.S. 483": {
			Citation:      "347 U.S. 483",
			Verified:      true,
			CanonicalName: "Brown v. Board of Education of Topeka",
			CanonicalDate: "1954-05-17",
			Source:        "citation_lookup",
		},
	}

	records := mergeRecords([]model.ExtractionResult{res}, nil, verification)
	rec := records[0]

	if *rec.ExtractedCaseName != "Brown v. Bd. of Ed." {
		t.Errorf("extracted field changed: %q", *rec.ExtractedCaseName)
	}
	if rec.NameOrigin != model.OriginDocument {
		t.Errorf("provenance = %s", rec.NameOrigin)
	}
	if rec.CanonicalName != "Brown v. Board of Education of Topeka" {
		t.Errorf("canonical name = %q", rec.CanonicalName)
	}
}

func TestMergeRecords_ConfidenceMonotone(t *testing.T) {
	weak := extraction("347 U.S. 483", 0, nil, nil, 0.1)
	strong := extraction("392 U.S. 1", 50, strptr("Terry v. Ohio"), nil, 0.9)
	verification := map[string]model.VerificationRecord{
		"347 U.S. 483": {Verified: true, Source: "search"},
		"392 U.S. 1":   {Verified: true, Source: "citation_lookup"},
	}

	records := mergeRecords([]model.ExtractionResult{weak, strong}, nil, verification)

	if records[0].Confidence != 0.5 {
		t.Errorf("weak verified record should floor at 0.5, got %v", records[0].Confidence)
	}
	if records[1].Confidence != 0.9 {
		t.Errorf("strong record should keep extraction confidence, got %v", records[1].Confidence)
	}
}

func TestMergeRecords_UnverifiedKeepsTierTag(t *testing.T) {
	res := extraction("999 U.S. 999", 0, nil, nil, 0.2)
	verification := map[string]model.VerificationRecord{
		"999 U.S. 999": {
			Verified: false,
			Source:   "citation_lookup",
			Error:    "unexpected status: 500 Internal Server Error",
		},
	}

	rec := mergeRecords([]model.ExtractionResult{res}, nil, verification)[0]
	if rec.Verified {
		t.Error("record should stay unverified")
	}
	if rec.Source != "citation_lookup" || rec.Error == "" {
		t.Errorf("degradation tags missing: %+v", rec)
	}
	if rec.Confidence != 0.2 {
		t.Errorf("unverified confidence should stay capped by extraction, got %v", rec.Confidence)
	}
}
