package model

// Origin tags where a field value was written from. Tracking provenance at
// the point of assignment is what lets the separation guard tell a
// legitimate extraction/verification agreement apart from contamination;
// comparing final values alone cannot.
type Origin string

const (
	OriginNone         Origin = ""
	OriginDocument     Origin = "document"
	OriginVerification Origin = "verification"
)

// CitationRecord is the final per-citation output: the union of extraction,
// cluster, and verification data. Invariant: Extracted* fields originate
// only from ExtractionResult/Cluster; Canonical* fields originate only from
// VerificationRecord. The two groups carry separate provenance even when
// their values happen to be equal.
type CitationRecord struct {
	Citation string `json:"citation"`

	ExtractedCaseName *string `json:"extracted_case_name"`
	ExtractedDate     *string `json:"extracted_date"`

	// Provenance of the extracted fields above. Anything other than
	// OriginDocument means a later stage wrote into extraction territory.
	NameOrigin Origin `json:"name_origin"`
	DateOrigin Origin `json:"date_origin"`

	// OriginalCaseName preserves the per-span extraction before cluster
	// propagation so an explicit restore can re-apply it.
	OriginalCaseName *string `json:"original_case_name,omitempty"`
	OriginalDate     *string `json:"original_date,omitempty"`

	CanonicalName string `json:"canonical_name,omitempty"`
	CanonicalDate string `json:"canonical_date,omitempty"`
	CanonicalURL  string `json:"canonical_url,omitempty"`

	Verified   bool    `json:"verified"`
	Confidence float64 `json:"confidence"`
	Method     string  `json:"method"` // Extraction strategy
	Source     string  `json:"source"` // Verification tier

	ClusterID         string   `json:"cluster_id"`
	IsParallel        bool     `json:"is_parallel"`
	ParallelCitations []string `json:"parallel_citations,omitempty"`

	Error string `json:"error,omitempty"`
}

// SeparationReport is the batch output of the data separation guard.
type SeparationReport struct {
	Total          int     `json:"total"`
	Exact          int     `json:"exact_matches"`
	HighSimilarity int     `json:"high_similarity_matches"`
	Agreements     int     `json:"legitimate_agreements"` // Document-provenance records that happen to match
	Separated      int     `json:"properly_separated"`
	Contamination  float64 `json:"contamination_rate"`
	Health         string  `json:"health"` // GOOD, MODERATE, POOR
}
