package model

// ReporterFamily tags the reporter series a citation pattern belongs to
type ReporterFamily string

const (
	FamilyUSReports    ReporterFamily = "us_reports"     // U.S.
	FamilySupremeCourt ReporterFamily = "supreme_court"  // S. Ct.
	FamilyLawyersEd    ReporterFamily = "lawyers_ed"     // L. Ed., L. Ed. 2d
	FamilyFederal      ReporterFamily = "federal"        // F., F.2d, F.3d, F.4th
	FamilyFedSupp      ReporterFamily = "fed_supp"       // F. Supp., F. Supp. 2d/3d
	FamilyWashington   ReporterFamily = "washington"     // Wn.2d, Wn. App., Wash.
	FamilyPacific      ReporterFamily = "pacific"        // P., P.2d, P.3d
	FamilyRegional     ReporterFamily = "regional"       // N.E., N.W., So., S.E., S.W., A.
	FamilyWestlaw      ReporterFamily = "westlaw"        // <year> WL <number>
)

// CitationSpan is a raw citation match in the source text.
// Spans are immutable once produced by the extractor.
type CitationSpan struct {
	Text      string         `json:"text"`       // Matched citation text (e.g., "347 U.S. 483")
	Start     int            `json:"start"`      // Byte offset of the match start
	End       int            `json:"end"`        // Byte offset one past the match end
	Reporter  ReporterFamily `json:"reporter"`   // Reporter family of the matching rule
	PatternID string         `json:"pattern_id"` // Which pattern rule matched (used for confidence weighting)
}

// ExtractionResult is the case name and date attributed to a single span.
// When multiple strategies are cross-validated only the highest-scoring
// candidate survives.
type ExtractionResult struct {
	Citation   string       `json:"citation"`
	Span       CitationSpan `json:"span"`
	CaseName   *string      `json:"case_name"`  // nil when attribution failed
	Date       *string      `json:"date"`       // Year or ISO date, nil when unknown
	Confidence float64      `json:"confidence"` // 0..1
	Method     string       `json:"method"`     // Strategy that produced the winning candidate
}

// Cluster groups parallel citations of the same case. Built once per
// document after all spans are extracted; immutable after construction.
type Cluster struct {
	ID         string             `json:"cluster_id"`
	CaseName   *string            `json:"case_name"`
	Year       *string            `json:"year"`
	Members    []ExtractionResult `json:"members"` // Ordered by source offset
	IsParallel bool               `json:"is_parallel"`
}

// MemberCitations returns the citation strings of all members in source order.
func (c *Cluster) MemberCitations() []string {
	out := make([]string, 0, len(c.Members))
	for _, m := range c.Members {
		out = append(out, m.Citation)
	}
	return out
}

// ClusterSummary is the per-cluster output shape.
type ClusterSummary struct {
	ClusterID       string   `json:"cluster_id"`
	CaseName        *string  `json:"case_name"`
	Year            *string  `json:"year"`
	IsParallel      bool     `json:"is_parallel"`
	MemberCitations []string `json:"member_citations"`
}

// Summary converts a cluster into its output shape.
func (c *Cluster) Summary() ClusterSummary {
	return ClusterSummary{
		ClusterID:       c.ID,
		CaseName:        c.CaseName,
		Year:            c.Year,
		IsParallel:      c.IsParallel,
		MemberCitations: c.MemberCitations(),
	}
}
