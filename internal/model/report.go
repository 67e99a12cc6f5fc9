package model

import "time"

// DocumentReport is the complete analysis result for one document.
type DocumentReport struct {
	Source     string    `json:"source"` // File path or label for the input text
	AnalyzedAt time.Time `json:"analyzed_at"`

	Citations []CitationRecord `json:"citations"`
	Clusters  []ClusterSummary `json:"clusters"`

	Separation SeparationReport `json:"separation"`

	VerificationEnabled bool    `json:"verification_enabled"`
	Coverage            float64 `json:"coverage"` // verified / total distinct citations

	Score Score `json:"score"`
}

// VerifiedCount returns how many citation records were verified.
func (r *DocumentReport) VerifiedCount() int {
	n := 0
	for _, c := range r.Citations {
		if c.Verified {
			n++
		}
	}
	return n
}
