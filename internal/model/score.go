package model

// SignalType identifies a diagnostic signal category.
type SignalType string

const (
	SignalVerificationCoverage SignalType = "verification_coverage"
	SignalAttributionQuality   SignalType = "attribution_quality"
	SignalDataSeparation       SignalType = "data_separation"
	SignalNameResolution       SignalType = "name_resolution"
	SignalContamination        SignalType = "contamination"
)

// Severity levels for signals.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Signal is one diagnostic observation with supporting data.
type Signal struct {
	Type        SignalType             `json:"type"`
	Severity    Severity               `json:"severity"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// Score is the document-level citation hygiene index (0-100) with the
// signals that produced it.
type Score struct {
	Index      int      `json:"index"`
	Confidence string   `json:"confidence"` // high, medium, low
	Signals    []Signal `json:"signals"`
}
