package model

import "time"

// VerificationRecord is the canonical-database answer for one distinct
// citation string. Records are cached with a TTL and never mutate the
// extraction results they are merged with.
type VerificationRecord struct {
	Citation         string  `json:"citation"`
	Verified         bool    `json:"verified"`
	CanonicalName    string  `json:"canonical_name,omitempty"`
	CanonicalDate    string  `json:"canonical_date,omitempty"`
	CanonicalURL     string  `json:"canonical_url,omitempty"`
	Confidence       float64 `json:"confidence"`
	Source           string  `json:"source"`            // Tier that resolved (or last failed) this citation
	ValidationMethod string  `json:"validation_method"` // How the resolution was made
	Error            string  `json:"error,omitempty"`
}

// JobStatus is the lifecycle state of a background verification job.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobTimeout   JobStatus = "timeout"
)

// Terminal reports whether the status is final.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed || s == JobTimeout
}

// VerificationJob tracks an asynchronous verification run. Created on
// submission, mutated only by the orchestrator worker, read by pollers.
type VerificationJob struct {
	ID                 string                        `json:"job_id"`
	Status             JobStatus                     `json:"status"`
	Progress           int                           `json:"progress"` // 0..100
	CitationsProcessed int                           `json:"citations_processed"`
	CitationsTotal     int                           `json:"citations_total"`
	CurrentMethod      string                        `json:"current_method,omitempty"`
	StartedAt          *time.Time                    `json:"started_at,omitempty"`
	CompletedAt        *time.Time                    `json:"completed_at,omitempty"`
	Results            map[string]VerificationRecord `json:"results,omitempty"` // Set once completed
	ErrorMessage       string                        `json:"error_message,omitempty"`
}

// Clone returns a deep-enough copy safe to hand to pollers while the
// worker keeps mutating the original.
func (j *VerificationJob) Clone() VerificationJob {
	out := *j
	if j.Results != nil {
		out.Results = make(map[string]VerificationRecord, len(j.Results))
		for k, v := range j.Results {
			out.Results[k] = v
		}
	}
	return out
}
