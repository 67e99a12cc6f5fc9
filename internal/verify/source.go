package verify

import "context"

// Candidate is one canonical case record returned by an external source.
type Candidate struct {
	CaseName  string  `json:"case_name"`
	DateFiled string  `json:"date_filed"`
	URL       string  `json:"absolute_url"`
	Score     float64 `json:"score,omitempty"`
}

// Source resolves citation strings against a canonical legal database.
// Lookup is the batch endpoint; Search resolves one citation at a time.
type Source interface {
	Name() string
	Lookup(ctx context.Context, citations []string) (map[string]Candidate, error)
	Search(ctx context.Context, citation string) ([]Candidate, error)
}

// StubSource is the terminal fallback tier. It resolves nothing and never
// fails, so every citation that reaches it comes back unverified rather
// than erroring the job.
type StubSource struct{}

func (StubSource) Name() string { return "fallback" }

func (StubSource) Lookup(ctx context.Context, citations []string) (map[string]Candidate, error) {
	return map[string]Candidate{}, nil
}

func (StubSource) Search(ctx context.Context, citation string) ([]Candidate, error) {
	return nil, nil
}
