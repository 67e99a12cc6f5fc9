package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/mvickers/citecheck/internal/model"
	"github.com/mvickers/citecheck/internal/util"
)

// HTTPSource talks to a CourtListener-style REST API: a batch
// citation-lookup endpoint plus a full-text search endpoint.
type HTTPSource struct {
	httpClient *http.Client
	baseURL    string
	token      string
	userAgent  string
	maxBytes   int64
}

// NewHTTPSource creates an HTTP verification source from configuration.
func NewHTTPSource(httpCfg model.HTTPConfig, verCfg model.VerificationConfig) *HTTPSource {
	return &HTTPSource{
		httpClient: &http.Client{
			Timeout: httpCfg.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(httpCfg.HTTPProxy, httpCfg.HTTPSProxy, httpCfg.NoProxy),
			},
		},
		baseURL:   strings.TrimRight(verCfg.BaseURL, "/"),
		token:     verCfg.APIToken,
		userAgent: httpCfg.UserAgent,
		maxBytes:  httpCfg.MaxBodyBytes,
	}
}

func (s *HTTPSource) Name() string { return "citation_lookup" }

// lookupEntry is one element of the citation-lookup response: the echoed
// citation, a per-citation HTTP-like status, and matched case clusters.
type lookupEntry struct {
	Citation string `json:"citation"`
	Status   int    `json:"status"`
	Clusters []struct {
		CaseName    string `json:"case_name"`
		DateFiled   string `json:"date_filed"`
		AbsoluteURL string `json:"absolute_url"`
	} `json:"clusters"`
}

// Lookup resolves a batch of citations through the citation-lookup
// endpoint. The returned map contains only the citations the endpoint
// matched; absent keys mean not found, a non-nil error means the whole
// batch failed.
func (s *HTTPSource) Lookup(ctx context.Context, citations []string) (map[string]Candidate, error) {
	form := url.Values{}
	form.Set("text", strings.Join(citations, "\n"))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/citation-lookup/", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create lookup request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	s.setHeaders(req)

	body, err := s.do(req)
	if err != nil {
		return nil, fmt.Errorf("citation lookup: %w", err)
	}

	var entries []lookupEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("decode lookup response: %w", err)
	}

	found := make(map[string]Candidate, len(entries))
	for _, e := range entries {
		if e.Status != http.StatusOK || len(e.Clusters) == 0 {
			continue
		}
		c := e.Clusters[0]
		found[e.Citation] = Candidate{
			CaseName:  c.CaseName,
			DateFiled: c.DateFiled,
			URL:       s.absoluteURL(c.AbsoluteURL),
		}
	}
	return found, nil
}

// Search resolves a single citation through the search endpoint, used when
// the batch lookup left it unresolved.
func (s *HTTPSource) Search(ctx context.Context, citation string) ([]Candidate, error) {
	q := url.Values{}
	q.Set("q", fmt.Sprintf("%q", citation))
	q.Set("type", "o")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		s.baseURL+"/search/?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	s.setHeaders(req)

	body, err := s.do(req)
	if err != nil {
		return nil, fmt.Errorf("citation search: %w", err)
	}

	var payload struct {
		Results []struct {
			CaseName    string `json:"caseName"`
			DateFiled   string `json:"dateFiled"`
			AbsoluteURL string `json:"absolute_url"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	candidates := make([]Candidate, 0, len(payload.Results))
	for _, r := range payload.Results {
		candidates = append(candidates, Candidate{
			CaseName:  r.CaseName,
			DateFiled: r.DateFiled,
			URL:       s.absoluteURL(r.AbsoluteURL),
		})
	}
	return candidates, nil
}

func (s *HTTPSource) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Token "+s.token)
	}
}

func (s *HTTPSource) do(req *http.Request) ([]byte, error) {
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	reader := io.Reader(resp.Body)
	if s.maxBytes > 0 {
		reader = io.LimitReader(resp.Body, s.maxBytes)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return body, nil
}

// absoluteURL resolves endpoint-relative paths against the API host.
func (s *HTTPSource) absoluteURL(path string) string {
	if path == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	base, err := url.Parse(s.baseURL)
	if err != nil {
		return path
	}
	return base.Scheme + "://" + base.Host + path
}
