package util

import (
	"net/http"
	"net/url"
	"strings"
)

// NewProxyFunc builds the transport proxy selector for outbound
// verification calls. With no explicit proxy configured it defers to the
// standard environment variables; otherwise the scheme-matching proxy wins
// and hosts on the noProxy list bypass both.
func NewProxyFunc(httpProxy, httpsProxy, noProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}

	skip := splitHosts(noProxy)

	return func(req *http.Request) (*url.URL, error) {
		if hostExempt(req.URL.Hostname(), skip) {
			return nil, nil
		}
		if req.URL.Scheme == "https" && httpsProxy != "" {
			return url.Parse(httpsProxy)
		}
		if httpProxy != "" {
			return url.Parse(httpProxy)
		}
		return http.ProxyFromEnvironment(req)
	}
}

// splitHosts parses a comma-separated noProxy list into host suffixes.
func splitHosts(noProxy string) []string {
	var out []string
	for _, h := range strings.Split(noProxy, ",") {
		h = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(h), "."))
		if h != "" {
			out = append(out, strings.ToLower(h))
		}
	}
	return out
}

// hostExempt reports whether host matches one of the noProxy entries
// exactly or as a domain suffix.
func hostExempt(host string, skip []string) bool {
	host = strings.ToLower(host)
	for _, s := range skip {
		if host == s || strings.HasSuffix(host, "."+s) {
			return true
		}
	}
	return false
}
