package util

import (
	"net/http"
	"net/url"
	"testing"
)

func proxyFor(t *testing.T, fn func(*http.Request) (*url.URL, error), rawURL string) *url.URL {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	proxy, err := fn(req)
	if err != nil {
		t.Fatalf("proxy func: %v", err)
	}
	return proxy
}

func TestNewProxyFunc_SchemeSelection(t *testing.T) {
	fn := NewProxyFunc("http://proxy.internal:3128", "http://sproxy.internal:3128", "")

	if p := proxyFor(t, fn, "https://www.courtlistener.com/api"); p == nil || p.Host != "sproxy.internal:3128" {
		t.Errorf("https request got proxy %v, want sproxy.internal:3128", p)
	}
	if p := proxyFor(t, fn, "http://example.org/"); p == nil || p.Host != "proxy.internal:3128" {
		t.Errorf("http request got proxy %v, want proxy.internal:3128", p)
	}
}

func TestNewProxyFunc_NoProxyBypass(t *testing.T) {
	fn := NewProxyFunc("http://proxy.internal:3128", "", "localhost, .courtlistener.com")

	if p := proxyFor(t, fn, "http://localhost:8080/"); p != nil {
		t.Errorf("localhost should bypass the proxy, got %v", p)
	}
	if p := proxyFor(t, fn, "https://www.courtlistener.com/api"); p != nil {
		t.Errorf("suffix-matched host should bypass the proxy, got %v", p)
	}
	if p := proxyFor(t, fn, "http://example.org/"); p == nil {
		t.Error("unmatched host should still be proxied")
	}
}
