package classify

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

// rewriteTransport sends every request to target regardless of its host,
// so real-looking asset URLs can be served by an httptest server.
type rewriteTransport struct {
	target *url.URL
}

func (rt rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.Host = req.URL.Host
	out.URL.Scheme = rt.target.Scheme
	out.URL.Host = rt.target.Host
	return http.DefaultTransport.RoundTrip(out)
}

func clientFor(t *testing.T, ts *httptest.Server) *http.Client {
	t.Helper()
	u, err := url.Parse(ts.URL)
	if err != nil {
		t.Fatalf("parse test server url: %v", err)
	}
	return &http.Client{Timeout: 2 * time.Second, Transport: rewriteTransport{target: u}}
}

// refusedClient points at a listener that has already been closed.
func refusedClient(t *testing.T) *http.Client {
	t.Helper()
	ts := httptest.NewServer(http.NotFoundHandler())
	u, _ := url.Parse(ts.URL)
	ts.Close()
	return &http.Client{Timeout: 2 * time.Second, Transport: rewriteTransport{target: u}}
}
