// Package testutil routes HTTP clients under test to local httptest servers.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

// OriginalHostHeader carries the host a request was addressed to before it
// was rerouted to the test server.
const OriginalHostHeader = "X-Original-Host"

type rewriteTransport struct {
	target *url.URL
	base   http.RoundTripper
}

func (t rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.Header.Set(OriginalHostHeader, req.URL.Host)
	out.URL.Scheme = t.target.Scheme
	out.URL.Host = t.target.Host
	out.Host = t.target.Host
	return t.base.RoundTrip(out)
}

// NewServer starts an httptest server running handler and returns a client
// that sends every request, whatever its URL, to that server. The server is
// closed when the test ends.
func NewServer(t *testing.T, handler http.Handler) (*httptest.Server, *http.Client) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	target, err := url.Parse(srv.URL)
	if nil != err {
		t.Fatalf("failed to parse test server URL: %v", err)
	}

	//nolint:exhaustruct
	client := &http.Client{
		Transport: rewriteTransport{target: target, base: srv.Client().Transport},
	}
	return srv, client
}

// WriteJSON writes body with the given status and a JSON content type.
func WriteJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
