package httpx

import (
	"net/http"
	"net/http/httptest"
)

// TestServer runs a handler on a loopback listener for tests.
type TestServer struct{ *httptest.Server }

// NewTestServer starts serving handler.
func NewTestServer(handler http.Handler) *TestServer {
	return &TestServer{httptest.NewServer(handler)}
}

// BaseURL returns the server's base URL.
func (ts *TestServer) BaseURL() string {
	if ts == nil || ts.Server == nil {
		return ""
	}
	return ts.URL
}

// NewClient returns a Client aimed at the server; opts apply after the base URL.
func (ts *TestServer) NewClient(opts ...ClientOption) *Client {
	return NewClient(append([]ClientOption{WithBaseURL(ts.BaseURL())}, opts...)...)
}
