package api

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
)

// Authority supplies bearer tokens for outgoing requests and coordinates
// recovery after an authorization failure. The session service implements it.
//
// Reauthorize must guarantee that at most one refresh request is ever in
// flight: the first caller that hits a 401 performs the refresh, any caller
// that finds a refresh already running fails with
// common.ErrAuthenticationFailed after a forced logout.
type Authority interface {
	Token() string
	Reauthorize(ctx context.Context) (string, error)
}

// authTransport is an http.RoundTripper that attaches the bearer token to
// every outgoing request and, on a 401 for anything but the refresh endpoint
// itself, asks the Authority for a fresh token and retries the original
// request exactly once.
type authTransport struct {
	base http.RoundTripper

	mu   sync.RWMutex
	auth Authority
}

func newAuthTransport(base http.RoundTripper) *authTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &authTransport{base: base}
}

func (t *authTransport) setAuthority(a Authority) {
	t.mu.Lock()
	t.auth = a
	t.mu.Unlock()
}

func (t *authTransport) authority() Authority {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.auth
}

// isRefreshRequest reports whether req targets the token refresh endpoint.
// Refresh requests are exempt from 401 handling so a failing refresh can
// never recurse into another refresh.
func isRefreshRequest(req *http.Request) bool {
	return strings.HasSuffix(req.URL.Path, "/auth/refresh")
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	auth := t.authority()
	if auth == nil {
		return t.base.RoundTrip(req)
	}

	out := req
	if token := auth.Token(); token != "" {
		out = withBearer(req, token)
	}

	resp, err := t.base.RoundTrip(out)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized || isRefreshRequest(req) {
		return resp, nil
	}

	// Authorization failure: release the connection, then run the refresh
	// protocol. Reauthorize enforces the single-flight guarantee and forces
	// logout on failure.
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	token, err := auth.Reauthorize(req.Context())
	if err != nil {
		return nil, err
	}

	retry, err := rewindRequest(req)
	if err != nil {
		return nil, err
	}
	return t.base.RoundTrip(withBearer(retry, token))
}

// withBearer clones req with the Authorization header set. RoundTrippers must
// not mutate the request they were handed.
func withBearer(req *http.Request, token string) *http.Request {
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+token)
	return clone
}

// rewindRequest prepares a one-time retry of req, re-reading the body via
// GetBody when the request had one.
func rewindRequest(req *http.Request) (*http.Request, error) {
	clone := req.Clone(req.Context())
	if req.Body != nil && req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		clone.Body = body
	}
	return clone, nil
}
