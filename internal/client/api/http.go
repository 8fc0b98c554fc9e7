package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avasilkov/walletapp/internal/client/models"
)

const defaultTimeout = 15 * time.Second

// HTTPClient is the live Client implementation speaking JSON over REST.
type HTTPClient struct {
	baseURL    string
	transport  *authTransport
	httpClient *http.Client
}

// NewHTTPClient builds a client for the given base URL (including the API
// prefix, e.g. "http://localhost:8080/api"). The authority is installed later
// via SetAuthority because the session service that implements it needs the
// client first.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	transport := newAuthTransport(nil)
	return &HTTPClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		transport: transport,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

// SetAuthority wires the token source into the request authorizer. Requests
// issued before this call go out unauthenticated.
func (c *HTTPClient) SetAuthority(a Authority) {
	c.transport.setAuthority(a)
}

func (c *HTTPClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// do issues a request and decodes the JSON response into out (when non-nil).
// A non-2xx status becomes an *Error carrying the extracted message; network
// failures map to ErrUnavailable; errors raised by the authorization flow
// pass through unchanged.
func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newStatusError(resp.StatusCode, data)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	in := map[string]string{"email": email, "password": password}
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Register(ctx context.Context, email, password string) (*AuthResponse, error) {
	in := map[string]string{"email": email, "password": password}
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh exchanges the currently held token (attached by the authorizer)
// for a fresh one. The request body is empty by protocol.
func (c *HTTPClient) Refresh(ctx context.Context) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) UpdateProfile(ctx context.Context, patch UserPatch) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, http.MethodPut, "/auth/profile", nil, patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	in := map[string]string{"currentPassword": currentPassword, "newPassword": newPassword}
	return c.do(ctx, http.MethodPost, "/auth/change-password", nil, in, nil)
}

func (c *HTTPClient) ForgotPassword(ctx context.Context, email string) error {
	in := map[string]string{"email": email}
	return c.do(ctx, http.MethodPost, "/auth/forgot-password", nil, in, nil)
}

func (c *HTTPClient) ResetPassword(ctx context.Context, token, newPassword string) error {
	in := map[string]string{"token": token, "newPassword": newPassword}
	return c.do(ctx, http.MethodPost, "/auth/reset-password", nil, in, nil)
}

func (c *HTTPClient) Accounts(ctx context.Context) ([]models.Account, error) {
	var out []models.Account
	if err := c.do(ctx, http.MethodGet, "/wallet/accounts", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) Account(ctx context.Context, id string) (*models.Account, error) {
	var out models.Account
	if err := c.do(ctx, http.MethodGet, "/wallet/accounts/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) CreateAccount(ctx context.Context, draft NewAccount) (*models.Account, error) {
	var out models.Account
	if err := c.do(ctx, http.MethodPost, "/wallet/accounts", nil, draft, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) UpdateAccount(ctx context.Context, id string, patch AccountPatch) (*models.Account, error) {
	var out models.Account
	if err := c.do(ctx, http.MethodPut, "/wallet/accounts/"+url.PathEscape(id), nil, patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) DeleteAccount(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/wallet/accounts/"+url.PathEscape(id), nil, nil, nil)
}

func (c *HTTPClient) Transactions(ctx context.Context, accountID string) ([]models.Transaction, error) {
	var query url.Values
	if accountID != "" {
		query = url.Values{"accountId": {accountID}}
	}
	var out []models.Transaction
	if err := c.do(ctx, http.MethodGet, "/wallet/transactions", query, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) AddTransaction(ctx context.Context, draft NewTransaction) (*models.Transaction, error) {
	var out models.Transaction
	if err := c.do(ctx, http.MethodPost, "/wallet/transactions", nil, draft, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
