package taskboardsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to the taskboard API. It covers the unauthenticated
// surface (register, login, refresh, health) and creates authenticated
// Sessions.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient builds a client with a 10 second request timeout.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Register creates an account and returns a logged-in session.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	var data AuthData
	if err := c.postJSON(ctx, "/api/auth/register", req, &data); err != nil {
		return nil, err
	}
	return newSession(c, data), nil
}

// Login authenticates with email and password (plus a TOTP code when
// the account requires one) and returns a session.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	var data AuthData
	if err := c.postJSON(ctx, "/api/auth/login", req, &data); err != nil {
		return nil, err
	}
	return newSession(c, data), nil
}

// Refresh exchanges a refresh token for a fresh pair without an
// existing session.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (AuthData, error) {
	var data AuthData
	err := c.postJSON(ctx, "/api/auth/refresh", RefreshRequest{RefreshToken: refreshToken}, &data)
	return data, err
}

// Livez reports whether the service is up.
func (c *Client) Livez(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/livez", nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Message: "liveness check failed"}
	}
	return nil
}

// Readyz reports whether the service can reach its database.
func (c *Client) Readyz(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/readyz", nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Message: "readiness check failed"}
	}
	return nil
}

func (c *Client) url(path string) string {
	return c.BaseURL + path
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	return resp, nil
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	resp, err := c.do(ctx, http.MethodPost, path, bytes.NewReader(payload), "application/json")
	if err != nil {
		return err
	}
	return decodeEnvelope(resp, out)
}
