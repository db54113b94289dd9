// Package client is a Go client for the roster HTTP API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Activity mirrors one entry of GET /activities.
type Activity struct {
	Description     string   `json:"description"`
	Schedule        string   `json:"schedule"`
	MaxParticipants int      `json:"max_participants"`
	Participants    []string `json:"participants"`
}

// APIError is returned for any non-2xx response.
type APIError struct {
	Status int    `json:"-"`
	Type   string `json:"type"`
	Detail string `json:"detail"`
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("roster api: status %d", e.Status)
	}
	return fmt.Sprintf("roster api: status %d: %s", e.Status, e.Detail)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// IsAlreadySignedUp reports whether err is a duplicate signup rejection.
func IsAlreadySignedUp(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest && apiErr.Type == "already_signed_up"
}

// Client talks to a roster server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New constructs a Client for baseURL, e.g. "http://localhost:8000".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListActivities fetches every activity keyed by name.
func (c *Client) ListActivities(ctx context.Context) (map[string]Activity, error) {
	var out map[string]Activity
	if err := c.do(ctx, http.MethodGet, "/activities", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Signup enrolls email in activity and returns the server's confirmation.
func (c *Client) Signup(ctx context.Context, activity, email string) (string, error) {
	return c.rosterChange(ctx, http.MethodPost, activity, "signup", email)
}

// Unregister removes email from activity and returns the server's confirmation.
func (c *Client) Unregister(ctx context.Context, activity, email string) (string, error) {
	return c.rosterChange(ctx, http.MethodDelete, activity, "unregister", email)
}

// Health returns nil when the server reports healthy.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil)
}

func (c *Client) rosterChange(ctx context.Context, method, activity, action, email string) (string, error) {
	path := "/activities/" + url.PathEscape(activity) + "/" + action + "?email=" + url.QueryEscape(email)
	var resp struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, method, path, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *Client) do(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.Unmarshal(body, apiErr)
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
