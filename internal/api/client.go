package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/slok/flowctl/internal/log"
	"github.com/slok/flowctl/internal/model"
)

// TokenProvider supplies the bearer token attached to every request.
//
// Implementations can return a static token or refresh it per call. The
// client never caches the returned value.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenProvider that always returns the same token.
type StaticToken string

// Token satisfies TokenProvider.
func (t StaticToken) Token(_ context.Context) (string, error) { return string(t), nil }

// ClientConfig configures the BFF API client.
type ClientConfig struct {
	// BaseURL is the BFF base URL (e.g. "https://bff.example.com").
	BaseURL string
	// TenantID is sent as the X-Tenant-ID header on every request.
	TenantID string
	// Token supplies the bearer token for every request.
	Token TokenProvider
	// HTTPClient is the HTTP client used for all requests.
	HTTPClient *http.Client
	// Logger for logging.
	Logger log.Logger
}

func (c *ClientConfig) defaults() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}
	c.BaseURL = strings.TrimSuffix(c.BaseURL, "/")

	if c.TenantID == "" {
		return fmt.Errorf("tenant ID is required")
	}

	if c.Token == nil {
		return fmt.Errorf("token provider is required")
	}

	if c.HTTPClient == nil {
		c.HTTPClient = http.DefaultClient
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "api.Client"})

	return nil
}

// Client is the HTTP client for the workflow BFF.
//
// The configuration is immutable after construction: credentials and tenant
// are threaded through the config instead of mutable fields, so independent
// tenant contexts use independent clients.
type Client struct {
	baseURL    string
	tenantID   string
	token      TokenProvider
	httpClient *http.Client
	logger     log.Logger
}

// NewClient creates a new BFF API client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		tenantID:   cfg.TenantID,
		token:      cfg.Token,
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger,
	}, nil
}

// newRequest creates a request with the auth and tenant headers set.
func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}

	token, err := c.token.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not get auth token: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Tenant-ID", c.tenantID)

	return req, nil
}

// doJSON sends a request with an optional JSON body and decodes the JSON
// response into out (when out is not nil). Non-2xx responses are returned as
// an error carrying the server-provided message.
func (c *Client) doJSON(ctx context.Context, method, path string, reqBody, out interface{}) error {
	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("could not marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.responseError(resp)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("could not decode response body: %w", err)
	}

	return nil
}

// errorJSON is the BFF's error envelope.
type errorJSON struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// responseError maps a non-2xx response to an error, preserving the
// server-provided message when the body carries one.
func (c *Client) responseError(resp *http.Response) error {
	msg := serverMessage(resp)

	if resp.StatusCode == http.StatusNotFound {
		if msg == "" {
			msg = "resource not found"
		}
		return fmt.Errorf("%s: %w", msg, model.ErrNotFound)
	}

	if msg == "" {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, msg)
}

func serverMessage(resp *http.Response) string {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return ""
	}

	var e errorJSON
	if err := json.Unmarshal(data, &e); err == nil {
		if e.Error != "" {
			return e.Error
		}
		if e.Message != "" {
			return e.Message
		}
	}

	return strings.TrimSpace(string(data))
}
