package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// UserAgent identifies this scraper to the upstream markets.
const UserAgent = "gpu-yield-pricefeed/1.0"

// DefaultHTTPTimeout bounds a single fetch attempt.
const DefaultHTTPTimeout = 15 * time.Second

// Client is the HTTP substrate shared by the REST adapters. It applies the
// common headers and maps response status to the provider error taxonomy:
// 404 and auth rejections are config errors, everything else that fails is
// transient.
type Client struct {
	http      *http.Client
	userAgent string
}

func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		userAgent: UserAgent,
	}
}

// GetJSON fetches url and decodes the JSON response into out.
func (c *Client) GetJSON(ctx context.Context, source, url string, headers map[string]string, out interface{}) error {
	return c.doJSON(ctx, source, http.MethodGet, url, headers, nil, out)
}

// PostJSON sends body as JSON and decodes the response into out.
func (c *Client) PostJSON(ctx context.Context, source, url string, headers map[string]string, body, out interface{}) error {
	return c.doJSON(ctx, source, http.MethodPost, url, headers, body, out)
}

func (c *Client) doJSON(ctx context.Context, source, method, url string, headers map[string]string, body, out interface{}) error {
	var payload *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return &ConfigError{Source: source, Err: fmt.Errorf("failed to encode request body: %w", err)}
		}
		payload = bytes.NewReader(encoded)
	}

	var req *http.Request
	var err error
	if payload != nil {
		req, err = http.NewRequestWithContext(ctx, method, url, payload)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, url, nil)
	}
	if err != nil {
		return &ConfigError{Source: source, Err: fmt.Errorf("failed to build request: %w", err)}
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransientError{Source: source, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &ConfigError{Source: source, Err: fmt.Errorf("endpoint not found: %s", url)}
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return &ConfigError{Source: source, Err: fmt.Errorf("request rejected with status %d", resp.StatusCode)}
	case resp.StatusCode == http.StatusTooManyRequests:
		return &TransientError{Source: source, Err: fmt.Errorf("rate limit exceeded")}
	case resp.StatusCode >= 500:
		return &TransientError{Source: source, Err: fmt.Errorf("server error: %d", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return &TransientError{Source: source, Err: fmt.Errorf("unexpected status: %d", resp.StatusCode)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransientError{Source: source, Err: fmt.Errorf("invalid JSON response: %w", err)}
	}
	return nil
}
