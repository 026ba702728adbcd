// Package gateway is the frontend-facing fan-out layer: thin proxying
// to the order authority, inventory authority, saga orchestrator, and
// marketing projector, with no persistence or business logic of its
// own. Grounded on original_source/services/bff/app/main.py (the "BFF"
// pattern the spec generalizes as "gateway") and the client wrapper
// shape from sanketh-sg-prost-go/gateway/client.go.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// outboundTimeout bounds every call this gateway makes to a downstream
// service (spec.md §5.7).
const outboundTimeout = 10 * time.Second

// StatusError is returned when a downstream service answers with a
// non-2xx status; callers can inspect StatusCode to translate 404s.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("downstream status %d: %s", e.StatusCode, e.Body)
}

// Client wraps HTTP calls to the platform's downstream services.
type Client struct {
	httpClient *http.Client
}

// NewClient builds a Client.
func NewClient() *Client {
	return &Client{httpClient: &http.Client{Timeout: outboundTimeout}}
}

// Get issues a GET and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, url string, out interface{}) error {
	return c.do(ctx, http.MethodGet, url, nil, out)
}

// Post issues a POST with a JSON body and decodes the JSON response into out.
func (c *Client) Post(ctx context.Context, url string, body interface{}, out interface{}) error {
	return c.do(ctx, http.MethodPost, url, body, out)
}

func (c *Client) do(ctx context.Context, method, url string, body interface{}, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("downstream request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read downstream response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode downstream response: %w", err)
		}
	}
	return nil
}
