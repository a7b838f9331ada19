// Package transport is the outbound HTTP capability shared by the channel adapters.
// Channels never dial the network themselves; they receive a Transport.
package transport

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
)

// DefaultTimeout is used by NewHTTPClient when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// maxErrorBody bounds how much of an error response is kept for logging.
const maxErrorBody = 512

// Transport sends a request and returns its response. *http.Client satisfies it.
type Transport interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewHTTPClient creates the client used in production.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s returned status %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s returned status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// GetJSON performs a GET with optional headers and decodes a JSON response into out.
func GetJSON(ctx context.Context, t Transport, rawURL string, header http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	copyHeader(req.Header, header)
	return do(t, req, out)
}

// PostForm posts form-encoded values and decodes a JSON response into out when out is non-nil.
func PostForm(ctx context.Context, t Transport, rawURL string, header http.Header, values url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(values.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	copyHeader(req.Header, header)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return do(t, req, out)
}

// PostJSON posts body as JSON and decodes a JSON response into out when out is non-nil.
func PostJSON(ctx context.Context, t Transport, rawURL string, header http.Header, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	copyHeader(req.Header, header)
	req.Header.Set("Content-Type", "application/json")
	return do(t, req, out)
}

// Bearer returns an Authorization header carrying token.
func Bearer(token string) http.Header {
	h := make(http.Header)
	h.Set("Authorization", "Bearer "+token)
	return h
}

func copyHeader(dst, src http.Header) {
	for k, vs := range src {
		for _, v := range vs {
			dst.Add(k, v)
		}
	}
}

func do(t Transport, req *http.Request, out any) error {
	resp, err := t.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send %s %s: %w", req.Method, req.URL.Redacted(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method:     req.Method,
			URL:        req.URL.Redacted(),
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", req.URL.Redacted(), err)
	}
	return nil
}
