// Package client talks to the dashboard backend that fronts the inference
// service, the object store, the SMS/email providers and the chat model.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var jsonStd = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 512
	maxBodyBytes   = 8 << 20
)

// HTTPClient is satisfied by *http.Client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Backend is the HTTP client for all backend collaborators.
type Backend struct {
	baseURL string
	http    HTTPClient
	now     func() time.Time
}

// Option customises a Backend.
type Option func(*Backend)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c HTTPClient) Option {
	return func(b *Backend) { b.http = c }
}

// WithClock replaces time.Now, used for upload timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) { b.now = now }
}

// NewBackend builds a client for baseURL with a bounded request timeout.
func NewBackend(baseURL string, timeout time.Duration, opts ...Option) *Backend {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	b := &Backend{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// envelope holds the status fields every backend response may carry.
type envelope struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (e envelope) failed() error {
	if e.Success == nil || *e.Success {
		return nil
	}
	msg := strings.TrimSpace(e.Error)
	if msg == "" {
		msg = strings.TrimSpace(e.Message)
	}
	if msg == "" {
		msg = "backend reported failure"
	}
	return errors.New(msg)
}

// call performs one JSON round trip and decodes the response into out.
func (b *Backend) call(ctx context.Context, op, method, path string, query url.Values, in, out any) error {
	u := b.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		payload, err := jsonStd.Marshal(in)
		if err != nil {
			return &NetworkError{Op: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return &NetworkError{Op: op, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.http.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &NetworkError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	var env envelope
	_ = jsonStd.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if failure := env.failed(); failure != nil {
			return &NetworkError{Op: op, StatusCode: resp.StatusCode, Err: failure}
		}
		return &NetworkError{Op: op, StatusCode: resp.StatusCode, Err: errors.New(snippet(raw))}
	}
	if failure := env.failed(); failure != nil {
		return &NetworkError{Op: op, StatusCode: resp.StatusCode, Err: failure}
	}
	if out == nil {
		return nil
	}
	if err := jsonStd.Unmarshal(raw, out); err != nil {
		return &NetworkError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func snippet(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if s == "" {
		return "empty response body"
	}
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody] + "..."
	}
	return s
}
