// Package upstream talks to the bot-runner control plane, the per-owner
// trading-data API and the Polymarket Data API.
package upstream

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

	"github.com/GoPolymarket/clawdash/internal/pkg/metrics"
)

type Backend string

const (
	BackendVPS        Backend = "vps"
	BackendSimmer     Backend = "simmer"
	BackendPolymarket Backend = "polymarket"
)

const maxErrorBody = 4 << 10

// Options shape a single call. Body is JSON-encoded when non-nil.
type Options struct {
	Method  string
	Headers map[string]string
	Query   url.Values
	Body    any
}

// Client performs uncached JSON calls. There are no retries: a failed call
// is retried by the next poll round, never in-process.
type Client struct {
	httpClient *http.Client
}

func NewClient(timeout time.Duration) *Client {
	return NewClientWithHTTP(&http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        50,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
		Timeout: timeout,
	})
}

func NewClientWithHTTP(hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{httpClient: hc}
}

// FetchJSON calls baseURL+path and returns the raw JSON body. Non-2xx
// responses and transport failures come back as *Error.
func (c *Client) FetchJSON(ctx context.Context, backend Backend, baseURL, path string, opts Options) (json.RawMessage, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	endpoint := strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(path, "/")
	if len(opts.Query) > 0 {
		endpoint += "?" + opts.Query.Encode()
	}

	var body io.Reader
	if opts.Body != nil {
		payload, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("upstream: encode body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("upstream: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.UpstreamLatency.WithLabelValues(string(backend)).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(string(backend), "network_error").Inc()
		return nil, &Error{Backend: backend, Path: path, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.UpstreamRequests.WithLabelValues(string(backend), "http_error").Inc()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &Error{
			Backend: backend,
			Status:  resp.StatusCode,
			Path:    path,
			Message: errorMessage(raw, resp.StatusCode),
		}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(string(backend), "network_error").Inc()
		return nil, &Error{Backend: backend, Status: resp.StatusCode, Path: path, Message: "read body", Err: err}
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		raw = []byte("null")
	}
	if !json.Valid(raw) {
		metrics.UpstreamRequests.WithLabelValues(string(backend), "decode_error").Inc()
		return nil, &Error{Backend: backend, Status: resp.StatusCode, Path: path, Message: "invalid JSON body"}
	}

	metrics.UpstreamRequests.WithLabelValues(string(backend), "ok").Inc()
	return json.RawMessage(raw), nil
}

// errorMessage pulls a human message out of common upstream error shapes.
func errorMessage(raw []byte, status int) string {
	var body struct {
		Error   string `json:"error"`
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		for _, msg := range []string{body.Error, body.Detail, body.Message} {
			if msg != "" {
				return msg
			}
		}
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "unexpected status"
}

// decodeList accepts either a bare JSON array or an object wrapping the
// array under key.
func decodeList[T any](raw json.RawMessage, key string) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []T{}, nil
	}
	if trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		return items, nil
	}
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, err
	}
	inner, ok := wrapped[key]
	if !ok {
		return []T{}, nil
	}
	var items []T
	if err := json.Unmarshal(inner, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func decodeError(backend Backend, path string, err error) error {
	return &Error{Backend: backend, Status: http.StatusOK, Path: path, Message: "unexpected response shape", Err: err}
}
