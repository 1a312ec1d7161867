// Package fleetapi is a typed client for the FleetFlow REST API.
//
// The client does no authentication of its own. Construct it with a transport from
// package authtransport to get bearer tokens and session recovery on every call.
package fleetapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/oapi-codegen/runtime"
)

// DefaultTimeout bounds a single HTTP exchange, including a pipeline replay.
const DefaultTimeout = 30 * time.Second

// RequestEditorFn modifies an outgoing request before it is sent.
type RequestEditorFn func(ctx context.Context, req *http.Request) error

// Option configures a Client.
type Option func(*Client)

// WithTransport sets the round tripper used for every request.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.httpClient.Transport = rt
	}
}

// WithTimeout overrides DefaultTimeout. Zero disables the client-side timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// Client talks to the FleetFlow backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// New creates a client for the API rooted at baseURL (e.g. https://fleet.example.com/api/v1).
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: scheme and host required", baseURL)
	}

	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// envelope is the backend's response wrapper for both success and error bodies.
type envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Meta    *PageMeta       `json:"meta,omitempty"`
	Message string          `json:"message,omitempty"`
	Code    string          `json:"code,omitempty"`
}

// do sends a request and decodes the envelope's data into result. It returns the
// pagination meta when the backend sends one.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, result any, editors ...RequestEditorFn) (*PageMeta, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, edit := range editors {
		if err := edit(ctx, req); err != nil {
			return nil, err
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(respBody, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if decodeErr == nil {
			apiErr.Message = env.Message
			apiErr.Code = env.Code
		}
		return nil, apiErr
	}

	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode response: %w", decodeErr)
	}
	if result != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, result); err != nil {
			return nil, fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return env.Meta, nil
}

// addQueryParam form-encodes value under name. Zero values are skipped.
func addQueryParam(query url.Values, name string, value any) error {
	if rv := reflect.ValueOf(value); !rv.IsValid() || rv.IsZero() {
		return nil
	}

	frag, err := runtime.StyleParamWithLocation("form", true, name, runtime.ParamLocationQuery, value)
	if err != nil {
		return fmt.Errorf("encoding query parameter %s: %w", name, err)
	}
	parsed, err := url.ParseQuery(frag)
	if err != nil {
		return fmt.Errorf("encoding query parameter %s: %w", name, err)
	}
	for k, vs := range parsed {
		for _, v := range vs {
			query.Add(k, v)
		}
	}
	return nil
}

// pathEscape escapes a path segment such as a resource id.
func pathEscape(segment string) string {
	return url.PathEscape(segment)
}
