// Package apiclient is the generic REST client the admin tooling uses to talk
// to the drp backend. It knows the JSON envelope, bearer authentication and
// the error shape; it knows nothing about individual entities.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrNoToken is returned when a call requiring authentication is attempted
// with no stored token. Call sites fail fast instead of round-tripping a 401.
var ErrNoToken = errors.New("apiclient: not logged in")

// APIError is a non-2xx response from the backend. Detail carries the
// server's human-readable message when the body provided one.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// Client talks to the versioned HTTP API rooted at base (e.g.
// "http://localhost:9000"). All entity paths are relative to /api/v1/.
type Client struct {
	base   string
	httpc  *http.Client
	tokens TokenStore
}

// New creates a Client. A nil store disables authenticated calls.
func New(base string, tokens TokenStore) *Client {
	return &Client{
		base:   strings.TrimRight(base, "/"),
		httpc:  &http.Client{Timeout: 30 * time.Second},
		tokens: tokens,
	}
}

func (c *Client) Get(ctx context.Context, path string, requireAuth bool) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, path, nil, requireAuth)
}

func (c *Client) Post(ctx context.Context, path string, body interface{}, requireAuth bool) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, path, body, requireAuth)
}

func (c *Client) Put(ctx context.Context, path string, body interface{}, requireAuth bool) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPut, path, body, requireAuth)
}

func (c *Client) Patch(ctx context.Context, path string, body interface{}, requireAuth bool) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPatch, path, body, requireAuth)
}

func (c *Client) Delete(ctx context.Context, path string, body interface{}, requireAuth bool) (json.RawMessage, error) {
	return c.do(ctx, http.MethodDelete, path, body, requireAuth)
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, requireAuth bool) (json.RawMessage, error) {
	var token string
	if requireAuth {
		var err error
		if c.tokens == nil {
			return nil, ErrNoToken
		}
		token, err = c.tokens.Token()
		if err != nil {
			return nil, err
		}
		if token == "" {
			return nil, ErrNoToken
		}
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	// Paths are relative to the API root. A leading slash addresses the
	// server root instead, for the auth endpoints outside /api/v1.
	url := c.base + "/api/v1/" + path
	if strings.HasPrefix(path, "/") {
		url = c.base + path
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Status: resp.StatusCode, Detail: errorDetail(data)}
	}
	return data, nil
}

// errorDetail extracts the server's message from an error body, preferring
// "detail" over "error". Unparsable bodies yield an empty detail so callers
// fall back to the generic status message.
func errorDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}
	if parsed.Detail != "" {
		return parsed.Detail
	}
	return parsed.Error
}

// DecodeData unwraps the {"data": ...} envelope into v.
func DecodeData(raw json.RawMessage, v interface{}) error {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return err
	}
	if envelope.Data == nil {
		return errors.New("apiclient: response has no data field")
	}
	return json.Unmarshal(envelope.Data, v)
}
