// Package docstore talks to a Firebase Realtime Database style REST surface:
// every collection lives at /{collection}.json and every document at
// /{collection}/{id}.json.
package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

// Document is one child of a collection. Data is the raw stored value.
type Document struct {
	ID   string
	Data json.RawMessage
}

// Decode unmarshals the document body into v.
func (d Document) Decode(v any) error {
	return json.Unmarshal(d.Data, v)
}

// ObserveFunc is called once per request with the HTTP status (0 when the
// request failed before a response arrived).
type ObserveFunc func(method, collection string, status int, d time.Duration)

// Client calls the remote document store. No retries are attempted.
type Client struct {
	BaseURL string
	HTTP    *http.Client

	authToken string
	observe   ObserveFunc
}

// Option configures a Client.
type Option func(*Client)

// WithAuthToken appends ?auth=<token> to every request.
func WithAuthToken(token string) Option {
	return func(c *Client) { c.authToken = token }
}

// WithTimeout sets a per-request timeout. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		h := *c.HTTP
		h.Timeout = d
		c.HTTP = &h
	}
}

// WithObserver registers a callback for request metrics.
func WithObserver(fn ObserveFunc) Option {
	return func(c *Client) { c.observe = fn }
}

// New creates a client for the store rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchAll reads every document of a collection, ordered by key. An empty
// collection (no body, null or {}) yields an empty, non-nil slice.
func (c *Client) FetchAll(ctx context.Context, collection string) ([]Document, error) {
	status, body, err := c.do(ctx, http.MethodGet, collection, c.endpoint(collection), nil)
	if err != nil {
		return nil, &FetchError{
			Message: fmt.Sprintf("failed to fetch %s: %v", collection, err),
			Status:  status,
			Err:     err,
		}
	}
	if status >= 300 {
		return nil, &FetchError{
			Message: fmt.Sprintf("failed to fetch %s: %s", collection, statusText(status, body)),
			Status:  status,
		}
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return []Document{}, nil
	}

	var children map[string]json.RawMessage
	if err := json.Unmarshal(body, &children); err != nil {
		return nil, &FetchError{
			Message: fmt.Sprintf("failed to decode %s: %v", collection, err),
			Status:  status,
			Err:     err,
		}
	}

	keys := make([]string, 0, len(children))
	for k, v := range children {
		if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	docs := make([]Document, 0, len(keys))
	for _, k := range keys {
		docs = append(docs, Document{ID: k, Data: children[k]})
	}
	return docs, nil
}

// Create appends v to the collection and returns the generated key.
func (c *Client) Create(ctx context.Context, collection string, v any) (string, error) {
	status, body, err := c.write(ctx, http.MethodPost, collection, c.endpoint(collection), v)
	if err != nil {
		return "", err
	}

	var out struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(body, &out); err != nil || out.Name == "" {
		if err == nil {
			err = fmt.Errorf("response carries no key")
		}
		return "", &WriteError{
			Message: fmt.Sprintf("failed to create in %s: %v", collection, err),
			Status:  status,
			Err:     err,
		}
	}
	return out.Name, nil
}

// Update merges v into an existing document.
func (c *Client) Update(ctx context.Context, collection, id string, v any) error {
	_, _, err := c.write(ctx, http.MethodPatch, collection, c.endpoint(collection, id), v)
	return err
}

// Put replaces the document wholesale, creating it when absent.
func (c *Client) Put(ctx context.Context, collection, id string, v any) error {
	_, _, err := c.write(ctx, http.MethodPut, collection, c.endpoint(collection, id), v)
	return err
}

// Delete removes a document. It reports true once the store has acknowledged it.
func (c *Client) Delete(ctx context.Context, collection, id string) (bool, error) {
	if _, _, err := c.write(ctx, http.MethodDelete, collection, c.endpoint(collection, id), nil); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Client) write(ctx context.Context, method, collection, endpoint string, v any) (int, []byte, error) {
	var payload []byte
	if v != nil {
		b, err := json.Marshal(v)
		if err != nil {
			return 0, nil, &WriteError{
				Message: fmt.Sprintf("failed to encode %s document: %v", collection, err),
				Err:     err,
			}
		}
		payload = b
	}

	status, body, err := c.do(ctx, method, collection, endpoint, payload)
	if err != nil {
		return status, nil, &WriteError{
			Message: fmt.Sprintf("failed to write %s: %v", collection, err),
			Status:  status,
			Err:     err,
		}
	}
	if status >= 300 {
		return status, nil, &WriteError{
			Message: fmt.Sprintf("failed to write %s: %s", collection, statusText(status, body)),
			Status:  status,
		}
	}
	return status, body, nil
}

func (c *Client) do(ctx context.Context, method, collection, endpoint string, payload []byte) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return 0, nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		c.record(method, collection, 0, start)
		return 0, nil, redact(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	c.record(method, collection, resp.StatusCode, start)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func (c *Client) record(method, collection string, status int, start time.Time) {
	if c.observe != nil {
		c.observe(method, collection, status, time.Since(start))
	}
}

func (c *Client) endpoint(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	u := c.BaseURL + "/" + strings.Join(escaped, "/") + ".json"
	if c.authToken != "" {
		u += "?auth=" + url.QueryEscape(c.authToken)
	}
	return u
}

// transportError hides the request URL, which carries the auth token.
type transportError struct {
	method string
	err    error
}

func (e *transportError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.method, e.err)
}

func (e *transportError) Unwrap() error { return e.err }

func redact(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return &transportError{method: ue.Op, err: ue.Err}
	}
	return &transportError{method: "http", err: err}
}

func statusText(status int, body []byte) string {
	msg := strings.TrimSpace(string(body))
	var rtdb struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &rtdb) == nil && rtdb.Error != "" {
		msg = rtdb.Error
	}
	if msg == "" {
		return fmt.Sprintf("%d %s", status, http.StatusText(status))
	}
	return fmt.Sprintf("%d %s: %s", status, http.StatusText(status), msg)
}
