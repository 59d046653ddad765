// Package client is the Go client of the media catalog HTTP API.
//
// Every method is one request-response round trip; nothing is retried. Non-2xx
// responses come back as *APIError carrying the server's message.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"mediacatalog/models"

	"github.com/goccy/go-json"
)

// ErrNotFound matches any *APIError with status 404 under errors.Is.
var ErrNotFound = errors.New("not found")

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// Is reports whether target is ErrNotFound and the status is 404.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Client talks to the /media endpoints of one server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// New returns a client for the server at baseURL, e.g. http://localhost:5500.
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

// List returns every record.
func (c *Client) List(ctx context.Context) ([]models.MediaRecord, error) {
	var records []models.MediaRecord
	if err := c.do(ctx, http.MethodGet, "/media", nil, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []models.MediaRecord{}
	}
	return records, nil
}

// Get returns the record with the given id.
func (c *Client) Get(ctx context.Context, id int64) (*models.MediaRecord, error) {
	var rec models.MediaRecord
	if err := c.do(ctx, http.MethodGet, mediaPath(id), nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Create adds a record and returns it with its server-assigned id.
func (c *Client) Create(ctx context.Context, in models.MediaInput) (*models.MediaRecord, error) {
	var rec models.MediaRecord
	if err := c.do(ctx, http.MethodPost, "/media", in, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Update replaces all fields of the record with the given id.
func (c *Client) Update(ctx context.Context, id int64, in models.MediaInput) (*models.MediaRecord, error) {
	var rec models.MediaRecord
	if err := c.do(ctx, http.MethodPut, mediaPath(id), in, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Delete removes the record with the given id.
func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, mediaPath(id), nil, nil)
}

func mediaPath(id int64) string {
	return "/media/" + strconv.FormatInt(id, 10)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(resp.StatusCode, data)}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// errorMessage prefers the {message} field of an error body and falls back to
// the raw text, then to the status text.
func errorMessage(status int, data []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Message != "" {
		return body.Message
	}
	if text := strings.TrimSpace(string(data)); text != "" {
		return text
	}
	return http.StatusText(status)
}
