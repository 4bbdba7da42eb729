// Package api is a typed client for the Assessly REST API.
//
// Every response is wrapped in the envelope
//
//	{"data": ..., "error": {"code", "message", "fields"}, "metadata": {"request_id", "timestamp"}}
//
// Requests are never retried: starting and submitting an attempt are not
// idempotent on the server.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Client talks to the Assessly API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        zerolog.Logger
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithLogger sets the logger used for request events.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// New creates a new API client.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.log = c.log.With().Str("component", "api").Logger()
	return c
}

// BaseURL returns the API root the client was built with.
func (c *Client) BaseURL() string { return c.baseURL }

// SetToken replaces the bearer token, e.g. after login.
func (c *Client) SetToken(token string) { c.token = token }

// Authenticated reports whether a bearer token is set.
func (c *Client) Authenticated() bool { return c.token != "" }

type envelope struct {
	Data     json.RawMessage `json:"data"`
	Error    *errorBody      `json:"error"`
	Metadata metadata        `json:"metadata"`
}

type errorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type metadata struct {
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

// rawResponse is a non-enveloped response body.
type rawResponse struct {
	Body        []byte
	ContentType string
	Disposition string
}

// do sends a JSON request and returns the envelope's data on success.
func (c *Client) do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	raw, err := c.send(ctx, method, path, body, "application/json")
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(raw.Body, &env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if env.Error != nil {
		return nil, &Error{
			Code:      env.Error.Code,
			Message:   env.Error.Message,
			Fields:    env.Error.Fields,
			RequestID: env.Metadata.RequestID,
		}
	}
	return env.Data, nil
}

// send performs the HTTP round trip. Non-2xx responses become *Error.
func (c *Client) send(ctx context.Context, method, path string, body any, accept string) (*rawResponse, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	reqID := uuid.New().String()
	req.Header.Set("Accept", accept)
	req.Header.Set("X-Request-ID", reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("method", method).Str("path", path).Str("request_id", reqID).Msg("request failed")
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Str("request_id", reqID).
		Dur("latency", time.Since(start)).
		Msg("api request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newStatusError(resp.StatusCode, reqID, data)
	}

	return &rawResponse{
		Body:        data,
		ContentType: resp.Header.Get("Content-Type"),
		Disposition: resp.Header.Get("Content-Disposition"),
	}, nil
}

// newStatusError builds an *Error from a non-2xx body, preferring the
// envelope's error block when the body is one.
func newStatusError(status int, reqID string, body []byte) *Error {
	e := &Error{StatusCode: status, RequestID: reqID}

	var env envelope
	if json.Unmarshal(body, &env) == nil && env.Error != nil {
		e.Code = env.Error.Code
		e.Message = env.Error.Message
		e.Fields = env.Error.Fields
		if env.Metadata.RequestID != "" {
			e.RequestID = env.Metadata.RequestID
		}
		return e
	}

	e.Message = strings.TrimSpace(string(body))
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}

func decodeData[T any](data json.RawMessage) (T, error) {
	var out T
	if len(data) == 0 || string(data) == "null" {
		return out, fmt.Errorf("decode response: empty data")
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}
