// Package api is the outbound HTTP client for the backend REST API.
//
// The client never treats a non-2xx status as a Go error: every completed
// round trip yields a Response, and callers branch on Response.OK(). Only
// transport failures (unreachable host, timeout, cancelled context) return
// an error. Server failures carry a JSON {"error": "..."} envelope which
// Response.Err() surfaces verbatim.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"expenser/internal/log"
)

// TokenSource supplies the bearer token for request signing. An empty
// token means the request goes out unauthenticated.
type TokenSource interface {
	Token() string
}

// Client calls the backend under a fixed base URL.
type Client struct {
	baseURL string
	client  *http.Client
	tokens  TokenSource
	logger  *log.Logger
}

// NewClient creates an API client. baseURL includes the path prefix,
// e.g. "http://localhost:8080/cxf".
func NewClient(baseURL string, timeout time.Duration, tokens TokenSource, logger *log.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		tokens:  tokens,
		logger:  logger.WithComponent(log.ComponentAPI),
	}
}

// Response is a completed round trip. The body is fully read and the
// connection released before the Response is returned.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// errorEnvelope is the uniform failure body returned by every endpoint.
type errorEnvelope struct {
	Error string `json:"error"`
}

// Err extracts the server's error message for a non-OK response. The
// message is surfaced verbatim; when the body carries no envelope the
// status text stands in. Returns nil for a 2xx response.
func (r *Response) Err() error {
	if r.OK() {
		return nil
	}
	var env errorEnvelope
	if err := json.Unmarshal(r.Body, &env); err == nil && env.Error != "" {
		return fmt.Errorf("%s", env.Error)
	}
	return fmt.Errorf("request failed: %s", http.StatusText(r.StatusCode))
}

// Decode unmarshals a 2xx body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}

// Do performs a JSON request. A nil body sends no payload and no
// content-type header.
func (c *Client) Do(ctx context.Context, method, path string, body any) (*Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(ctx, req)
}

// Upload performs a multipart file upload under the given form field.
func (c *Client) Upload(ctx context.Context, path, field, fileName string, content []byte) (*Response, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile(field, fileName)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return nil, fmt.Errorf("write form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return c.send(ctx, req)
}

func (c *Client) send(ctx context.Context, req *http.Request) (*Response, error) {
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "Request transport failure",
			log.FieldMethod, req.Method,
			log.FieldPath, req.URL.Path,
			log.FieldError, err)
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	c.logger.DebugContext(ctx, "Request completed",
		log.FieldMethod, req.Method,
		log.FieldPath, req.URL.Path,
		log.FieldStatusCode, resp.StatusCode,
		log.FieldDuration, time.Since(start).Milliseconds())

	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}
