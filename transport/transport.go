// Package transport implements the HTTP boundary of the client. It knows
// nothing about query composition: it ships a JSON payload (or a multipart
// upload form) to the configured endpoint and hands the raw response back.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/hanpama/gqlfront/internal/deepmerge"
	eventbus "github.com/hanpama/gqlfront/internal/eventbus"
	events "github.com/hanpama/gqlfront/internal/events"
)

// UploadHeader marks multipart upload requests so servers can route them
// before inspecting the body.
const UploadHeader = "X-GQL-Upload"

// Response is the raw settled result of one transport call.
type Response struct {
	Status int
	Body   []byte
}

// File is one part of an upload form.
type File struct {
	Name    string
	Content io.Reader
}

// Form is the multipart payload for Upload. Query and Variables follow the
// same composition rules as the JSON envelope; Files are attached under
// FieldName.
type Form struct {
	Query     string
	Variables map[string]any
	FieldName string
	Files     []File
}

// Client issues HTTP calls with instance-level default headers.
type Client struct {
	http    *http.Client
	headers map[string]string
}

type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithHeaders sets instance-level default headers.
func WithHeaders(h map[string]string) Option {
	return func(c *Client) { c.headers = deepmerge.Strings(h) }
}

// WithTimeout sets the per-request timeout. 0 means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// New creates a transport client.
func New(opts ...Option) *Client {
	c := &Client{http: &http.Client{}, headers: map[string]string{}}
	for _, f := range opts {
		f(c)
	}
	return c
}

// Get sends the payload with the GET verb. The GraphQL envelope still rides
// in the body, matching the query registry's wire contract.
func (c *Client) Get(ctx context.Context, url string, body any, headers map[string]string) (*Response, error) {
	return c.send(ctx, http.MethodGet, url, body, headers)
}

// Post sends the payload with the POST verb.
func (c *Client) Post(ctx context.Context, url string, body any, headers map[string]string) (*Response, error) {
	return c.send(ctx, http.MethodPost, url, body, headers)
}

func (c *Client) send(ctx context.Context, method, url string, body any, headers map[string]string) (*Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range deepmerge.Strings(c.headers, headers) {
		req.Header.Set(k, v)
	}
	return c.do(req, false)
}

// Upload sends a multipart form carrying the composed operation plus the
// attached files, marked with the UploadHeader.
func (c *Client) Upload(ctx context.Context, url string, form Form, headers map[string]string) (*Response, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("query", form.Query); err != nil {
		return nil, err
	}
	if form.Variables != nil {
		vars, err := json.Marshal(form.Variables)
		if err != nil {
			return nil, fmt.Errorf("failed to encode variables: %w", err)
		}
		if err := w.WriteField("variables", string(vars)); err != nil {
			return nil, err
		}
	}
	for _, f := range form.Files {
		part, err := w.CreateFormFile(form.FieldName, f.Name)
		if err != nil {
			return nil, err
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, fmt.Errorf("failed to write file %q: %w", f.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set(UploadHeader, "1")
	for k, v := range deepmerge.Strings(c.headers, headers) {
		req.Header.Set(k, v)
	}
	return c.do(req, true)
}

func (c *Client) do(req *http.Request, upload bool) (*Response, error) {
	ctx := req.Context()
	start := time.Now()
	eventbus.Publish(ctx, events.HTTPStart{Method: req.Method, URL: req.URL.String(), Upload: upload})

	res, err := c.http.Do(req)
	if err != nil {
		eventbus.Publish(ctx, events.HTTPFinish{Method: req.Method, URL: req.URL.String(), Err: err, Duration: time.Since(start)})
		return nil, err
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	eventbus.Publish(ctx, events.HTTPFinish{Method: req.Method, URL: req.URL.String(), Status: res.StatusCode, Err: err, Duration: time.Since(start)})
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return &Response{Status: res.StatusCode, Body: body}, nil
}
