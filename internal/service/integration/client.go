package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const maxResponseSize = 10 << 20

// RequestObserver is told about every finished backend call.
type RequestObserver interface {
	ObserveRequest(method, resource, outcome string, duration time.Duration)
}

type noopObserver struct{}

func (noopObserver) ObserveRequest(string, string, string, time.Duration) {}

// RestClient is the shared transport of the resource clients: base URL,
// bearer token, body encoding, status classification and retries.
type RestClient struct {
	baseURL    string
	timeout    time.Duration
	retryCount int
	retryDelay time.Duration
	location   *time.Location
	client     *http.Client
	observer   RequestObserver
	logger     zerolog.Logger
}

type Option func(*RestClient)

func WithObserver(o RequestObserver) Option {
	return func(c *RestClient) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithLocation sets the zone for deadlines the backend sends without an offset.
func WithLocation(loc *time.Location) Option {
	return func(c *RestClient) {
		if loc != nil {
			c.location = loc
		}
	}
}

func NewRestClient(baseURL string, timeout time.Duration, retryCount int, retryDelay time.Duration, logger zerolog.Logger, opts ...Option) *RestClient {
	c := &RestClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    timeout,
		retryCount: retryCount,
		retryDelay: retryDelay,
		location:   time.UTC,
		client: &http.Client{
			Timeout: timeout,
		},
		observer: noopObserver{},
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RestClient) Location() *time.Location {
	return c.location
}

type formFile struct {
	field   string
	name    string
	content []byte
}

type request struct {
	method   string
	path     string
	resource string
	token    string
	query    url.Values
	body     interface{}
	fields   map[string]string
	files    []formFile
}

// do sends req and returns the raw JSON body of a 2xx answer. Only GETs are
// retried, and only when the backend is unreachable or answers 5xx.
func (c *RestClient) do(ctx context.Context, req request) (json.RawMessage, error) {
	start := time.Now()
	raw, err := c.doWithRetry(ctx, req)
	c.observer.ObserveRequest(req.method, req.resource, outcome(err), time.Since(start))
	return raw, err
}

func (c *RestClient) doWithRetry(ctx context.Context, req request) (json.RawMessage, error) {
	attempts := 1
	if req.method == http.MethodGet {
		attempts += c.retryCount
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			c.logger.Warn().
				Int("attempt", i).
				Str("method", req.method).
				Str("path", req.path).
				Err(lastErr).
				Msg("Retrying backend request")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay * time.Duration(i)):
			}
		}

		raw, err := c.send(ctx, req)
		if err == nil {
			return raw, nil
		}
		lastErr = err

		if !retryable(err) || ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

func retryable(err error) bool {
	if errors.Is(err, ErrUnavailable) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Temporary()
}

func (c *RestClient) send(ctx context.Context, req request) (json.RawMessage, error) {
	httpReq, err := c.newHTTPRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %s %s: %v", ErrUnavailable, req.method, req.path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		c.logger.Warn().Str("method", req.method).Str("path", req.path).Msg("Backend rejected token")
		return nil, ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		apiErr := newAPIError(resp.StatusCode, body)
		c.logger.Debug().
			Str("method", req.method).
			Str("path", req.path).
			Int("status", resp.StatusCode).
			Str("message", apiErr.Message).
			Msg("Backend returned error status")
		return nil, apiErr
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: %s %s returned non-JSON body", ErrUnexpectedResponse, req.method, req.path)
	}
	return body, nil
}

func (c *RestClient) newHTTPRequest(ctx context.Context, req request) (*http.Request, error) {
	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var (
		body        io.Reader
		contentType string
	)
	switch {
	case len(req.files) > 0 || len(req.fields) > 0:
		buf, ct, err := encodeMultipart(req.fields, req.files)
		if err != nil {
			return nil, err
		}
		body, contentType = buf, ct
	case req.body != nil:
		data, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body, contentType = bytes.NewReader(data), "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}
	return httpReq, nil
}

func encodeMultipart(fields map[string]string, files []formFile) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for _, f := range files {
		part, err := writer.CreateFormFile(f.field, f.name)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := io.Copy(part, bytes.NewReader(f.content)); err != nil {
			return nil, "", fmt.Errorf("failed to copy file content: %w", err)
		}
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("failed to write form field: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}
