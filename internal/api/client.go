package api

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

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/nvoss/persona-pilot/internal/metrics"
)

const defaultTimeout = 30 * time.Second

// Client executes requests against the simulation service. One instance is
// constructed at startup and handed to every controller; there is no package
// level default.
type Client struct {
	logger  zerolog.Logger
	baseURL string
	apiKey  string
	http    *retryablehttp.Client
	limiter *rate.Limiter
	metrics *metrics.Metrics
}

// Option customizes client behavior.
type Option func(*Client)

// WithAPIKey sets the bearer token attached to every request.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.http.HTTPClient.Timeout = timeout
	}
}

// WithRateLimit caps outbound requests per second. Zero disables the limiter.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithMetrics attaches request instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New constructs a Client for the given base URL.
func New(logger zerolog.Logger, baseURL string, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: must include scheme and host", baseURL)
	}

	inner := retryablehttp.NewClient()
	inner.RetryMax = 0
	inner.CheckRetry = func(_ context.Context, _ *http.Response, _ error) (bool, error) {
		return false, nil
	}
	inner.Logger = nil
	inner.HTTPClient = &http.Client{Timeout: defaultTimeout}

	c := &Client{
		logger:  logger,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    inner,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// call describes one request. op is a stable label for logs and metrics;
// header entries override the defaults set by do.
type call struct {
	op     string
	method string
	path   string
	body   any
	header http.Header
}

// do executes one request and decodes a 2xx response body into T. Non-2xx
// responses are normalized into *Error; requests that never complete are
// wrapped in *TransportError.
func do[T any](ctx context.Context, c *Client, req call) (T, error) {
	var zero T

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return zero, &TransportError{Err: err}
		}
	}

	var payload io.Reader
	if req.body != nil {
		encoded, err := json.Marshal(req.body)
		if err != nil {
			return zero, fmt.Errorf("encode %s request: %w", req.op, err)
		}
		payload = bytes.NewReader(encoded)
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, payload)
	if err != nil {
		return zero, fmt.Errorf("build %s request: %w", req.op, err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	for key, values := range req.header {
		httpReq.Header.Del(key)
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.metrics.IncTransportFailure(req.op)
		c.logger.Debug().Err(err).Str("op", req.op).Msg("request did not complete")
		return zero, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.IncTransportFailure(req.op)
		return zero, &TransportError{Err: fmt.Errorf("read %s response: %w", req.op, err)}
	}

	c.metrics.ObserveRequest(req.op, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := normalizeError(resp.StatusCode, body)
		c.metrics.IncAPIError(req.op)
		c.logger.Debug().
			Str("op", req.op).
			Int("status", apiErr.Status).
			Str("message", apiErr.Message).
			Msg("request rejected")
		return zero, apiErr
	}

	if len(body) == 0 {
		return zero, nil
	}
	var decoded T
	if err := json.Unmarshal(body, &decoded); err != nil {
		return zero, &Error{
			Message: fmt.Sprintf("malformed response body: %v", err),
			Status:  resp.StatusCode,
		}
	}
	return decoded, nil
}
