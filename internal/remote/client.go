// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

/*
Package remote is the only way out to the content-board API.

Every request goes through Client.Call, which:
  - rejects methods other than GET, POST and DELETE before touching the network
  - builds the target as base_url + path + "?" + the ordered query arguments
  - sets the Basic credential and the identifying User-Agent
  - runs through a circuit breaker (transport errors and 5xx count as failures)
  - holds the throttle for the whole call so that at most one request is in
    flight and consecutive requests start at least MinInterval after the
    previous one returned

Non-2xx responses are returned to the caller as a *Response, not as an
error. The typed endpoints in endpoints.go turn them into *APIError.
*/
package remote

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/e6tracker/internal/config"
	"github.com/tomtom215/e6tracker/internal/logging"
	"github.com/tomtom215/e6tracker/internal/metrics"
)

// maxResponseSize bounds how much of a successful body is buffered.
const maxResponseSize = 32 << 20

// QueryArg is one key=value pair of the query string. Order is preserved.
type QueryArg struct {
	Key   string
	Value string
}

// Arg is shorthand for building a QueryArg.
func Arg(key string, value interface{}) QueryArg {
	return QueryArg{Key: key, Value: fmt.Sprint(value)}
}

// Response is a fully read remote response.
type Response struct {
	Method     string
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Err returns nil for 2xx and an *APIError otherwise.
func (r *Response) Err() error {
	if r.OK() {
		return nil
	}
	body := r.Body
	if len(body) > maxErrorBodySize {
		body = body[:maxErrorBodySize]
	}
	return &APIError{Method: r.Method, URL: r.URL, StatusCode: r.StatusCode, Body: string(body)}
}

// Client is the rate-limited, breaker-protected remote API client. It is
// safe for concurrent use; callers are serialized.
type Client struct {
	baseURL    string
	authHeader string
	userAgent  string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*Response]

	mu       sync.Mutex // held for the whole call
	interval time.Duration
	lastCall time.Time
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithClock replaces the wall clock and the sleep used by the throttle.
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		c.now = now
		c.sleep = sleep
	}
}

// WithBreaker overrides the breaker trip threshold (consecutive failures)
// and the open-state timeout.
func WithBreaker(threshold uint32, timeout time.Duration) Option {
	return func(c *Client) {
		c.breaker = newBreaker(breakerName, threshold, timeout)
	}
}

// NewClient builds a client from the remote configuration.
func NewClient(cfg *config.RemoteConfig, opts ...Option) *Client {
	baseURL := cfg.BaseURL
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	c := &Client{
		baseURL:    baseURL,
		userAgent:  fmt.Sprintf("%s (user: %s)", cfg.UserAgent, cfg.Username),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		interval:   cfg.MinInterval,
		now:        time.Now,
		sleep:      sleepContext,
	}
	if cfg.Username != "" || cfg.APIKey != "" {
		creds := base64.StdEncoding.EncodeToString([]byte(cfg.Username + ":" + cfg.APIKey))
		c.authHeader = "Basic " + creds
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.breaker == nil {
		c.breaker = newBreaker(breakerName, defaultTripThreshold, defaultOpenTimeout)
	}
	return c
}

// BuildURL renders the request target for path and args.
func (c *Client) BuildURL(path string, args []QueryArg) string {
	target := c.baseURL + strings.TrimPrefix(path, "/")
	if len(args) == 0 {
		return target
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = url.QueryEscape(a.Key) + "=" + url.QueryEscape(a.Value)
	}
	return target + "?" + strings.Join(parts, "&")
}

func normalizeMethod(method string) (string, error) {
	switch m := strings.ToUpper(method); m {
	case http.MethodGet, http.MethodPost, http.MethodDelete:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMethod, method)
	}
}

// Call issues one request. A non-2xx response is returned with a nil error.
func (c *Client) Call(ctx context.Context, method, path string, args []QueryArg) (*Response, error) {
	m, err := normalizeMethod(method)
	if err != nil {
		return nil, err
	}
	target := c.BuildURL(path, args)

	resp, err := c.breaker.Execute(func() (*Response, error) {
		resp, err := c.throttled(ctx, m, target)
		if err != nil {
			// http.Client.Timeout leaves ctx intact, so only the
			// caller's own cancellation or deadline lands here.
			if ctx.Err() != nil {
				return nil, &callerAbort{err: err}
			}
			return nil, err
		}
		if resp.StatusCode >= 500 {
			return resp, errServerStatus
		}
		return resp, nil
	})

	var abort *callerAbort
	switch {
	case errors.Is(err, errServerStatus):
		return resp, nil
	case errors.As(err, &abort):
		return nil, abort.err
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		logging.Ctx(ctx).Warn().Str("method", m).Str("url", logging.SanitizeURL(target)).Msg("Remote call rejected by circuit breaker")
		return nil, fmt.Errorf("%w: %w", ErrCircuitOpen, err)
	case err != nil:
		return nil, err
	}
	return resp, nil
}

// throttled waits out the remaining interval, dispatches, then records
// the completion time. The lock spans the whole call.
func (c *Client) throttled(ctx context.Context, method, target string) (*Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.interval > 0 && !c.lastCall.IsZero() {
		if wait := c.interval - c.now().Sub(c.lastCall); wait > 0 {
			metrics.RecordThrottleWait(wait)
			logging.Ctx(ctx).Debug().Dur("wait", wait).Msg("Throttling remote call")
			if err := c.sleep(ctx, wait); err != nil {
				return nil, err
			}
		}
	}

	resp, err := c.dispatch(ctx, method, target)
	c.lastCall = c.now()
	return resp, err
}

func (c *Client) dispatch(ctx context.Context, method, target string) (*Response, error) {
	start := time.Now()
	endpoint := endpointLabel(c.baseURL, target)

	req, err := http.NewRequestWithContext(ctx, method, target, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if c.authHeader != "" {
		req.Header.Set("Authorization", c.authHeader)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordRemoteRequest(method, endpoint, 0, time.Since(start))
		return nil, fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	metrics.RecordRemoteRequest(method, endpoint, httpResp.StatusCode, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("read response of %s %s: %w", method, endpoint, err)
	}

	logging.Ctx(ctx).Debug().
		Str("method", method).
		Str("endpoint", endpoint).
		Int("status", httpResp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Remote call completed")

	return &Response{
		Method:     method,
		URL:        target,
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
	}, nil
}

// endpointLabel strips the base URL, the query and numeric path segments
// so that metric labels stay bounded.
func endpointLabel(baseURL, target string) string {
	path := strings.TrimPrefix(target, baseURL)
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	segments := strings.Split(path, "/")
	for i, s := range segments {
		if s == "" {
			continue
		}
		base := strings.TrimSuffix(s, ".json")
		if strings.Trim(base, "0123456789") == "" {
			segments[i] = ":id" + strings.TrimPrefix(s, base)
		}
	}
	return strings.Join(segments, "/")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
