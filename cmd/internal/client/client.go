package client

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"console/cmd/internal/ids"
)

const (
	DefaultLoginPath   = "/auth/login"
	DefaultRefreshPath = "/auth/refresh"

	defaultUserAgent = "console/1"
)

// Config controls where the client sends calls and which calls are exempt from refresh.
type Config struct {
	// BaseURL is the backend API root, e.g. https://backend.example.com/api.
	BaseURL *url.URL

	LoginPath   string
	RefreshPath string

	// Timeout bounds each individual HTTP round trip. Zero means none.
	Timeout time.Duration

	// RefreshTimeout bounds a refresh cycle. Zero means none: a hung refresh
	// blocks only the calls queued behind it.
	RefreshTimeout time.Duration

	UserAgent string
}

// Client issues authenticated backend calls and recovers from access expiry.
// It is safe for concurrent use.
type Client struct {
	cfg     Config
	http    *http.Client
	log     *slog.Logger
	metrics *Metrics

	refresh refresher

	onSessionInvalid func(error)
	now              func() time.Time
}

// Option configures optional client dependencies.
type Option func(*Client)

// WithLogger overrides the default logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithMetrics enables Prometheus metrics.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithTransport overrides the HTTP transport (tests, proxies).
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		if rt != nil {
			c.http.Transport = rt
		}
	}
}

// WithSessionInvalidHandler installs the policy run once per failed refresh cycle.
// The client itself never navigates or clears anything.
func WithSessionInvalidHandler(fn func(error)) Option {
	return func(c *Client) { c.onSessionInvalid = fn }
}

// New builds a client. jar carries the session cookies for every call.
func New(cfg Config, jar http.CookieJar, opts ...Option) (*Client, error) {
	if cfg.BaseURL == nil || cfg.BaseURL.Scheme == "" || cfg.BaseURL.Host == "" {
		return nil, ErrConfig
	}
	if strings.TrimSpace(cfg.LoginPath) == "" {
		cfg.LoginPath = DefaultLoginPath
	}
	if strings.TrimSpace(cfg.RefreshPath) == "" {
		cfg.RefreshPath = DefaultRefreshPath
	}
	cfg.LoginPath = normalizePath(cfg.LoginPath)
	cfg.RefreshPath = normalizePath(cfg.RefreshPath)
	if strings.TrimSpace(cfg.UserAgent) == "" {
		cfg.UserAgent = defaultUserAgent
	}

	c := &Client{
		cfg:  cfg,
		http: &http.Client{Jar: jar, Timeout: cfg.Timeout},
		log:  slog.Default(),
		now:  time.Now,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c, nil
}

// Do sends req and returns its 2xx response, or an error:
// *StatusError, *NetworkError, *RefreshError, or the context error.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	return c.send(ctx, attempt{req: req})
}

// Get is a convenience for a GET with query parameters.
func (c *Client) Get(ctx context.Context, p string, query url.Values) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: p, Query: query})
}

// Delete is a convenience for a body-less DELETE.
func (c *Client) Delete(ctx context.Context, p string) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: p})
}

// SendJSON sends body encoded as JSON with the given method.
func (c *Client) SendJSON(ctx context.Context, method, p string, body any) (*Response, error) {
	req, err := JSONRequest(method, p, body)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}

func (c *Client) send(ctx context.Context, at attempt) (*Response, error) {
	resp, err := c.roundTrip(ctx, at.req)
	if err == nil {
		return resp, nil
	}
	if !c.shouldRefresh(at, err) {
		return nil, err
	}

	at.retried = true
	if err := c.awaitRefresh(ctx, at.req); err != nil {
		return nil, err
	}

	c.metrics.replay()
	return c.send(ctx, at)
}

func (c *Client) shouldRefresh(at attempt, err error) bool {
	if at.bypass || at.retried {
		return false
	}
	if !errors.Is(err, ErrAuthExpired) {
		return false
	}
	p := normalizePath(at.req.Path)
	return p != c.cfg.LoginPath && p != c.cfg.RefreshPath
}

// awaitRefresh returns once a refresh cycle covering this caller has settled.
func (c *Client) awaitRefresh(ctx context.Context, origin Request) error {
	leader, wait := c.refresh.join()
	if !leader {
		c.log.Debug("client.refresh.wait", "method", origin.Method, "path", origin.Path)
		select {
		case err := <-wait:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	start := c.now()
	err := c.doRefresh(ctx)
	released := c.refresh.settle(err)
	c.metrics.refresh(err == nil, released)

	if err != nil {
		c.log.Warn("client.refresh.fail",
			"trigger", origin.Path,
			"waiters", released,
			"duration_ms", c.now().Sub(start).Milliseconds(),
			"err", err,
		)
		if c.onSessionInvalid != nil {
			c.onSessionInvalid(err)
		}
		return err
	}

	c.log.Info("client.refresh.ok",
		"trigger", origin.Path,
		"waiters", released,
		"duration_ms", c.now().Sub(start).Milliseconds(),
	)
	return nil
}

// doRefresh runs detached from the leader's cancellation: queued callers depend on it.
func (c *Client) doRefresh(ctx context.Context) error {
	rctx := context.WithoutCancel(ctx)
	if c.cfg.RefreshTimeout > 0 {
		var cancel context.CancelFunc
		rctx, cancel = context.WithTimeout(rctx, c.cfg.RefreshTimeout)
		defer cancel()
	}

	_, err := c.send(rctx, attempt{
		req:    Request{Method: http.MethodPost, Path: c.cfg.RefreshPath},
		bypass: true,
	})
	if err != nil {
		return &RefreshError{Cause: err}
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, req Request) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	u := c.cfg.BaseURL.JoinPath(normalizePath(req.Path))
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	hreq, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, &NetworkError{Method: method, Path: req.Path, Err: err}
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			hreq.Header.Add(k, v)
		}
	}
	hreq.Header.Set("Accept", "application/json")
	hreq.Header.Set("User-Agent", c.cfg.UserAgent)
	if req.ContentType != "" {
		hreq.Header.Set("Content-Type", req.ContentType)
	}
	reqID := ids.NewRequestID(c.now())
	hreq.Header.Set("X-Request-ID", reqID)

	start := c.now()
	hresp, err := c.http.Do(hreq)
	if err != nil {
		c.metrics.request(method, 0)
		c.log.Debug("client.request.fail", "method", method, "path", req.Path, "request_id", reqID, "err", err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &NetworkError{Method: method, Path: req.Path, Err: err}
	}
	defer func() { _ = hresp.Body.Close() }()

	b, err := io.ReadAll(io.LimitReader(hresp.Body, maxResponseBytes))
	if err != nil {
		c.metrics.request(method, 0)
		return nil, &NetworkError{Method: method, Path: req.Path, Err: err}
	}

	c.metrics.request(method, hresp.StatusCode)
	c.log.Debug("client.request",
		"method", method,
		"path", req.Path,
		"status", hresp.StatusCode,
		"duration_ms", c.now().Sub(start).Milliseconds(),
		"request_id", reqID,
	)

	if hresp.StatusCode < 200 || hresp.StatusCode > 299 {
		return nil, &StatusError{Method: method, Path: req.Path, Status: hresp.StatusCode, Body: b}
	}
	return &Response{Status: hresp.StatusCode, Header: hresp.Header, Body: b}, nil
}
