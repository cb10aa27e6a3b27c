// Package wakapi is the HTTP adapter for the remote Wakapi service.
//
// Every request goes through the route table, carries the browser's
// forwarded cookies, never follows redirects, and is bounded by a timeout.
// A 401 from the service invokes the client's unauthorized callback before
// the error is returned to the caller; there is no way to skip it per call.
package wakapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultTimeout bounds every outbound request.
const DefaultTimeout = 10 * time.Second

// DefaultSessionCookie is the cookie the remote service keeps its session in.
const DefaultSessionCookie = "wakapi_auth"

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 8 << 20

// RequestIDHeader is attached to every outbound request.
const RequestIDHeader = "X-Request-ID"

// Config configures a Client.
type Config struct {
	// BaseURL is the remote service's network location, e.g. http://localhost:8080.
	BaseURL string
	// Timeout bounds each request. Zero means DefaultTimeout.
	Timeout time.Duration
	// LocalCookies are cookie names that belong to Trinetra and are never forwarded.
	LocalCookies []string
	// SessionCookie is the remote session cookie name, expired locally on logout.
	SessionCookie string
	// UserAgent is sent on outbound requests when set.
	UserAgent string
	// Transport overrides the HTTP transport (tests).
	Transport http.RoundTripper
}

// UnauthorizedFunc is invoked once for every 401 response.
type UnauthorizedFunc func(ctx context.Context)

// Response is a completed exchange. It is returned alongside an *Error for
// failing statuses so callers can still relay cookies.
type Response struct {
	Status   int
	Header   http.Header
	Body     []byte
	Cookies  []*http.Cookie
	Location string
}

// Redirect reports whether the response is a 3xx.
func (r *Response) Redirect() bool {
	return r.Status >= 300 && r.Status < 400
}

// Request describes one outbound call.
type Request struct {
	Op     string // short name for logs and errors; defaults to "METHOD path"
	Method string
	Path   string // client-visible path, rewritten through the route table
	Query  url.Values
	Form   url.Values // sent form-encoded when non-nil
}

// Client talks to the remote service.
type Client struct {
	base           *url.URL
	http           *http.Client
	local          map[string]struct{}
	sessionCookie  string
	userAgent      string
	onUnauthorized UnauthorizedFunc
	logger         *zap.Logger
}

// New creates a Client. onUnauthorized may be nil.
func New(cfg Config, onUnauthorized UnauthorizedFunc, logger *zap.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse wakapi base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("wakapi base url %q must use http or https", cfg.BaseURL)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("wakapi base url %q has no host", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	sessionCookie := cfg.SessionCookie
	if sessionCookie == "" {
		sessionCookie = DefaultSessionCookie
	}

	local := make(map[string]struct{}, len(cfg.LocalCookies))
	for _, name := range cfg.LocalCookies {
		if name != "" {
			local[name] = struct{}{}
		}
	}

	return &Client{
		base: base,
		http: &http.Client{
			Timeout:   timeout,
			Transport: cfg.Transport,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		local:          local,
		sessionCookie:  sessionCookie,
		userAgent:      cfg.UserAgent,
		onUnauthorized: onUnauthorized,
		logger:         logger,
	}, nil
}

// BaseURL returns the remote service location.
func (c *Client) BaseURL() *url.URL {
	u := *c.base
	return &u
}

func (c *Client) remoteURL(remotePath string) *url.URL {
	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + remotePath
	u.RawPath = ""
	u.RawQuery = ""
	return &u
}

// SessionCookie returns the remote session cookie name.
func (c *Client) SessionCookie() string {
	return c.sessionCookie
}

// IsLocalCookie reports whether a cookie belongs to Trinetra itself.
func (c *Client) IsLocalCookie(name string) bool {
	_, ok := c.local[name]
	return ok
}

// Get issues a GET.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query})
}

// PostForm issues a form-encoded POST.
func (c *Client) PostForm(ctx context.Context, path string, form url.Values) (*Response, error) {
	if form == nil {
		form = url.Values{}
	}
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Form: form})
}

// Post issues a POST with an empty body.
func (c *Client) Post(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path})
}

// GetJSON issues a GET and decodes the response body into v.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, v any) error {
	resp, err := c.Get(ctx, path, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return &Error{
			Kind:    KindUnexpected,
			Op:      http.MethodGet + " " + path,
			Status:  resp.Status,
			Message: "The time-tracking service returned data Trinetra could not read.",
			Err:     err,
		}
	}
	return nil
}

// Do performs req. 2xx and 3xx responses succeed; redirects are returned,
// not followed. Failing statuses return both the Response and an *Error.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	op := req.Op
	if op == "" {
		op = req.Method + " " + req.Path
	}

	remotePath, err := Rewrite(req.Path)
	if err != nil {
		return nil, fmt.Errorf("wakapi %s: %w", op, err)
	}

	u := c.remoteURL(remotePath)
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}

	var body io.Reader
	if req.Form != nil {
		body = strings.NewReader(req.Form.Encode())
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("wakapi %s: build request: %w", op, err)
	}
	if req.Form != nil {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	httpReq.Header.Set("Accept", "application/json, text/html;q=0.9, */*;q=0.8")
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set(RequestIDHeader, requestID)
	for _, ck := range c.filterLocal(CredentialsFrom(ctx)) {
		httpReq.AddCookie(&http.Cookie{Name: ck.Name, Value: ck.Value})
	}

	start := time.Now()
	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Debug("wakapi request failed",
			zap.String("op", op),
			zap.String("remote_path", remotePath),
			zap.String("request_id", requestID),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, &Error{
			Kind:    KindTransport,
			Op:      op,
			Message: "Cannot connect to the time-tracking service.",
			Err:     err,
		}
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	if err != nil {
		return nil, &Error{
			Kind:    KindTransport,
			Op:      op,
			Status:  httpResp.StatusCode,
			Message: "The connection to the time-tracking service was interrupted.",
			Err:     err,
		}
	}

	resp := &Response{
		Status:   httpResp.StatusCode,
		Header:   httpResp.Header,
		Body:     bytes.TrimSpace(raw),
		Cookies:  httpResp.Cookies(),
		Location: httpResp.Header.Get("Location"),
	}

	c.logger.Debug("wakapi request",
		zap.String("op", op),
		zap.String("remote_path", remotePath),
		zap.String("request_id", requestID),
		zap.Int("status", resp.Status),
		zap.Duration("elapsed", time.Since(start)))

	if resp.Status < 400 {
		return resp, nil
	}

	if resp.Status == http.StatusUnauthorized && c.onUnauthorized != nil {
		c.onUnauthorized(ctx)
	}
	return resp, statusError(op, resp)
}

// Ping checks that the remote service answers HTTP at all. Any status
// counts as reachable. Ping never invokes the unauthorized callback.
func (c *Client) Ping(ctx context.Context) error {
	u := c.remoteURL("/api/health")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("wakapi ping: build request: %w", err)
	}
	req.Header.Set(RequestIDHeader, uuid.NewString())
	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Kind: KindTransport, Op: "ping", Message: "Cannot connect to the time-tracking service.", Err: err}
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
	return nil
}

// IsCanceled reports whether err came from the caller abandoning the
// request (navigation away, client disconnect). Such results are stale and
// should not be rendered.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
