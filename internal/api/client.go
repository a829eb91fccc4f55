// Package api is the HTTP adapter the session controller and booking store
// talk through. It owns the cookie-based credential handling, JSON
// encoding, error decoding, and the silent-refresh protocol that retries a
// request exactly once after an expired credential.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/adityarahman/booking-management/internal"
)

const refreshPath = "/refresh"

// authEndpoints never trigger a silent refresh on 401: refreshing in
// response to a failed login, register, me, logout or refresh call would
// either loop or mask a genuine credential failure.
var authEndpoints = map[string]bool{
	"/login":    true,
	"/register": true,
	refreshPath: true,
	"/me":       true,
	"/logout":   true,
}

// authPages are routes the navigator must not be redirected away from
// while a user is actively signing in.
var authPages = map[string]bool{
	"/login":    true,
	"/register": true,
}

// Navigator is the routing collaborator consulted when a session cannot be
// recovered. A UI embedding the client supplies its router; the CLI
// supplies a stub that tells the user to sign in again.
type Navigator interface {
	Current() string
	GoToLogin()
}

// Options configures a Client. Jar defaults to an in-memory cookie jar,
// Timeout to 30s.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	Jar       http.CookieJar
	Logger    *slog.Logger
	Navigator Navigator
}

// Client performs JSON requests against the booking API. Credentials live
// in the cookie jar; the client itself holds no session state beyond the
// expiry callback wired in by the session controller.
type Client struct {
	baseURL   string
	http      *http.Client
	logger    *slog.Logger
	navigator Navigator

	onSessionExpired func()
}

func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("api: base URL is required")
	}
	base := strings.TrimRight(opts.BaseURL, "/")
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("api: invalid base URL: %w", err)
	}

	jar := opts.Jar
	if jar == nil {
		var err error
		jar, err = cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("api: create cookie jar: %w", err)
		}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:   base,
		http:      &http.Client{Jar: jar, Timeout: timeout},
		logger:    logger,
		navigator: opts.Navigator,
	}, nil
}

// SetSessionExpiredHandler wires the callback invoked when a refresh
// attempt fails and the local session must be discarded. The session
// controller registers itself here during assembly.
func (c *Client) SetSessionExpiredHandler(fn func()) {
	c.onSessionExpired = fn
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	req, err := c.newRequest(http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	return c.do(ctx, req, out)
}

func (c *Client) Post(ctx context.Context, path string, body any, out any) error {
	req, err := c.newRequest(http.MethodPost, path, nil, body)
	if err != nil {
		return err
	}
	return c.do(ctx, req, out)
}

func (c *Client) Put(ctx context.Context, path string, body any, out any) error {
	req, err := c.newRequest(http.MethodPut, path, nil, body)
	if err != nil {
		return err
	}
	return c.do(ctx, req, out)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	req, err := c.newRequest(http.MethodDelete, path, nil, nil)
	if err != nil {
		return err
	}
	return c.do(ctx, req, nil)
}

// request is one logical outgoing request. The body is marshaled once so a
// replay carries byte-identical parameters, and the retried marker makes
// the refresh protocol single-flight per request: once set, a further 401
// passes straight through to the caller.
type request struct {
	method    string
	path      string
	query     url.Values
	body      []byte
	requestID string
	retried   bool
}

func (c *Client) newRequest(method, path string, query url.Values, body any) (*request, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, internal.NewInternalError("failed to encode request body", err)
		}
	}
	return &request{
		method:    method,
		path:      path,
		query:     query,
		body:      payload,
		requestID: uuid.NewString(),
	}, nil
}

// do runs the refresh state machine around a request: a 401 on a
// non-auth endpoint that has not been retried marks the request, performs
// one refresh, and on success replays the request transparently. A failed
// refresh discards the local session and sends the navigator to the login
// page unless the user is already on an auth page.
func (c *Client) do(ctx context.Context, req *request, out any) error {
	err := c.send(ctx, req, out)
	if err == nil {
		return nil
	}

	appErr, ok := internal.IsAppError(err)
	if !ok || appErr.StatusCode != http.StatusUnauthorized {
		return err
	}

	// A failed refresh call means the session is beyond recovery; route
	// the user back to login but hand the error through untouched.
	if req.path == refreshPath {
		c.redirectToLogin()
		return err
	}

	if req.retried || authEndpoints[req.path] {
		return err
	}

	req.retried = true
	c.logger.Debug("credential expired, attempting refresh", "path", req.path, "request_id", req.requestID)

	if refreshErr := c.refreshCredential(ctx); refreshErr != nil {
		c.logger.Info("credential refresh failed", "error", refreshErr)
		c.expireSession()
		c.redirectToLogin()
		return refreshErr
	}

	return c.do(ctx, req, out)
}

// refreshCredential performs the bare refresh call. The request starts out
// marked retried so it can never recurse into another refresh.
func (c *Client) refreshCredential(ctx context.Context) error {
	req := &request{
		method:    http.MethodPost,
		path:      refreshPath,
		requestID: uuid.NewString(),
		retried:   true,
	}
	return c.send(ctx, req, nil)
}

// send performs a single HTTP round trip with no retry behaviour.
func (c *Client) send(ctx context.Context, req *request, out any) error {
	u := c.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, body)
	if err != nil {
		return internal.NewInternalError("failed to build request", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", req.requestID)
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return internal.NewExternalError("request failed", 0).WithCause(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return internal.NewExternalError("failed to read response", resp.StatusCode).WithCause(err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp.StatusCode, data)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return internal.NewExternalError("failed to decode response", resp.StatusCode).WithCause(err)
		}
	}
	return nil
}

func (c *Client) expireSession() {
	if c.onSessionExpired != nil {
		c.onSessionExpired()
	}
}

func (c *Client) redirectToLogin() {
	if c.navigator == nil {
		return
	}
	if authPages[c.navigator.Current()] {
		return
	}
	c.navigator.GoToLogin()
}
