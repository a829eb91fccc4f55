// Package session owns the client-side authentication state: the current
// user, whether the initial identity check has run, and the operations
// that move between signed-out and signed-in. All state lives behind the
// controller's mutation API; readers get copies.
package session

import (
	"context"
	"log/slog"
	"net/url"
	"sync"

	"github.com/adityarahman/booking-management/internal"
)

// APIClient is the slice of the HTTP adapter the controller needs.
type APIClient interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body any, out any) error
}

// Controller is the session state machine. Each operation raises the
// loading flag on entry and drops it on the way out, and records a
// human-readable error message on failure.
type Controller struct {
	api    APIClient
	logger *slog.Logger

	mu              sync.Mutex
	user            *User
	loading         bool
	lastErr         string
	authInitialized bool
}

func NewController(api APIClient, logger *slog.Logger) *Controller {
	return &Controller{api: api, logger: logger}
}

// Register submits a registration payload. On success the returned user
// becomes the current user.
func (c *Controller) Register(ctx context.Context, data RegisterData) (*RegisterResponse, error) {
	c.setLoading(true)
	defer c.setLoading(false)
	c.setError("")

	if err := data.Validate(); err != nil {
		c.setError(err.Error())
		return nil, err
	}

	var resp RegisterResponse
	if err := c.api.Post(ctx, "/register", data, &resp); err != nil {
		c.logger.Error("registration failed", "error", err)
		c.setError(messageFor(err, "registration failed"))
		return nil, err
	}

	c.setUser(&resp.User)
	return &resp, nil
}

// Login submits credentials. On failure the previous user state is left
// untouched, so repeated failed attempts from a signed-out state stay
// signed out without side effects.
func (c *Controller) Login(ctx context.Context, data LoginData) (*LoginResponse, error) {
	c.setLoading(true)
	defer c.setLoading(false)
	c.setError("")

	if err := data.Validate(); err != nil {
		c.setError(err.Error())
		return nil, err
	}

	var resp LoginResponse
	if err := c.api.Post(ctx, "/login", data, &resp); err != nil {
		c.logger.Error("login failed", "error", err)
		c.setError(messageFor(err, "login failed"))
		return nil, err
	}

	c.setUser(&resp.User)
	return &resp, nil
}

// Logout asks the server to invalidate the session, then clears the local
// user. On failure local state is kept: the outcome is uncertain and a
// signed-in user must not be silently dropped.
func (c *Controller) Logout(ctx context.Context) error {
	c.setLoading(true)
	defer c.setLoading(false)
	c.setError("")

	var resp LogoutResponse
	if err := c.api.Post(ctx, "/logout", nil, &resp); err != nil {
		c.logger.Error("logout failed", "error", err)
		c.setError(messageFor(err, "logout failed"))
		return err
	}

	c.setUser(nil)
	return nil
}

// Refresh requests a fresh credential using the existing session cookie.
// It does not touch the current user; identity only changes through
// identity-bearing responses.
func (c *Controller) Refresh(ctx context.Context) (*RefreshResponse, error) {
	c.setLoading(true)
	defer c.setLoading(false)
	c.setError("")

	var resp RefreshResponse
	if err := c.api.Post(ctx, "/refresh", nil, &resp); err != nil {
		c.logger.Error("credential refresh failed", "error", err)
		c.setError(messageFor(err, "credential refresh failed"))
		return nil, err
	}
	return &resp, nil
}

// Me fetches the current identity. Success stores the user; failure clears
// it, since the server no longer recognises the session.
func (c *Controller) Me(ctx context.Context) (*User, error) {
	c.setLoading(true)
	defer c.setLoading(false)
	c.setError("")

	var resp meResponse
	if err := c.api.Get(ctx, "/me", nil, &resp); err != nil {
		c.setError(messageFor(err, "failed to fetch user"))
		c.setUser(nil)
		return nil, err
	}

	c.setUser(&resp.User)
	user := resp.User
	return &user, nil
}

// InitAuth performs the bootstrap identity check. A failure is the normal
// anonymous-visitor case and is swallowed; either way the controller is
// marked initialized so callers can tell "not yet checked" from "checked
// and anonymous".
func (c *Controller) InitAuth(ctx context.Context) {
	defer func() {
		c.mu.Lock()
		c.authInitialized = true
		c.mu.Unlock()
	}()

	if _, err := c.Me(ctx); err != nil {
		c.logger.Debug("initial auth check failed, continuing anonymously", "error", err)
		c.setUser(nil)
	}
}

// HandleSessionExpired discards the local user after an unrecoverable
// credential failure. The HTTP adapter calls this when a silent refresh
// fails.
func (c *Controller) HandleSessionExpired() {
	c.setUser(nil)
}

// CurrentUser returns a copy of the current user, or false when anonymous.
func (c *Controller) CurrentUser() (User, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return User{}, false
	}
	return *c.user, true
}

func (c *Controller) IsAuthenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user != nil
}

func (c *Controller) AuthInitialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authInitialized
}

func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// LastError returns the message recorded by the most recent failed
// operation, empty when the last operation succeeded.
func (c *Controller) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *Controller) setUser(u *User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if u == nil {
		c.user = nil
		return
	}
	copied := *u
	c.user = &copied
}

func (c *Controller) setLoading(v bool) {
	c.mu.Lock()
	c.loading = v
	c.mu.Unlock()
}

func (c *Controller) setError(msg string) {
	c.mu.Lock()
	c.lastErr = msg
	c.mu.Unlock()
}

func messageFor(err error, fallback string) string {
	if appErr, ok := internal.IsAppError(err); ok && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}
