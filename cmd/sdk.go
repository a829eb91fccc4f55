package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adityarahman/booking-management/internal"
	"github.com/adityarahman/booking-management/internal/api"
	"github.com/adityarahman/booking-management/internal/booking"
	"github.com/adityarahman/booking-management/internal/session"
	"github.com/adityarahman/booking-management/pkg/logger"
)

// sdk bundles the wired client stack for CLI commands: the HTTP adapter
// with its persistent cookie jar, the session controller registered as
// the adapter's session-expiry listener, and the booking store.
type sdk struct {
	client  *api.Client
	session *session.Controller
	store   *booking.Store
	jar     *fileJar
}

func newSDK(cfg *internal.Config) (*sdk, error) {
	if err := cfg.Client.Validate(); err != nil {
		return nil, err
	}

	lg := logger.LoggerWrapper()

	jar, err := newFileJar(cookiePath(cfg), cfg.Client.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open cookie jar: %w", err)
	}

	client, err := api.New(api.Options{
		BaseURL:   cfg.Client.BaseURL,
		Timeout:   cfg.Client.Timeout,
		Jar:       jar,
		Logger:    lg,
		Navigator: terminalNavigator{},
	})
	if err != nil {
		return nil, err
	}

	sess := session.NewController(client, lg)
	client.SetSessionExpiredHandler(sess.HandleSessionExpired)

	return &sdk{
		client:  client,
		session: sess,
		store:   booking.NewStore(client, lg),
		jar:     jar,
	}, nil
}

// close writes the cookie jar back to disk so the session survives the
// process.
func (s *sdk) close() {
	if err := s.jar.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to save session cookies: %v\n", err)
	}
}

func cookiePath(cfg *internal.Config) string {
	if cfg.Client.CookieFile != "" {
		return cfg.Client.CookieFile
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".booking-cookies.json"
	}
	return filepath.Join(dir, "booking", "cookies.json")
}

// terminalNavigator satisfies the adapter's routing collaborator for a
// process with no pages: there is nowhere to redirect, so a failed
// session just tells the user how to sign in again.
type terminalNavigator struct{}

func (terminalNavigator) Current() string { return "" }

func (terminalNavigator) GoToLogin() {
	fmt.Fprintln(os.Stderr, "Session expired. Run 'booking login' to sign in again.")
}
