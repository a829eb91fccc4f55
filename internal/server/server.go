// Package server is a reference implementation of the booking API the
// client SDK talks to: cookie-session authentication with short-lived
// access tokens and a refresh token, plus per-user bookings CRUD. It
// stands in for the production backend during development and in
// end-to-end tests.
package server

import (
	"log/slog"

	"github.com/adityarahman/booking-management/internal"
	"github.com/adityarahman/booking-management/internal/server/storage"
)

// Handlers bundles the reference API's HTTP handlers for route
// registration.
type Handlers struct {
	Auth     *AuthHandler
	Bookings *BookingHandler
}

func NewHandlers(cfg *internal.Config, repo *storage.Repository, logger *slog.Logger) *Handlers {
	tokens := NewTokenGenerator(
		cfg.Security.AccessTokenSecret,
		cfg.Security.RefreshTokenSecret,
		cfg.Security.AccessTokenTTL,
		cfg.Security.RefreshTokenTTL,
	)
	return &Handlers{
		Auth:     NewAuthHandler(repo, tokens, cfg.Security.BCryptCost, cfg.Security.CookieSecure, logger),
		Bookings: NewBookingHandler(repo, logger),
	}
}
