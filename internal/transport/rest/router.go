package rest

import (
	"database/sql"
	"log/slog"

	"github.com/adityarahman/booking-management/internal/server"
	"github.com/adityarahman/booking-management/internal/transport/middleware"
	"github.com/go-chi/chi"
)

// RegisterAllRoutes wires the reference API onto the router. The API is
// mounted under /api/v1; authentication-sensitive routes sit behind the
// access-cookie middleware while login, register and refresh stay open.
func RegisterAllRoutes(router *chi.Mux, db *sql.DB, authHandler *server.AuthHandler, bookingHandler *server.BookingHandler, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.Refresh)

		r.Group(func(pr chi.Router) {
			pr.Use(authHandler.AuthMiddleware)

			pr.Get("/me", authHandler.Me)
			pr.Post("/logout", authHandler.Logout)

			pr.Route("/bookings", func(br chi.Router) {
				br.Get("/", bookingHandler.List)
				br.Post("/", bookingHandler.Create)
				br.Put("/{id}", bookingHandler.Update)
				br.Delete("/{id}", bookingHandler.Delete)
			})
		})
	})
}
