// Package session provides login session endpoints: token refresh and
// logout via the revocation blocklist.
package session

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/ledgerline/expensed/internal/auth"
	"github.com/ledgerline/expensed/internal/cache"
)

// SetupRoutes registers the routes that require a verified access
// token. Mount inside the auth middleware.
func SetupRoutes(r chi.Router, c cache.Cache, logger *slog.Logger) {
	handlers := NewHandlers(nil, c, logger)

	r.Post("/auth/logout", handlers.Logout)
}

// SetupPublicRoutes registers the refresh endpoint. It must sit outside
// the auth middleware, which rejects refresh tokens.
func SetupPublicRoutes(r chi.Router, issuer *auth.Issuer, c cache.Cache, logger *slog.Logger) {
	handlers := NewHandlers(issuer, c, logger)

	r.Post("/auth/refresh", handlers.Refresh)
}
