// Package system provides the unauthenticated root and health
// endpoints.
package system

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/ledgerline/expensed/internal/cache"
)

// SetupRoutes registers the system routes. Mount outside the auth
// middleware.
func SetupRoutes(r chi.Router, db Pinger, c cache.Cache, version string, logger *slog.Logger) {
	handlers := NewHandlers(db, c, version, logger)

	r.Get("/", handlers.Root)
	r.Get("/healthz", handlers.Health)
}
