// Package expenses provides the expense CRUD endpoints.
package expenses

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/ledgerline/expensed/internal/cache"
	"github.com/ledgerline/expensed/internal/store"
)

// SetupRoutes registers the expense CRUD routes on the /expenses
// subrouter. The analytics feature attaches to the same subrouter.
func SetupRoutes(r chi.Router, st store.Store, c cache.Cache, logger *slog.Logger) {
	handlers := NewHandlers(st, c, logger)

	r.Post("/", handlers.Create)
	r.Get("/", handlers.List)
	r.Get("/categories/list", handlers.Categories)
	r.Get("/{id}", handlers.Get)
	r.Patch("/{id}", handlers.Update)
	r.Delete("/{id}", handlers.Delete)
}
