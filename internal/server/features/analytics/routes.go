// Package analytics provides the spending analytics endpoints.
package analytics

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/ledgerline/expensed/internal/cache"
	"github.com/ledgerline/expensed/internal/store"
)

// SetupRoutes registers the analytics routes on the /expenses
// subrouter shared with the CRUD feature.
func SetupRoutes(r chi.Router, st store.Store, c cache.Cache, logger *slog.Logger) {
	handlers := NewHandlers(st, c, logger)

	r.Route("/analytics", func(r chi.Router) {
		r.Get("/by-category", handlers.ByCategory)
		r.Get("/summary", handlers.Summary)
		r.Get("/monthly/{year}/{month}", handlers.Monthly)
		r.Get("/visualization", handlers.Visualization)
		r.Get("/category-chart", handlers.CategoryChart)
	})
}
