// Package router sets up HTTP routes for the API server.
package router

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/ledgerline/expensed/internal/auth"
	"github.com/ledgerline/expensed/internal/cache"
	analyticsFeature "github.com/ledgerline/expensed/internal/server/features/analytics"
	expensesFeature "github.com/ledgerline/expensed/internal/server/features/expenses"
	sessionFeature "github.com/ledgerline/expensed/internal/server/features/session"
	systemFeature "github.com/ledgerline/expensed/internal/server/features/system"
	"github.com/ledgerline/expensed/internal/store"
)

// SetupRoutes configures all routes for the API server. Everything
// under /api/v1 except token refresh requires a verified access token.
func SetupRoutes(
	router chi.Router,
	st store.Store,
	db systemFeature.Pinger,
	c cache.Cache,
	issuer *auth.Issuer,
	version string,
	logger *slog.Logger,
) {
	systemFeature.SetupRoutes(router, db, c, version, logger)

	router.Route("/api/v1", func(api chi.Router) {
		sessionFeature.SetupPublicRoutes(api, issuer, c, logger)

		api.Group(func(protected chi.Router) {
			protected.Use(auth.Middleware(issuer, c, logger))

			sessionFeature.SetupRoutes(protected, c, logger)

			// Expense CRUD and analytics share the /expenses subtree.
			protected.Route("/expenses", func(er chi.Router) {
				expensesFeature.SetupRoutes(er, st, c, logger)
				analyticsFeature.SetupRoutes(er, st, c, logger)
			})
		})
	})
}
