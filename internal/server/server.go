// Package server provides the expensed HTTP API server.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/ledgerline/expensed/internal/auth"
	"github.com/ledgerline/expensed/internal/cache"
	"github.com/ledgerline/expensed/internal/server/features/system"
	"github.com/ledgerline/expensed/internal/server/router"
	"github.com/ledgerline/expensed/internal/store"
)

// Server is the main API server.
type Server struct {
	store   store.Store
	db      system.Pinger
	cache   cache.Cache
	issuer  *auth.Issuer
	addr    string
	port    int
	version string
	logger  *slog.Logger
}

// Config holds configuration for the API server.
type Config struct {
	Store   store.Store
	DB      system.Pinger
	Cache   cache.Cache
	Issuer  *auth.Issuer
	Addr    string
	Port    int
	Version string
	Logger  *slog.Logger
}

// NewServer creates a new API server instance.
func NewServer(cfg Config) *Server {
	return &Server{
		store:   cfg.Store,
		db:      cfg.DB,
		cache:   cfg.Cache,
		issuer:  cfg.Issuer,
		addr:    cfg.Addr,
		port:    cfg.Port,
		version: cfg.Version,
		logger:  cfg.Logger,
	}
}

// Handler builds the full route tree. Exposed for tests.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	router.SetupRoutes(r, s.store, s.db, s.cache, s.issuer, s.version, s.logger)
	return r
}

// Serve starts the API server and blocks until the context is
// cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.addr, s.port)
	s.logger.Info("starting API server", "addr", addr)

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down API server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
