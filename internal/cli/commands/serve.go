package commands

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ledgerline/expensed/internal/cli/config"
	"github.com/ledgerline/expensed/internal/server"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Migrate bool
}

// NewServeCommand creates the serve command.
func NewServeCommand(version string) *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the expensed API server",
		Long: `Start the HTTP API server.

The server exposes expense CRUD and spending analytics under /api/v1,
authenticated with JWT bearer tokens. Redis, when configured, caches
analytics responses and backs token revocation.`,
		Example: `  # Start on the default port
  expensed serve

  # Start on a custom port and apply pending migrations first
  expensed serve --port 9000 --migrate`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, version, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Migrate, "migrate", false, "Apply pending migrations before serving")

	return cmd
}

func runServe(cmd *cobra.Command, version string, opts *ServeOptions) error {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	if err := cfg.ValidateServe(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if opts.Migrate {
		if err := st.Migrate(); err != nil {
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
		logger.Info("migrations applied")
	}

	c, err := cfg.Cache()
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	if cfg.RedisURL != "" {
		if err := c.Ping(ctx); err != nil {
			// Caching and revocation degrade gracefully; the API
			// itself only needs Postgres.
			logger.Warn("redis unreachable, continuing without it", "error", err)
		}
	} else {
		logger.Warn("no redis_url configured, caching and token revocation are disabled")
	}

	srv := server.NewServer(server.Config{
		Store:   st,
		DB:      st,
		Cache:   c,
		Issuer:  cfg.Issuer(),
		Addr:    cfg.Addr,
		Port:    cfg.Port,
		Version: version,
		Logger:  logger,
	})

	return srv.Serve(ctx)
}
