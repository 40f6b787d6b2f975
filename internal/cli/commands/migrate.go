package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ledgerline/expensed/internal/cli/config"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Long: `Apply the embedded schema migrations to the configured
Postgres database. Safe to run repeatedly; already-applied migrations
are skipped.`,
		RunE: runMigrate,
	}

	cmd.AddCommand(newMigrateStatusCommand())

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	st, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if err := st.Migrate(); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, err := st.MigrationVersion()
	if err != nil {
		return err
	}

	logger.Info("migrations applied", "version", version)
	fmt.Fprintf(cmd.OutOrStdout(), "Database is at migration version %d\n", version)
	return nil
}

func newMigrateStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current migration version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := getConfig()

			st, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			version, err := st.MigrationVersion()
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Database is at migration version %d\n", version)
			return nil
		},
	}
}
