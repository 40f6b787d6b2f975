package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ledgerline/expensed/internal/cli/config"
)

// NewUserCommand creates the user command group.
func NewUserCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage API users",
	}

	cmd.AddCommand(newUserAddCommand())

	return cmd
}

// UserAddOptions holds options for the user add command.
type UserAddOptions struct {
	Email string
	Name  string
}

func newUserAddCommand() *cobra.Command {
	opts := &UserAddOptions{}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a user and print a signed token pair",
		Long: `Create a user record and print an access/refresh token pair
for it. Intended for bootstrapping API access.`,
		Example: `  expensed user add --email ada@example.com --name "Ada Lovelace"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUserAdd(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "Display name")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func runUserAdd(cmd *cobra.Command, opts *UserAddOptions) error {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	if cfg.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required to issue tokens")
	}

	st, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	user, err := st.CreateUser(cmd.Context(), opts.Email, opts.Name)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	logger.Info("user created", "id", user.ID, "email", user.Email)

	access, refresh, err := cfg.Issuer().IssuePair(user.ID)
	if err != nil {
		return fmt.Errorf("failed to issue tokens: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "User ID:       %s\n", user.ID)
	fmt.Fprintf(out, "Access token:  %s\n", access)
	fmt.Fprintf(out, "Refresh token: %s\n", refresh)
	return nil
}
