package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ledgerline/expensed/internal/cli/config"
	"github.com/ledgerline/expensed/internal/mail"
	"github.com/ledgerline/expensed/internal/store"
)

// ReportOptions holds options for the report command.
type ReportOptions struct {
	UserID string
	Year   int
	Month  int
	DryRun bool
}

// NewReportCommand creates the report command.
func NewReportCommand() *cobra.Command {
	opts := &ReportOptions{}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Email a monthly spending report to a user",
		Long: `Compute a user's monthly spending statistics and email them
via the configured mail provider. Defaults to the previous month.`,
		Example: `  # Email last month's report
  expensed report --user 6dd64a6e-63d8-4a0c-8f4a-4b1a13ab2c70

  # A specific month, printed instead of sent
  expensed report --user 6dd64a6e-... --year 2026 --month 7 --dry-run`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.UserID, "user", "", "User id to report on (required)")
	cmd.Flags().IntVar(&opts.Year, "year", 0, "Report year (default: previous month)")
	cmd.Flags().IntVar(&opts.Month, "month", 0, "Report month 1-12 (default: previous month)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Print the report instead of sending it")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runReport(cmd *cobra.Command, opts *ReportOptions) error {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	userID, err := uuid.Parse(opts.UserID)
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}

	year, month := opts.Year, opts.Month
	if year == 0 || month == 0 {
		prev := time.Now().UTC().AddDate(0, -1, 0)
		year, month = prev.Year(), int(prev.Month())
	}
	if month < 1 || month > 12 {
		return fmt.Errorf("month must be between 1 and 12, got %d", month)
	}

	st, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	user, err := st.GetUser(cmd.Context(), userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	stats, err := st.MonthlyStatistics(cmd.Context(), userID, year, month)
	if err != nil {
		return fmt.Errorf("failed to compute monthly statistics: %w", err)
	}

	subject := fmt.Sprintf("Your %s spending report", stats.Period)
	html := renderReport(user, stats)

	if opts.DryRun {
		fmt.Fprintln(cmd.OutOrStdout(), subject)
		fmt.Fprintln(cmd.OutOrStdout(), html)
		return nil
	}

	if cfg.Mail.APIKey == "" {
		return fmt.Errorf("mail.api_key is required to send reports")
	}

	var mailOpts []mail.Option
	if cfg.Mail.BaseURL != "" {
		mailOpts = append(mailOpts, mail.WithBaseURL(cfg.Mail.BaseURL))
	}
	client := mail.NewClient(cfg.Mail.APIKey, mailOpts...)

	err = client.Send(cmd.Context(), []mail.Recipient{{Email: user.Email, Name: user.Name}}, mail.Message{
		Subject:     subject,
		HTML:        html,
		SenderName:  cfg.Mail.FromName,
		SenderEmail: cfg.Mail.From,
	})
	if err != nil {
		return fmt.Errorf("failed to send report: %w", err)
	}

	logger.Info("report sent", "user", user.ID, "period", stats.Period)
	fmt.Fprintf(cmd.OutOrStdout(), "Report for %s sent to %s\n", stats.Period, user.Email)
	return nil
}

// renderReport builds the HTML body of the report email.
func renderReport(user *store.User, stats *store.MonthlyStatistics) string {
	var b strings.Builder

	name := user.Name
	if name == "" {
		name = user.Email
	}

	fmt.Fprintf(&b, "<h1>Spending report for %s</h1>", stats.Period)
	fmt.Fprintf(&b, "<p>Hi %s,</p>", name)

	if stats.Count == 0 {
		b.WriteString("<p>No expenses were recorded this month.</p>")
		return b.String()
	}

	fmt.Fprintf(&b, "<p>You recorded %d expenses totalling %.2f.</p>", stats.Count, stats.Total)
	fmt.Fprintf(&b, "<p>Average expense: %.2f.</p>", stats.Average)
	if stats.TopCategory != nil && stats.TopAmount != nil {
		fmt.Fprintf(&b, "<p>Top category: %s (%.2f).</p>", *stats.TopCategory, *stats.TopAmount)
	}
	return b.String()
}
