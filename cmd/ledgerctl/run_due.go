package main

import (
	"fmt"
	"time"

	"github.com/dafibh/fortuna/fortuna-ledger/internal/domain"
	"github.com/dafibh/fortuna/fortuna-ledger/internal/repository/postgres"
	"github.com/dafibh/fortuna/fortuna-ledger/internal/service"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func runDueCmd() *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "run-due",
		Short: "Materialize every due recurring definition once",
		Long: `Runs a single recurring generation pass across all workspaces. Each due
definition produces at most one transaction and advances to its next run date.

Examples:
  # Generate everything due today
  ledgerctl run-due

  # Catch up as if it were a given day
  ledgerctl run-due --as-of 2026-03-31`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			now := time.Now()
			if asOf != "" {
				parsed, err := time.Parse("2006-01-02", asOf)
				if err != nil {
					return fmt.Errorf("invalid --as-of %q: %w", asOf, err)
				}
				now = parsed
			}

			pool, err := openPool(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			store := postgres.NewStore(pool)
			ledger := service.NewLedgerService(store, log.Logger, service.DefaultLedgerConfig())
			scheduler := service.NewRecurringScheduler(store, ledger, log.Logger)

			result, err := scheduler.GenerateDue(cmd.Context(), now)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, t := range result.Transactions {
				fmt.Fprintf(out, "generated transaction %d for definition %d: %s %s on %s\n",
					t.ID, *t.RecurringID, t.Type, domain.FormatMoney(t.Amount), t.Date.Format("2006-01-02"))
			}
			for _, f := range result.Failures {
				fmt.Fprintf(out, "failed definition %d (workspace %d): %v\n", f.DefinitionID, f.WorkspaceID, f.Err)
			}
			fmt.Fprintf(out, "%d generated, %d skipped, %d failed\n", result.GeneratedCount, result.Skipped, len(result.Failures))

			if len(result.Failures) > 0 {
				return fmt.Errorf("%d recurring definitions failed", len(result.Failures))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "Run as of this date (YYYY-MM-DD) instead of today")

	return cmd
}
