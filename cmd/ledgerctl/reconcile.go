package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dafibh/fortuna/fortuna-ledger/internal/domain"
	"github.com/dafibh/fortuna/fortuna-ledger/internal/repository/postgres"
	"github.com/dafibh/fortuna/fortuna-ledger/internal/service"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func reconcileCmd() *cobra.Command {
	var (
		workspaceID int32
		repair      bool
	)

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Compare cached account balances with their transaction history",
		Long: `Recomputes initial balance plus the signed sum of transactions for every live
account of a workspace and reports any drift from the cached balance.

With --repair the drift is applied to the cached balance.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if workspaceID <= 0 {
				return fmt.Errorf("--workspace is required")
			}

			pool, err := openPool(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			accounts := service.NewAccountService(postgres.NewStore(pool), log.Logger)
			reports, err := accounts.ReconcileWorkspace(cmd.Context(), workspaceID, repair)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ACCOUNT\tCACHED\tCOMPUTED\tDRIFT\tSTATUS")
			drifted := 0
			for _, r := range reports {
				status := "ok"
				switch {
				case r.Repaired:
					status = "repaired"
					drifted++
				case !r.InSync():
					status = "drift"
					drifted++
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", r.AccountID,
					domain.FormatMoney(r.CachedBalance), domain.FormatMoney(r.ComputedBalance), domain.FormatMoney(r.Drift), status)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if drifted > 0 && !repair {
				return fmt.Errorf("%d accounts out of sync, rerun with --repair", drifted)
			}
			return nil
		},
	}

	cmd.Flags().Int32Var(&workspaceID, "workspace", 0, "Workspace ID to reconcile")
	cmd.Flags().BoolVar(&repair, "repair", false, "Apply the drift to the cached balance")

	return cmd
}
