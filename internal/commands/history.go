package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"expenser/internal/storage"
)

func newHistoryCommand(deps *Deps) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent activity from the local ledger",
		Long: `Reads the local SQLite ledger the worker maintains from activity
events. The ledger is a local record only; it is not the backend's data.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ledger, err := storage.NewLedger(deps.Config.LedgerDBPath, deps.Logger)
			if err != nil {
				return fmt.Errorf("open ledger: %w", err)
			}
			defer ledger.Close()

			entries, err := ledger.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No activity recorded yet")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer w.Flush()

			fmt.Fprintln(w, "WHEN\tACTION\tENTITY\tNAME\tAMOUNT\tSOURCE")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					e.OccurredAt.Local().Format("2006-01-02 15:04"),
					e.Action, e.Entity, e.Name, e.Amount, e.Source)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "number of entries to show")

	return cmd
}
