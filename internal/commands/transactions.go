package commands

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"expenser/internal/core"
	"expenser/internal/validate"
)

const (
	kindExpense    = core.KindExpense
	kindIncome     = core.KindIncome
	kindInvestment = core.KindInvestment
)

// transactionSpec parameterizes the per-kind command group. Expenses
// classify by type, incomes and investments by category; the flag name
// follows.
type transactionSpec struct {
	kind         core.Kind
	use          string
	plural       string
	taxonomyFlag string
}

func newTransactionCommand(deps *Deps, spec transactionSpec) *cobra.Command {
	cmd := &cobra.Command{
		Use:   spec.use,
		Short: fmt.Sprintf("Manage %s", spec.plural),
	}

	cmd.AddCommand(
		newTransactionListCommand(deps, spec),
		newTransactionAddCommand(deps, spec),
		newTransactionEditCommand(deps, spec),
		newTransactionRemoveCommand(deps, spec),
	)

	return cmd
}

func newTransactionListCommand(deps *Deps, spec transactionSpec) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List %s", spec.plural),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer w.Flush()

			switch spec.kind {
			case kindExpense:
				expenses, err := deps.Service.ListExpenses(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(w, "ID\tDATE\tNAME\tTYPE\tAMOUNT\tNOTE")
				for _, e := range expenses {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
						e.ID, e.Date, e.Name, e.Type, e.Amount.Display(), e.Note)
				}
			case kindIncome:
				incomes, err := deps.Service.ListIncomes(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(w, "ID\tDATE\tNAME\tCATEGORY\tAMOUNT\tNOTE")
				for _, in := range incomes {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
						in.ID, in.Date, in.Name, in.Category, in.Amount.Display(), in.Note)
				}
			case kindInvestment:
				investments, err := deps.Service.ListInvestments(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(w, "ID\tDATE\tNAME\tCATEGORY\tAMOUNT\tNOTE")
				for _, inv := range investments {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
						inv.ID, inv.Date, inv.Name, inv.Category, inv.Amount.Display(), inv.Note)
				}
			}

			return nil
		},
	}
}

func newTransactionAddCommand(deps *Deps, spec transactionSpec) *cobra.Command {
	form := validate.TransactionForm{Kind: spec.kind}

	cmd := &cobra.Command{
		Use:   "add",
		Short: fmt.Sprintf("Record a new %s", spec.use),
		RunE: func(cmd *cobra.Command, args []string) error {
			if form.Date == "" {
				form.Date = core.Today().String()
			}

			tx, errs := form.Resolve()
			if errs != nil {
				return errs
			}
			return deps.Service.CreateTransaction(cmd.Context(), tx, "cli")
		},
	}

	cmd.Flags().StringVar(&form.Name, "name", "", "what the money moved for (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&form.Amount, "amount", "", "amount, up to 4 decimals (required)")
	_ = cmd.MarkFlagRequired("amount")
	cmd.Flags().StringVar(&form.Category, spec.taxonomyFlag, "", spec.use+" "+spec.taxonomyFlag+" (required)")
	_ = cmd.MarkFlagRequired(spec.taxonomyFlag)
	cmd.Flags().StringVar(&form.Date, "date", "", "date as dd/MM/yyyy (default today)")
	cmd.Flags().StringVar(&form.Note, "note", "", "free-form note, max 200 characters")

	return cmd
}

func newTransactionEditCommand(deps *Deps, spec transactionSpec) *cobra.Command {
	form := validate.TransactionForm{Kind: spec.kind}

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: fmt.Sprintf("Replace a %s record", spec.use),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			tx, errs := form.Resolve()
			if errs != nil {
				return errs
			}
			return deps.Service.UpdateTransaction(cmd.Context(), id, tx)
		},
	}

	cmd.Flags().StringVar(&form.Name, "name", "", "what the money moved for (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&form.Amount, "amount", "", "amount, up to 4 decimals (required)")
	_ = cmd.MarkFlagRequired("amount")
	cmd.Flags().StringVar(&form.Category, spec.taxonomyFlag, "", spec.use+" "+spec.taxonomyFlag+" (required)")
	_ = cmd.MarkFlagRequired(spec.taxonomyFlag)
	cmd.Flags().StringVar(&form.Date, "date", "", "date as dd/MM/yyyy (required)")
	_ = cmd.MarkFlagRequired("date")
	cmd.Flags().StringVar(&form.Note, "note", "", "free-form note, max 200 characters")

	return cmd
}

func newTransactionRemoveCommand(deps *Deps, spec transactionSpec) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: fmt.Sprintf("Delete a %s record", spec.use),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return deps.Service.DeleteTransaction(cmd.Context(), spec.kind, id)
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
