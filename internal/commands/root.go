// Package commands wires the CLI command tree. Every command talks to
// the backend through the mutation layer, so caching, notifications and
// activity events behave the same from every entry point.
package commands

import (
	"github.com/spf13/cobra"

	"expenser/internal/config"
	"expenser/internal/importer"
	"expenser/internal/log"
	"expenser/internal/notify"
	"expenser/internal/services"
	"expenser/internal/session"
)

// Deps carries the wired application components into the commands.
type Deps struct {
	Config   *config.Config
	Sessions *session.Store
	Service  *services.Service
	Pipeline *importer.Pipeline
	Notifier notify.Notifier
	Logger   *log.Logger
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand(deps *Deps) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "expenser",
		Short: "Track expenses, incomes and investments",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newLoginCommand(deps),
		newLogoutCommand(deps),
		newWhoamiCommand(deps),
		newSignupCommand(deps),
		newAccountCommand(deps),
		newTransactionCommand(deps, transactionSpec{
			kind: kindExpense, use: "expense", plural: "expenses", taxonomyFlag: "type",
		}),
		newTransactionCommand(deps, transactionSpec{
			kind: kindIncome, use: "income", plural: "incomes", taxonomyFlag: "category",
		}),
		newTransactionCommand(deps, transactionSpec{
			kind: kindInvestment, use: "investment", plural: "investments", taxonomyFlag: "category",
		}),
		newCategoryCommand(deps),
		newTypeCommand(deps),
		newImportCommand(deps),
		newHistoryCommand(deps),
	)

	return rootCmd
}
