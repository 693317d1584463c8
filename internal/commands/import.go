package commands

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"expenser/internal/importer"
	"expenser/internal/importer/sheets"
	"expenser/internal/services"
	"expenser/internal/validate"
)

func newImportCommand(deps *Deps) *cobra.Command {
	var fromSheet bool

	cmd := &cobra.Command{
		Use:   "import [file.xlsx]",
		Short: "Bulk-import transactions and review them one by one",
		Long: `Upload a spreadsheet (or read the configured Google Sheet) and walk
through the parsed candidates. Each candidate is committed through the
normal creation flow or skipped; skipped candidates are never saved.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if err := deps.Pipeline.Begin(); err != nil {
				return err
			}

			if fromSheet {
				source, err := sheets.New(ctx, deps.Config, deps.Logger)
				if err != nil {
					deps.Pipeline.Cancel(ctx)
					return err
				}
				candidates, err := source.Fetch(ctx)
				if err != nil {
					deps.Pipeline.Cancel(ctx)
					return err
				}
				if err := deps.Pipeline.OfferCandidates(ctx, candidates); err != nil {
					return err
				}
			} else {
				if len(args) == 0 {
					deps.Pipeline.Cancel(ctx)
					return fmt.Errorf("pass a spreadsheet file or --from-sheet")
				}
				content, err := os.ReadFile(args[0])
				if err != nil {
					deps.Pipeline.Cancel(ctx)
					return fmt.Errorf("read spreadsheet: %w", err)
				}
				if err := deps.Pipeline.Offer(ctx, filepath.Base(args[0]), content); err != nil {
					deps.Pipeline.Cancel(ctx)
					return err
				}
			}

			return runReviewLoop(cmd, deps)
		},
	}

	cmd.Flags().BoolVar(&fromSheet, "from-sheet", false, "read candidates from the configured Google Sheet")

	return cmd
}

// runReviewLoop drives the carousel until every candidate is settled or
// the user quits. Quitting discards what is left.
func runReviewLoop(cmd *cobra.Command, deps *Deps) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	reader := bufio.NewReader(cmd.InOrStdin())

	for {
		review := deps.Pipeline.Review()
		if review == nil {
			return nil
		}

		candidate, position, count, ok := review.Current()
		if !ok {
			return nil
		}

		fmt.Fprintf(out, "\n[%d/%d] %s  %s  %s  (%s, category %s)\n",
			position+1, count, candidate.Date, candidate.Name, candidate.Amount,
			candidate.Kind, candidate.Category)
		fmt.Fprint(out, "commit (c) / edit (e) / skip (s) / next (n) / prev (p) / goto <N> / quit (q): ")

		line, err := reader.ReadString('\n')
		if err != nil {
			deps.Pipeline.Cancel(ctx)
			return nil
		}

		fields := strings.Fields(strings.ToLower(strings.TrimSpace(line)))
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "c", "commit":
			form, ok := review.FormFor()
			if !ok {
				continue
			}
			reportCommit(cmd, review.Commit(ctx, form))
		case "e", "edit":
			form, ok := review.FormFor()
			if !ok {
				continue
			}
			form = editForm(cmd, reader, form)
			reportCommit(cmd, review.Commit(ctx, form))
		case "s", "skip":
			if err := review.Skip(ctx); err != nil {
				fmt.Fprintln(out, err)
			}
		case "n", "next":
			review.Next()
		case "p", "prev":
			review.Prev()
		case "g", "goto":
			if len(fields) < 2 {
				fmt.Fprintln(out, "goto needs a position")
				continue
			}
			index, err := importer.ParsePosition(fields[1], count)
			if err != nil {
				fmt.Fprintln(out, "no such position")
				continue
			}
			for position != index {
				review.Next()
				_, position, _, _ = review.Current()
			}
		case "q", "quit":
			deps.Pipeline.Cancel(ctx)
			return nil
		default:
			fmt.Fprintln(out, "unknown command")
		}
	}
}

// editForm prompts per field; empty input keeps the prefilled value. The
// kind is fixed by the imported row and not editable.
func editForm(cmd *cobra.Command, reader *bufio.Reader, form validate.TransactionForm) validate.TransactionForm {
	out := cmd.OutOrStdout()

	read := func(label, current string) string {
		fmt.Fprintf(out, "%s [%s]: ", label, current)
		line, err := reader.ReadString('\n')
		if err != nil {
			return current
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return current
		}
		return line
	}

	form.Name = read("Name", form.Name)
	form.Category = read("Category", form.Category)
	form.Amount = read("Amount", form.Amount)
	form.Date = read("Date (dd/MM/yyyy)", form.Date)
	form.Note = read("Note", form.Note)
	return form
}

// reportCommit prints commit failures without ending the loop, so the
// candidate can be corrected or retried.
func reportCommit(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}

	out := cmd.OutOrStdout()
	var fieldErrs validate.Errors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			fmt.Fprintf(out, "  %s: %s\n", fe.Field, fe.Message)
		}
		return
	}
	if errors.Is(err, services.ErrTransport) {
		fmt.Fprintln(out, "network problem, the candidate is still here; commit again to retry")
		return
	}
	fmt.Fprintln(out, err)
}
