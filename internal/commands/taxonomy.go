package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"expenser/internal/core"
	"expenser/internal/validate"
)

// canonicalKind maps user input ("income", "INVESTMENT") onto the domain
// spelling.
func canonicalKind(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

func newCategoryCommand(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Manage income and investment categories",
	}

	cmd.AddCommand(
		newCategoryListCommand(deps),
		newCategoryAddCommand(deps),
		newCategoryEditCommand(deps),
		newCategoryRemoveCommand(deps),
	)

	return cmd
}

func newCategoryListCommand(deps *Deps) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			var categories []core.Category
			var err error
			if kind != "" {
				categories, err = deps.Service.CategoriesByKind(cmd.Context(), core.Kind(canonicalKind(kind)))
			} else {
				categories, err = deps.Service.ListCategories(cmd.Context())
			}
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer w.Flush()

			fmt.Fprintln(w, "ID\tNAME\tKIND\tDESCRIPTION")
			for _, c := range categories {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", c.ID, c.Name, c.Kind, c.Description)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "filter by kind (income or investment)")

	return cmd
}

func newCategoryAddCommand(deps *Deps) *cobra.Command {
	var form validate.CategoryForm

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a category",
		RunE: func(cmd *cobra.Command, args []string) error {
			form.Kind = canonicalKind(form.Kind)
			return deps.Service.CreateCategory(cmd.Context(), form)
		},
	}

	cmd.Flags().StringVar(&form.Name, "name", "", "category name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&form.Kind, "kind", "", "income or investment (required)")
	_ = cmd.MarkFlagRequired("kind")
	cmd.Flags().StringVar(&form.Description, "description", "", "optional description")

	return cmd
}

func newCategoryEditCommand(deps *Deps) *cobra.Command {
	var form validate.CategoryForm

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Replace a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			form.Kind = canonicalKind(form.Kind)
			return deps.Service.UpdateCategory(cmd.Context(), id, form)
		},
	}

	cmd.Flags().StringVar(&form.Name, "name", "", "category name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&form.Kind, "kind", "", "income or investment (required)")
	_ = cmd.MarkFlagRequired("kind")
	cmd.Flags().StringVar(&form.Description, "description", "", "optional description")

	return cmd
}

func newCategoryRemoveCommand(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return deps.Service.DeleteCategory(cmd.Context(), id)
		},
	}
}

func newTypeCommand(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "type",
		Short: "Manage expense types",
	}

	cmd.AddCommand(
		newTypeListCommand(deps),
		newTypeAddCommand(deps),
		newTypeEditCommand(deps),
		newTypeRemoveCommand(deps),
	)

	return cmd
}

func newTypeListCommand(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List expense types",
		RunE: func(cmd *cobra.Command, args []string) error {
			types, err := deps.Service.ListTypes(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer w.Flush()

			fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
			for _, t := range types {
				fmt.Fprintf(w, "%d\t%s\t%s\n", t.ID, t.Name, t.Description)
			}
			return nil
		},
	}
}

func newTypeAddCommand(deps *Deps) *cobra.Command {
	var form validate.TypeForm

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an expense type",
		RunE: func(cmd *cobra.Command, args []string) error {
			return deps.Service.CreateType(cmd.Context(), form)
		},
	}

	cmd.Flags().StringVar(&form.Name, "name", "", "type name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&form.Description, "description", "", "optional description")

	return cmd
}

func newTypeEditCommand(deps *Deps) *cobra.Command {
	var form validate.TypeForm

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Replace an expense type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return deps.Service.UpdateType(cmd.Context(), id, form)
		},
	}

	cmd.Flags().StringVar(&form.Name, "name", "", "type name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&form.Description, "description", "", "optional description")

	return cmd
}

func newTypeRemoveCommand(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete an expense type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return deps.Service.DeleteType(cmd.Context(), id)
		},
	}
}
