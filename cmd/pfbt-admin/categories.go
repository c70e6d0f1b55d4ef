package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"pfbt/internal/core"
	"pfbt/internal/services"
)

func (a *app) categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage custom categories",
	}
	cmd.AddCommand(a.listCategoriesCmd())
	cmd.AddCommand(a.addCategoryCmd())
	cmd.AddCommand(a.deleteCategoryCmd())
	return cmd
}

func (a *app) listCategoriesCmd() *cobra.Command {
	var customOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List built-in and custom categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			custom, err := s.cats.ListCustom(cmd.Context(), s.actor)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			defer w.Flush()
			fmt.Fprintln(w, "ID\tNAME\tKIND")
			if !customOnly {
				for _, name := range core.BuiltinCategories {
					fmt.Fprintf(w, "-\t%s\tbuilt-in\n", name)
				}
			}
			for _, c := range custom {
				fmt.Fprintf(w, "%s\t%s\tcustom\n", c.ID, c.Name)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&customOnly, "custom", false, "only list custom categories")
	return cmd
}

func (a *app) addCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Add a custom category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, notes := services.WithNotifications(cmd.Context())
			c, err := s.cats.CreateCategory(ctx, s.actor, args[0])
			report(cmd, notes)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.ID)
			return nil
		},
	}
}

func (a *app) deleteCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a custom category",
		Long:  `Delete a custom category by id. Transactions filed under it keep the name.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, notes := services.WithNotifications(cmd.Context())
			err = s.cats.DeleteCategory(ctx, s.actor, args[0])
			report(cmd, notes)
			return err
		},
	}
}
