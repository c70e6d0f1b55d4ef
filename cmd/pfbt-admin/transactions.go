package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"pfbt/internal/core"
	"pfbt/internal/services"
)

func (a *app) transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"tx"},
		Short:   "Inspect transactions",
	}
	cmd.AddCommand(a.listTransactionsCmd())
	cmd.AddCommand(a.summaryCmd())
	cmd.AddCommand(a.deleteTransactionCmd())
	return cmd
}

func (a *app) listTransactionsCmd() *cobra.Command {
	var category, typ string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			txs, err := s.txs.ListTransactions(cmd.Context(), s.actor)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			defer w.Flush()
			fmt.Fprintln(w, "DATE\tTYPE\tAMOUNT\tCATEGORY\tTITLE\tID")
			for t := range core.Filter(txs, core.NormalizeSelector(category), core.NormalizeSelector(typ)) {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					t.Date, t.Type, core.FormatAmount(t.Amount), t.Category, t.Title, t.ID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", core.FilterAll, "only show this category")
	cmd.Flags().StringVar(&typ, "type", core.FilterAll, "only show income or expense")
	return cmd
}

func (a *app) summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print income, expense and balance totals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			txs, err := s.txs.ListTransactions(cmd.Context(), s.actor)
			if err != nil {
				return err
			}
			sum := core.Summarize(txs)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			defer w.Flush()
			fmt.Fprintf(w, "Transactions\t%d\n", sum.Count)
			fmt.Fprintf(w, "Income\t%s\n", sum.Income.StringFixed(2))
			fmt.Fprintf(w, "Expenses\t%s\n", sum.Expenses.StringFixed(2))
			fmt.Fprintf(w, "Balance\t%s\n", sum.Balance.StringFixed(2))
			for _, c := range sum.ByCategory {
				fmt.Fprintf(w, "  %s\t%s\n", c.Name, c.Amount.StringFixed(2))
			}
			return nil
		},
	}
}

func (a *app) deleteTransactionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, notes := services.WithNotifications(cmd.Context())
			err = s.txs.DeleteTransaction(ctx, s.actor, args[0])
			report(cmd, notes)
			return err
		},
	}
}
