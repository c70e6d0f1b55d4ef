package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (a *app) activityCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show the recorded change feed",
		Long:  `Show the newest entries the worker recorded from the change feed.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			changes, err := s.backend.Store.ListActivity(cmd.Context(), s.actor.UserID, limit)
			if err != nil {
				return fmt.Errorf("failed to list activity: %w", err)
			}
			if len(changes) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No activity recorded.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			defer w.Flush()
			fmt.Fprintln(w, "AT\tENTITY\tOP\tID\tSUMMARY")
			for _, c := range changes {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					c.At.Format("2006-01-02 15:04:05"), c.Entity, c.Op, c.EntityID, c.Summary)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of entries")
	return cmd
}
