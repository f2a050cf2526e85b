package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"laundromat/client"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what is waiting in the stage",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		return withStage(func(ctx context.Context, st *client.Stage) error {
			c, err := st.Counts(ctx)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(c)
			}
			return printCounts(cmd.OutOrStdout(), c)
		})
	},
}

func init() {
	statusCmd.Flags().Bool("json", false, "Output as JSON")
	rootCmd.AddCommand(statusCmd)
}

func printCounts(out io.Writer, c client.Counts) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Sales\t%d\n", c.Sales)
	fmt.Fprintf(w, "Shifts\t%d\n", c.Timesheets)
	fmt.Fprintf(w, "Open shifts\t%d\t(not sent until clocked out)\n", c.OpenShifts)
	fmt.Fprintf(w, "Inventory items\t%d\n", c.Inventory)
	fmt.Fprintf(w, "Stock logs\t%d\n", c.Logs)
	fmt.Fprintf(w, "Deletions\t%d\n", c.Deletions)
	return w.Flush()
}
