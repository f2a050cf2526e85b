package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"laundromat/api"
	"laundromat/client"
	"laundromat/models"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push the stage to the back office",
	Long: `Send every staged record to the back office in one batch. Categories the server
accepted are cleared from the stage; anything that failed stays for the next run.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := client.OpenStage(settings.GetString("stage"))
		if err != nil {
			return err
		}
		defer st.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		poster := api.NewClient(settings.GetString("server"), settings.GetDuration("timeout"))
		result, err := client.NewSubmitter(st, poster).Sync(ctx)
		if err != nil {
			return fmt.Errorf("sync failed, records kept for retry: %w", err)
		}
		printResult(cmd.OutOrStdout(), result)
		if len(result.Errors) > 0 {
			return fmt.Errorf("%d records were rejected and stay staged", len(result.Errors))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func printResult(out io.Writer, r models.SyncResult) {
	fmt.Fprintln(out, r.Message)
	if r.Message == "Nothing to sync" {
		return
	}
	fmt.Fprintf(out, "  sales %d, shifts %d, items %d, logs %d, deleted %d, duplicates skipped %d\n",
		r.SavedSalesCount, r.SavedTimesheetsCount, r.SavedInventoryCount, r.SavedLogsCount,
		r.DeletedItemsCount, r.SkippedDuplicates)
	for local, id := range r.ResolvedIDs {
		fmt.Fprintf(out, "  %s is now %s\n", local, id)
	}
	for _, e := range r.Errors {
		where := e.ID
		if e.Index != nil {
			where = fmt.Sprintf("#%d", *e.Index)
		}
		fmt.Fprintf(out, "  %s %s: %s\n", e.Type, where, e.Error)
	}
}
