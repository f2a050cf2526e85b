package main

import (
	"context"
	"fmt"
	"time"

	"laundromat/client"
	"laundromat/models"
	"laundromat/utils"

	"github.com/spf13/cobra"
)

var clockCmd = &cobra.Command{
	Use:   "clock",
	Short: "Clock employees in and out",
	Long: `Clock events are staged locally. A shift is sent to the back office once it
has both a clock-in and a clock-out.`,
}

func clockEventCmd(kind string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   kind + " <employee-id>",
		Short: "Stage a clock-" + kind,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			atStr, _ := cmd.Flags().GetString("at")
			at, err := clockTime(atStr, time.Now())
			if err != nil {
				return err
			}
			return withStage(func(ctx context.Context, st *client.Stage) error {
				if err := st.AddClockEvent(ctx, args[0], name, kind, at); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Clocked %s %s at %s\n", args[0], kind, at.Format("15:04"))
				return nil
			})
		},
	}
	cmd.Flags().String("name", "", "Employee name, sent along with the shift")
	cmd.Flags().String("at", "", `Time of the event, "9:05 AM" or "17:30" today (default: now)`)
	return cmd
}

func init() {
	clockCmd.AddCommand(clockEventCmd("in"), clockEventCmd("out"))
	rootCmd.AddCommand(clockCmd)
}

// clockTime resolves a wall-clock time on the day of now.
func clockTime(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return now, nil
	}
	return utils.CombineDateClock(now.Format(models.DateLayout), s, now.Location())
}
