package main

import (
	"context"
	"fmt"

	"laundromat/client"
	"laundromat/models"

	"github.com/spf13/cobra"
)

var inventoryCmd = &cobra.Command{
	Use:   "inventory",
	Short: "Stage stock levels and deletions",
}

var inventorySetCmd = &cobra.Command{
	Use:   "set",
	Short: "Stage the levels of an item",
	Long: `Stage the levels of an inventory item. Without --id a new item is staged under a
local id that the back office replaces on the next sync.

With --log the change is also recorded in the item's stock history.

Example:
  posctl inventory set --name Detergent --current 12 --max 40 --min 5 --unit L \
    --log restock --previous 2 --by maria`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		item := models.SyncInventoryItem{}
		item.ID, _ = f.GetString("id")
		item.Name, _ = f.GetString("name")
		item.CurrentStock, _ = f.GetFloat64("current")
		item.MaxStock, _ = f.GetFloat64("max")
		item.MinStock, _ = f.GetFloat64("min")
		item.Unit, _ = f.GetString("unit")
		logType, _ := f.GetString("log")

		if item.CurrentStock < 0 || item.MaxStock < 0 || item.MinStock < 0 {
			return fmt.Errorf("stock levels cannot be negative")
		}
		if item.CurrentStock > item.MaxStock {
			return fmt.Errorf("current stock %.2f exceeds max stock %.2f", item.CurrentStock, item.MaxStock)
		}
		if logType != "" && !models.ValidUpdateType(logType) {
			return fmt.Errorf("--log must be one of %s, %s, %s", models.UpdateRestock, models.UpdateUsage, models.UpdateAdjustment)
		}

		return withStage(func(ctx context.Context, st *client.Stage) error {
			id, err := st.UpsertInventory(ctx, item)
			if err != nil {
				return err
			}
			if logType != "" {
				prev, _ := f.GetFloat64("previous")
				by, _ := f.GetString("by")
				notes, _ := f.GetString("notes")
				err := st.AddInventoryLog(ctx, models.SyncInventoryLog{
					ItemID:        id,
					PreviousStock: prev,
					NewStock:      item.CurrentStock,
					UpdateType:    logType,
					UpdatedBy:     by,
					Notes:         notes,
				})
				if err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Staged %s (%s): %.2f/%.2f %s\n", item.Name, id, item.CurrentStock, item.MaxStock, item.Unit)
			return nil
		})
	},
}

var inventoryDeleteCmd = &cobra.Command{
	Use:   "delete <item-id>",
	Short: "Stage the deletion of an item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStage(func(ctx context.Context, st *client.Stage) error {
			if err := st.DeleteInventory(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Staged deletion of %s\n", args[0])
			return nil
		})
	},
}

func init() {
	f := inventorySetCmd.Flags()
	f.String("id", "", "Back office id, or the local id of a staged item")
	f.String("name", "", "Item name")
	f.Float64("current", 0, "Current stock")
	f.Float64("max", 0, "Maximum stock")
	f.Float64("min", 0, "Low-stock threshold")
	f.String("unit", "", "Unit of measure")
	f.String("log", "", "Also record a stock log: restock, usage or adjustment")
	f.Float64("previous", 0, "Stock before the change, for the log")
	f.String("by", "", "Who made the change, for the log")
	f.String("notes", "", "Notes for the log")
	_ = inventorySetCmd.MarkFlagRequired("name")

	inventoryCmd.AddCommand(inventorySetCmd, inventoryDeleteCmd)
	rootCmd.AddCommand(inventoryCmd)
}
