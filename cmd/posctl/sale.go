package main

import (
	"context"
	"fmt"
	"time"

	"laundromat/client"
	"laundromat/models"

	"github.com/spf13/cobra"
)

var saleCmd = &cobra.Command{
	Use:   "sale",
	Short: "Record daily sales",
}

var saleAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Stage a sales entry",
	Long: `Stage one day's takings. The entry gets a client key so resending it after a
failed sync never records it twice.

Example:
  posctl sale add --date 2024-03-01 --coin 120.50 --soap 14 --by maria`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sale, err := saleFromFlags(cmd)
		if err != nil {
			return err
		}
		return withStage(func(ctx context.Context, st *client.Stage) error {
			key, err := st.AddSale(ctx, sale)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Staged sale for %s (%s), total %.2f\n",
				sale.Date.Format(models.DateLayout), key, saleTotal(sale))
			return nil
		})
	},
}

func init() {
	f := saleAddCmd.Flags()
	f.String("date", "", "Business day, YYYY-MM-DD (default: today)")
	f.Float64("coin", 0, "Coin machine takings")
	f.Float64("hopper", 0, "Hopper takings")
	f.Float64("soap", 0, "Soap sales")
	f.Float64("vending", 0, "Vending sales")
	f.Float64("dropoff1", 0, "First drop-off amount")
	f.String("dropoff-code", "", "Drop-off service code")
	f.Float64("dropoff2", 0, "Second drop-off amount")
	f.String("by", "", "Who recorded the entry")

	saleCmd.AddCommand(saleAddCmd)
	rootCmd.AddCommand(saleCmd)
}

func saleFromFlags(cmd *cobra.Command) (models.SaleEntry, error) {
	f := cmd.Flags()
	dateStr, _ := f.GetString("date")
	date := time.Now()
	if dateStr != "" {
		d, err := models.ParseDate(dateStr)
		if err != nil {
			return models.SaleEntry{}, err
		}
		date = d
	}
	amount := func(name string) models.Amount {
		v, _ := f.GetFloat64(name)
		return models.Amount(v)
	}
	code, _ := f.GetString("dropoff-code")
	by, _ := f.GetString("by")

	return models.SaleEntry{
		Date:           models.NewDate(date),
		Coin:           amount("coin"),
		Hopper:         amount("hopper"),
		Soap:           amount("soap"),
		Vending:        amount("vending"),
		DropOffAmount1: amount("dropoff1"),
		DropOffCode:    code,
		DropOffAmount2: amount("dropoff2"),
		RecordedBy:     by,
	}, nil
}

func saleTotal(s models.SaleEntry) float64 {
	return s.Coin.Float() + s.Hopper.Float() + s.Soap.Float() + s.Vending.Float() +
		s.DropOffAmount1.Float() + s.DropOffAmount2.Float()
}
