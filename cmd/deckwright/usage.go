package main

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/deckwright/pkg/domain"
	"github.com/spf13/cobra"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show or manage the usage ledger",
}

var usageShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print usage totals under the current pricing",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close(cmd.Context())

		entries, _ := cmd.Flags().GetBool("entries")
		var out any = app.Ledger.Totals()
		if entries {
			out = struct {
				Totals  domain.UsageTotals  `json:"totals"`
				Entries []domain.UsageEntry `json:"entries"`
			}{app.Ledger.Totals(), app.Ledger.Entries()}
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

var usageResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear every usage entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close(cmd.Context())

		app.Ledger.Reset(cmd.Context())
		fmt.Println("Usage ledger cleared.")
		return nil
	},
}

var usagePricingCmd = &cobra.Command{
	Use:   "pricing",
	Short: "Print or update unit prices",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close(cmd.Context())

		var patch domain.PricingPatch
		for flag, field := range map[string]**float64{
			"prompt":     &patch.PricePrompt,
			"completion": &patch.PriceCompletion,
			"image-call": &patch.PriceImageCall,
		} {
			if cmd.Flags().Changed(flag) {
				v, _ := cmd.Flags().GetFloat64(flag)
				*field = &v
			}
		}

		pricing := app.Ledger.SetPricing(cmd.Context(), patch)
		data, err := json.MarshalIndent(pricing, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(usageCmd)
	usageCmd.AddCommand(usageShowCmd, usageResetCmd, usagePricingCmd)

	usageShowCmd.Flags().Bool("entries", false, "Include individual entries")
	usagePricingCmd.Flags().Float64("prompt", 0, "Price per prompt token")
	usagePricingCmd.Flags().Float64("completion", 0, "Price per completion token")
	usagePricingCmd.Flags().Float64("image-call", 0, "Price per image call")
}
