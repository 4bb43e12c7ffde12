package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/rental-arb/internal/deal"
)

type rateEstimate struct {
	NightlyRate float64 `json:"nightly_rate"`
	PremiumCity bool    `json:"premium_city"`
	Beds        int     `json:"beds"`
	Baths       int     `json:"baths"`
	City        string  `json:"city"`
}

func newEstimateCmd() *cobra.Command {
	var (
		beds, baths int
		city        string
	)

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate a nightly STR rate",
		Long:  "Estimate the nightly short-term rental rate for a unit from its layout and city. Runs locally.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEstimate(cmd, beds, baths, city)
		},
	}

	cmd.Flags().IntVar(&beds, "beds", 0, "bedrooms")
	cmd.Flags().IntVar(&baths, "baths", 0, "bathrooms")
	cmd.Flags().StringVar(&city, "city", "", "city")

	return cmd
}

func runEstimate(cmd *cobra.Command, beds, baths int, city string) error {
	if err := deal.ValidateCounts(beds, baths); err != nil {
		return err
	}

	est := rateEstimate{
		NightlyRate: deal.EstimateNightlyRate(beds, baths, city),
		PremiumCity: deal.IsPremiumCity(city),
		Beds:        beds,
		Baths:       baths,
		City:        city,
	}

	out := cmd.OutOrStdout()
	if isJSON() {
		return printJSON(out, est)
	}

	premium := ""
	if est.PremiumCity {
		premium = " (premium city)"
	}
	fmt.Fprintf(out, "Estimated nightly rate: $%s%s\n", formatMoney(est.NightlyRate), premium)
	return nil
}
