package cli

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/evcraddock/rental-arb/internal/deal"
	"github.com/evcraddock/rental-arb/internal/property"
)

type addFlags struct {
	city, state, notes, regulation string
	rent                           float64
	beds, baths, nearby            int
	strRate, walk, distance, seas  float64
}

func newAddCmd() *cobra.Command {
	var f addFlags

	cmd := &cobra.Command{
		Use:   "add <address>",
		Short: "Add a listing",
		Long: "Add a long-term rental as an arbitrage lead. Unknown market facts are filled from " +
			"the market data provider when the server has one, then the listing is scored.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := f.newProperty(cmd, strings.Join(args, " "))
			if err != nil {
				return err
			}
			return runAdd(cmd, in)
		},
	}

	cmd.Flags().StringVar(&f.city, "city", "", "city (required)")
	cmd.Flags().StringVar(&f.state, "state", "", "state code")
	cmd.Flags().Float64Var(&f.rent, "rent", 0, "monthly rent in dollars (required)")
	cmd.Flags().IntVar(&f.beds, "beds", 0, "bedrooms")
	cmd.Flags().IntVar(&f.baths, "baths", 0, "bathrooms")
	cmd.Flags().StringVar(&f.notes, "notes", "", "free-form notes")
	cmd.Flags().Float64Var(&f.strRate, "str-rate", 0, "known nightly STR rate")
	cmd.Flags().Float64Var(&f.walk, "walkability", 0, "walkability score (0-100)")
	cmd.Flags().Float64Var(&f.distance, "distance-km", 0, "distance to downtown in km")
	cmd.Flags().IntVar(&f.nearby, "nearby-strs", 0, "number of nearby short-term rentals")
	cmd.Flags().StringVar(&f.regulation, "regulation", "", "regulation risk (low|medium|high)")
	cmd.Flags().Float64Var(&f.seas, "seasonal-variance", 0, "seasonal demand variance percent")
	_ = cmd.MarkFlagRequired("city")
	_ = cmd.MarkFlagRequired("rent")

	return cmd
}

// newProperty builds the request. Market facts are only sent when their
// flag was given so the server can fill the rest.
func (f addFlags) newProperty(cmd *cobra.Command, address string) (property.NewProperty, error) {
	in := property.NewProperty{
		Address:     address,
		City:        f.city,
		State:       f.state,
		MonthlyRent: f.rent,
		Beds:        f.beds,
		Baths:       f.baths,
		Notes:       f.notes,
	}

	changed := cmd.Flags().Changed
	if changed("str-rate") {
		in.STRRate = &f.strRate
	}
	if changed("walkability") {
		in.Walkability = &f.walk
	}
	if changed("distance-km") {
		in.DistanceKm = &f.distance
	}
	if changed("nearby-strs") {
		in.NearbySTRCount = &f.nearby
	}
	if changed("seasonal-variance") {
		in.SeasonalVariance = &f.seas
	}
	if changed("regulation") {
		if !deal.ValidRegulationRisk(f.regulation) {
			return in, eris.Errorf("invalid --regulation %q (low|medium|high)", f.regulation)
		}
		risk := deal.RegulationRisk(f.regulation)
		in.RegulationRisk = &risk
	}

	return in, nil
}

func runAdd(cmd *cobra.Command, in property.NewProperty) error {
	out := cmd.OutOrStdout()

	p, err := newAPIClient().AddListing(cmdContext(cmd), in)
	if err != nil {
		return eris.Wrap(err, "adding listing")
	}

	if isJSON() {
		return printJSON(out, p)
	}

	fmt.Fprintln(out, "Listing added.")
	printListingSummary(out, p)
	return nil
}
