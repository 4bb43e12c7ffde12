package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/rental-arb/internal/analysis"
	"github.com/evcraddock/rental-arb/internal/deal"
)

type roiOutput struct {
	Inputs   deal.RoiInputs     `json:"inputs"`
	Results  deal.RoiResults    `json:"results"`
	Analysis *analysis.Analysis `json:"analysis,omitempty"`
}

func newROICmd() *cobra.Command {
	in := deal.DefaultRoiInputs()
	var strategy string

	cmd := &cobra.Command{
		Use:   "roi",
		Short: "Project ROI for a rental arbitrage unit",
		Long: "Project monthly revenue, expenses, profit, ROI, break-even occupancy and payback for an " +
			"STR or MTR strategy. Runs locally; --save stores the result as an analysis (pro).",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Strategy = deal.Strategy(strings.ToUpper(strategy))
			save, listingID := saveRequestFlags(cmd)
			return runROI(cmd, in, save, listingID)
		},
	}

	f := cmd.Flags()
	f.StringVar(&strategy, "strategy", string(in.Strategy), "rental strategy (STR|MTR)")
	f.Float64Var(&in.MonthlyRent, "rent", in.MonthlyRent, "monthly rent")
	f.Float64Var(&in.SecurityDeposit, "deposit", in.SecurityDeposit, "security deposit")
	f.Float64Var(&in.Utilities, "utilities", in.Utilities, "monthly utilities")
	f.Float64Var(&in.Internet, "internet", in.Internet, "monthly internet")
	f.Float64Var(&in.NightlyRate, "nightly-rate", in.NightlyRate, "nightly rate (STR)")
	f.Float64Var(&in.OccupancyRate, "occupancy", in.OccupancyRate, "occupancy percent (STR)")
	f.Float64Var(&in.CleaningFee, "cleaning-fee", in.CleaningFee, "cleaning fee charged per stay (STR)")
	f.Float64Var(&in.AvgStayLength, "avg-stay", in.AvgStayLength, "average stay in nights (STR)")
	f.Float64Var(&in.MTRMonthlyRate, "mtr-rate", in.MTRMonthlyRate, "monthly rate charged to the tenant (MTR)")
	f.Float64Var(&in.FurnishingCost, "furnishing", in.FurnishingCost, "one-time furnishing cost")
	f.Float64Var(&in.CleaningCostPerStay, "cleaning-cost", in.CleaningCostPerStay, "cleaning cost per stay")
	f.Float64Var(&in.Supplies, "supplies", in.Supplies, "monthly supplies")
	f.Float64Var(&in.PlatformFeePercent, "platform-fee", in.PlatformFeePercent, "platform fee percent of revenue")
	f.Float64Var(&in.ManagementFeePercent, "management-fee", in.ManagementFeePercent, "management fee percent of revenue")
	f.Float64Var(&in.Maintenance, "maintenance", in.Maintenance, "monthly maintenance")
	f.Float64Var(&in.Insurance, "insurance", in.Insurance, "monthly insurance")
	addSaveFlags(cmd)

	return cmd
}

func runROI(cmd *cobra.Command, in deal.RoiInputs, save bool, listingID *int64) error {
	if err := in.Validate(); err != nil {
		return err
	}

	res := deal.Compute(in)
	output := roiOutput{Inputs: in, Results: res}
	out := cmd.OutOrStdout()

	var saveErr error
	if save {
		req := analysis.SaveRequestFromRoi(in, listingID)
		req.Inputs = &in
		output.Analysis, saveErr = newAPIClient().SaveAnalysis(cmdContext(cmd), req)
	}

	if isJSON() {
		if err := printJSON(out, output); err != nil {
			return err
		}
	} else {
		printROIResults(out, in, res)
		reportSaved(out, output.Analysis)
	}

	return saveErr
}

// reportSaved notes a successful save. A failed save is returned as the
// command error after the result has been printed.
func reportSaved(w io.Writer, a *analysis.Analysis) {
	if a != nil {
		fmt.Fprintf(w, "\nSaved as analysis %s.\n", a.ID)
	}
}

func addSaveFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("save", false, "save the result as an analysis (pro)")
	cmd.Flags().Int64("listing", 0, "listing ID to attach the saved analysis to")
}

func saveRequestFlags(cmd *cobra.Command) (save bool, listingID *int64) {
	save, _ = cmd.Flags().GetBool("save")
	if cmd.Flags().Changed("listing") {
		id, _ := cmd.Flags().GetInt64("listing")
		listingID = &id
	}
	return save, listingID
}
