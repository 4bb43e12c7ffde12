package cli

import (
	"github.com/spf13/cobra"

	"github.com/evcraddock/rental-arb/internal/analysis"
	"github.com/evcraddock/rental-arb/internal/deal"
)

type quickOutput struct {
	deal.QuickResult
	Analysis *analysis.Analysis `json:"analysis,omitempty"`
}

func newQuickCmd() *cobra.Command {
	var req analysis.SaveRequest

	cmd := &cobra.Command{
		Use:   "quick",
		Short: "Quick ROI estimate from ADR and occupancy",
		Long: "Estimate monthly and annual revenue and a return on annual rent from an average daily " +
			"rate, occupancy and expense rate. Runs locally; --save stores it as an analysis (pro).",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			save, listingID := saveRequestFlags(cmd)
			req.ListingID = listingID
			return runQuick(cmd, req, save)
		},
	}

	cmd.Flags().Float64Var(&req.ADR, "adr", 150, "average daily rate")
	cmd.Flags().Float64Var(&req.OccupancyPercent, "occupancy", 70, "occupancy percent")
	cmd.Flags().Float64Var(&req.ExpenseRatePercent, "expense-rate", 30, "operating expenses as a percent of revenue")
	cmd.Flags().Float64Var(&req.MonthlyRent, "rent", 2000, "monthly rent")
	addSaveFlags(cmd)

	return cmd
}

func runQuick(cmd *cobra.Command, req analysis.SaveRequest, save bool) error {
	if err := deal.ValidateStruct(req); err != nil {
		return err
	}

	output := quickOutput{QuickResult: deal.QuickEstimate(req.QuickInputs())}
	out := cmd.OutOrStdout()

	var saveErr error
	if save {
		output.Analysis, saveErr = newAPIClient().SaveAnalysis(cmdContext(cmd), req)
	}

	if isJSON() {
		if err := printJSON(out, output); err != nil {
			return err
		}
	} else {
		printQuickResult(out, output.QuickResult)
		reportSaved(out, output.Analysis)
	}

	return saveErr
}
