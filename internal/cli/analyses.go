package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAnalysesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyses",
		Short: "Manage saved analyses",
		Long:  "List, show and delete the ROI analyses you have saved.",
	}

	cmd.AddCommand(newAnalysesListCmd(), newAnalysesShowCmd(), newAnalysesDeleteCmd())
	return cmd
}

func newAnalysesListCmd() *cobra.Command {
	var listing int64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved analyses, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var listingID *int64
			if cmd.Flags().Changed("listing") {
				listingID = &listing
			}

			list, err := newAPIClient().ListAnalyses(cmdContext(cmd), listingID)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), list)
			}
			return printAnalysisTable(cmd.OutOrStdout(), list)
		},
	}

	cmd.Flags().Int64Var(&listing, "listing", 0, "only analyses attached to this listing")

	return cmd
}

func newAnalysesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a saved analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newAPIClient().GetAnalysis(cmdContext(cmd), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if isJSON() {
				return printJSON(out, a)
			}

			fmt.Fprintf(out, "Analysis %s (%s)\n", a.ID, a.CreatedAt.Format("2006-01-02 15:04"))
			if a.ListingID != nil {
				fmt.Fprintf(out, "Listing #%d\n", *a.ListingID)
			}
			fmt.Fprintln(out)
			printQuickResult(out, a.QuickResult)
			if a.Inputs != nil && a.Results != nil {
				fmt.Fprintln(out)
				printROIResults(out, *a.Inputs, *a.Results)
			}
			return nil
		},
	}
}

func newAnalysesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newAPIClient().DeleteAnalysis(cmdContext(cmd), args[0]); err != nil {
				return err
			}
			if isJSON() {
				return printJSON(cmd.OutOrStdout(), map[string]any{"id": args[0], "removed": true})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Analysis %s deleted.\n", args[0])
			return nil
		},
	}
}
