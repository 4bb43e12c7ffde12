package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh <id>",
		Short: "Refresh market data for a listing",
		Long:  "Fetch fresh comparables for a listing and rescore it. Provider values replace the stored market facts.",
		Args:  cobra.ExactArgs(1),
		RunE:  runRefresh,
	}
}

func runRefresh(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0], "listing")
	if err != nil {
		return err
	}

	p, err := newAPIClient().RefreshListing(cmdContext(cmd), id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if isJSON() {
		return printJSON(out, p)
	}

	fmt.Fprintln(out, "Market data refreshed.")
	printListingSummary(out, p)
	return nil
}
