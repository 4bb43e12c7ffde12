package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show listing details",
		Long:  "Show a listing with its score breakdown and verification history.",
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	}
}

func runShow(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0], "listing")
	if err != nil {
		return err
	}

	detail, err := newAPIClient().GetListing(cmdContext(cmd), id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if isJSON() {
		return printJSON(out, detail)
	}

	printListingSummary(out, detail.Property)
	fmt.Fprintln(out)
	if detail.Score != nil {
		printScoreBreakdown(out, detail.Score)
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "Verification (%d):\n", len(detail.Verifications))
	printVerifications(out, detail.Verifications)

	return nil
}
