package cli

import (
	"github.com/spf13/cobra"

	"github.com/evcraddock/rental-arb/internal/client"
)

func newListCmd() *cobra.Command {
	var (
		opts     client.ListOptions
		minScore int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List listings by score",
		Long:  "List tracked listings, best score first, optionally filtered.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("min-score") {
				opts.MinScore = &minScore
			}
			return runList(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&minScore, "min-score", 0, "minimum lead score (0-100)")
	cmd.Flags().StringVar(&opts.Grade, "grade", "", "grade filter (A+|A|B|C|D)")
	cmd.Flags().StringVar(&opts.City, "city", "", "city filter")
	cmd.Flags().StringVar(&opts.Status, "status", "", "status filter (unverified|pending|verified|rejected)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of listings")

	return cmd
}

func runList(cmd *cobra.Command, opts client.ListOptions) error {
	listings, err := newAPIClient().ListListings(cmdContext(cmd), opts)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), listings)
	}
	return printListingTable(cmd.OutOrStdout(), listings)
}
