package cli

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

func newScoreCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "score [id]",
		Short: "Rescore a listing",
		Long:  "Recompute the lead score for one listing, or for every listing with --all (admin).",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) == 1) {
				return eris.New("give a listing ID or --all, not both")
			}
			if all {
				return runScoreAll(cmd)
			}
			return runScore(cmd, args[0])
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "rescore every listing")

	return cmd
}

func runScore(cmd *cobra.Command, arg string) error {
	id, err := parseID(arg, "listing")
	if err != nil {
		return err
	}

	p, err := newAPIClient().RescoreListing(cmdContext(cmd), id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if isJSON() {
		return printJSON(out, p)
	}

	fmt.Fprintf(out, "Listing #%d: %s\n", p.ID, p.Address)
	if p.Score != nil {
		printScoreBreakdown(out, p.Score)
	}
	return nil
}

func runScoreAll(cmd *cobra.Command) error {
	summary, err := newAPIClient().RescoreAll(cmdContext(cmd))
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), summary)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Rescored %d of %d listings (%d failed).\n",
		summary.Scored, summary.Total, summary.Failed)
	return nil
}
