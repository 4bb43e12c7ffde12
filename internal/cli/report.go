package cli

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/evcraddock/rental-arb/internal/client"
	"github.com/evcraddock/rental-arb/internal/deal"
)

func newReportCmd() *cobra.Command {
	var (
		to       []string
		ids      []int64
		minScore int
		grade    string
		limit    int
		dryRun   bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Email a deal report",
		Long: `Email a report of top listings. Without --ids, listings are picked by
score, best first. Recipients default to your own address (pro).`,
		Example: `  arb report --min-score 80
  arb report --ids 3,7 --to partner@example.com
  arb report --grade A+ --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			grade = strings.ToUpper(grade)
			if grade != "" && !deal.ValidGrade(grade) {
				return eris.Errorf("invalid grade %q (must be A+, A, B, C or D)", grade)
			}

			req := client.ReportRequest{
				To:         to,
				ListingIDs: ids,
				Grade:      grade,
				Limit:      limit,
				DryRun:     dryRun,
			}
			if cmd.Flags().Changed("min-score") {
				req.MinScore = &minScore
			}
			return runReport(cmd, req)
		},
	}

	cmd.Flags().StringSliceVar(&to, "to", nil, "recipient address (repeatable)")
	cmd.Flags().Int64SliceVar(&ids, "ids", nil, "listing IDs to include")
	cmd.Flags().IntVar(&minScore, "min-score", 0, "minimum lead score")
	cmd.Flags().StringVar(&grade, "grade", "", "only listings with this grade")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum listings in the report")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "render the report without sending it")

	return cmd
}

func runReport(cmd *cobra.Command, req client.ReportRequest) error {
	resp, err := newAPIClient().EmailReport(cmdContext(cmd), req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if isJSON() {
		return printJSON(out, resp)
	}

	if !resp.Sent {
		fmt.Fprintf(out, "To: %s\nSubject: %s\n\n%s\n", strings.Join(resp.To, ", "), resp.Subject, resp.Body)
		return nil
	}

	fmt.Fprintf(out, "Report with %d %s sent to %s.\n",
		resp.Listings, plural(resp.Listings, "listing", "listings"), strings.Join(resp.To, ", "))
	return nil
}
