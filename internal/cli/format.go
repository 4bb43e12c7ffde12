package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"

	"github.com/evcraddock/rental-arb/internal/analysis"
	"github.com/evcraddock/rental-arb/internal/deal"
	"github.com/evcraddock/rental-arb/internal/property"
	"github.com/evcraddock/rental-arb/internal/verification"
)

// printJSON marshals v as indented JSON and writes it to w.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printListingSummary prints a single listing in text format.
func printListingSummary(w io.Writer, p *property.Property) {
	fmt.Fprintf(w, "Listing #%d\n", p.ID)
	fmt.Fprintf(w, "  Address:  %s, %s, %s\n", p.Address, p.City, p.State)
	fmt.Fprintf(w, "  Rent:     $%s/mo\n", formatMoney(p.MonthlyRent))
	fmt.Fprintf(w, "  Layout:   %d bed | %d bath\n", p.Beds, p.Baths)
	fmt.Fprintf(w, "  Score:    %s\n", formatScore(p))
	fmt.Fprintf(w, "  Status:   %s\n", p.Status)
	if p.Notes != "" {
		fmt.Fprintf(w, "  Notes:    %s\n", p.Notes)
	}
}

// printScoreBreakdown prints each sub-score and the values behind it.
func printScoreBreakdown(w io.Writer, s *deal.LeadScore) {
	b := s.Breakdown
	rateNote := ""
	if b.STRRateEstimated {
		rateNote = " (estimated)"
	}

	fmt.Fprintf(w, "Score %d (%s), raw %.1f\n", s.TotalScore, s.Grade, s.RawTotal)
	fmt.Fprintf(w, "  Spread       %4.1f / %2.0f   $%s/mo (%.0f%%) at $%s/night%s\n",
		s.SpreadScore, deal.MaxSpreadScore, formatMoney(b.SpreadAmount), b.SpreadPercent, formatMoney(b.STRRate), rateNote)
	fmt.Fprintf(w, "  Location     %4.1f / %2.0f   walkability %.0f, %.1f km to downtown\n",
		s.LocationScore, deal.MaxLocationScore, b.WalkabilityScore, b.DistanceToDowntownKm)
	fmt.Fprintf(w, "  Competition  %4.1f / %2.0f   %d nearby STRs\n",
		s.CompetitionScore, deal.MaxCompetitionScore, b.NearbySTRCount)
	fmt.Fprintf(w, "  Regulation   %4.1f / %2.0f   %s risk\n",
		s.RegulationScore, deal.MaxRegulationScore, b.RegulationRisk)
	fmt.Fprintf(w, "  Seasonality  %4.1f / %2.0f   %.0f%% variance\n",
		s.SeasonalityScore, deal.MaxSeasonalityScore, b.SeasonalVariancePercent)
}

// printListingTable prints a list of listings as a formatted table.
func printListingTable(w io.Writer, listings []*property.Property) error {
	if len(listings) == 0 {
		fmt.Fprintln(w, "No listings found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "ID\tADDRESS\tCITY\tRENT\tBED\tBATH\tSCORE\tSTATUS"); err != nil {
		return eris.Wrap(err, "writing table header")
	}
	if _, err := fmt.Fprintln(tw, "--\t-------\t----\t----\t---\t----\t-----\t------"); err != nil {
		return eris.Wrap(err, "writing table separator")
	}

	for _, p := range listings {
		if _, err := fmt.Fprintf(tw, "%d\t%s\t%s\t$%s\t%d\t%d\t%s\t%s\n",
			p.ID, truncate(p.Address, 40), p.City, formatMoney(p.MonthlyRent),
			p.Beds, p.Baths, formatScore(p), p.Status); err != nil {
			return eris.Wrap(err, "writing table row")
		}
	}

	if err := tw.Flush(); err != nil {
		return eris.Wrap(err, "flushing table")
	}

	fmt.Fprintf(w, "\nTotal: %d %s\n", len(listings), plural(len(listings), "listing", "listings"))
	return nil
}

// printROIResults prints a full ROI projection.
func printROIResults(w io.Writer, in deal.RoiInputs, r deal.RoiResults) {
	fmt.Fprintf(w, "Strategy: %s\n\n", r.Strategy)

	fmt.Fprintln(w, "Revenue")
	if r.Strategy == deal.StrategyMTR {
		fmt.Fprintf(w, "  Monthly tenant rate   $%s\n", formatMoney(in.MTRMonthlyRate))
	} else {
		fmt.Fprintf(w, "  Nights booked         %.1f\n", r.NightsBooked)
		fmt.Fprintf(w, "  Nightly revenue       $%s\n", formatMoney(r.RevenueFromNights))
		fmt.Fprintf(w, "  Stays                 %.1f\n", r.NumberOfStays)
		fmt.Fprintf(w, "  Cleaning fees         $%s\n", formatMoney(r.CleaningRevenue))
	}
	fmt.Fprintf(w, "  Monthly revenue       $%s\n\n", formatMoney(r.MonthlyRevenue))

	fmt.Fprintln(w, "Expenses")
	fmt.Fprintf(w, "  Lease                 $%s\n", formatMoney(r.LeaseExpenses))
	fmt.Fprintf(w, "  Operating             $%s\n", formatMoney(r.OperatingExpenses))
	fmt.Fprintf(w, "  Monthly expenses      $%s\n\n", formatMoney(r.MonthlyExpenses))

	fmt.Fprintln(w, "Returns")
	fmt.Fprintf(w, "  Net profit            $%s/mo\n", formatMoney(r.NetProfit))
	fmt.Fprintf(w, "  Annual profit         $%s\n", formatMoney(r.ProjectedAnnualProfit))
	fmt.Fprintf(w, "  Initial investment    $%s\n", formatMoney(r.InitialInvestment))
	fmt.Fprintf(w, "  Profit margin         %.1f%%\n", r.ProfitMargin)
	fmt.Fprintf(w, "  ROI                   %.1f%%\n", r.ROI)
	fmt.Fprintf(w, "  Break-even occupancy  %.0f%%\n", r.BreakEvenOccupancy)
	if r.HasPayback() {
		fmt.Fprintf(w, "  Payback               %.1f months\n", *r.PaybackPeriodMonths)
	} else {
		fmt.Fprintln(w, "  Payback               never")
	}
}

// printQuickResult prints a quick estimate.
func printQuickResult(w io.Writer, r deal.QuickResult) {
	fmt.Fprintf(w, "ADR $%s at %.0f%% occupancy, %.0f%% expenses, rent $%s/mo\n",
		formatMoney(r.ADR), r.OccupancyFraction*100, r.ExpenseRateFraction*100, formatMoney(r.MonthlyRent))
	fmt.Fprintf(w, "  Monthly revenue  $%s\n", formatMoney(r.MonthlyRevenue))
	fmt.Fprintf(w, "  Annual revenue   $%s\n", formatMoney(r.AnnualRevenue))
	fmt.Fprintf(w, "  ROI on rent      %.1f%%\n", r.ROIScore)
}

// printVerifications prints a listing's verification history.
func printVerifications(w io.Writer, reqs []*verification.Request) {
	if len(reqs) == 0 {
		fmt.Fprintln(w, "No verification requests.")
		return
	}

	for _, r := range reqs {
		fmt.Fprintf(w, "[%s] #%d %s by %s\n", r.CreatedAt.Format("2006-01-02 15:04"), r.ID, r.Status, r.RequestedBy)
		if r.Notes != "" {
			fmt.Fprintf(w, "  %s\n", r.Notes)
		}
		if r.Reviewer != "" {
			fmt.Fprintf(w, "  reviewed by %s", r.Reviewer)
			if r.ReviewNote != "" {
				fmt.Fprintf(w, ": %s", r.ReviewNote)
			}
			fmt.Fprintln(w)
		}
	}
}

// printPendingTable prints the admin review queue.
func printPendingTable(w io.Writer, pending []*verification.PendingRequest) error {
	if len(pending) == 0 {
		fmt.Fprintln(w, "No pending verification requests.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "ID\tLISTING\tADDRESS\tREQUESTED BY\tCREATED"); err != nil {
		return eris.Wrap(err, "writing table header")
	}
	for _, p := range pending {
		if _, err := fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\n",
			p.ID, p.ListingID, truncate(p.Address+", "+p.City, 40), p.RequestedBy,
			p.CreatedAt.Format("2006-01-02")); err != nil {
			return eris.Wrap(err, "writing table row")
		}
	}
	return eris.Wrap(tw.Flush(), "flushing table")
}

// printAnalysisTable prints saved analyses.
func printAnalysisTable(w io.Writer, list []*analysis.Analysis) error {
	if len(list) == 0 {
		fmt.Fprintln(w, "No saved analyses.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "ID\tLISTING\tADR\tOCC\tREVENUE/MO\tROI\tCREATED"); err != nil {
		return eris.Wrap(err, "writing table header")
	}
	for _, a := range list {
		listing := "-"
		if a.ListingID != nil {
			listing = strconv.FormatInt(*a.ListingID, 10)
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\t$%s\t%.0f%%\t$%s\t%.1f%%\t%s\n",
			a.ID, listing, formatMoney(a.ADR), a.OccupancyFraction*100,
			formatMoney(a.MonthlyRevenue), a.ROIScore, a.CreatedAt.Format("2006-01-02")); err != nil {
			return eris.Wrap(err, "writing table row")
		}
	}
	return eris.Wrap(tw.Flush(), "flushing table")
}

// formatScore returns "87 (A)" or "-" for an unscored listing.
func formatScore(p *property.Property) string {
	if p.LeadScore == nil {
		return "-"
	}
	if p.LeadGrade == nil {
		return strconv.Itoa(*p.LeadScore)
	}
	return fmt.Sprintf("%d (%s)", *p.LeadScore, *p.LeadGrade)
}

// formatMoney rounds to whole dollars and adds thousands separators.
func formatMoney(amount float64) string {
	n := int64(math.Round(amount))
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return sign + s
	}

	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)

	return sign + strings.Join(parts, ",")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
