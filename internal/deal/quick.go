package deal

// QuickInputs is the compact form of an ROI estimate that gets saved.
// Occupancy and expense rate are fractions (0-1).
type QuickInputs struct {
	ADR                 float64 `json:"adr" validate:"gte=0"`
	OccupancyFraction   float64 `json:"occupancy" validate:"gte=0,lte=1"`
	ExpenseRateFraction float64 `json:"expense_rate" validate:"gte=0,lte=1"`
	MonthlyRent         float64 `json:"monthly_rent" validate:"gte=0"`
}

// QuickResult echoes the inputs with the derived revenue figures.
type QuickResult struct {
	QuickInputs
	MonthlyRevenue float64 `json:"monthly_revenue"`
	AnnualRevenue  float64 `json:"annual_revenue"`
	ROIScore       float64 `json:"roi_score"`
}

// QuickEstimate derives revenue and a return-on-rent score from an ADR,
// occupancy and expense rate. Saved analyses are computed with this same
// function so stored and live values always agree.
func QuickEstimate(in QuickInputs) QuickResult {
	monthly := in.ADR * daysPerMonth * in.OccupancyFraction
	annual := monthly * 12
	annualRent := in.MonthlyRent * 12
	net := annual*(1-in.ExpenseRateFraction) - annualRent

	return QuickResult{
		QuickInputs:    in,
		MonthlyRevenue: monthly,
		AnnualRevenue:  annual,
		ROIScore:       safeDiv(net, annualRent) * 100,
	}
}
