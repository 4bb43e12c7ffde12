package deal

import "math"

// Strategy selects how a unit is rented out.
type Strategy string

const (
	StrategySTR Strategy = "STR"
	StrategyMTR Strategy = "MTR"
)

// mtrCleaningExpense is the flat monthly turnover cost assumed for mid-term stays.
const mtrCleaningExpense = 50.0

// RoiInputs are the user-editable assumptions behind an ROI projection.
// Currency is whole dollars; percentages are 0-100.
type RoiInputs struct {
	MonthlyRent     float64 `json:"monthly_rent" validate:"gte=0"`
	SecurityDeposit float64 `json:"security_deposit" validate:"gte=0"`
	Utilities       float64 `json:"utilities" validate:"gte=0"`
	Internet        float64 `json:"internet" validate:"gte=0"`

	Strategy Strategy `json:"strategy" validate:"required,oneof=STR MTR"`

	NightlyRate    float64 `json:"nightly_rate" validate:"gte=0"`
	OccupancyRate  float64 `json:"occupancy_rate" validate:"gte=0,lte=100"`
	CleaningFee    float64 `json:"cleaning_fee" validate:"gte=0"`
	AvgStayLength  float64 `json:"avg_stay_length" validate:"gte=0"`
	MTRMonthlyRate float64 `json:"mtr_monthly_rate" validate:"gte=0"`

	FurnishingCost       float64 `json:"furnishing_cost" validate:"gte=0"`
	CleaningCostPerStay  float64 `json:"cleaning_cost_per_stay" validate:"gte=0"`
	Supplies             float64 `json:"supplies" validate:"gte=0"`
	PlatformFeePercent   float64 `json:"platform_fee_percent" validate:"gte=0,lte=100"`
	ManagementFeePercent float64 `json:"management_fee_percent" validate:"gte=0,lte=100"`
	Maintenance          float64 `json:"maintenance" validate:"gte=0"`
	Insurance            float64 `json:"insurance" validate:"gte=0"`
}

// DefaultRoiInputs returns a typical STR starting point.
func DefaultRoiInputs() RoiInputs {
	return RoiInputs{
		MonthlyRent:         2000,
		SecurityDeposit:     2000,
		Utilities:           150,
		Internet:            80,
		Strategy:            StrategySTR,
		NightlyRate:         150,
		OccupancyRate:       70,
		CleaningFee:         100,
		AvgStayLength:       3,
		MTRMonthlyRate:      3500,
		FurnishingCost:      5000,
		CleaningCostPerStay: 75,
		Supplies:            100,
		PlatformFeePercent:  3,
		Maintenance:         150,
		Insurance:           50,
	}
}

// RoiResults is derived entirely from RoiInputs.
type RoiResults struct {
	Strategy Strategy `json:"strategy"`

	NightsBooked      float64 `json:"nights_booked"`
	RevenueFromNights float64 `json:"revenue_from_nights"`
	NumberOfStays     float64 `json:"number_of_stays"`
	CleaningRevenue   float64 `json:"cleaning_revenue"`
	MonthlyRevenue    float64 `json:"monthly_revenue"`

	CleaningExpense   float64 `json:"cleaning_expense"`
	PlatformFees      float64 `json:"platform_fees"`
	ManagementFee     float64 `json:"management_fee"`
	LeaseExpenses     float64 `json:"lease_expenses"`
	OperatingExpenses float64 `json:"operating_expenses"`
	MonthlyExpenses   float64 `json:"monthly_expenses"`

	NetProfit             float64 `json:"net_profit"`
	ProjectedAnnualProfit float64 `json:"projected_annual_profit"`
	InitialInvestment     float64 `json:"initial_investment"`
	ProfitMargin          float64 `json:"profit_margin"`
	ROI                   float64 `json:"roi"`
	BreakEvenOccupancy    float64 `json:"break_even_occupancy"`

	// PaybackPeriodMonths is nil when the unit never pays back its
	// initial investment (net profit <= 0).
	PaybackPeriodMonths *float64 `json:"payback_period_months"`
}

// HasPayback reports whether the projection recovers its initial investment.
func (r RoiResults) HasPayback() bool {
	return r.PaybackPeriodMonths != nil
}

// Compute projects monthly and annual returns for in. Every division is
// guarded, so results never contain NaN or Inf. Compute has no state: the
// same inputs always produce the same results.
func Compute(in RoiInputs) RoiResults {
	r := RoiResults{Strategy: in.Strategy}
	platformFee := PercentToFraction(in.PlatformFeePercent)
	managementFee := PercentToFraction(in.ManagementFeePercent)

	// revenue earned per percentage point of occupancy
	var perPoint float64

	switch in.Strategy {
	case StrategyMTR:
		r.MonthlyRevenue = in.MTRMonthlyRate
		r.CleaningExpense = mtrCleaningExpense
		r.PlatformFees = in.MTRMonthlyRate * platformFee
		perPoint = in.MTRMonthlyRate / 100
	default:
		r.Strategy = StrategySTR
		r.NightsBooked = daysPerMonth * PercentToFraction(in.OccupancyRate)
		r.RevenueFromNights = r.NightsBooked * in.NightlyRate
		r.NumberOfStays = safeDiv(r.NightsBooked, in.AvgStayLength)
		r.CleaningRevenue = r.NumberOfStays * in.CleaningFee
		r.MonthlyRevenue = r.RevenueFromNights + r.CleaningRevenue
		r.CleaningExpense = r.NumberOfStays * in.CleaningCostPerStay
		r.PlatformFees = r.RevenueFromNights * platformFee
		perPoint = daysPerMonth * in.NightlyRate / 100
	}

	r.ManagementFee = managementFee * r.MonthlyRevenue
	r.LeaseExpenses = in.MonthlyRent + in.Utilities + in.Internet
	r.OperatingExpenses = r.CleaningExpense + in.Supplies + r.PlatformFees +
		r.ManagementFee + in.Maintenance + in.Insurance
	r.MonthlyExpenses = r.LeaseExpenses + r.OperatingExpenses

	r.NetProfit = r.MonthlyRevenue - r.MonthlyExpenses
	r.ProjectedAnnualProfit = r.NetProfit * 12
	r.InitialInvestment = in.FurnishingCost + in.SecurityDeposit + in.MonthlyRent

	// Margin and ROI are reported as 0 when nothing is earned.
	if r.MonthlyRevenue > 0 {
		r.ProfitMargin = r.NetProfit / r.MonthlyRevenue * 100
		r.ROI = safeDiv(r.ProjectedAnnualProfit, r.InitialInvestment) * 100
	}
	r.BreakEvenOccupancy = breakEvenOccupancy(r, in.Supplies, perPoint)

	if r.NetProfit > 0 {
		months := r.InitialInvestment / r.NetProfit
		r.PaybackPeriodMonths = &months
	}

	return r
}

// breakEvenOccupancy treats supplies, cleaning and platform fees as the only
// occupancy-dependent costs. Everything else is fixed.
func breakEvenOccupancy(r RoiResults, supplies, perPoint float64) float64 {
	if perPoint <= 0 {
		return 0
	}
	variable := supplies + r.CleaningExpense + r.PlatformFees
	fixed := r.MonthlyExpenses - variable
	return math.Max(0, fixed/perPoint)
}
