package deal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuickEstimate(t *testing.T) {
	r := QuickEstimate(QuickInputs{
		ADR:                 150,
		OccupancyFraction:   0.7,
		ExpenseRateFraction: 0.3,
		MonthlyRent:         2000,
	})

	assert.Equal(t, 150.0, r.ADR)
	assert.Equal(t, 0.7, r.OccupancyFraction)
	assert.Equal(t, 0.3, r.ExpenseRateFraction)
	assert.InDelta(t, 3150, r.MonthlyRevenue, 1e-9)
	assert.InDelta(t, 37800, r.AnnualRevenue, 1e-9)
	// (37800 * 0.7 - 24000) / 24000 * 100
	assert.InDelta(t, 10.25, r.ROIScore, 1e-9)
}

func TestQuickEstimateZeroRent(t *testing.T) {
	r := QuickEstimate(QuickInputs{ADR: 100, OccupancyFraction: 0.5})
	assert.InDelta(t, 1500, r.MonthlyRevenue, 1e-9)
	assert.Equal(t, 0.0, r.ROIScore)
}

func TestQuickEstimateDeterministic(t *testing.T) {
	in := QuickInputs{ADR: 187.25, OccupancyFraction: 0.63, ExpenseRateFraction: 0.41, MonthlyRent: 1875}
	assert.Equal(t, QuickEstimate(in), QuickEstimate(in))
}

func TestPercentFractionRoundTrip(t *testing.T) {
	assert.Equal(t, 0.7, PercentToFraction(70))
	assert.Equal(t, 25.0, FractionToPercent(0.25))
	assert.Equal(t, 0.0, PercentToFraction(0))
}
