// Package analysis stores ROI analyses operators choose to keep.
package analysis

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/evcraddock/rental-arb/internal/deal"
)

var (
	// ErrNotFound is returned when an analysis does not exist or belongs to
	// someone else.
	ErrNotFound = eris.New("analysis not found")
	// ErrSaveFailed wraps any failure to persist an analysis. The caller's
	// computed result is still valid.
	ErrSaveFailed = eris.New("analysis could not be saved")
)

// SaveError reports a failed save. It matches ErrSaveFailed and unwraps to
// the store's error, so a timeout can be told apart from a database failure.
type SaveError struct {
	Cause error
}

func (e *SaveError) Error() string {
	return ErrSaveFailed.Error()
}

func (e *SaveError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is ErrSaveFailed.
func (e *SaveError) Is(target error) bool {
	return target == ErrSaveFailed
}

// Analysis is a saved ROI estimate. Occupancy and expense rate are stored
// as fractions (0-1).
type Analysis struct {
	ID        string `json:"id"`
	ListingID *int64 `json:"listing_id,omitempty"`
	Owner     string `json:"owner"`

	deal.QuickResult

	Inputs    *deal.RoiInputs  `json:"inputs,omitempty"`
	Results   *deal.RoiResults `json:"results,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// SaveRequest is what a client sends to save an analysis. Percentages are
// 0-100, matching every other input boundary.
type SaveRequest struct {
	ListingID          *int64          `json:"listing_id,omitempty"`
	ADR                float64         `json:"adr" validate:"gte=0"`
	OccupancyPercent   float64         `json:"occupancy_percent" validate:"gte=0,lte=100"`
	ExpenseRatePercent float64         `json:"expense_rate_percent" validate:"gte=0,lte=100"`
	MonthlyRent        float64         `json:"monthly_rent" validate:"gte=0"`
	Inputs             *deal.RoiInputs `json:"inputs,omitempty"`
}

// QuickInputs converts the request to the fractional form used for storage.
func (r SaveRequest) QuickInputs() deal.QuickInputs {
	return deal.QuickInputs{
		ADR:                 r.ADR,
		OccupancyFraction:   deal.PercentToFraction(r.OccupancyPercent),
		ExpenseRateFraction: deal.PercentToFraction(r.ExpenseRatePercent),
		MonthlyRent:         r.MonthlyRent,
	}
}

// SaveRequestFromRoi derives a quick save request from full ROI inputs.
// The expense rate is the share of revenue consumed by operating costs.
func SaveRequestFromRoi(in deal.RoiInputs, listingID *int64) SaveRequest {
	res := deal.Compute(in)
	expensePct := 0.0
	if res.MonthlyRevenue > 0 {
		expensePct = res.OperatingExpenses / res.MonthlyRevenue * 100
	}
	if expensePct > 100 {
		expensePct = 100
	}

	adr := in.NightlyRate
	occupancy := in.OccupancyRate
	if in.Strategy == deal.StrategyMTR {
		adr = in.MTRMonthlyRate / 30
		occupancy = 100
	}

	return SaveRequest{
		ListingID:          listingID,
		ADR:                adr,
		OccupancyPercent:   occupancy,
		ExpenseRatePercent: expensePct,
		MonthlyRent:        in.MonthlyRent,
		Inputs:             &in,
	}
}
