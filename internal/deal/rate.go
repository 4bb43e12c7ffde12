// Package deal holds the rental-arbitrage math: nightly rate estimates,
// lead scoring and ROI projections. Everything here is a pure function
// over plain values and is safe for concurrent use.
package deal

import "strings"

const (
	baseNightlyRate = 80.0
	perBedroomRate  = 25.0
	perBathroomRate = 15.0
	cityPremiumRate = 30.0
)

// premiumCities lists markets whose nightly rates run above the baseline.
// Keys are lower-case.
var premiumCities = map[string]struct{}{
	"austin":        {},
	"nashville":     {},
	"miami":         {},
	"denver":        {},
	"san diego":     {},
	"scottsdale":    {},
	"charleston":    {},
	"savannah":      {},
	"new orleans":   {},
	"asheville":     {},
	"san francisco": {},
	"seattle":       {},
}

// IsPremiumCity reports whether city earns the nightly rate premium.
// Matching ignores case and surrounding whitespace.
func IsPremiumCity(city string) bool {
	_, ok := premiumCities[strings.ToLower(strings.TrimSpace(city))]
	return ok
}

// EstimateNightlyRate returns a fallback nightly STR rate for a unit when no
// comparable market data exists. Callers must reject negative counts first.
func EstimateNightlyRate(beds, baths int, city string) float64 {
	rate := baseNightlyRate + float64(beds)*perBedroomRate + float64(baths)*perBathroomRate
	if IsPremiumCity(city) {
		rate += cityPremiumRate
	}
	return rate
}
