package deal

// Percentages (0-100) are used at every boundary: flags, JSON bodies and
// display. Fractions (0-1) are used inside formulas and in saved quick
// estimates. These two functions are the only conversion points.

// PercentToFraction converts a 0-100 percentage to a 0-1 fraction.
func PercentToFraction(pct float64) float64 {
	return pct / 100
}

// FractionToPercent converts a 0-1 fraction to a 0-100 percentage.
func FractionToPercent(f float64) float64 {
	return f * 100
}

// safeDiv returns num/den, or 0 when den is zero.
func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
