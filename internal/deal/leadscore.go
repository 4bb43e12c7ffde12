package deal

import "math"

// Sub-score ceilings. They sum to 100.
const (
	MaxSpreadScore      = 40.0
	MaxLocationScore    = 25.0
	MaxCompetitionScore = 15.0
	MaxRegulationScore  = 15.0
	MaxSeasonalityScore = 5.0
)

const (
	daysPerMonth      = 30.0
	assumedOccupancy  = 0.7
	maxWalkPoints     = 15.0
	maxDistancePoints = 10.0
)

// Grade is a letter summary of a lead score.
type Grade string

const (
	GradeAPlus Grade = "A+"
	GradeA     Grade = "A"
	GradeB     Grade = "B"
	GradeC     Grade = "C"
	GradeD     Grade = "D"
)

// ValidGrade returns true if s is a known grade.
func ValidGrade(s string) bool {
	switch Grade(s) {
	case GradeAPlus, GradeA, GradeB, GradeC, GradeD:
		return true
	}
	return false
}

// GradeFor maps a total score to its letter grade.
func GradeFor(total int) Grade {
	switch {
	case total >= 90:
		return GradeAPlus
	case total >= 80:
		return GradeA
	case total >= 70:
		return GradeB
	case total >= 60:
		return GradeC
	default:
		return GradeD
	}
}

// Breakdown keeps the intermediate values a score was built from.
type Breakdown struct {
	STRRate                 float64        `json:"str_rate"`
	STRRateEstimated        bool           `json:"str_rate_estimated"`
	MonthlySTRRevenue       float64        `json:"monthly_str_revenue"`
	SpreadAmount            float64        `json:"spread_amount"`
	SpreadPercent           float64        `json:"spread_percent"`
	WalkabilityScore        float64        `json:"walkability_score"`
	DistanceToDowntownKm    float64        `json:"distance_to_downtown_km"`
	NearbySTRCount          int            `json:"nearby_str_count"`
	RegulationRisk          RegulationRisk `json:"regulation_risk"`
	SeasonalVariancePercent float64        `json:"seasonal_variance_percent"`
}

// LeadScore is the result of scoring a listing.
type LeadScore struct {
	TotalScore       int       `json:"total_score"`
	Grade            Grade     `json:"grade"`
	RawTotal         float64   `json:"raw_total"`
	SpreadScore      float64   `json:"spread_score"`
	LocationScore    float64   `json:"location_score"`
	CompetitionScore float64   `json:"competition_score"`
	RegulationScore  float64   `json:"regulation_score"`
	SeasonalityScore float64   `json:"seasonality_score"`
	Breakdown        Breakdown `json:"breakdown"`
}

// Score rates a listing's arbitrage potential on a 0-100 scale.
func Score(facts PropertyFacts) LeadScore {
	n := facts.Normalize()

	monthlySTR := n.STRRate * daysPerMonth * assumedOccupancy
	spread := monthlySTR - n.Rent
	spreadPct := safeDiv(spread, n.Rent) * 100

	s := LeadScore{
		SpreadScore:      SpreadScore(spreadPct),
		LocationScore:    LocationScore(n.WalkabilityScore, n.DistanceToDowntownKm),
		CompetitionScore: CompetitionScore(n.NearbySTRCount),
		RegulationScore:  RegulationScore(n.RegulationRisk),
		SeasonalityScore: SeasonalityScore(n.SeasonalVariancePercent),
		Breakdown: Breakdown{
			STRRate:                 n.STRRate,
			STRRateEstimated:        n.STRRateEstimated,
			MonthlySTRRevenue:       monthlySTR,
			SpreadAmount:            spread,
			SpreadPercent:           spreadPct,
			WalkabilityScore:        n.WalkabilityScore,
			DistanceToDowntownKm:    n.DistanceToDowntownKm,
			NearbySTRCount:          n.NearbySTRCount,
			RegulationRisk:          n.RegulationRisk,
			SeasonalVariancePercent: n.SeasonalVariancePercent,
		},
	}

	s.RawTotal = s.SpreadScore + s.LocationScore + s.CompetitionScore + s.RegulationScore + s.SeasonalityScore
	s.TotalScore = int(math.Round(s.RawTotal))
	s.Grade = GradeFor(s.TotalScore)
	return s
}

// SpreadScore maps a spread percentage to points. Thresholds are strict,
// so exactly 100% earns 35, not 40.
func SpreadScore(spreadPct float64) float64 {
	switch {
	case spreadPct > 100:
		return 40
	case spreadPct > 75:
		return 35
	case spreadPct > 50:
		return 30
	case spreadPct > 25:
		return 20
	default:
		return 10
	}
}

// LocationScore combines walkability (up to 15) and closeness to downtown
// (up to 10, zero at 10 km or more).
func LocationScore(walkability, distanceKm float64) float64 {
	walk := walkability / 100 * maxWalkPoints
	dist := math.Max(0, maxDistancePoints-distanceKm)
	return walk + dist
}

// CompetitionScore rewards markets with fewer nearby short-term rentals.
func CompetitionScore(nearby int) float64 {
	switch {
	case nearby < 10:
		return 15
	case nearby < 20:
		return 12
	case nearby < 30:
		return 8
	case nearby < 50:
		return 5
	default:
		return 2
	}
}

// RegulationScore maps regulation risk to points.
func RegulationScore(risk RegulationRisk) float64 {
	switch risk {
	case RegulationLow:
		return 15
	case RegulationHigh:
		return 3
	default:
		return 10
	}
}

// SeasonalityScore rewards steady year-round demand.
func SeasonalityScore(variancePct float64) float64 {
	switch {
	case variancePct < 20:
		return 5
	case variancePct < 40:
		return 3
	default:
		return 1
	}
}
