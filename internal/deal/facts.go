package deal

// RegulationRisk describes how hostile local rules are to short-term rentals.
type RegulationRisk string

const (
	RegulationLow    RegulationRisk = "low"
	RegulationMedium RegulationRisk = "medium"
	RegulationHigh   RegulationRisk = "high"
)

// ValidRegulationRisk returns true if s is a known regulation risk level.
func ValidRegulationRisk(s string) bool {
	switch RegulationRisk(s) {
	case RegulationLow, RegulationMedium, RegulationHigh:
		return true
	}
	return false
}

// Defaults used when a market fact is unknown.
const (
	DefaultWalkabilityScore        = 50.0
	DefaultDistanceToDowntownKm    = 10.0
	DefaultNearbySTRCount          = 20
	DefaultRegulationRisk          = RegulationMedium
	DefaultSeasonalVariancePercent = 30.0
)

// PropertyFacts is everything the lead scorer knows about a listing.
// Nil pointers mean the fact is unknown.
type PropertyFacts struct {
	Rent  float64 `json:"rent" validate:"gt=0"`
	Beds  int     `json:"beds" validate:"gte=0"`
	Baths int     `json:"baths" validate:"gte=0"`
	City  string  `json:"city"`
	State string  `json:"state"`

	STRRateEstimate         *float64        `json:"str_rate_estimate,omitempty" validate:"omitempty,gte=0"`
	WalkabilityScore        *float64        `json:"walkability_score,omitempty" validate:"omitempty,gte=0,lte=100"`
	DistanceToDowntownKm    *float64        `json:"distance_to_downtown_km,omitempty" validate:"omitempty,gte=0"`
	NearbySTRCount          *int            `json:"nearby_str_count,omitempty" validate:"omitempty,gte=0"`
	RegulationRisk          *RegulationRisk `json:"regulation_risk,omitempty" validate:"omitempty,oneof=low medium high"`
	SeasonalVariancePercent *float64        `json:"seasonal_variance_percent,omitempty" validate:"omitempty,gte=0"`
}

// NormalizedFacts is PropertyFacts with every default resolved.
type NormalizedFacts struct {
	Rent                    float64
	Beds                    int
	Baths                   int
	City                    string
	State                   string
	STRRate                 float64
	STRRateEstimated        bool
	WalkabilityScore        float64
	DistanceToDowntownKm    float64
	NearbySTRCount          int
	RegulationRisk          RegulationRisk
	SeasonalVariancePercent float64
}

// Normalize resolves every unknown fact to its default. This is the only
// place defaults are applied.
func (f PropertyFacts) Normalize() NormalizedFacts {
	n := NormalizedFacts{
		Rent:                    f.Rent,
		Beds:                    f.Beds,
		Baths:                   f.Baths,
		City:                    f.City,
		State:                   f.State,
		WalkabilityScore:        DefaultWalkabilityScore,
		DistanceToDowntownKm:    DefaultDistanceToDowntownKm,
		NearbySTRCount:          DefaultNearbySTRCount,
		RegulationRisk:          DefaultRegulationRisk,
		SeasonalVariancePercent: DefaultSeasonalVariancePercent,
	}

	if f.STRRateEstimate != nil {
		n.STRRate = *f.STRRateEstimate
	} else {
		n.STRRate = EstimateNightlyRate(f.Beds, f.Baths, f.City)
		n.STRRateEstimated = true
	}
	if f.WalkabilityScore != nil {
		n.WalkabilityScore = *f.WalkabilityScore
	}
	if f.DistanceToDowntownKm != nil {
		n.DistanceToDowntownKm = *f.DistanceToDowntownKm
	}
	if f.NearbySTRCount != nil {
		n.NearbySTRCount = *f.NearbySTRCount
	}
	if f.RegulationRisk != nil && ValidRegulationRisk(string(*f.RegulationRisk)) {
		n.RegulationRisk = *f.RegulationRisk
	}
	if f.SeasonalVariancePercent != nil {
		n.SeasonalVariancePercent = *f.SeasonalVariancePercent
	}

	return n
}
