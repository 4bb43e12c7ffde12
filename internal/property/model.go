// Package property provides the rental listing model, storage and scoring
// workflow.
package property

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"

	"github.com/evcraddock/rental-arb/internal/deal"
)

// ErrNotFound is returned when a listing does not exist.
var ErrNotFound = eris.New("listing not found")

// ErrDuplicate is returned when a listing with the same address exists.
var ErrDuplicate = eris.New("listing already exists")

// Status tracks where a listing is in the verification workflow.
type Status string

const (
	StatusUnverified Status = "unverified"
	StatusPending    Status = "pending"
	StatusVerified   Status = "verified"
	StatusRejected   Status = "rejected"
)

// ValidStatus returns true if s is a known listing status.
func ValidStatus(s string) bool {
	switch Status(s) {
	case StatusUnverified, StatusPending, StatusVerified, StatusRejected:
		return true
	}
	return false
}

// Property is a long-term rental tracked as an arbitrage candidate.
type Property struct {
	ID          int64   `json:"id"`
	Address     string  `json:"address"`
	City        string  `json:"city"`
	State       string  `json:"state"`
	MonthlyRent float64 `json:"monthly_rent"`
	Beds        int     `json:"beds"`
	Baths       int     `json:"baths"`
	Notes       string  `json:"notes,omitempty"`

	STRRate          *float64             `json:"str_rate,omitempty"`
	Walkability      *float64             `json:"walkability,omitempty"`
	DistanceKm       *float64             `json:"distance_km,omitempty"`
	NearbySTRCount   *int                 `json:"nearby_str_count,omitempty"`
	RegulationRisk   *deal.RegulationRisk `json:"regulation_risk,omitempty"`
	SeasonalVariance *float64             `json:"seasonal_variance,omitempty"`

	Status    Status          `json:"status"`
	LeadScore *int            `json:"lead_score,omitempty"`
	LeadGrade *deal.Grade     `json:"lead_grade,omitempty"`
	Score     *deal.LeadScore `json:"score,omitempty"`
	ScoredAt  *time.Time      `json:"scored_at,omitempty"`
	MarketRaw json.RawMessage `json:"market_json,omitempty"`
	CreatedBy string          `json:"created_by,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Facts maps the listing to scorer input.
func (p *Property) Facts() deal.PropertyFacts {
	return deal.PropertyFacts{
		Rent:                    p.MonthlyRent,
		Beds:                    p.Beds,
		Baths:                   p.Baths,
		City:                    p.City,
		State:                   p.State,
		STRRateEstimate:         p.STRRate,
		WalkabilityScore:        p.Walkability,
		DistanceToDowntownKm:    p.DistanceKm,
		NearbySTRCount:          p.NearbySTRCount,
		RegulationRisk:          p.RegulationRisk,
		SeasonalVariancePercent: p.SeasonalVariance,
	}
}

// scanProperty scans a listing from a database row.
func scanProperty(row interface{ Scan(...any) error }) (*Property, error) {
	var p Property
	var strRate, walk, dist, seasonal sql.NullFloat64
	var nearby, leadScore sql.NullInt64
	var regulation, grade, scoreJSON sql.NullString
	var scoredAt sql.NullTime
	var status, marketJSON string

	err := row.Scan(
		&p.ID, &p.Address, &p.City, &p.State, &p.MonthlyRent, &p.Beds, &p.Baths, &p.Notes,
		&strRate, &walk, &dist, &nearby, &regulation, &seasonal,
		&status, &leadScore, &grade, &scoreJSON, &scoredAt,
		&marketJSON, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if strRate.Valid {
		p.STRRate = &strRate.Float64
	}
	if walk.Valid {
		p.Walkability = &walk.Float64
	}
	if dist.Valid {
		p.DistanceKm = &dist.Float64
	}
	if nearby.Valid {
		n := int(nearby.Int64)
		p.NearbySTRCount = &n
	}
	if regulation.Valid {
		r := deal.RegulationRisk(regulation.String)
		p.RegulationRisk = &r
	}
	if seasonal.Valid {
		p.SeasonalVariance = &seasonal.Float64
	}
	if leadScore.Valid {
		s := int(leadScore.Int64)
		p.LeadScore = &s
	}
	if grade.Valid {
		g := deal.Grade(grade.String)
		p.LeadGrade = &g
	}
	if scoreJSON.Valid && scoreJSON.String != "" {
		var s deal.LeadScore
		if err := json.Unmarshal([]byte(scoreJSON.String), &s); err == nil {
			p.Score = &s
		}
	}
	if scoredAt.Valid {
		p.ScoredAt = &scoredAt.Time
	}

	p.Status = Status(status)
	if p.Status == "" {
		p.Status = StatusUnverified
	}
	if marketJSON != "" && marketJSON != "{}" {
		p.MarketRaw = json.RawMessage(marketJSON)
	}

	return &p, nil
}
