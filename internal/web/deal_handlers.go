package web

import (
	"net/http"

	"github.com/evcraddock/rental-arb/internal/analysis"
	"github.com/evcraddock/rental-arb/internal/deal"
)

type rateRequest struct {
	Beds  int    `json:"beds"`
	Baths int    `json:"baths"`
	City  string `json:"city"`
}

type rateResponse struct {
	NightlyRate float64 `json:"nightly_rate"`
	PremiumCity bool    `json:"premium_city"`
	Beds        int     `json:"beds"`
	Baths       int     `json:"baths"`
	City        string  `json:"city"`
}

// handleEstimateRate handles POST /api/estimate/rate.
func (s *Server) handleEstimateRate(w http.ResponseWriter, r *http.Request) {
	var req rateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := deal.ValidateCounts(req.Beds, req.Baths); err != nil {
		apiFail(w, r, err)
		return
	}

	rate := deal.EstimateNightlyRate(req.Beds, req.Baths, req.City)
	apiJSON(w, rateResponse{
		NightlyRate: rate,
		PremiumCity: deal.IsPremiumCity(req.City),
		Beds:        req.Beds,
		Baths:       req.Baths,
		City:        req.City,
	}, http.StatusOK)
}

// handleScore handles POST /api/score. It scores ad-hoc facts without
// storing anything.
func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var facts deal.PropertyFacts
	if !decodeJSON(w, r, &facts) {
		return
	}
	if err := facts.Validate(); err != nil {
		apiFail(w, r, err)
		return
	}

	apiJSON(w, deal.Score(facts), http.StatusOK)
}

type roiResponse struct {
	Inputs  deal.RoiInputs  `json:"inputs"`
	Results deal.RoiResults `json:"results"`
}

// handleROI handles POST /api/roi. Omitted fields fall back to the
// calculator defaults.
func (s *Server) handleROI(w http.ResponseWriter, r *http.Request) {
	in := deal.DefaultRoiInputs()
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := in.Validate(); err != nil {
		apiFail(w, r, err)
		return
	}

	apiJSON(w, roiResponse{Inputs: in, Results: deal.Compute(in)}, http.StatusOK)
}

// handleQuickEstimate handles POST /api/estimate/quick. It accepts the same
// body as a saved analysis and returns the live figures.
func (s *Server) handleQuickEstimate(w http.ResponseWriter, r *http.Request) {
	var req analysis.SaveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := deal.ValidateStruct(req); err != nil {
		apiFail(w, r, err)
		return
	}

	apiJSON(w, deal.QuickEstimate(req.QuickInputs()), http.StatusOK)
}
