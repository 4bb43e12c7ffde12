package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/evcraddock/rental-arb/internal/deal"
	"github.com/evcraddock/rental-arb/internal/property"
	"github.com/evcraddock/rental-arb/internal/verification"
)

// handleListListings handles GET /api/listings.
func (s *Server) handleListListings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := property.ListOptions{City: q.Get("city")}

	if minStr := q.Get("min_score"); minStr != "" {
		min, err := strconv.Atoi(minStr)
		if err != nil || min < 0 || min > 100 {
			apiError(w, "min_score must be 0-100", http.StatusBadRequest)
			return
		}
		opts.MinScore = &min
	}
	if grade := q.Get("grade"); grade != "" {
		if !deal.ValidGrade(grade) {
			apiError(w, "grade must be one of A+, A, B, C, D", http.StatusBadRequest)
			return
		}
		opts.Grade = deal.Grade(grade)
	}
	if status := q.Get("status"); status != "" {
		if !property.ValidStatus(status) {
			apiError(w, "status must be unverified, pending, verified or rejected", http.StatusBadRequest)
			return
		}
		opts.Status = property.Status(status)
	}
	if limitStr := q.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			apiError(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		opts.Limit = limit
	}

	listings, err := s.properties.Repo().List(r.Context(), opts)
	if err != nil {
		apiFail(w, r, err)
		return
	}
	if listings == nil {
		listings = make([]*property.Property, 0)
	}

	apiJSON(w, listings, http.StatusOK)
}

// handleAddListing handles POST /api/listings.
func (s *Server) handleAddListing(w http.ResponseWriter, r *http.Request) {
	var req property.NewProperty
	if !decodeJSON(w, r, &req) {
		return
	}
	req.CreatedBy = callerEmail(r)

	p, err := s.properties.Add(r.Context(), req)
	if err != nil {
		apiFail(w, r, err)
		return
	}

	apiJSON(w, p, http.StatusCreated)
}

type listingDetail struct {
	*property.Property
	Verifications []*verification.Request `json:"verifications"`
}

// handleGetListing handles GET /api/listings/{id}.
func (s *Server) handleGetListing(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "listing")
	if !ok {
		return
	}

	p, err := s.properties.Repo().GetByID(r.Context(), id)
	if err != nil {
		apiFail(w, r, err)
		return
	}

	reqs, err := s.verifications.ListByListingID(r.Context(), id)
	if err != nil {
		apiFail(w, r, err)
		return
	}
	if reqs == nil {
		reqs = make([]*verification.Request, 0)
	}

	apiJSON(w, listingDetail{Property: p, Verifications: reqs}, http.StatusOK)
}

// handleDeleteListing handles DELETE /api/listings/{id}.
func (s *Server) handleDeleteListing(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "listing")
	if !ok {
		return
	}

	if err := s.properties.Repo().Delete(r.Context(), id); err != nil {
		apiFail(w, r, err)
		return
	}

	apiJSON(w, map[string]any{"id": id, "removed": true}, http.StatusOK)
}

// handleUpdateNotes handles PUT /api/listings/{id}/notes.
func (s *Server) handleUpdateNotes(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "listing")
	if !ok {
		return
	}

	var req struct {
		Notes string `json:"notes"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.properties.Repo().UpdateNotes(r.Context(), id, strings.TrimSpace(req.Notes)); err != nil {
		apiFail(w, r, err)
		return
	}

	apiJSON(w, map[string]any{"id": id, "notes": strings.TrimSpace(req.Notes)}, http.StatusOK)
}

// handleRescoreListing handles POST /api/listings/{id}/score.
func (s *Server) handleRescoreListing(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "listing")
	if !ok {
		return
	}

	p, err := s.properties.Rescore(r.Context(), id)
	if err != nil {
		apiFail(w, r, err)
		return
	}

	apiJSON(w, p, http.StatusOK)
}

// handleRefreshListing handles POST /api/listings/{id}/refresh.
func (s *Server) handleRefreshListing(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "listing")
	if !ok {
		return
	}

	p, err := s.properties.RefreshMarket(r.Context(), id)
	if err != nil {
		apiFail(w, r, err)
		return
	}

	apiJSON(w, p, http.StatusOK)
}

// handleRescoreAll handles POST /api/listings/rescore (admin).
func (s *Server) handleRescoreAll(w http.ResponseWriter, r *http.Request) {
	summary, err := s.properties.RescoreAll(r.Context())
	if err != nil {
		apiFail(w, r, err)
		return
	}

	apiJSON(w, summary, http.StatusOK)
}
