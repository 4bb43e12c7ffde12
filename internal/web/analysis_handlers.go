package web

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/evcraddock/rental-arb/internal/analysis"
)

// handleListAnalyses handles GET /api/analyses[?listing_id=N].
func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	var listingID *int64
	if idStr := r.URL.Query().Get("listing_id"); idStr != "" {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			apiError(w, "invalid listing_id", http.StatusBadRequest)
			return
		}
		listingID = &id
	}

	list, err := s.analyses.List(r.Context(), callerEmail(r), listingID)
	if err != nil {
		apiFail(w, r, err)
		return
	}
	if list == nil {
		list = make([]*analysis.Analysis, 0)
	}

	apiJSON(w, list, http.StatusOK)
}

// handleSaveAnalysis handles POST /api/analyses (pro). A failed save
// returns 503 so the client keeps the result it already shows.
func (s *Server) handleSaveAnalysis(w http.ResponseWriter, r *http.Request) {
	var req analysis.SaveRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.ListingID != nil {
		if _, err := s.properties.Repo().GetByID(r.Context(), *req.ListingID); err != nil {
			apiFail(w, r, err)
			return
		}
	}

	a, err := s.analyses.Save(r.Context(), callerEmail(r), req)
	if err != nil {
		apiFail(w, r, err)
		return
	}

	apiJSON(w, a, http.StatusCreated)
}

// handleGetAnalysis handles GET /api/analyses/{id}.
func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	a, err := s.analyses.Get(r.Context(), chi.URLParam(r, "id"), callerEmail(r))
	if err != nil {
		apiFail(w, r, err)
		return
	}
	apiJSON(w, a, http.StatusOK)
}

// handleDeleteAnalysis handles DELETE /api/analyses/{id}.
func (s *Server) handleDeleteAnalysis(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.analyses.Delete(r.Context(), id, callerEmail(r)); err != nil {
		apiFail(w, r, err)
		return
	}
	apiJSON(w, map[string]any{"id": id, "removed": true}, http.StatusOK)
}
