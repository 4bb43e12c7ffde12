package web

import (
	"net/http"

	"github.com/evcraddock/rental-arb/internal/verification"
)

// handleListingVerifications handles GET /api/listings/{id}/verifications.
func (s *Server) handleListingVerifications(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "listing")
	if !ok {
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

	apiJSON(w, reqs, http.StatusOK)
}

// handleSubmitVerification handles POST /api/listings/{id}/verifications.
func (s *Server) handleSubmitVerification(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "listing")
	if !ok {
		return
	}

	var req struct {
		Notes string `json:"notes"`
	}
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	vr, err := s.verifications.Submit(r.Context(), id, callerEmail(r), req.Notes)
	if err != nil {
		apiFail(w, r, err)
		return
	}

	apiJSON(w, vr, http.StatusCreated)
}

// handlePendingVerifications handles GET /api/verifications (admin).
func (s *Server) handlePendingVerifications(w http.ResponseWriter, r *http.Request) {
	pending, err := s.verifications.ListPending(r.Context())
	if err != nil {
		apiFail(w, r, err)
		return
	}
	if pending == nil {
		pending = make([]*verification.PendingRequest, 0)
	}

	apiJSON(w, pending, http.StatusOK)
}

// handleResolveVerification handles POST /api/verifications/{id}/resolve (admin).
func (s *Server) handleResolveVerification(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "verification")
	if !ok {
		return
	}

	var req struct {
		Decision verification.Decision `json:"decision"`
		Note     string                `json:"note"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if !req.Decision.IsValid() {
		apiError(w, "decision must be approve or reject", http.StatusBadRequest)
		return
	}

	vr, err := s.verifications.Resolve(r.Context(), id, req.Decision, callerEmail(r), req.Note)
	if err != nil {
		apiFail(w, r, err)
		return
	}

	apiJSON(w, vr, http.StatusOK)
}
