package web

import (
	"net/http"
	"strings"

	"github.com/evcraddock/rental-arb/internal/auth"
)

type meResponse struct {
	Email string    `json:"email"`
	Tier  auth.Tier `json:"tier"`
}

// handleMe handles GET /api/me.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	who := callerEmail(r)
	tier, err := s.users.TierFor(r.Context(), who)
	if err != nil {
		// keys outlive users; report the lowest tier rather than fail
		tier = auth.TierFree
	}
	apiJSON(w, meResponse{Email: who, Tier: tier}, http.StatusOK)
}

// handleListUsers handles GET /api/users (admin).
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.List(r.Context())
	if err != nil {
		apiFail(w, r, err)
		return
	}
	if users == nil {
		users = make([]*auth.User, 0)
	}
	apiJSON(w, users, http.StatusOK)
}

// handleAddUser handles POST /api/users (admin).
func (s *Server) handleAddUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Name  string `json:"name"`
		Tier  string `json:"tier"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.Email) == "" {
		apiError(w, "email is required", http.StatusBadRequest)
		return
	}

	tier := auth.TierFree
	if req.Tier != "" {
		t, err := auth.ParseTier(req.Tier)
		if err != nil {
			apiFail(w, r, err)
			return
		}
		tier = t
	}

	u, err := s.users.Add(r.Context(), req.Email, req.Name, tier)
	if err != nil {
		apiFail(w, r, err)
		return
	}

	apiJSON(w, u, http.StatusCreated)
}

// handleSetTier handles PUT /api/users/{id}/tier (admin).
func (s *Server) handleSetTier(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "user")
	if !ok {
		return
	}

	var req struct {
		Tier string `json:"tier"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	tier, err := auth.ParseTier(req.Tier)
	if err != nil {
		apiFail(w, r, err)
		return
	}

	u, err := s.users.SetTier(r.Context(), id, tier)
	if err != nil {
		apiFail(w, r, err)
		return
	}

	apiJSON(w, u, http.StatusOK)
}

// handleDeleteUser handles DELETE /api/users/{id} (admin).
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "user")
	if !ok {
		return
	}

	if err := s.users.Delete(r.Context(), id); err != nil {
		apiFail(w, r, err)
		return
	}

	apiJSON(w, map[string]any{"id": id, "removed": true}, http.StatusOK)
}
