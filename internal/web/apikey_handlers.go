package web

import (
	"net/http"
	"strings"

	"github.com/evcraddock/rental-arb/internal/auth"
)

type apiKeyCreateResponse struct {
	Key    string       `json:"key"` // raw key, shown once
	APIKey *auth.APIKey `json:"api_key"`
}

// handleListKeys handles GET /api/keys (session only).
func (s *Server) handleListKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := s.apiKeys.List(r.Context(), callerEmail(r))
	if err != nil {
		apiFail(w, r, err)
		return
	}
	if keys == nil {
		keys = make([]auth.APIKey, 0)
	}
	apiJSON(w, keys, http.StatusOK)
}

// handleCreateKey handles POST /api/keys (session only).
func (s *Server) handleCreateKey(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if r.ContentLength != 0 && !decodeJSON(w, r, &body) {
		return
	}

	name := strings.TrimSpace(body.Name)
	if name == "" {
		name = "API Key"
	}

	rawKey, key, err := s.apiKeys.Create(r.Context(), name, callerEmail(r))
	if err != nil {
		apiFail(w, r, err)
		return
	}

	apiJSON(w, apiKeyCreateResponse{Key: rawKey, APIKey: key}, http.StatusCreated)
}

// handleDeleteKey handles DELETE /api/keys/{id} (session only).
func (s *Server) handleDeleteKey(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "key")
	if !ok {
		return
	}

	if err := s.apiKeys.Delete(r.Context(), id, callerEmail(r)); err != nil {
		apiFail(w, r, err)
		return
	}

	apiJSON(w, map[string]any{"id": id, "removed": true}, http.StatusOK)
}
