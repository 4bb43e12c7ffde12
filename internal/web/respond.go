package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/evcraddock/rental-arb/internal/analysis"
	"github.com/evcraddock/rental-arb/internal/auth"
	"github.com/evcraddock/rental-arb/internal/deal"
	"github.com/evcraddock/rental-arb/internal/email"
	"github.com/evcraddock/rental-arb/internal/property"
	"github.com/evcraddock/rental-arb/internal/verification"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// apiError writes a JSON error response.
func apiError(w http.ResponseWriter, msg string, code int) {
	apiJSON(w, map[string]string{"error": msg}, code)
}

// apiJSON writes a JSON response with the given status code.
func apiJSON(w http.ResponseWriter, data any, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("encoding response", zap.Error(err))
	}
}

// apiFail maps a domain error to a status code and writes it. Unexpected
// errors are logged and reported without detail.
func apiFail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("error", eris.ToString(err, true)),
		)
		apiError(w, "internal error", code)
		return
	}
	if errors.Is(err, analysis.ErrSaveFailed) {
		zap.L().Warn("analysis save failed", zap.Error(err))
		apiError(w, analysis.ErrSaveFailed.Error(), code)
		return
	}
	apiError(w, err.Error(), code)
}

func statusFor(err error) int {
	switch {
	case eris.Is(err, deal.ErrInvalidInput), eris.Is(err, auth.ErrInvalidTier):
		return http.StatusBadRequest
	case eris.Is(err, property.ErrNotFound),
		eris.Is(err, verification.ErrNotFound),
		eris.Is(err, verification.ErrListingNotFound),
		eris.Is(err, analysis.ErrNotFound),
		eris.Is(err, auth.ErrUserNotFound),
		eris.Is(err, auth.ErrAPIKeyNotFound):
		return http.StatusNotFound
	case eris.Is(err, property.ErrDuplicate),
		eris.Is(err, verification.ErrAlreadyPending),
		eris.Is(err, verification.ErrAlreadyResolved),
		eris.Is(err, auth.ErrUserExists):
		return http.StatusConflict
	case errors.Is(err, analysis.ErrSaveFailed),
		eris.Is(err, property.ErrNoMarketData),
		eris.Is(err, email.ErrNotConfigured):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// decodeJSON reads a JSON body into v, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

// idParam parses the {id} URL parameter, writing a 400 on failure.
func idParam(w http.ResponseWriter, r *http.Request, what string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		apiError(w, "invalid "+what+" ID", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// callerEmail returns the authenticated email set by auth.RequireAPIKey.
func callerEmail(r *http.Request) string {
	who, _ := auth.EmailFrom(r.Context())
	return who
}
