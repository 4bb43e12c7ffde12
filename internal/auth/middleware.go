package auth

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

type contextKey struct{}

// WithEmail returns a context carrying the authenticated email.
func WithEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, contextKey{}, email)
}

// EmailFrom returns the authenticated email stored by RequireAPIKey.
func EmailFrom(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(contextKey{}).(string)
	return email, ok && email != ""
}

// RequireAPIKey authenticates API requests with a Bearer key or a session
// cookie and stores the caller's email in the request context.
// API key management paths (/api/keys) accept only a session so a leaked
// key cannot mint more keys.
// Returns 401 for missing or invalid credentials, 429 once a client has
// failed too often.
func RequireAPIKey(apiKeys *APIKeyStore, sessions *SessionStore, limiter *FailureLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)

			if isAPIKeyManagementPath(r.URL.Path) {
				email, err := sessions.Validate(r)
				if err != nil {
					writeError(w, http.StatusUnauthorized, "session required")
					return
				}
				next.ServeHTTP(w, r.WithContext(WithEmail(r.Context(), email)))
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				email, err := sessions.Validate(r)
				if err != nil {
					writeError(w, http.StatusUnauthorized, "authorization required")
					return
				}
				next.ServeHTTP(w, r.WithContext(WithEmail(r.Context(), email)))
				return
			}

			if limiter.Blocked(ip) {
				writeError(w, http.StatusTooManyRequests, "too many failed attempts")
				return
			}

			key, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				limiter.RecordFailure(ip)
				writeError(w, http.StatusUnauthorized, "authorization required")
				return
			}

			email, err := apiKeys.Validate(r.Context(), strings.TrimSpace(key))
			if eris.Is(err, ErrInvalidAPIKey) {
				limiter.RecordFailure(ip)
				zap.L().Warn("invalid API key", zap.String("ip", ip))
				writeError(w, http.StatusUnauthorized, "invalid API key")
				return
			}
			if err != nil {
				zap.L().Error("validating API key", zap.Error(err))
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithEmail(r.Context(), email)))
		})
	}
}

// RequireTier rejects callers whose tier is below min with 403. It must run
// after RequireAPIKey.
func RequireTier(users *UserStore, min Tier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email, ok := EmailFrom(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "authorization required")
				return
			}

			tier, err := users.TierFor(r.Context(), email)
			if err != nil && !eris.Is(err, ErrUserNotFound) {
				zap.L().Error("resolving tier", zap.String("email", email), zap.Error(err))
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			if err != nil || !tier.AtLeast(min) {
				writeError(w, http.StatusForbidden, string(min)+" tier required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isAPIKeyManagementPath(path string) bool {
	return path == "/api/keys" || strings.HasPrefix(path, "/api/keys/")
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": msg}); err != nil {
		zap.L().Warn("encoding error response", zap.Error(err))
	}
}
