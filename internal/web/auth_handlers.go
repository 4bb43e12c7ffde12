package web

import (
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// loginSentMessage is returned whether or not the email is registered so
// the endpoint cannot be used to enumerate users.
const loginSentMessage = "If that email is registered, a login email has been sent. Check your inbox."

// handleLogin handles POST /auth/login. With "cli": true the email carries
// a code for /auth/cli/exchange instead of a browser link.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		CLI   bool   `json:"cli"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	addr := strings.ToLower(strings.TrimSpace(req.Email))
	if addr == "" {
		apiError(w, "email is required", http.StatusBadRequest)
		return
	}

	if s.users.IsAuthorized(r.Context(), addr) {
		s.sendLogin(r, addr, req.CLI)
	} else {
		zap.L().Info("login requested for unknown email", zap.String("email", addr))
	}

	apiJSON(w, map[string]string{"message": loginSentMessage}, http.StatusAccepted)
}

func (s *Server) sendLogin(r *http.Request, addr string, cli bool) {
	token, err := s.tokens.Create(r.Context(), addr)
	if err != nil {
		zap.L().Error("creating login token", zap.Error(err))
		return
	}

	if cli {
		err = s.mailer.SendCLIToken(addr, token)
	} else {
		_, err = s.mailer.SendMagicLink(addr, token)
	}
	if err != nil {
		zap.L().Error("sending login email", zap.String("email", addr), zap.Error(err))
	}
}

// handleVerify handles GET /auth/verify?token=... from a magic link.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		apiError(w, "invalid login link", http.StatusBadRequest)
		return
	}

	addr, err := s.tokens.Validate(r.Context(), token)
	if err != nil {
		apiError(w, "invalid or expired login link, please request a new one", http.StatusUnauthorized)
		return
	}

	if err := s.sessions.Create(r.Context(), w, addr); err != nil {
		apiFail(w, r, err)
		return
	}

	zap.L().Info("login success", zap.String("email", addr), zap.String("method", "magic_link"))
	apiJSON(w, map[string]string{"status": "ok", "email": addr}, http.StatusOK)
}

// handleLogout handles POST /auth/logout.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Destroy(w, r); err != nil {
		zap.L().Warn("destroying session", zap.Error(err))
	}
	apiJSON(w, map[string]string{"status": "logged out"}, http.StatusOK)
}

// handleCLIExchange handles POST /auth/cli/exchange. It trades a one-time
// login code for a new API key. Bad codes count against the caller's
// failure budget.
func (s *Server) handleCLIExchange(w http.ResponseWriter, r *http.Request) {
	ip := remoteIP(r)
	if s.limiter.Blocked(ip) {
		apiError(w, "too many failed attempts", http.StatusTooManyRequests)
		return
	}

	var req struct {
		Token string `json:"token"`
		Name  string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	addr, err := s.tokens.Validate(r.Context(), strings.TrimSpace(req.Token))
	if err != nil {
		s.limiter.RecordFailure(ip)
		apiError(w, "invalid or expired login code", http.StatusUnauthorized)
		return
	}
	if !s.users.IsAuthorized(r.Context(), addr) {
		apiError(w, "user is no longer authorized", http.StatusForbidden)
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "CLI"
	}

	rawKey, key, err := s.apiKeys.Create(r.Context(), name, addr)
	if err != nil {
		apiFail(w, r, err)
		return
	}

	zap.L().Info("login success", zap.String("email", addr), zap.String("method", "cli"))
	apiJSON(w, apiKeyCreateResponse{Key: rawKey, APIKey: key}, http.StatusCreated)
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
