package web

import (
	"bytes"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"go.uber.org/zap"

	"github.com/evcraddock/rental-arb/internal/auth"
)

// ceremonyTTL bounds how long an unfinished WebAuthn ceremony is kept.
const ceremonyTTL = 5 * time.Minute

// passkeyHandlers holds WebAuthn-related HTTP handlers.
type passkeyHandlers struct {
	srv *Server
	wan *webauthn.WebAuthn

	// In-flight ceremonies. Registration is keyed by email, login by the
	// challenge so concurrent passkey logins do not clobber each other.
	mu          sync.Mutex
	regSessions map[string]ceremony
	logins      map[string]ceremony
}

type ceremony struct {
	session *webauthn.SessionData
	started time.Time
}

func (c ceremony) expired() bool {
	return time.Since(c.started) > ceremonyTTL
}

func newPasskeyHandlers(s *Server) (*passkeyHandlers, error) {
	wan, err := auth.NewWebAuthn(s.authCfg)
	if err != nil {
		return nil, err
	}

	return &passkeyHandlers{
		srv:         s,
		wan:         wan,
		regSessions: make(map[string]ceremony),
		logins:      make(map[string]ceremony),
	}, nil
}

// handleBeginRegistration starts passkey registration. Requires a session.
func (h *passkeyHandlers) handleBeginRegistration(w http.ResponseWriter, r *http.Request) {
	email, err := h.srv.sessions.Validate(r)
	if err != nil {
		apiError(w, "session required", http.StatusUnauthorized)
		return
	}

	creds, err := h.srv.passkeys.WebAuthnCredentials(r.Context(), email)
	if err != nil {
		apiFail(w, r, err)
		return
	}

	// Exclude existing credentials so the same key is not registered twice.
	exclude := make([]protocol.CredentialDescriptor, len(creds))
	for i, c := range creds {
		exclude[i] = c.Descriptor()
	}

	creation, session, err := h.wan.BeginRegistration(auth.NewPasskeyUser(email, creds),
		webauthn.WithExclusions(exclude),
	)
	if err != nil {
		apiFail(w, r, err)
		return
	}

	h.mu.Lock()
	h.regSessions[email] = ceremony{session: session, started: time.Now()}
	h.mu.Unlock()

	apiJSON(w, creation, http.StatusOK)
}

// handleFinishRegistration completes passkey registration.
func (h *passkeyHandlers) handleFinishRegistration(w http.ResponseWriter, r *http.Request) {
	email, err := h.srv.sessions.Validate(r)
	if err != nil {
		apiError(w, "session required", http.StatusUnauthorized)
		return
	}

	h.mu.Lock()
	c, ok := h.regSessions[email]
	delete(h.regSessions, email)
	h.mu.Unlock()

	if !ok || c.expired() {
		apiError(w, "no registration in progress", http.StatusBadRequest)
		return
	}

	creds, err := h.srv.passkeys.WebAuthnCredentials(r.Context(), email)
	if err != nil {
		apiFail(w, r, err)
		return
	}

	credential, err := h.wan.FinishRegistration(auth.NewPasskeyUser(email, creds), *c.session, r)
	if err != nil {
		zap.L().Warn("finishing passkey registration", zap.String("email", email), zap.Error(err))
		apiError(w, "registration failed", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		name = "Passkey"
	}

	if err := h.srv.passkeys.Save(r.Context(), email, name, credential); err != nil {
		apiFail(w, r, err)
		return
	}

	apiJSON(w, map[string]string{"status": "ok"}, http.StatusCreated)
}

// handleBeginLogin starts a discoverable passkey login.
func (h *passkeyHandlers) handleBeginLogin(w http.ResponseWriter, r *http.Request) {
	assertion, session, err := h.wan.BeginDiscoverableLogin()
	if err != nil {
		apiFail(w, r, err)
		return
	}

	h.mu.Lock()
	h.pruneLogins()
	h.logins[session.Challenge] = ceremony{session: session, started: time.Now()}
	h.mu.Unlock()

	apiJSON(w, assertion, http.StatusOK)
}

// handleFinishLogin completes passkey login and creates a session.
func (h *passkeyHandlers) handleFinishLogin(w http.ResponseWriter, r *http.Request) {
	parsed, err := protocol.ParseCredentialRequestResponse(r)
	if err != nil {
		apiError(w, "invalid assertion", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	challenge := parsed.Response.CollectedClientData.Challenge
	c, ok := h.logins[challenge]
	delete(h.logins, challenge)
	h.mu.Unlock()

	if !ok || c.expired() {
		apiError(w, "no login in progress", http.StatusBadRequest)
		return
	}

	var loggedIn string
	resolve := func(rawID, userHandle []byte) (webauthn.User, error) {
		emails, err := h.srv.users.AllEmails(r.Context())
		if err != nil {
			return nil, err
		}

		// userHandle is the WebAuthnID (sha256 of email)
		for _, email := range emails {
			if !bytes.Equal(auth.NewPasskeyUser(email, nil).WebAuthnID(), userHandle) {
				continue
			}
			creds, err := h.srv.passkeys.WebAuthnCredentials(r.Context(), email)
			if err != nil {
				return nil, err
			}
			loggedIn = email
			return auth.NewPasskeyUser(email, creds), nil
		}

		return nil, protocol.ErrBadRequest.WithDetails("unknown user")
	}

	if _, _, err := h.wan.ValidatePasskeyLogin(resolve, *c.session, parsed); err != nil {
		zap.L().Warn("finishing passkey login", zap.Error(err))
		apiError(w, "login failed", http.StatusUnauthorized)
		return
	}

	if err := h.srv.sessions.Create(r.Context(), w, loggedIn); err != nil {
		apiFail(w, r, err)
		return
	}

	zap.L().Info("login success", zap.String("email", loggedIn), zap.String("method", "passkey"))
	apiJSON(w, map[string]string{"status": "ok", "email": loggedIn}, http.StatusOK)
}

func (h *passkeyHandlers) pruneLogins() {
	for k, c := range h.logins {
		if c.expired() {
			delete(h.logins, k)
		}
	}
}
