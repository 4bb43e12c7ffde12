package auth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const (
	sessionExpiry = 30 * 24 * time.Hour // 30 days
	cookieName    = "arb_session"
)

var (
	// ErrNoSession is returned when the request carries no valid session.
	ErrNoSession = eris.New("no session")
	// ErrSessionExpired is returned for a session past its expiry.
	ErrSessionExpired = eris.New("session expired")
)

// SessionStore manages sessions in SQLite.
type SessionStore struct {
	db     *sql.DB
	secure bool
}

// NewSessionStore creates a session store. secure marks cookies HTTPS-only.
func NewSessionStore(db *sql.DB, secure bool) *SessionStore {
	return &SessionStore{db: db, secure: secure}
}

// Create generates a new session for the given email and sets the cookie.
func (s *SessionStore) Create(ctx context.Context, w http.ResponseWriter, email string) error {
	id, err := randomHex(32)
	if err != nil {
		return eris.Wrap(err, "generating session ID")
	}

	expiresAt := time.Now().Add(sessionExpiry)

	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO sessions (id, email, expires_at) VALUES (?, ?, ?)",
		id, normalizeEmail(email), expiresAt,
	); err != nil {
		return eris.Wrap(err, "storing session")
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    id,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})

	return nil
}

// Validate checks the session cookie and returns the email if valid.
func (s *SessionStore) Validate(r *http.Request) (string, error) {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return "", ErrNoSession
	}

	var email string
	var expiresAt time.Time

	ctx := r.Context()
	err = s.db.QueryRowContext(ctx,
		"SELECT email, expires_at FROM sessions WHERE id = ?",
		cookie.Value,
	).Scan(&email, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoSession
	}
	if err != nil {
		return "", eris.Wrap(err, "querying session")
	}

	if time.Now().After(expiresAt) {
		if _, delErr := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", cookie.Value); delErr != nil {
			return "", eris.Wrap(delErr, "deleting expired session")
		}
		return "", ErrSessionExpired
	}

	return email, nil
}

// Destroy removes the session and clears the cookie.
func (s *SessionStore) Destroy(w http.ResponseWriter, r *http.Request) error {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return nil // no session to destroy
	}

	if _, err := s.db.ExecContext(r.Context(), "DELETE FROM sessions WHERE id = ?", cookie.Value); err != nil {
		return eris.Wrap(err, "deleting session")
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})

	return nil
}

// Cleanup removes expired sessions.
func (s *SessionStore) Cleanup(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at < ?", time.Now()); err != nil {
		return eris.Wrap(err, "cleaning up sessions")
	}
	return nil
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
