package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
)

const tokenExpiry = 15 * time.Minute

var (
	// ErrInvalidToken is returned for an unknown login token.
	ErrInvalidToken = eris.New("invalid token")
	// ErrTokenUsed is returned when a token has already been redeemed.
	ErrTokenUsed = eris.New("token already used")
	// ErrTokenExpired is returned for a token older than its lifetime.
	ErrTokenExpired = eris.New("token expired")
)

// TokenStore manages magic link tokens in SQLite.
type TokenStore struct {
	db *sql.DB
}

// NewTokenStore creates a token store.
func NewTokenStore(db *sql.DB) *TokenStore {
	return &TokenStore{db: db}
}

// Create generates a new single-use login token for the given email.
// Returns the raw token string.
func (s *TokenStore) Create(ctx context.Context, email string) (string, error) {
	token, err := randomHex(32)
	if err != nil {
		return "", eris.Wrap(err, "generating token")
	}

	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO auth_tokens (token, email, expires_at) VALUES (?, ?, ?)",
		token, normalizeEmail(email), time.Now().Add(tokenExpiry),
	); err != nil {
		return "", eris.Wrap(err, "storing token")
	}

	return token, nil
}

// Validate checks a token and returns the associated email.
// The token is marked as used and cannot be reused.
func (s *TokenStore) Validate(ctx context.Context, token string) (string, error) {
	var email string
	var used int
	var expiresAt time.Time

	err := s.db.QueryRowContext(ctx,
		"SELECT email, used, expires_at FROM auth_tokens WHERE token = ?",
		token,
	).Scan(&email, &used, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrInvalidToken
	}
	if err != nil {
		return "", eris.Wrap(err, "querying token")
	}

	if used != 0 {
		return "", ErrTokenUsed
	}
	if time.Now().After(expiresAt) {
		return "", ErrTokenExpired
	}

	// Guarded on used = 0 so two concurrent redemptions cannot both succeed.
	result, err := s.db.ExecContext(ctx,
		"UPDATE auth_tokens SET used = 1 WHERE token = ? AND used = 0",
		token,
	)
	if err != nil {
		return "", eris.Wrap(err, "marking token used")
	}
	if err := requireAffected(result, ErrTokenUsed); err != nil {
		return "", err
	}

	return email, nil
}

// Cleanup removes expired tokens.
func (s *TokenStore) Cleanup(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM auth_tokens WHERE expires_at < ?", time.Now()); err != nil {
		return eris.Wrap(err, "cleaning up tokens")
	}
	return nil
}
