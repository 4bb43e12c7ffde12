package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const (
	apiKeyBytes  = 32 // 256-bit keys
	apiKeyPrefix = "arb_"
)

var (
	// ErrInvalidAPIKey is returned when a key does not match any stored hash.
	ErrInvalidAPIKey = eris.New("invalid API key")
	// ErrAPIKeyNotFound is returned when deleting a key that does not exist.
	ErrAPIKeyNotFound = eris.New("API key not found")
)

// APIKey is the stored representation of an API key (no raw key).
type APIKey struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	KeyPrefix  string     `json:"key_prefix"` // first 8 chars for identification
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// APIKeyStore manages API keys in SQLite.
type APIKeyStore struct {
	db *sql.DB
}

// NewAPIKeyStore creates an API key store.
func NewAPIKeyStore(db *sql.DB) *APIKeyStore {
	return &APIKeyStore{db: db}
}

// Create generates a new API key owned by email.
// Returns the raw key (shown once to user) and the stored record.
func (s *APIKeyStore) Create(ctx context.Context, name, email string) (string, *APIKey, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil, eris.New("key name is required")
	}
	email = normalizeEmail(email)
	if email == "" {
		return "", nil, eris.New("key owner is required")
	}

	raw, err := generateAPIKey()
	if err != nil {
		return "", nil, eris.Wrap(err, "generating key")
	}

	prefix := raw[:8]
	result, err := s.db.ExecContext(ctx,
		"INSERT INTO api_keys (name, email, key_prefix, key_hash) VALUES (?, ?, ?, ?)",
		name, email, prefix, hashAPIKey(raw),
	)
	if err != nil {
		return "", nil, eris.Wrap(err, "storing key")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return "", nil, eris.Wrap(err, "getting key id")
	}

	return raw, &APIKey{
		ID:        id,
		Name:      name,
		Email:     email,
		KeyPrefix: prefix,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// List returns the keys owned by email (without the raw key).
func (s *APIKeyStore) List(ctx context.Context, email string) (_ []APIKey, err error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, key_prefix, created_at, last_used_at FROM api_keys
		WHERE email = ? ORDER BY created_at DESC, id DESC`,
		normalizeEmail(email),
	)
	if err != nil {
		return nil, eris.Wrap(err, "querying keys")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = eris.Wrap(closeErr, "closing rows")
		}
	}()

	var keys []APIKey
	for rows.Next() {
		var k APIKey
		if err := rows.Scan(&k.ID, &k.Name, &k.Email, &k.KeyPrefix, &k.CreatedAt, &k.LastUsedAt); err != nil {
			return nil, eris.Wrap(err, "scanning key")
		}
		keys = append(keys, k)
	}

	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "iterating keys")
	}
	return keys, nil
}

// Delete removes one of email's keys.
func (s *APIKeyStore) Delete(ctx context.Context, id int64, email string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM api_keys WHERE id = ? AND email = ?", id, normalizeEmail(email),
	)
	if err != nil {
		return eris.Wrap(err, "deleting key")
	}
	return requireAffected(result, eris.Wrapf(ErrAPIKeyNotFound, "id %d", id))
}

// Validate checks a raw API key against stored hashes and returns the
// owner's email. It updates last_used_at on success.
func (s *APIKeyStore) Validate(ctx context.Context, rawKey string) (string, error) {
	if !strings.HasPrefix(rawKey, apiKeyPrefix) {
		return "", ErrInvalidAPIKey
	}
	hash := hashAPIKey(rawKey)

	var email string
	err := s.db.QueryRowContext(ctx,
		"UPDATE api_keys SET last_used_at = ? WHERE key_hash = ? RETURNING email",
		time.Now().UTC(), hash,
	).Scan(&email)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrInvalidAPIKey
	}
	if err != nil {
		return "", eris.Wrap(err, "validating key")
	}

	return email, nil
}

func generateAPIKey() (string, error) {
	b := make([]byte, apiKeyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return apiKeyPrefix + hex.EncodeToString(b), nil
}

func hashAPIKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:])
}
