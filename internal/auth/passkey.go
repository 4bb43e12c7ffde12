package auth

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrCredentialNotFound is returned when deleting an unknown passkey.
var ErrCredentialNotFound = eris.New("credential not found")

// NewWebAuthn configures the relying party from the public base URL.
func NewWebAuthn(cfg Config) (*webauthn.WebAuthn, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, eris.Wrapf(err, "parsing base URL %q", cfg.BaseURL)
	}
	if parsed.Hostname() == "" {
		return nil, eris.Errorf("base URL %q has no host", cfg.BaseURL)
	}

	wan, err := webauthn.New(&webauthn.Config{
		RPDisplayName: "Rental Arb",
		RPID:          parsed.Hostname(),
		RPOrigins:     []string{cfg.BaseURL},
	})
	if err != nil {
		return nil, eris.Wrap(err, "configuring webauthn")
	}
	return wan, nil
}

// PasskeyUser implements webauthn.User for one email.
type PasskeyUser struct {
	email       string
	credentials []webauthn.Credential
}

// NewPasskeyUser creates a PasskeyUser for the given email.
func NewPasskeyUser(email string, credentials []webauthn.Credential) *PasskeyUser {
	return &PasskeyUser{email: email, credentials: credentials}
}

// WebAuthnID returns a stable user ID derived from the email.
func (u *PasskeyUser) WebAuthnID() []byte {
	h := sha256.Sum256([]byte(u.email))
	return h[:]
}

// WebAuthnName returns the email.
func (u *PasskeyUser) WebAuthnName() string { return u.email }

// WebAuthnDisplayName returns the email.
func (u *PasskeyUser) WebAuthnDisplayName() string { return u.email }

// WebAuthnCredentials returns the stored credentials.
func (u *PasskeyUser) WebAuthnCredentials() []webauthn.Credential { return u.credentials }

// PasskeyStore manages passkey credentials in SQLite.
type PasskeyStore struct {
	db *sql.DB
}

// NewPasskeyStore creates a passkey store.
func NewPasskeyStore(db *sql.DB) *PasskeyStore {
	return &PasskeyStore{db: db}
}

// StoredCredential is a passkey credential with metadata.
type StoredCredential struct {
	ID         string              `json:"id"`
	Email      string              `json:"email"`
	Name       string              `json:"name"`
	Credential webauthn.Credential `json:"-"`
}

// Save stores a new passkey credential.
func (s *PasskeyStore) Save(ctx context.Context, email, name string, cred *webauthn.Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return eris.Wrap(err, "marshaling credential")
	}

	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO passkey_credentials (id, email, name, credential_json) VALUES (?, ?, ?, ?)",
		fmt.Sprintf("%x", cred.ID), normalizeEmail(email), name, string(data),
	); err != nil {
		return eris.Wrap(err, "storing credential")
	}

	return nil
}

// ListByEmail returns all credentials for the given email.
func (s *PasskeyStore) ListByEmail(ctx context.Context, email string) ([]StoredCredential, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, email, name, credential_json FROM passkey_credentials WHERE email = ?",
		normalizeEmail(email),
	)
	if err != nil {
		return nil, eris.Wrap(err, "querying credentials")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			zap.L().Warn("closing rows", zap.Error(closeErr))
		}
	}()

	var result []StoredCredential
	for rows.Next() {
		var sc StoredCredential
		var data string
		if err := rows.Scan(&sc.ID, &sc.Email, &sc.Name, &data); err != nil {
			return nil, eris.Wrap(err, "scanning credential")
		}
		if err := json.Unmarshal([]byte(data), &sc.Credential); err != nil {
			return nil, eris.Wrap(err, "unmarshaling credential")
		}
		result = append(result, sc)
	}

	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "iterating credentials")
	}
	return result, nil
}

// WebAuthnCredentials returns just the webauthn.Credential slice for the given email.
func (s *PasskeyStore) WebAuthnCredentials(ctx context.Context, email string) ([]webauthn.Credential, error) {
	stored, err := s.ListByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	creds := make([]webauthn.Credential, len(stored))
	for i, sc := range stored {
		creds[i] = sc.Credential
	}

	return creds, nil
}

// Delete removes a credential by ID.
func (s *PasskeyStore) Delete(ctx context.Context, id, email string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM passkey_credentials WHERE id = ? AND email = ?",
		id, normalizeEmail(email),
	)
	if err != nil {
		return eris.Wrap(err, "deleting credential")
	}
	return requireAffected(result, ErrCredentialNotFound)
}
