package auth

import (
	"context"
	"crypto/sha256"
	"testing"

	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasskeyUser(t *testing.T) {
	u := NewPasskeyUser("a@example.com", nil)
	want := sha256.Sum256([]byte("a@example.com"))

	assert.Equal(t, want[:], u.WebAuthnID())
	assert.Equal(t, "a@example.com", u.WebAuthnName())
	assert.Equal(t, "a@example.com", u.WebAuthnDisplayName())
	assert.Empty(t, u.WebAuthnCredentials())
}

func TestPasskeyStore(t *testing.T) {
	store := NewPasskeyStore(testDB(t))
	ctx := context.Background()

	cred := &webauthn.Credential{ID: []byte{0x01, 0xab}, PublicKey: []byte("pk")}
	require.NoError(t, store.Save(ctx, "A@example.com", "Laptop", cred))

	stored, err := store.ListByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "01ab", stored[0].ID)
	assert.Equal(t, "Laptop", stored[0].Name)
	assert.Equal(t, []byte("pk"), stored[0].Credential.PublicKey)

	creds, err := store.WebAuthnCredentials(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Len(t, creds, 1)

	err = store.Delete(ctx, "01ab", "b@example.com")
	assert.True(t, eris.Is(err, ErrCredentialNotFound))
	require.NoError(t, store.Delete(ctx, "01ab", "a@example.com"))

	creds, err = store.WebAuthnCredentials(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Empty(t, creds)
}

func TestNewWebAuthn(t *testing.T) {
	wan, err := NewWebAuthn(Config{BaseURL: "http://localhost:8080"})
	require.NoError(t, err)
	assert.Equal(t, "localhost", wan.Config.RPID)

	_, err = NewWebAuthn(Config{BaseURL: "not a url"})
	assert.Error(t, err)
}
