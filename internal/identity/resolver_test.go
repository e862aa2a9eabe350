package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_ValidCredential(t *testing.T) {
	r := NewResolver("test-secret")

	token, err := r.MintToken("user-42")
	require.NoError(t, err)

	owner, minted := r.Resolve(token, "")
	assert.Equal(t, "user-42", owner)
	assert.Empty(t, minted)
}

func TestResolve_InvalidCredentialFallsBackToGuest(t *testing.T) {
	r := NewResolver("test-secret")

	owner, minted := r.Resolve("not-a-jwt", "")
	assert.True(t, IsGuestID(owner))
	assert.Equal(t, owner, minted)
}

func TestResolve_WrongSecretFallsBackToGuest(t *testing.T) {
	other := NewResolver("other-secret")
	token, err := other.MintToken("user-42")
	require.NoError(t, err)

	r := NewResolver("test-secret")
	owner, _ := r.Resolve(token, "")
	assert.NotEqual(t, "user-42", owner)
	assert.True(t, IsGuestID(owner))
}

func TestResolve_GuestIDIsStableAcrossRequests(t *testing.T) {
	r := NewResolver("test-secret")

	// First unauthenticated request mints an id...
	owner, minted := r.Resolve("", "")
	require.NotEmpty(t, minted)

	// ...every following request with that token reuses it, no re-mint.
	again, mintedAgain := r.Resolve("", owner)
	assert.Equal(t, owner, again)
	assert.Empty(t, mintedAgain)
}

func TestResolve_GarbageGuestTokenMintsFresh(t *testing.T) {
	r := NewResolver("test-secret")

	owner, minted := r.Resolve("", "guest-not-a-uuid")
	assert.NotEqual(t, "guest-not-a-uuid", owner)
	assert.Equal(t, owner, minted)
}

func TestResolve_CredentialWinsOverGuestToken(t *testing.T) {
	r := NewResolver("test-secret")
	token, err := r.MintToken("user-42")
	require.NoError(t, err)

	guest, _ := r.Resolve("", "")
	owner, minted := r.Resolve(token, guest)
	assert.Equal(t, "user-42", owner)
	assert.Empty(t, minted)
}

func TestIsGuestID(t *testing.T) {
	r := NewResolver("s")
	id, _ := r.Resolve("", "")

	assert.True(t, IsGuestID(id))
	assert.False(t, IsGuestID("user-42"))
	assert.False(t, IsGuestID("guest-"))
	assert.False(t, IsGuestID(""))
}
