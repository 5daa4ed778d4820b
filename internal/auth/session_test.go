// internal/auth/session_test.go
package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	Init()

	token, err := CreateSessionToken("ABCD1234", "alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	lobbyID, username, err := AuthenticateSession(token)
	require.NoError(t, err)
	assert.Equal(t, "ABCD1234", lobbyID)
	assert.Equal(t, "alice", username)
}

func TestAuthenticateSessionRejectsGarbage(t *testing.T) {
	Init()

	_, _, err := AuthenticateSession("not-a-token")
	assert.Error(t, err)
}

func TestAuthenticateSessionRejectsForeignKey(t *testing.T) {
	Init()
	token, err := CreateSessionToken("ABCD1234", "alice")
	require.NoError(t, err)

	// A restart rotates the key pair; old tokens stop verifying.
	Init()
	_, _, err = AuthenticateSession(token)
	assert.Error(t, err)
}
