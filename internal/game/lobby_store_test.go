// internal/game/lobby_store_test.go
package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moe-a1/MindDigits/internal/models"
)

func TestLobbyStoreAddGetDelete(t *testing.T) {
	s := NewLobbyStore()
	l := &models.Lobby{LobbyID: "ABCD1234"}

	s.Add(l)
	got, ok := s.Get("ABCD1234")
	require.True(t, ok)
	assert.Same(t, l, got)

	s.Delete("ABCD1234")
	_, ok = s.Get("ABCD1234")
	assert.False(t, ok)
}

func TestLobbyStoreAddIfAbsentKeepsExisting(t *testing.T) {
	s := NewLobbyStore()
	first := &models.Lobby{LobbyID: "ABCD1234"}
	second := &models.Lobby{LobbyID: "ABCD1234"}

	assert.Same(t, first, s.AddIfAbsent(first))
	// A concurrent rehydration must not displace the registered instance.
	assert.Same(t, first, s.AddIfAbsent(second))

	other := &models.Lobby{LobbyID: "WXYZ5678"}
	assert.Same(t, other, s.AddIfAbsent(other))
}

func TestLobbyStoreLobbiesReturnsCopy(t *testing.T) {
	s := NewLobbyStore()
	s.Add(&models.Lobby{LobbyID: "ABCD1234"})

	cp := s.Lobbies()
	delete(cp, "ABCD1234")

	_, ok := s.Get("ABCD1234")
	assert.True(t, ok)
}
