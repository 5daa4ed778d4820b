// internal/game/lobby_store.go
package game

import (
	"sync"

	"github.com/moe-a1/MindDigits/internal/models"
)

// LobbyStore is the in-memory lobby registry. Exactly one *models.Lobby
// instance is authoritative per id; all per-room serialization hangs off that
// instance's mutex. Lobbies evicted here may still exist in durable storage
// until their TTL reclaims them.
type LobbyStore struct {
	mu      sync.Mutex
	lobbies map[string]*models.Lobby
}

// NewLobbyStore returns an empty registry.
func NewLobbyStore() *LobbyStore {
	return &LobbyStore{
		lobbies: make(map[string]*models.Lobby),
	}
}

// Add stores the lobby, overwriting any prior instance with the same id.
func (s *LobbyStore) Add(lobby *models.Lobby) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lobbies[lobby.LobbyID] = lobby
}

// AddIfAbsent stores the lobby unless an instance with the same id is already
// registered, and returns the authoritative instance either way. Used when
// rehydrating from storage so two concurrent loads cannot fork a room.
func (s *LobbyStore) AddIfAbsent(lobby *models.Lobby) *models.Lobby {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.lobbies[lobby.LobbyID]; ok {
		return existing
	}
	s.lobbies[lobby.LobbyID] = lobby
	return lobby
}

// Get retrieves a lobby if it is registered.
func (s *LobbyStore) Get(id string) (*models.Lobby, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lobbies[id]
	return l, ok
}

// Delete removes the lobby from the registry.
func (s *LobbyStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lobbies, id)
}

// Lobbies returns a copy of the registry, for listing and debugging.
func (s *LobbyStore) Lobbies() map[string]*models.Lobby {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make(map[string]*models.Lobby, len(s.lobbies))
	for k, v := range s.lobbies {
		cp[k] = v
	}
	return cp
}
