// internal/handlers/lobby.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/moe-a1/MindDigits/internal/auth"
	"github.com/moe-a1/MindDigits/internal/game"
)

// CreateLobbyHandler creates a lobby over plain HTTP, for clients that set up
// the room before opening the websocket. Responds 201 with the lobby document.
func CreateLobbyHandler(s *Server) http.HandlerFunc {
	type createRequest struct {
		Name        string `json:"name"`
		Username    string `json:"username"`
		DigitLength int    `json:"digitLength"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req createRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad lobby request payload", http.StatusBadRequest)
			return
		}

		l, err := s.Engine.CreateLobby(r.Context(), req.Name, req.Username, req.DigitLength)
		if err != nil {
			var verr *game.ValidationError
			if errors.As(err, &verr) {
				http.Error(w, verr.Error(), http.StatusBadRequest)
				return
			}
			s.Log.Warnf("create lobby: %v", err)
			http.Error(w, "failed to create lobby", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(l)
	}
}

// LobbyStateHandler returns the current lobby state for the holder of a
// session token. Clients use it to catch up after a drop before reconnecting
// over the websocket.
func LobbyStateHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie := r.Header.Get("Cookie")
		if !strings.Contains(cookie, "session_token=") {
			http.Error(w, "missing session_token", http.StatusUnauthorized)
			return
		}
		token := extractCookieToken(cookie, "session_token")

		lobbyID, username, err := auth.AuthenticateSession(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusForbidden)
			return
		}

		l, err := s.Engine.GetLobby(r.Context(), lobbyID)
		if err != nil {
			if err == game.ErrLobbyNotFound {
				http.Error(w, "lobby not found", http.StatusNotFound)
				return
			}
			s.Log.Warnf("lobby state for %s: %v", lobbyID, err)
			http.Error(w, "failed to load lobby", http.StatusInternalServerError)
			return
		}
		if l.FindPlayer(username) == nil {
			http.Error(w, "not a member of this lobby", http.StatusForbidden)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(l)
	}
}

// ListLobbiesHandler returns the in-memory lobby registry, for debugging.
func ListLobbiesHandler(s *Server, store *game.LobbyStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lobbies := store.Lobbies()
		snaps := make([]interface{}, 0, len(lobbies))
		for _, l := range lobbies {
			l.Mu.Lock()
			snaps = append(snaps, l.Snapshot())
			l.Mu.Unlock()
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(snaps)
	}
}
