// internal/handlers/hub.go
package handlers

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/moe-a1/MindDigits/internal/game"
)

// Conn is one live websocket session. Out is drained by the connection's
// write pump; writes never block the sender.
type Conn struct {
	LobbyID  string
	Username string
	Out      chan game.Event
	Cancel   context.CancelFunc
}

// Write enqueues an event for this connection, dropping it if the client is
// too slow to drain its buffer.
func (c *Conn) Write(ev game.Event) bool {
	select {
	case c.Out <- ev:
		return true
	default:
		return false
	}
}

// WriteError enqueues an error event for this connection.
func (c *Conn) WriteError(msg string) {
	c.Write(game.NewEvent(game.EventError, game.ErrorPayload{Message: msg}))
}

// Hub tracks live connections per lobby and fans events out to them. It
// implements game.Broadcaster. One connection per (lobby, username); a second
// connection for the same identity displaces the first.
type Hub struct {
	mu    sync.RWMutex
	log   *logrus.Logger
	conns map[string]map[string]*Conn
}

func NewHub(logger *logrus.Logger) *Hub {
	if logger == nil {
		logger = logrus.New()
	}
	return &Hub{log: logger, conns: make(map[string]map[string]*Conn)}
}

// Add registers conn under (lobbyID, username), setting the session fields
// on the conn. Any prior connection for the same identity is cancelled.
func (h *Hub) Add(lobbyID, username string, conn *Conn) {
	conn.LobbyID = lobbyID
	conn.Username = username

	h.mu.Lock()
	byUser, ok := h.conns[lobbyID]
	if !ok {
		byUser = make(map[string]*Conn)
		h.conns[lobbyID] = byUser
	}
	prev := byUser[username]
	byUser[username] = conn
	h.mu.Unlock()

	if prev != nil && prev != conn {
		h.log.WithFields(logrus.Fields{"lobby": lobbyID, "username": username}).
			Info("displacing previous connection")
		prev.Cancel()
	}
}

// Remove unregisters conn. A stale conn (already displaced by a newer one
// for the same identity) is left alone.
func (h *Hub) Remove(conn *Conn) {
	if conn.LobbyID == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	byUser, ok := h.conns[conn.LobbyID]
	if !ok {
		return
	}
	if byUser[conn.Username] != conn {
		return
	}
	delete(byUser, conn.Username)
	if len(byUser) == 0 {
		delete(h.conns, conn.LobbyID)
	}
}

// HasConn reports whether a live connection exists for (lobbyID, username).
func (h *Hub) HasConn(lobbyID, username string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.conns[lobbyID][username]
	return ok
}

// BroadcastToLobby fans an event out to every connection in the lobby.
func (h *Hub) BroadcastToLobby(lobbyID string, ev game.Event) {
	h.mu.RLock()
	targets := make([]*Conn, 0, len(h.conns[lobbyID]))
	for _, c := range h.conns[lobbyID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if !c.Write(ev) {
			h.log.WithFields(logrus.Fields{"lobby": lobbyID, "username": c.Username, "event": ev.Type}).
				Warn("dropping event, send buffer full")
		}
	}
}
