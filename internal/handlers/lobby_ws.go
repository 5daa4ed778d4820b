// internal/handlers/lobby_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/moe-a1/MindDigits/internal/auth"
	"github.com/moe-a1/MindDigits/internal/game"
	"github.com/moe-a1/MindDigits/internal/middleware"
	"github.com/moe-a1/MindDigits/internal/models"
)

// lobbyDataPayload is the direct reply to a join or resume. The session token
// lets the client re-fetch state over HTTP after a drop.
type lobbyDataPayload struct {
	Lobby        *models.Lobby `json:"lobby"`
	SessionToken string        `json:"sessionToken,omitempty"`
}

// session is the per-connection identity, bound by a successful create, join
// or resume. All subsequent in-game actions are attributed to it.
type session struct {
	lobbyID  string
	username string
}

func (s session) bound() bool { return s.lobbyID != "" }

// WSHandler runs the lobby websocket flow: accept, read pump dispatching
// actions to the engine, write pump draining the connection's event queue.
func WSHandler(s *Server) http.HandlerFunc {
	logger := s.Log
	return func(w http.ResponseWriter, r *http.Request) {
		remoteAddr := r.RemoteAddr

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"minddigits"},
			OriginPatterns: []string{"*"}, // Adjust in production
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != "minddigits" {
			c.Close(BadSubprotocolError, "client must speak the minddigits subprotocol")
			return
		}
		middleware.LogWebSocketConnect(logger, remoteAddr, r.URL.Path)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		conn := &Conn{
			Out:    make(chan game.Event, 32),
			Cancel: cancel,
		}

		go writePump(ctx, c, conn, logger)

		sess := readPump(ctx, c, s, conn, logger)

		// Cleanup after the read pump exits: detach the connection and treat
		// the drop as a leave if the session was bound.
		middleware.LogWebSocketDisconnect(logger, remoteAddr, r.URL.Path, nil)
		s.Hub.Remove(conn)
		if sess.bound() {
			cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cleanupCancel()
			if err := s.Engine.RemovePlayer(cleanupCtx, sess.lobbyID, sess.username); err != nil {
				logger.Warnf("disconnect cleanup for %s in lobby %s: %v", sess.username, sess.lobbyID, err)
			}
		}
	}
}

// readPump reads and dispatches inbound actions until the connection closes.
// Actions on one connection apply strictly in arrival order. Returns the
// session so the caller can run disconnect cleanup.
func readPump(ctx context.Context, c *websocket.Conn, s *Server, conn *Conn, logger *logrus.Logger) session {
	var sess session

	for {
		select {
		case <-ctx.Done():
			return sess
		default:
		}

		typ, msg, err := c.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway {
				logger.Infof("websocket closed normally for %q", sess.username)
			} else if !strings.Contains(err.Error(), "context canceled") {
				logger.Warnf("websocket read error for %q: %v (close status %d)", sess.username, err, closeStatus)
			}
			return sess
		}
		if typ != websocket.MessageText {
			logger.Warnf("ignoring non-text message type %d from %q", typ, sess.username)
			continue
		}

		var envelope actionEnvelope
		if err := json.Unmarshal(msg, &envelope); err != nil {
			conn.WriteError("Invalid JSON format")
			continue
		}

		sess = handleAction(ctx, s, conn, sess, envelope, logger)
	}
}

// handleAction dispatches one inbound action. It returns the possibly updated
// session (create/join/resume bind it, leave clears it).
func handleAction(ctx context.Context, s *Server, conn *Conn, sess session, envelope actionEnvelope, logger *logrus.Logger) session {
	switch envelope.Type {
	case ActionCreateLobby:
		var p createLobbyPayload
		if err := json.Unmarshal(envelope.Payload, &p); err != nil {
			conn.WriteError("Invalid createLobby payload")
			return sess
		}
		l, err := s.Engine.CreateLobby(ctx, p.Name, p.Username, p.DigitLength)
		if err != nil {
			conn.WriteError(userMessage(err))
			return sess
		}
		var token string
		if l.FindPlayer(p.Username) != nil {
			// Creator was enrolled at creation, so this connection becomes
			// their session.
			sess = bindSession(s, conn, l, p.Username)
			token = sessionToken(l.LobbyID, p.Username, logger)
		}
		conn.Write(game.NewEvent(game.EventLobbyCreated, lobbyDataPayload{Lobby: l, SessionToken: token}))
		return sess

	case ActionJoinLobby:
		var p joinLobbyPayload
		if err := json.Unmarshal(envelope.Payload, &p); err != nil {
			conn.WriteError("Invalid joinLobby payload")
			return sess
		}
		l, err := s.Engine.Join(ctx, p.LobbyID, p.Username)
		if err == game.ErrDuplicateUsername && !s.Hub.HasConn(p.LobbyID, p.Username) {
			// The name is taken but nobody is connected under it: resume the
			// existing seat instead of rejecting.
			l, err = s.Engine.GetLobby(ctx, p.LobbyID)
		}
		if err != nil {
			conn.WriteError(userMessage(err))
			return sess
		}
		sess = bindSession(s, conn, l, p.Username)
		conn.Write(game.NewEvent(game.EventLobbyData, lobbyDataPayload{Lobby: l, SessionToken: sessionToken(l.LobbyID, p.Username, logger)}))
		return sess

	case ActionGetLobby:
		var p lobbyRefPayload
		if err := json.Unmarshal(envelope.Payload, &p); err != nil {
			conn.WriteError("Invalid getLobby payload")
			return sess
		}
		lobbyID := p.LobbyID
		if lobbyID == "" {
			lobbyID = sess.lobbyID
		}
		l, err := s.Engine.GetLobby(ctx, lobbyID)
		if err != nil {
			conn.WriteError(userMessage(err))
			return sess
		}
		conn.Write(game.NewEvent(game.EventLobbyData, lobbyDataPayload{Lobby: l}))
		return sess

	case ActionGetGameState:
		if !sess.bound() {
			conn.WriteError("Join a lobby first")
			return sess
		}
		state, err := s.Engine.GameState(ctx, sess.lobbyID)
		if err != nil {
			conn.WriteError(userMessage(err))
			return sess
		}
		conn.Write(game.NewEvent(game.EventGameState, state))
		return sess

	case ActionSubmitSecretNumber:
		if !sess.bound() {
			conn.WriteError("Join a lobby first")
			return sess
		}
		var p submitNumberPayload
		if err := json.Unmarshal(envelope.Payload, &p); err != nil {
			conn.WriteError("Invalid submitSecretNumber payload")
			return sess
		}
		if err := s.Engine.SubmitNumber(ctx, sess.lobbyID, sess.username, p.Number); err != nil {
			conn.WriteError(userMessage(err))
		}
		return sess

	case ActionStartGame:
		if !sess.bound() {
			conn.WriteError("Join a lobby first")
			return sess
		}
		if err := s.Engine.Start(ctx, sess.lobbyID); err != nil {
			conn.WriteError(userMessage(err))
		}
		return sess

	case ActionMakeGuess:
		if !sess.bound() {
			conn.WriteError("Join a lobby first")
			return sess
		}
		var p makeGuessPayload
		if err := json.Unmarshal(envelope.Payload, &p); err != nil {
			conn.WriteError("Invalid makeGuess payload")
			return sess
		}
		if err := s.Engine.MakeGuess(ctx, sess.lobbyID, sess.username, p.ToPlayer, p.GuessedNumber); err != nil {
			conn.WriteError(userMessage(err))
		}
		return sess

	case ActionLeaveLobby:
		if !sess.bound() {
			return sess
		}
		s.Hub.Remove(conn)
		if err := s.Engine.RemovePlayer(ctx, sess.lobbyID, sess.username); err != nil {
			conn.WriteError(userMessage(err))
		}
		return session{}

	case ActionResetGame:
		if !sess.bound() {
			conn.WriteError("Join a lobby first")
			return sess
		}
		if _, err := s.Engine.Reset(ctx, sess.lobbyID); err != nil {
			conn.WriteError(userMessage(err))
		}
		return sess

	case ActionSendChatMessage:
		if !sess.bound() {
			return sess
		}
		var p chatPayload
		if err := json.Unmarshal(envelope.Payload, &p); err != nil || p.Message == "" {
			conn.WriteError("Invalid sendChatMessage payload")
			return sess
		}
		s.Hub.BroadcastToLobby(sess.lobbyID, game.NewEvent(game.EventChatMessage, game.ChatMessagePayload{
			Sender:  sess.username,
			Message: p.Message,
		}))
		return sess

	default:
		conn.WriteError(fmt.Sprintf("Unknown action type: %s", envelope.Type))
		return sess
	}
}

// bindSession registers the connection under the lobby identity.
func bindSession(s *Server, conn *Conn, l *models.Lobby, username string) session {
	s.Hub.Add(l.LobbyID, username, conn)
	return session{lobbyID: l.LobbyID, username: username}
}

// sessionToken mints a state-refetch token; on failure the reply simply
// carries no token.
func sessionToken(lobbyID, username string, logger *logrus.Logger) string {
	token, err := auth.CreateSessionToken(lobbyID, username)
	if err != nil {
		logger.Warnf("create session token for %s in lobby %s: %v", username, lobbyID, err)
		return ""
	}
	return token
}

// userMessage maps an engine error to a client-facing message. Internal
// failures are collapsed to a generic message.
func userMessage(err error) string {
	var verr *game.ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	switch {
	case errors.Is(err, game.ErrLobbyNotFound),
		errors.Is(err, game.ErrPlayerNotFound),
		errors.Is(err, game.ErrDuplicateUsername),
		errors.Is(err, game.ErrTargetNotFound),
		errors.Is(err, game.ErrNotEnoughPlayers),
		errors.Is(err, game.ErrGameNotActive),
		errors.Is(err, game.ErrGameInProgress),
		errors.Is(err, game.ErrGameNotCompleted):
		return err.Error()
	}
	return "Internal server error"
}

// writePump drains the connection's event queue onto the wire, pinging
// periodically to detect dead peers.
func writePump(ctx context.Context, c *websocket.Conn, conn *Conn, logger *logrus.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	defer func() {
		_ = c.Close(websocket.StatusGoingAway, "write pump stopping")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-conn.Out:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				logger.Warnf("failed to marshal outgoing event %q: %v", ev.Type, err)
				continue
			}

			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("failed to write to websocket for %q: %v", conn.Username, err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warnf("ping failed for %q, assuming disconnect: %v", conn.Username, err)
				return
			}
		}
	}
}
