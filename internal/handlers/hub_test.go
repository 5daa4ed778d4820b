// internal/handlers/hub_test.go
package handlers

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moe-a1/MindDigits/internal/game"
)

func newTestConn(buffer int) (*Conn, context.Context) {
	ctx, cancel := context.WithCancel(context.Background())
	return &Conn{Out: make(chan game.Event, buffer), Cancel: cancel}, ctx
}

func TestHubBroadcastReachesAllLobbyMembers(t *testing.T) {
	h := NewHub(logrus.New())
	a, _ := newTestConn(4)
	b, _ := newTestConn(4)
	other, _ := newTestConn(4)

	h.Add("ROOM1", "alice", a)
	h.Add("ROOM1", "bob", b)
	h.Add("ROOM2", "carol", other)

	h.BroadcastToLobby("ROOM1", game.NewEvent(game.EventSystemMessage, game.SystemMessagePayload{Content: "hi"}))

	assert.Len(t, a.Out, 1)
	assert.Len(t, b.Out, 1)
	assert.Len(t, other.Out, 0)
}

func TestHubDisplacesPreviousConnection(t *testing.T) {
	h := NewHub(logrus.New())
	old, oldCtx := newTestConn(1)
	h.Add("ROOM1", "alice", old)

	replacement, _ := newTestConn(1)
	h.Add("ROOM1", "alice", replacement)

	// The displaced connection's context is cancelled.
	select {
	case <-oldCtx.Done():
	default:
		t.Fatal("expected displaced connection to be cancelled")
	}

	// Removing the stale conn must not unregister the replacement.
	h.Remove(old)
	assert.True(t, h.HasConn("ROOM1", "alice"))

	h.Remove(replacement)
	assert.False(t, h.HasConn("ROOM1", "alice"))
}

func TestConnWriteDropsWhenBufferFull(t *testing.T) {
	c, _ := newTestConn(1)

	assert.True(t, c.Write(game.NewEvent(game.EventSystemMessage, nil)))
	assert.False(t, c.Write(game.NewEvent(game.EventSystemMessage, nil)))
}

func TestActionEnvelopeDecoding(t *testing.T) {
	raw := []byte(`{"type":"makeGuess","payload":{"toPlayer":"bob","guessedNumber":"1234"}}`)

	var envelope actionEnvelope
	require.NoError(t, json.Unmarshal(raw, &envelope))
	assert.Equal(t, ActionMakeGuess, envelope.Type)

	var p makeGuessPayload
	require.NoError(t, json.Unmarshal(envelope.Payload, &p))
	assert.Equal(t, "bob", p.ToPlayer)
	assert.Equal(t, "1234", p.GuessedNumber)
}

func TestUserMessageCollapsesInternalErrors(t *testing.T) {
	assert.Equal(t, game.ErrLobbyNotFound.Error(), userMessage(game.ErrLobbyNotFound))
	assert.Equal(t, "invalid number: must be exactly 4 digits",
		userMessage(&game.ValidationError{Field: "number", Reason: "must be exactly 4 digits"}))
	assert.Equal(t, "Internal server error", userMessage(assert.AnError))
}
