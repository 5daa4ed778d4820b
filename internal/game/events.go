// internal/game/events.go
package game

import (
	"time"

	"github.com/moe-a1/MindDigits/internal/models"
)

// EventType names an outbound event. The set is closed; the gateway and
// clients match on these values exactly.
type EventType string

const (
	EventLobbyCreated      EventType = "lobbyCreated"
	EventLobbyData         EventType = "lobbyData"
	EventGameState         EventType = "gameState"
	EventPlayerJoinedLobby EventType = "playerJoinedLobby"
	EventPlayerReady       EventType = "playerReady"
	EventAllPlayersReady   EventType = "allPlayersReady"
	EventGameStarted       EventType = "gameStarted"
	EventGuessResult       EventType = "guessResult"
	EventPlayerEliminated  EventType = "playerEliminated"
	EventGameOver          EventType = "gameOver"
	EventPlayerLeft        EventType = "playerLeft"
	EventSystemMessage     EventType = "systemMessage"
	EventChatMessage       EventType = "chatMessage"
	EventError             EventType = "error"
)

// Event is the outbound envelope: a named event, its payload, and a
// server-generated timestamp stamped at emit time.
type Event struct {
	Type      EventType   `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewEvent stamps an event with the current server time.
func NewEvent(t EventType, payload interface{}) Event {
	return Event{Type: t, Payload: payload, Timestamp: time.Now().UTC()}
}

// Broadcaster delivers an event to every member of a lobby. The engine calls
// it after a mutation durably commits and while still holding the lobby lock,
// so deliveries observe mutations in commit order.
type Broadcaster interface {
	BroadcastToLobby(lobbyID string, ev Event)
}

// Typed payloads, one per event variant.

type LobbyPayload struct {
	Lobby *models.Lobby `json:"lobby"`
}

type PlayerJoinedPayload struct {
	Username string           `json:"username"`
	Players  []*models.Player `json:"players"`
}

type PlayerReadyPayload struct {
	Username string           `json:"username"`
	Players  []*models.Player `json:"players"`
}

type AllPlayersReadyPayload struct {
	LobbyID string `json:"lobbyId"`
}

type GameStartedPayload struct {
	Players      []*models.Player  `json:"players"`
	CurrentTurn  string            `json:"currentTurn"`
	TargetPlayer string            `json:"targetPlayer"`
	Status       models.GameStatus `json:"status"`
}

type GuessResultPayload struct {
	Guess        models.Guess      `json:"guess"`
	ExactMatches int               `json:"exactMatches"`
	IsCorrect    bool              `json:"isCorrect"`
	CurrentTurn  string            `json:"currentTurn"`
	TargetPlayer string            `json:"targetPlayer"`
	Players      []*models.Player  `json:"players"`
	Status       models.GameStatus `json:"status"`
}

type PlayerEliminatedPayload struct {
	Username     string           `json:"username"`
	EliminatedBy string           `json:"eliminatedBy"`
	Players      []*models.Player `json:"players"`
}

type GameOverPayload struct {
	Winner string        `json:"winner,omitempty"`
	Lobby  *models.Lobby `json:"lobby"`
}

type PlayerLeftPayload struct {
	Username string           `json:"username"`
	Players  []*models.Player `json:"players"`
}

type GameStatePayload struct {
	Players      []*models.Player `json:"players"`
	CurrentTurn  string           `json:"currentTurn"`
	TargetPlayer string           `json:"targetPlayer"`
	Guesses      []models.Guess   `json:"guesses"`
}

type SystemMessagePayload struct {
	Kind    string `json:"kind"`
	Content string `json:"content"`
}

type ChatMessagePayload struct {
	Sender  string `json:"sender"`
	Message string `json:"message"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
