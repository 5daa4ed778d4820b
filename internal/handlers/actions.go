// internal/handlers/actions.go
package handlers

import "encoding/json"

// Action types accepted over the lobby websocket. Anything outside this set
// gets an error event back; the connection stays open.
const (
	ActionCreateLobby        = "createLobby"
	ActionJoinLobby          = "joinLobby"
	ActionGetLobby           = "getLobby"
	ActionGetGameState       = "getGameState"
	ActionSubmitSecretNumber = "submitSecretNumber"
	ActionStartGame          = "startGame"
	ActionMakeGuess          = "makeGuess"
	ActionLeaveLobby         = "leaveLobby"
	ActionResetGame          = "resetGame"
	ActionSendChatMessage    = "sendChatMessage"
)

// actionEnvelope is the outer shape of every inbound message. Payload is
// decoded per action type.
type actionEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type createLobbyPayload struct {
	Name        string `json:"name"`
	Username    string `json:"username"`
	DigitLength int    `json:"digitLength"`
}

type joinLobbyPayload struct {
	LobbyID  string `json:"lobbyId"`
	Username string `json:"username"`
}

type lobbyRefPayload struct {
	LobbyID string `json:"lobbyId"`
}

type submitNumberPayload struct {
	Number string `json:"number"`
}

type makeGuessPayload struct {
	ToPlayer      string `json:"toPlayer"`
	GuessedNumber string `json:"guessedNumber"`
}

type chatPayload struct {
	Message string `json:"message"`
}
