// internal/models/lobby.go
package models

import (
	"sync"
	"time"
)

// GameStatus tracks the lifecycle of a lobby's game.
type GameStatus string

const (
	GameWaiting   GameStatus = "waiting"
	GameActive    GameStatus = "active"
	GameCompleted GameStatus = "completed"
)

// PlayerStatus tracks a single participant within a lobby.
type PlayerStatus string

const (
	PlayerWaiting    PlayerStatus = "waiting"
	PlayerReady      PlayerStatus = "ready"
	PlayerPlaying    PlayerStatus = "playing"
	PlayerEliminated PlayerStatus = "eliminated"
	PlayerSpectator  PlayerStatus = "spectator"
)

// Player is a participant in a lobby. Usernames are unique within a lobby,
// not globally. The secret number is never serialized to clients.
type Player struct {
	Username string       `json:"username" bson:"username"`
	Number   string       `json:"-" bson:"number,omitempty"`
	Status   PlayerStatus `json:"status" bson:"status"`
}

// Guess is an immutable record of one guess attempt. Guesses are append-only,
// ordered by creation time.
type Guess struct {
	FromPlayer    string    `json:"fromPlayer" bson:"fromPlayer"`
	ToPlayer      string    `json:"toPlayer" bson:"toPlayer"`
	GuessedNumber string    `json:"guessedNumber" bson:"guessedNumber"`
	ExactMatches  int       `json:"exactMatches" bson:"exactMatches"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
}

// Lobby is a single game room: membership, guess history and turn state.
// The in-memory instance held by the lobby store is authoritative; the
// persisted copy mirrors it. All mutations happen with Mu held, enclosing
// the full read-modify-write against storage.
type Lobby struct {
	LobbyID     string     `json:"lobbyId" bson:"_id"`
	Name        string     `json:"name" bson:"name"`
	CreatedBy   string     `json:"createdBy" bson:"createdBy"`
	Players     []*Player  `json:"players" bson:"players"`
	Guesses     []Guess    `json:"guesses" bson:"guesses"`
	Status      GameStatus `json:"status" bson:"status"`
	DigitLength int        `json:"digitLength" bson:"digitLength"`

	// Turn state. TargetSequence is shuffled once per game start and never
	// reshuffled; GuessingOrders caches the per-target guesser order.
	TargetSequence       []string            `json:"targetSequence" bson:"targetSequence"`
	CurrentTargetIndex   int                 `json:"currentTargetIndex" bson:"currentTargetIndex"`
	TargetPlayer         string              `json:"targetPlayer" bson:"targetPlayer"`
	GuessingOrders       map[string][]string `json:"-" bson:"guessingOrders"`
	GuessingPlayers      []string            `json:"guessingPlayers" bson:"guessingPlayers"`
	CurrentGuessingIndex int                 `json:"currentGuessingIndex" bson:"currentGuessingIndex"`
	CurrentTurn          string              `json:"currentTurn" bson:"currentTurn"`
	CurrentRound         int                 `json:"currentRound" bson:"currentRound"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`

	Mu sync.Mutex `json:"-" bson:"-"`
}

// FindPlayer returns the participant with the given username, or nil.
func (l *Lobby) FindPlayer(username string) *Player {
	for _, p := range l.Players {
		if p.Username == username {
			return p
		}
	}
	return nil
}

// ActiveUsernames returns the usernames of all playing participants, in
// membership order.
func (l *Lobby) ActiveUsernames() []string {
	var names []string
	for _, p := range l.Players {
		if p.Status == PlayerPlaying {
			names = append(names, p.Username)
		}
	}
	return names
}

// ActiveCount returns how many participants are still playing.
func (l *Lobby) ActiveCount() int {
	n := 0
	for _, p := range l.Players {
		if p.Status == PlayerPlaying {
			n++
		}
	}
	return n
}

// ReadyCount returns how many participants have submitted a secret.
func (l *Lobby) ReadyCount() int {
	n := 0
	for _, p := range l.Players {
		if p.Status == PlayerReady {
			n++
		}
	}
	return n
}

// AllReady reports whether every participant has submitted a secret number,
// with the two-player minimum met.
func (l *Lobby) AllReady() bool {
	if len(l.Players) < 2 {
		return false
	}
	for _, p := range l.Players {
		if p.Status != PlayerReady || p.Number == "" {
			return false
		}
	}
	return true
}

// Winner returns the sole remaining playing participant, or "" if none.
func (l *Lobby) Winner() string {
	active := l.ActiveUsernames()
	if len(active) == 1 {
		return active[0]
	}
	return ""
}

// IsActive reports whether the username belongs to a playing participant.
func (l *Lobby) IsActive(username string) bool {
	p := l.FindPlayer(username)
	return p != nil && p.Status == PlayerPlaying
}

// Snapshot returns a deep copy of the lobby's data fields. Callers hold Mu;
// the copy can then be marshaled or restored without the lock.
func (l *Lobby) Snapshot() *Lobby {
	cp := &Lobby{
		LobbyID:              l.LobbyID,
		Name:                 l.Name,
		CreatedBy:            l.CreatedBy,
		Status:               l.Status,
		DigitLength:          l.DigitLength,
		CurrentTargetIndex:   l.CurrentTargetIndex,
		TargetPlayer:         l.TargetPlayer,
		CurrentGuessingIndex: l.CurrentGuessingIndex,
		CurrentTurn:          l.CurrentTurn,
		CurrentRound:         l.CurrentRound,
		CreatedAt:            l.CreatedAt,
	}
	cp.Players = make([]*Player, len(l.Players))
	for i, p := range l.Players {
		pc := *p
		cp.Players[i] = &pc
	}
	cp.Guesses = append([]Guess(nil), l.Guesses...)
	cp.TargetSequence = append([]string(nil), l.TargetSequence...)
	cp.GuessingPlayers = append([]string(nil), l.GuessingPlayers...)
	if l.GuessingOrders != nil {
		cp.GuessingOrders = make(map[string][]string, len(l.GuessingOrders))
		for k, v := range l.GuessingOrders {
			cp.GuessingOrders[k] = append([]string(nil), v...)
		}
	}
	return cp
}

// RestoreFrom overwrites the lobby's data fields from a snapshot, leaving the
// mutex untouched. Used to roll back an in-memory mutation whose persist
// failed, so no partial write ever becomes visible.
func (l *Lobby) RestoreFrom(snap *Lobby) {
	l.LobbyID = snap.LobbyID
	l.Name = snap.Name
	l.CreatedBy = snap.CreatedBy
	l.Players = snap.Players
	l.Guesses = snap.Guesses
	l.Status = snap.Status
	l.DigitLength = snap.DigitLength
	l.TargetSequence = snap.TargetSequence
	l.CurrentTargetIndex = snap.CurrentTargetIndex
	l.TargetPlayer = snap.TargetPlayer
	l.GuessingOrders = snap.GuessingOrders
	l.GuessingPlayers = snap.GuessingPlayers
	l.CurrentGuessingIndex = snap.CurrentGuessingIndex
	l.CurrentTurn = snap.CurrentTurn
	l.CurrentRound = snap.CurrentRound
	l.CreatedAt = snap.CreatedAt
}

// IsValidNumber reports whether s is exactly length digits, all 0-9.
func IsValidNumber(s string, length int) bool {
	if len(s) != length {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
