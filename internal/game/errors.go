// internal/game/errors.go
package game

import (
	"errors"
	"fmt"
)

// Sentinel errors for the engine's not-found and conflict cases. All are
// recoverable and reported to the originating client; none accompany a state
// mutation.
var (
	ErrLobbyNotFound     = errors.New("lobby not found")
	ErrLobbyExists       = errors.New("lobby id already exists")
	ErrPlayerNotFound    = errors.New("player not found in lobby")
	ErrDuplicateUsername = errors.New("username already taken in this lobby")
	ErrTargetNotFound    = errors.New("target player not found or has no number")
	ErrNotEnoughPlayers  = errors.New("at least 2 ready players are required to start")
	ErrGameNotActive     = errors.New("game is not active")
	ErrGameInProgress    = errors.New("game has already started")
	ErrGameNotCompleted  = errors.New("game has not finished yet")
)

// ValidationError reports a missing or malformed client-supplied field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// invalidNumberErr builds the digit-length validation error the clients show
// verbatim.
func invalidNumberErr(field string, length int) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf("must be exactly %d digits", length)}
}
