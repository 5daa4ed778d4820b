// internal/game/turns_test.go
package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moe-a1/MindDigits/internal/models"
)

// noShuffle keeps the rotation in membership order so assertions stay exact.
func noShuffle(n int, swap func(i, j int)) {}

func activeLobby(names ...string) *models.Lobby {
	l := &models.Lobby{
		LobbyID:     "TESTROOM",
		Status:      models.GameActive,
		DigitLength: 4,
	}
	for _, name := range names {
		l.Players = append(l.Players, &models.Player{
			Username: name,
			Number:   "1234",
			Status:   models.PlayerPlaying,
		})
	}
	return l
}

func eliminate(l *models.Lobby, name string) {
	l.FindPlayer(name).Status = models.PlayerEliminated
}

func TestInitializeTurnState(t *testing.T) {
	l := activeLobby("alice", "bob", "carol")
	InitializeTurnState(l, noShuffle)

	assert.Equal(t, []string{"alice", "bob", "carol"}, l.TargetSequence)
	assert.Equal(t, "alice", l.TargetPlayer)
	assert.Equal(t, []string{"bob", "carol"}, l.GuessingPlayers)
	assert.Equal(t, "bob", l.CurrentTurn)
	assert.Equal(t, 1, l.CurrentRound)
}

func TestAdvanceTurnRotatesGuessersThenTarget(t *testing.T) {
	l := activeLobby("alice", "bob", "carol")
	InitializeTurnState(l, noShuffle)

	AdvanceTurn(l)
	assert.Equal(t, "carol", l.CurrentTurn)
	assert.Equal(t, "alice", l.TargetPlayer)

	// The guesser index wrapping moves on to the next target.
	AdvanceTurn(l)
	assert.Equal(t, "bob", l.TargetPlayer)
	assert.Equal(t, []string{"alice", "carol"}, l.GuessingPlayers)
	assert.Equal(t, "alice", l.CurrentTurn)
	assert.Equal(t, 1, l.CurrentRound)
}

func TestFullRoundCyclesBackAndIncrementsRound(t *testing.T) {
	l := activeLobby("alice", "bob", "carol")
	InitializeTurnState(l, noShuffle)

	startTarget := l.TargetPlayer
	startTurn := l.CurrentTurn

	// Three targets with two guessers each: six advances complete the round.
	for i := 0; i < 6; i++ {
		AdvanceTurn(l)
	}

	assert.Equal(t, startTarget, l.TargetPlayer)
	assert.Equal(t, startTurn, l.CurrentTurn)
	assert.Equal(t, 2, l.CurrentRound)
}

func TestAdvanceTurnSkipsEliminatedGuesser(t *testing.T) {
	l := activeLobby("alice", "bob", "carol", "dave")
	InitializeTurnState(l, noShuffle)
	require.Equal(t, "bob", l.CurrentTurn)

	eliminate(l, "carol")
	AdvanceTurn(l)

	// carol is skipped in place without rebuilding the order.
	assert.Equal(t, "dave", l.CurrentTurn)
	assert.Equal(t, "alice", l.TargetPlayer)
	assert.Equal(t, []string{"bob", "carol", "dave"}, l.GuessingPlayers)
}

func TestAdvanceTargetSkipsEliminatedTarget(t *testing.T) {
	l := activeLobby("alice", "bob", "carol")
	InitializeTurnState(l, noShuffle)

	eliminate(l, "bob")

	// Exhaust alice's guessers; the rotation must land on carol, not bob.
	AdvanceTurn(l)
	AdvanceTurn(l)

	assert.Equal(t, "carol", l.TargetPlayer)
	assert.Equal(t, []string{"alice"}, l.GuessingPlayers)
	assert.Equal(t, "alice", l.CurrentTurn)
}

func TestCachedGuessingOrderFilteredNotReshuffled(t *testing.T) {
	l := activeLobby("alice", "bob", "carol", "dave")
	InitializeTurnState(l, noShuffle)
	require.Equal(t, []string{"bob", "carol", "dave"}, l.GuessingPlayers)

	eliminate(l, "carol")

	// Rotate through every target and back to alice.
	advanceTarget(l)
	advanceTarget(l)
	advanceTarget(l)
	require.Equal(t, "alice", l.TargetPlayer)

	// alice's cached order survives minus carol, relative order intact.
	assert.Equal(t, []string{"bob", "dave"}, l.GuessingPlayers)
	assert.Equal(t, "bob", l.CurrentTurn)
	assert.Equal(t, 2, l.CurrentRound)
}

func TestAdvanceTurnWithSingleGuesser(t *testing.T) {
	l := activeLobby("alice", "bob")
	InitializeTurnState(l, noShuffle)
	require.Equal(t, "bob", l.CurrentTurn)

	// One guesser per target: every advance flips the target.
	AdvanceTurn(l)
	assert.Equal(t, "bob", l.TargetPlayer)
	assert.Equal(t, "alice", l.CurrentTurn)

	AdvanceTurn(l)
	assert.Equal(t, "alice", l.TargetPlayer)
	assert.Equal(t, "bob", l.CurrentTurn)
	assert.Equal(t, 2, l.CurrentRound)
}
