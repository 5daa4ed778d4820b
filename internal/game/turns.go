// internal/game/turns.go
package game

import (
	"github.com/moe-a1/MindDigits/internal/models"
)

// The turn sequencer mutates a lobby's turn-state fields. Every function here
// assumes the caller holds the lobby mutex. Orders are shuffled exactly once
// per game start; afterwards traversal is strictly round-robin with
// elimination-aware skipping, never a reshuffle.

// InitializeTurnState builds a fresh target rotation over the currently
// playing participants and sets up the first target's guessing order. shuffle
// is the injected random source (rand.Rand.Shuffle-compatible), so tests can
// supply a deterministic sequence.
func InitializeTurnState(l *models.Lobby, shuffle func(n int, swap func(i, j int))) {
	seq := append([]string(nil), l.ActiveUsernames()...)
	shuffle(len(seq), func(i, j int) {
		seq[i], seq[j] = seq[j], seq[i]
	})

	l.TargetSequence = seq
	l.CurrentRound = 1
	l.CurrentTargetIndex = 0
	l.TargetPlayer = ""
	if len(seq) > 0 {
		l.TargetPlayer = seq[0]
	}
	l.GuessingOrders = make(map[string][]string)
	setupGuessingOrder(l)
}

// setupGuessingOrder installs the guessing order for the current target. A
// fresh order is every active participant except the target, in membership
// order. A cached order is only filtered down to still-active usernames,
// preserving relative order.
func setupGuessingOrder(l *models.Lobby) {
	target := l.TargetPlayer

	if cached, ok := l.GuessingOrders[target]; ok {
		filtered := cached[:0:0]
		for _, name := range cached {
			if l.IsActive(name) {
				filtered = append(filtered, name)
			}
		}
		l.GuessingOrders[target] = filtered
	} else {
		var order []string
		for _, name := range l.ActiveUsernames() {
			if name != target {
				order = append(order, name)
			}
		}
		l.GuessingOrders[target] = order
	}

	l.GuessingPlayers = append([]string(nil), l.GuessingOrders[target]...)
	l.CurrentGuessingIndex = 0
	l.CurrentTurn = ""
	if len(l.GuessingPlayers) > 0 {
		l.CurrentTurn = l.GuessingPlayers[0]
	}
}

// AdvanceTurn moves to the next eligible guesser for the current target.
// Guessers who left or were eliminated since the order was built are skipped
// in place. When the index wraps to 0 the target advances instead.
func AdvanceTurn(l *models.Lobby) {
	n := len(l.GuessingPlayers)
	if n == 0 {
		advanceTarget(l)
		return
	}
	for probes := 0; probes < n; probes++ {
		l.CurrentGuessingIndex = (l.CurrentGuessingIndex + 1) % n
		if l.CurrentGuessingIndex == 0 {
			advanceTarget(l)
			return
		}
		next := l.GuessingPlayers[l.CurrentGuessingIndex]
		if l.IsActive(next) && next != l.TargetPlayer {
			l.CurrentTurn = next
			return
		}
	}
	// Every remaining entry was inactive; roll over to the next target.
	advanceTarget(l)
}

// advanceTarget rotates to the next still-active target, incrementing the
// round counter on each wrap of the sequence, and rebuilds that target's
// guessing order. The probe loop is bounded by the sequence length; callers
// detect game over before invoking the sequencer with no active players.
func advanceTarget(l *models.Lobby) {
	n := len(l.TargetSequence)
	if n == 0 {
		return
	}
	for probes := 0; probes < n; probes++ {
		l.CurrentTargetIndex = (l.CurrentTargetIndex + 1) % n
		if l.CurrentTargetIndex == 0 {
			l.CurrentRound++
		}
		candidate := l.TargetSequence[l.CurrentTargetIndex]
		if l.IsActive(candidate) {
			l.TargetPlayer = candidate
			setupGuessingOrder(l)
			return
		}
	}
}
