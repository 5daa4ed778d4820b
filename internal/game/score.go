// internal/game/score.go
package game

// ExactMatches counts the positions where secret and guess hold the same
// digit. Both strings are equal length; format is validated upstream.
// A guess is fully correct iff ExactMatches equals the lobby's digit length.
func ExactMatches(secret, guess string) int {
	matches := 0
	for i := 0; i < len(secret) && i < len(guess); i++ {
		if secret[i] == guess[i] {
			matches++
		}
	}
	return matches
}

// MatchingDigits is the alternate scoring mode: exact positional matches plus
// guessed digits that appear in the secret at a different position. Each
// secret digit is consumed at most once, so repeated digits are never
// double-counted.
func MatchingDigits(secret, guess string) int {
	n := len(secret)
	usedSecret := make([]bool, n)
	usedGuess := make([]bool, n)

	exact := 0
	for i := 0; i < n && i < len(guess); i++ {
		if secret[i] == guess[i] {
			exact++
			usedSecret[i] = true
			usedGuess[i] = true
		}
	}

	misplaced := 0
	for i := 0; i < len(guess) && i < n; i++ {
		if usedGuess[i] {
			continue
		}
		for j := 0; j < n; j++ {
			if usedSecret[j] {
				continue
			}
			if guess[i] == secret[j] {
				misplaced++
				usedSecret[j] = true
				break
			}
		}
	}

	return exact + misplaced
}

// ScoringMode selects which score fills the Guess record. The win condition
// always uses the exact positional count, regardless of mode.
type ScoringMode string

const (
	ScoringExact  ScoringMode = "exact"
	ScoringDigits ScoringMode = "digits"
)

// Score applies the mode to a secret/guess pair.
func (m ScoringMode) Score(secret, guess string) int {
	if m == ScoringDigits {
		return MatchingDigits(secret, guess)
	}
	return ExactMatches(secret, guess)
}
