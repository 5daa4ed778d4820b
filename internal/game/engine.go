// internal/game/engine.go
package game

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/moe-a1/MindDigits/internal/cache"
	"github.com/moe-a1/MindDigits/internal/models"
)

// LobbyRepository is the durable-storage boundary: a keyed record store for
// whole lobby documents. Find returns (nil, nil) when the id is absent;
// Insert returns ErrLobbyExists on an id collision. Records auto-expire 24h
// after creation; the engine never relies on reading them back except to
// rehydrate a lobby that fell out of the in-memory registry.
type LobbyRepository interface {
	Insert(ctx context.Context, l *models.Lobby) error
	Find(ctx context.Context, lobbyID string) (*models.Lobby, error)
	Save(ctx context.Context, l *models.Lobby) error
	Delete(ctx context.Context, lobbyID string) error
}

// Config carries the engine's game policies. Both options mirror observed
// deployments: some auto-start the moment everyone is ready, some require an
// explicit start; some enroll the creator on creation, some start the room
// empty.
type Config struct {
	// AutoStartOnReady starts the game immediately once all participants
	// have submitted secrets. When false the engine only announces
	// readiness and waits for an explicit start.
	AutoStartOnReady bool

	// EnrollCreator adds the creator as the first participant at creation.
	EnrollCreator bool

	// Scoring selects which score fills the Guess record. Elimination always
	// requires a full positional match.
	Scoring ScoringMode
}

// Engine is the authoritative game session state machine. Every mutating
// operation serializes on the target lobby's mutex for the full
// validate-mutate-persist-broadcast cycle, so concurrent actions against one
// room apply one at a time while distinct rooms proceed in parallel.
type Engine struct {
	store *LobbyStore
	repo  LobbyRepository
	bcast Broadcaster
	log   *logrus.Logger
	cfg   Config

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewEngine wires the state machine to its registry, repository and
// broadcaster. The broadcaster may be nil (tests exercising only state).
func NewEngine(store *LobbyStore, repo LobbyRepository, bcast Broadcaster, logger *logrus.Logger, cfg Config) *Engine {
	if logger == nil {
		logger = logrus.New()
	}
	if cfg.Scoring == "" {
		cfg.Scoring = ScoringExact
	}
	return &Engine{
		store: store,
		repo:  repo,
		bcast: bcast,
		log:   logger,
		cfg:   cfg,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetRand replaces the shuffle source, letting tests assert exact orders.
func (e *Engine) SetRand(r *rand.Rand) {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	e.rng = r
}

// shuffle is the injected random source handed to the turn sequencer. The
// rng is shared across rooms, so it gets its own lock.
func (e *Engine) shuffle(n int, swap func(i, j int)) {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	e.rng.Shuffle(n, swap)
}

// lookup resolves the authoritative lobby instance, rehydrating from durable
// storage when the registry has no entry (e.g. after a restart).
func (e *Engine) lookup(ctx context.Context, lobbyID string) (*models.Lobby, error) {
	if l, ok := e.store.Get(lobbyID); ok {
		return l, nil
	}
	l, err := e.repo.Find(ctx, lobbyID)
	if err != nil {
		return nil, fmt.Errorf("load lobby %s: %w", lobbyID, err)
	}
	if l == nil {
		return nil, ErrLobbyNotFound
	}
	return e.store.AddIfAbsent(l), nil
}

// persist saves the whole lobby record, rolling the in-memory state back to
// prev on failure so no partial mutation is ever observable.
func (e *Engine) persist(ctx context.Context, l *models.Lobby, prev *models.Lobby) error {
	if err := e.repo.Save(ctx, l); err != nil {
		l.RestoreFrom(prev)
		return fmt.Errorf("persist lobby %s: %w", l.LobbyID, err)
	}
	return nil
}

func (e *Engine) emit(lobbyID string, t EventType, payload interface{}) {
	if e.bcast == nil {
		return
	}
	e.bcast.BroadcastToLobby(lobbyID, NewEvent(t, payload))
}

func (e *Engine) system(lobbyID, kind, content string) {
	e.emit(lobbyID, EventSystemMessage, SystemMessagePayload{Kind: kind, Content: content})
}

// logAction pushes an action record onto the history queue, fire-and-forget.
func (e *Engine) logAction(lobbyID, actor, actionType string, payload map[string]interface{}) {
	if payload == nil {
		payload = make(map[string]interface{})
	}
	record := cache.LobbyActionRecord{
		LobbyID:    lobbyID,
		Actor:      actor,
		ActionType: actionType,
		Payload:    payload,
		Timestamp:  time.Now().UnixMilli(),
	}
	go func(rec cache.LobbyActionRecord) {
		if cache.Rdb == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := cache.PublishLobbyAction(ctx, rec); err != nil {
			e.log.Warnf("publish action %q for lobby %s: %v", rec.ActionType, rec.LobbyID, err)
		}
	}(record)
}

// newLobbyID produces a short opaque room code: the first 8 chars of a UUID,
// uppercased.
func newLobbyID() string {
	return strings.ToUpper(uuid.NewString()[:8])
}

// CreateLobby allocates a new room. digitLength 0 means the default of 4;
// anything outside [3,6] is rejected. Depending on policy the creator is
// enrolled as the first participant or the room starts empty.
func (e *Engine) CreateLobby(ctx context.Context, name, createdBy string, digitLength int) (*models.Lobby, error) {
	if name == "" {
		return nil, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if createdBy == "" {
		return nil, &ValidationError{Field: "createdBy", Reason: "must not be empty"}
	}
	if digitLength == 0 {
		digitLength = 4
	}
	if digitLength < 3 || digitLength > 6 {
		return nil, &ValidationError{Field: "digitLength", Reason: "must be between 3 and 6"}
	}

	l := &models.Lobby{
		Name:        name,
		CreatedBy:   createdBy,
		Status:      models.GameWaiting,
		DigitLength: digitLength,
		CreatedAt:   time.Now().UTC(),
	}
	if e.cfg.EnrollCreator {
		l.Players = []*models.Player{{Username: createdBy, Status: models.PlayerWaiting}}
	}

	// Room codes are short, so retry on the rare collision.
	var err error
	for attempt := 0; attempt < 5; attempt++ {
		l.LobbyID = newLobbyID()
		err = e.repo.Insert(ctx, l)
		if err == nil {
			break
		}
		if err != ErrLobbyExists {
			return nil, fmt.Errorf("create lobby: %w", err)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("create lobby: %w", err)
	}

	snap := l.Snapshot()
	e.store.Add(l)
	e.log.WithFields(logrus.Fields{"lobby": l.LobbyID, "creator": createdBy}).Info("lobby created")
	e.logAction(l.LobbyID, createdBy, "lobby_created", map[string]interface{}{"name": name, "digitLength": digitLength})
	return snap, nil
}

// Join adds a participant. Joining an active game makes the newcomer a
// spectator; otherwise they join as waiting. Returns the post-join snapshot
// for the joiner's lobbyData reply.
func (e *Engine) Join(ctx context.Context, lobbyID, username string) (*models.Lobby, error) {
	if username == "" {
		return nil, &ValidationError{Field: "username", Reason: "must not be empty"}
	}
	l, err := e.lookup(ctx, lobbyID)
	if err != nil {
		return nil, err
	}

	l.Mu.Lock()
	defer l.Mu.Unlock()

	if l.FindPlayer(username) != nil {
		return nil, ErrDuplicateUsername
	}

	status := models.PlayerWaiting
	if l.Status == models.GameActive {
		status = models.PlayerSpectator
	}

	prev := l.Snapshot()
	l.Players = append(l.Players, &models.Player{Username: username, Status: status})
	if err := e.persist(ctx, l, prev); err != nil {
		return nil, err
	}

	post := l.Snapshot()
	e.emit(lobbyID, EventPlayerJoinedLobby, PlayerJoinedPayload{Username: username, Players: post.Players})
	e.system(lobbyID, "playerJoined", fmt.Sprintf("%s has joined the lobby", username))
	e.logAction(lobbyID, username, "player_joined", map[string]interface{}{"status": string(status)})
	return post, nil
}

// SubmitNumber records a participant's secret and marks them ready. When the
// last participant readies up the engine either starts the game outright or
// announces readiness, per policy.
func (e *Engine) SubmitNumber(ctx context.Context, lobbyID, username, number string) error {
	l, err := e.lookup(ctx, lobbyID)
	if err != nil {
		return err
	}

	l.Mu.Lock()
	defer l.Mu.Unlock()

	if l.Status != models.GameWaiting {
		return ErrGameInProgress
	}
	p := l.FindPlayer(username)
	if p == nil {
		return ErrPlayerNotFound
	}
	if !models.IsValidNumber(number, l.DigitLength) {
		return invalidNumberErr("number", l.DigitLength)
	}

	prev := l.Snapshot()
	p.Number = number
	p.Status = models.PlayerReady
	if err := e.persist(ctx, l, prev); err != nil {
		return err
	}

	post := l.Snapshot()
	e.emit(lobbyID, EventPlayerReady, PlayerReadyPayload{Username: username, Players: post.Players})
	e.logAction(lobbyID, username, "player_ready", nil)

	if !l.AllReady() {
		return nil
	}
	if e.cfg.AutoStartOnReady {
		if err := e.startLocked(ctx, l); err != nil {
			e.log.Warnf("auto-start for lobby %s failed: %v", lobbyID, err)
		}
		return nil
	}
	e.emit(lobbyID, EventAllPlayersReady, AllPlayersReadyPayload{LobbyID: lobbyID})
	return nil
}

// Start begins the game explicitly.
func (e *Engine) Start(ctx context.Context, lobbyID string) error {
	l, err := e.lookup(ctx, lobbyID)
	if err != nil {
		return err
	}
	l.Mu.Lock()
	defer l.Mu.Unlock()
	return e.startLocked(ctx, l)
}

// startLocked transitions ready participants into play, clears prior guesses
// and builds the initial turn rotation. Caller holds the lobby lock.
func (e *Engine) startLocked(ctx context.Context, l *models.Lobby) error {
	if l.Status == models.GameActive {
		return ErrGameInProgress
	}
	if l.ReadyCount() < 2 {
		return ErrNotEnoughPlayers
	}

	prev := l.Snapshot()
	for _, p := range l.Players {
		if p.Status == models.PlayerReady {
			p.Status = models.PlayerPlaying
		}
	}
	l.Guesses = nil
	InitializeTurnState(l, e.shuffle)
	l.Status = models.GameActive

	if err := e.persist(ctx, l, prev); err != nil {
		return err
	}

	post := l.Snapshot()
	e.emit(l.LobbyID, EventGameStarted, GameStartedPayload{
		Players:      post.Players,
		CurrentTurn:  post.CurrentTurn,
		TargetPlayer: post.TargetPlayer,
		Status:       post.Status,
	})
	e.system(l.LobbyID, "gameStarted", "The game has started!")
	e.log.WithFields(logrus.Fields{"lobby": l.LobbyID, "players": len(post.TargetSequence)}).Info("game started")
	e.logAction(l.LobbyID, "", "game_started", map[string]interface{}{"targetPlayer": post.TargetPlayer})
	return nil
}

// MakeGuess processes one guess. Any processed guess consumes the guesser's
// turn; a fully correct guess additionally eliminates the target, advancing
// turn/target state as needed, and may end the game.
func (e *Engine) MakeGuess(ctx context.Context, lobbyID, fromPlayer, toPlayer, guessedNumber string) error {
	l, err := e.lookup(ctx, lobbyID)
	if err != nil {
		return err
	}

	l.Mu.Lock()
	defer l.Mu.Unlock()

	if l.Status != models.GameActive {
		return ErrGameNotActive
	}
	if l.FindPlayer(fromPlayer) == nil {
		return ErrPlayerNotFound
	}
	if !models.IsValidNumber(guessedNumber, l.DigitLength) {
		return invalidNumberErr("guess", l.DigitLength)
	}
	target := l.FindPlayer(toPlayer)
	if target == nil || target.Number == "" || target.Status != models.PlayerPlaying {
		return ErrTargetNotFound
	}

	exact := ExactMatches(target.Number, guessedNumber)
	isCorrect := exact == l.DigitLength
	guess := models.Guess{
		FromPlayer:    fromPlayer,
		ToPlayer:      toPlayer,
		GuessedNumber: guessedNumber,
		ExactMatches:  e.cfg.Scoring.Score(target.Number, guessedNumber),
		CreatedAt:     time.Now().UTC(),
	}

	prev := l.Snapshot()
	l.Guesses = append(l.Guesses, guess)

	if isCorrect {
		target.Status = models.PlayerEliminated
		if l.CurrentTurn == toPlayer {
			AdvanceTurn(l)
		}
		if l.TargetPlayer == toPlayer {
			advanceTarget(l)
		}
	}

	gameOver := l.ActiveCount() <= 1
	if gameOver {
		l.Status = models.GameCompleted
		l.CurrentTurn = ""
	} else {
		AdvanceTurn(l)
	}

	if err := e.persist(ctx, l, prev); err != nil {
		return err
	}

	post := l.Snapshot()
	e.emit(lobbyID, EventGuessResult, GuessResultPayload{
		Guess:        guess,
		ExactMatches: guess.ExactMatches,
		IsCorrect:    isCorrect,
		CurrentTurn:  post.CurrentTurn,
		TargetPlayer: post.TargetPlayer,
		Players:      post.Players,
		Status:       post.Status,
	})
	e.logAction(lobbyID, fromPlayer, "guess_made", map[string]interface{}{
		"toPlayer": toPlayer, "exactMatches": guess.ExactMatches, "isCorrect": isCorrect,
	})

	if isCorrect {
		e.emit(lobbyID, EventPlayerEliminated, PlayerEliminatedPayload{
			Username:     toPlayer,
			EliminatedBy: fromPlayer,
			Players:      post.Players,
		})
		e.system(lobbyID, "playerEliminated",
			fmt.Sprintf("%s correctly guessed %s's number (%s)! %s has been eliminated.",
				fromPlayer, toPlayer, guessedNumber, toPlayer))
		e.logAction(lobbyID, fromPlayer, "player_eliminated", map[string]interface{}{"username": toPlayer})
	} else {
		e.system(lobbyID, "guessResult",
			fmt.Sprintf("%s guessed %d correct digits in %s's number.", fromPlayer, guess.ExactMatches, toPlayer))
	}

	if gameOver {
		e.finishGame(lobbyID, post)
	}
	return nil
}

// finishGame announces a completed game. post is the committed snapshot.
func (e *Engine) finishGame(lobbyID string, post *models.Lobby) {
	winner := post.Winner()
	e.emit(lobbyID, EventGameOver, GameOverPayload{Winner: winner, Lobby: post})
	if winner != "" {
		e.system(lobbyID, "gameOver", fmt.Sprintf("Game over! %s is the winner!", winner))
	} else {
		e.system(lobbyID, "gameOver", "Game over! No players remain.")
	}
	e.log.WithFields(logrus.Fields{"lobby": lobbyID, "winner": winner}).Info("game over")
	e.logAction(lobbyID, "", "game_over", map[string]interface{}{"winner": winner})
}

// RemovePlayer handles both an explicit leave and a transport-level
// disconnect. It is idempotent: an absent room or participant is a no-op.
// The last participant leaving destroys the room.
func (e *Engine) RemovePlayer(ctx context.Context, lobbyID, username string) error {
	l, err := e.lookup(ctx, lobbyID)
	if err != nil {
		if err == ErrLobbyNotFound {
			return nil
		}
		return err
	}

	l.Mu.Lock()
	defer l.Mu.Unlock()

	p := l.FindPlayer(username)
	if p == nil {
		return nil
	}
	wasPlaying := p.Status == models.PlayerPlaying
	heldTurn := l.CurrentTurn == username
	wasTarget := l.TargetPlayer == username

	prev := l.Snapshot()
	players := l.Players[:0:0]
	for _, other := range l.Players {
		if other.Username != username {
			players = append(players, other)
		}
	}
	l.Players = players

	if len(l.Players) == 0 {
		e.store.Delete(lobbyID)
		if err := e.repo.Delete(ctx, lobbyID); err != nil {
			e.log.Warnf("delete empty lobby %s: %v", lobbyID, err)
		}
		e.log.WithField("lobby", lobbyID).Info("lobby deleted, last player left")
		return nil
	}

	gameOver := false
	if l.Status == models.GameActive && wasPlaying {
		if l.ActiveCount() <= 1 {
			l.Status = models.GameCompleted
			l.CurrentTurn = ""
			gameOver = true
		} else if wasTarget {
			advanceTarget(l)
		} else if heldTurn {
			AdvanceTurn(l)
		}
	}

	if err := e.persist(ctx, l, prev); err != nil {
		return err
	}

	post := l.Snapshot()
	e.emit(lobbyID, EventPlayerLeft, PlayerLeftPayload{Username: username, Players: post.Players})
	e.system(lobbyID, "playerLeft", fmt.Sprintf("%s has left the lobby", username))
	e.logAction(lobbyID, username, "player_left", nil)

	if gameOver {
		e.finishGame(lobbyID, post)
	}
	return nil
}

// Reset returns a completed game to the waiting state for a rematch: secrets,
// guesses and all turn state are cleared, and every participant (spectators
// included) goes back to waiting.
func (e *Engine) Reset(ctx context.Context, lobbyID string) (*models.Lobby, error) {
	l, err := e.lookup(ctx, lobbyID)
	if err != nil {
		return nil, err
	}

	l.Mu.Lock()
	defer l.Mu.Unlock()

	if l.Status != models.GameCompleted {
		return nil, ErrGameNotCompleted
	}

	prev := l.Snapshot()
	for _, p := range l.Players {
		p.Number = ""
		p.Status = models.PlayerWaiting
	}
	l.Guesses = nil
	l.TargetSequence = nil
	l.CurrentTargetIndex = 0
	l.TargetPlayer = ""
	l.GuessingOrders = nil
	l.GuessingPlayers = nil
	l.CurrentGuessingIndex = 0
	l.CurrentTurn = ""
	l.CurrentRound = 0
	l.Status = models.GameWaiting

	if err := e.persist(ctx, l, prev); err != nil {
		return nil, err
	}

	post := l.Snapshot()
	e.emit(lobbyID, EventLobbyData, LobbyPayload{Lobby: post})
	e.system(lobbyID, "lobbyReset", "The lobby is ready for a rematch.")
	e.logAction(lobbyID, "", "lobby_reset", nil)
	return post, nil
}

// GetLobby returns a consistent snapshot of the room.
func (e *Engine) GetLobby(ctx context.Context, lobbyID string) (*models.Lobby, error) {
	l, err := e.lookup(ctx, lobbyID)
	if err != nil {
		return nil, err
	}
	l.Mu.Lock()
	defer l.Mu.Unlock()
	return l.Snapshot(), nil
}

// GameState returns the in-game view: players, whose turn it is, the current
// target, and the guess history.
func (e *Engine) GameState(ctx context.Context, lobbyID string) (*GameStatePayload, error) {
	l, err := e.lookup(ctx, lobbyID)
	if err != nil {
		return nil, err
	}
	l.Mu.Lock()
	defer l.Mu.Unlock()
	snap := l.Snapshot()
	return &GameStatePayload{
		Players:      snap.Players,
		CurrentTurn:  snap.CurrentTurn,
		TargetPlayer: snap.TargetPlayer,
		Guesses:      snap.Guesses,
	}, nil
}
