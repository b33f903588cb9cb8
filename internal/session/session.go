// Package session owns one live game: the board, the timeline of moves,
// the opponent policy and the deferred opponent reply. All transitions are
// serialized on the session mutex; at most one opponent move is ever
// pending, and it is discarded by reset, undo and new-game.
package session

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"gridplay/internal/apperror"
	"gridplay/internal/engine"
	"gridplay/internal/entity"
	"gridplay/internal/timeline"
)

// Observer receives a snapshot after every state transition, including the
// deferred opponent move. It must not call back into the session.
type Observer func(Snapshot)

type Option func(*Session)

// WithBotDelay sets the pause before the opponent reply. Zero applies the
// reply synchronously, which tests rely on.
func WithBotDelay(delay time.Duration) Option {
	return func(s *Session) {
		s.botDelay = delay
	}
}

func WithRand(rng *rand.Rand) Option {
	return func(s *Session) {
		s.rng = rng
	}
}

func WithObserver(observer Observer) Option {
	return func(s *Session) {
		s.observer = observer
	}
}

type Session struct {
	mu     sync.Mutex
	logger *slog.Logger

	id         string
	difficulty entity.Difficulty
	playerMark entity.Mark
	botMark    entity.Mark

	board           entity.Board
	turn            entity.Mark
	live            bool
	randomMovesUsed int

	history *timeline.Timeline
	replay  *timeline.Replay
	policy  *engine.Policy

	rng      *rand.Rand
	botDelay time.Duration
	observer Observer

	// pendingBot and generation implement the discard-on-reset rule: a
	// fired timer re-checks the generation under the lock and aborts when
	// the session moved on.
	pendingBot *time.Timer
	generation uint64
}

// New creates a live session with an empty board. The human always plays X
// and moves first; the opponent policy plays O.
func New(logger *slog.Logger, id string, difficulty entity.Difficulty, opts ...Option) *Session {
	s := &Session{
		logger:     logger.With("component", "session", "sessionID", id),
		id:         id,
		difficulty: difficulty,
		playerMark: entity.PlayerX,
		botMark:    entity.PlayerO,
		turn:       entity.PlayerX,
		live:       true,
		history:    timeline.New(),
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())), //nolint: gosec // it's ok
		botDelay:   0,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.policy = engine.NewPolicy(difficulty, s.rng)

	return s
}

func (that *Session) ID() string {
	return that.id
}

// PlayerMove applies the human move at cell, commits it to the timeline and
// schedules the opponent reply.
func (that *Session) PlayerMove(cell int) (Snapshot, error) {
	that.mu.Lock()

	if !that.live || that.replay != nil {
		snap := that.snapshotLocked()
		that.mu.Unlock()

		return snap, apperror.ErrGameNotLive
	}

	if that.turn != that.playerMark {
		snap := that.snapshotLocked()
		that.mu.Unlock()

		return snap, apperror.ErrNotYourTurn
	}

	board, err := that.board.ApplyMove(cell, that.playerMark)
	if err != nil {
		snap := that.snapshotLocked()
		that.mu.Unlock()

		return snap, fmt.Errorf("failed to apply player move: %w", err)
	}

	that.applyLocked(board, that.playerMark, cell, that.randomMovesUsed)

	if that.live {
		that.scheduleBotLocked()
	}

	snap := that.snapshotLocked()
	that.mu.Unlock()

	that.notify(snap)

	return snap, nil
}

// applyLocked commits a validated move and advances or finishes the game.
func (that *Session) applyLocked(board entity.Board, mark entity.Mark, cell, randomMovesUsed int) {
	that.board = board
	that.randomMovesUsed = randomMovesUsed
	that.history.Commit(timeline.Record{
		Cell:            cell,
		Mark:            mark,
		Board:           board,
		RandomMovesUsed: randomMovesUsed,
	})

	if that.board.IsTerminal() {
		that.live = false
		that.turn = entity.EmptyCell
		that.logger.Info("game finished", "outcome", string(that.board.Outcome()))

		return
	}

	that.turn = mark.Opponent()
}

// scheduleBotLocked arms the deferred opponent reply. The generation
// captured here invalidates the task if the session is reset or undone
// before it fires.
func (that *Session) scheduleBotLocked() {
	generation := that.generation

	if that.botDelay <= 0 {
		that.botMoveLocked(generation)
		return
	}

	that.pendingBot = time.AfterFunc(that.botDelay, func() {
		that.mu.Lock()

		if that.generation != generation {
			that.mu.Unlock()
			return
		}

		that.pendingBot = nil
		that.botMoveLocked(generation)

		snap := that.snapshotLocked()
		that.mu.Unlock()

		that.notify(snap)
	})
}

func (that *Session) botMoveLocked(generation uint64) {
	if that.generation != generation || !that.live || that.turn != that.botMark {
		return
	}

	cell, used, err := that.policy.ChooseMove(that.board, that.botMark, that.randomMovesUsed)
	if err != nil {
		// Unreachable during live play: the game would already be over.
		that.logger.Error("opponent could not move", "error", err)
		return
	}

	board, err := that.board.ApplyMove(cell, that.botMark)
	if err != nil {
		that.logger.Error("opponent move rejected", "cell", cell, "error", err)
		return
	}

	that.applyLocked(board, that.botMark, cell, used)
}

// cancelPendingBotLocked discards the deferred opponent move, if any.
func (that *Session) cancelPendingBotLocked() {
	that.generation++

	if that.pendingBot != nil {
		that.pendingBot.Stop()
		that.pendingBot = nil
	}
}

// Undo pops the newest move, restores the position under it and reactivates
// the session. A pending opponent reply is discarded.
func (that *Session) Undo() (Snapshot, error) {
	that.mu.Lock()

	if that.replay != nil {
		snap := that.snapshotLocked()
		that.mu.Unlock()

		return snap, apperror.ErrNothingToUndo
	}

	top, ok, hasTop := that.history.Undo()
	if !ok {
		snap := that.snapshotLocked()
		that.mu.Unlock()

		return snap, apperror.ErrNothingToUndo
	}

	that.cancelPendingBotLocked()

	if hasTop {
		that.restoreLocked(top)
	} else {
		that.board = entity.Board{}
		that.turn = that.playerMark
		that.randomMovesUsed = 0
	}
	that.live = true

	snap := that.snapshotLocked()
	that.mu.Unlock()

	that.notify(snap)

	return snap, nil
}

// Redo reapplies the move undone first and deactivates the session again if
// the restored position is terminal.
func (that *Session) Redo() (Snapshot, error) {
	that.mu.Lock()

	if that.replay != nil {
		snap := that.snapshotLocked()
		that.mu.Unlock()

		return snap, apperror.ErrNothingToRedo
	}

	record, ok := that.history.Redo()
	if !ok {
		snap := that.snapshotLocked()
		that.mu.Unlock()

		return snap, apperror.ErrNothingToRedo
	}

	that.restoreLocked(record)
	that.live = !that.board.IsTerminal()
	if !that.live {
		that.turn = entity.EmptyCell
	}

	snap := that.snapshotLocked()
	that.mu.Unlock()

	that.notify(snap)

	return snap, nil
}

func (that *Session) restoreLocked(record timeline.Record) {
	that.board = record.Board
	that.turn = record.Mark.Opponent()
	that.randomMovesUsed = record.RandomMovesUsed
}

// EnterReview freezes the finished game and opens a replay cursor at the
// empty board. The live game is not resumable afterward; reset starts over.
func (that *Session) EnterReview() (Snapshot, error) {
	that.mu.Lock()

	if that.live {
		snap := that.snapshotLocked()
		that.mu.Unlock()

		return snap, apperror.ErrGameNotFinished
	}

	if that.history.LogLen() == 0 {
		snap := that.snapshotLocked()
		that.mu.Unlock()

		return snap, apperror.ErrNoMovesToReview
	}

	that.cancelPendingBotLocked()
	that.replay = timeline.NewReplay(that.history.Log())
	that.randomMovesUsed = 0

	snap := that.snapshotLocked()
	that.mu.Unlock()

	that.notify(snap)

	return snap, nil
}

// ReviewStepForward advances the replay cursor. At the end of the log it is
// a silent no-op.
func (that *Session) ReviewStepForward() (Snapshot, error) {
	return that.reviewStep(func(r *timeline.Replay) { r.StepForward() })
}

// ReviewStepBackward rewinds the replay cursor, down to the empty board.
func (that *Session) ReviewStepBackward() (Snapshot, error) {
	return that.reviewStep(func(r *timeline.Replay) { r.StepBackward() })
}

func (that *Session) reviewStep(step func(*timeline.Replay)) (Snapshot, error) {
	that.mu.Lock()

	if that.replay == nil {
		snap := that.snapshotLocked()
		that.mu.Unlock()

		return snap, apperror.ErrNoMovesToReview
	}

	step(that.replay)

	snap := that.snapshotLocked()
	that.mu.Unlock()

	that.notify(snap)

	return snap, nil
}

// Reset starts a fresh game with the same difficulty, discarding the
// timeline, the replay cursor and any pending opponent move.
func (that *Session) Reset() Snapshot {
	that.mu.Lock()
	difficulty := that.difficulty
	that.mu.Unlock()

	return that.Restart(difficulty)
}

// Restart starts a fresh game with a new difficulty.
func (that *Session) Restart(difficulty entity.Difficulty) Snapshot {
	that.mu.Lock()

	that.cancelPendingBotLocked()

	that.difficulty = difficulty
	that.policy = engine.NewPolicy(difficulty, that.rng)
	that.board = entity.Board{}
	that.turn = that.playerMark
	that.live = true
	that.randomMovesUsed = 0
	that.history.Reset()
	that.replay = nil

	snap := that.snapshotLocked()
	that.mu.Unlock()

	that.notify(snap)

	return snap
}

func (that *Session) notify(snap Snapshot) {
	if that.observer != nil {
		that.observer(snap)
	}
}
