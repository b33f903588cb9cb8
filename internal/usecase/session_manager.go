package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"gridplay/internal/apperror"
	"gridplay/internal/entity"
	"gridplay/internal/repository"
	"gridplay/internal/session"
)

const persistTimeout = 5 * time.Second

type snapshotRepo interface {
	Save(ctx context.Context, snapshot session.Snapshot) error
	GetByID(ctx context.Context, id string) (session.Snapshot, error)
	DeleteByID(ctx context.Context, id string) error
}

type resultRepo interface {
	Save(ctx context.Context, result repository.Result) error
	ListBySession(ctx context.Context, sessionID string) ([]repository.Result, error)
}

// SessionManager owns every live session, persists their snapshots after
// each transition and archives finished games. Transports call its command
// methods; pushes to connected clients go through the update callback.
type SessionManager struct {
	logger *slog.Logger

	snapshotRepo snapshotRepo
	resultRepo   resultRepo

	botDelay          time.Duration
	defaultDifficulty entity.Difficulty

	mu       sync.RWMutex
	sessions map[string]*session.Session
	archived map[string]bool

	onUpdate session.Observer
}

func NewSessionManager(logger *slog.Logger, snapshotRepo snapshotRepo, resultRepo resultRepo, botDelay time.Duration, defaultDifficulty entity.Difficulty) *SessionManager {
	return &SessionManager{
		logger: logger.With("component", "session-manager"),

		snapshotRepo: snapshotRepo,
		resultRepo:   resultRepo,

		botDelay:          botDelay,
		defaultDifficulty: defaultDifficulty,

		sessions: make(map[string]*session.Session),
		archived: make(map[string]bool),
	}
}

// SetUpdateCallback registers the push channel for snapshot updates. It
// must be called before the first session is created.
func (that *SessionManager) SetUpdateCallback(onUpdate session.Observer) {
	that.onUpdate = onUpdate
}

// StartGame creates a session with the given difficulty, or restarts an
// existing one when sessionID is already known. An empty sessionID receives
// a generated one; an empty difficulty falls back to the configured default.
func (that *SessionManager) StartGame(ctx context.Context, sessionID, rawDifficulty string) (session.Snapshot, error) {
	difficulty := that.defaultDifficulty
	if rawDifficulty != "" {
		parsed, err := entity.ParseDifficulty(rawDifficulty)
		if err != nil {
			return session.Snapshot{}, fmt.Errorf("failed to parse difficulty: %w", err)
		}
		difficulty = parsed
	}

	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	that.mu.Lock()
	existing, ok := that.sessions[sessionID]
	if !ok {
		existing = session.New(that.logger, sessionID, difficulty,
			session.WithBotDelay(that.botDelay),
			session.WithObserver(that.observe))
		that.sessions[sessionID] = existing
		that.mu.Unlock()

		snap := existing.Snapshot()
		that.persist(ctx, snap)

		return snap, nil
	}
	that.mu.Unlock()

	// Restart notifies the observer, which persists the fresh snapshot.
	return existing.Restart(difficulty), nil
}

func (that *SessionManager) PlayerMove(ctx context.Context, sessionID string, cell int) (session.Snapshot, error) {
	liveSession, err := that.getSession(sessionID)
	if err != nil {
		return session.Snapshot{}, err
	}

	snap, err := liveSession.PlayerMove(cell)
	if err != nil {
		return snap, fmt.Errorf("failed to make turn: %w", err)
	}

	return snap, nil
}

func (that *SessionManager) Undo(ctx context.Context, sessionID string) (session.Snapshot, error) {
	liveSession, err := that.getSession(sessionID)
	if err != nil {
		return session.Snapshot{}, err
	}

	return liveSession.Undo()
}

func (that *SessionManager) Redo(ctx context.Context, sessionID string) (session.Snapshot, error) {
	liveSession, err := that.getSession(sessionID)
	if err != nil {
		return session.Snapshot{}, err
	}

	return liveSession.Redo()
}

func (that *SessionManager) EnterReview(ctx context.Context, sessionID string) (session.Snapshot, error) {
	liveSession, err := that.getSession(sessionID)
	if err != nil {
		return session.Snapshot{}, err
	}

	return liveSession.EnterReview()
}

func (that *SessionManager) ReviewStepForward(ctx context.Context, sessionID string) (session.Snapshot, error) {
	liveSession, err := that.getSession(sessionID)
	if err != nil {
		return session.Snapshot{}, err
	}

	return liveSession.ReviewStepForward()
}

func (that *SessionManager) ReviewStepBackward(ctx context.Context, sessionID string) (session.Snapshot, error) {
	liveSession, err := that.getSession(sessionID)
	if err != nil {
		return session.Snapshot{}, err
	}

	return liveSession.ReviewStepBackward()
}

func (that *SessionManager) ResetGame(ctx context.Context, sessionID string) (session.Snapshot, error) {
	liveSession, err := that.getSession(sessionID)
	if err != nil {
		return session.Snapshot{}, err
	}

	return liveSession.Reset(), nil
}

// GetSnapshot answers reads from the live session when available, falling
// back to the stored snapshot for reconnecting clients.
func (that *SessionManager) GetSnapshot(ctx context.Context, sessionID string) (session.Snapshot, error) {
	liveSession, err := that.getSession(sessionID)
	if err == nil {
		return liveSession.Snapshot(), nil
	}

	snap, repoErr := that.snapshotRepo.GetByID(ctx, sessionID)
	if errors.Is(repoErr, repository.ErrSnapshotNotFound) {
		return session.Snapshot{}, apperror.ErrSessionNotFound
	}
	if repoErr != nil {
		return session.Snapshot{}, fmt.Errorf("failed to get snapshot: %w", repoErr)
	}

	return snap, nil
}

// Results lists the archived finished games of a session.
func (that *SessionManager) Results(ctx context.Context, sessionID string) ([]repository.Result, error) {
	results, err := that.resultRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}

	return results, nil
}

func (that *SessionManager) getSession(sessionID string) (*session.Session, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	liveSession, ok := that.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrSessionNotFound, sessionID)
	}

	return liveSession, nil
}

// observe runs after every session transition, including deferred opponent
// moves: it persists the snapshot, archives a newly finished game and
// pushes the update to connected clients.
func (that *SessionManager) observe(snap session.Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	that.persist(ctx, snap)
	that.archiveIfFinished(ctx, snap)

	if that.onUpdate != nil {
		that.onUpdate(snap)
	}
}

func (that *SessionManager) persist(ctx context.Context, snap session.Snapshot) {
	if err := that.snapshotRepo.Save(ctx, snap); err != nil {
		that.logger.Error("failed to persist snapshot", "sessionID", snap.ID, "error", err)
	}
}

// archiveIfFinished writes one result row per game end. Undo reactivates
// the game and clears the marker, so a game finished again after undo/redo
// is archived again.
func (that *SessionManager) archiveIfFinished(ctx context.Context, snap session.Snapshot) {
	that.mu.Lock()
	wasArchived := that.archived[snap.ID]

	switch {
	case snap.Live:
		that.archived[snap.ID] = false
		that.mu.Unlock()
		return
	case snap.InReview, wasArchived, snap.Outcome == entity.EmptyCell:
		that.mu.Unlock()
		return
	}

	that.archived[snap.ID] = true
	that.mu.Unlock()

	result := repository.Result{
		SessionID:  snap.ID,
		Difficulty: snap.Difficulty,
		Outcome:    snap.Outcome,
		Moves:      snap.MoveCount,
		FinishedAt: time.Now().UTC(),
	}

	if err := that.resultRepo.Save(ctx, result); err != nil {
		that.logger.Error("failed to archive result", "sessionID", snap.ID, "error", err)
	}
}
