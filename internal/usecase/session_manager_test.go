package usecase

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridplay/internal/apperror"
	"gridplay/internal/entity"
	"gridplay/internal/repository"
	"gridplay/internal/session"
)

type fakeSnapshotRepo struct {
	mu        sync.Mutex
	snapshots map[string]session.Snapshot
}

func newFakeSnapshotRepo() *fakeSnapshotRepo {
	return &fakeSnapshotRepo{snapshots: make(map[string]session.Snapshot)}
}

func (that *fakeSnapshotRepo) Save(_ context.Context, snapshot session.Snapshot) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.snapshots[snapshot.ID] = snapshot

	return nil
}

func (that *fakeSnapshotRepo) GetByID(_ context.Context, id string) (session.Snapshot, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	snapshot, ok := that.snapshots[id]
	if !ok {
		return session.Snapshot{}, repository.ErrSnapshotNotFound
	}

	return snapshot, nil
}

func (that *fakeSnapshotRepo) DeleteByID(_ context.Context, id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.snapshots, id)

	return nil
}

type fakeResultRepo struct {
	mu      sync.Mutex
	results []repository.Result
}

func (that *fakeResultRepo) Save(_ context.Context, result repository.Result) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.results = append(that.results, result)

	return nil
}

func (that *fakeResultRepo) ListBySession(_ context.Context, sessionID string) ([]repository.Result, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	var results []repository.Result
	for _, result := range that.results {
		if result.SessionID == sessionID {
			results = append(results, result)
		}
	}

	return results, nil
}

func newTestManager(t *testing.T) (*SessionManager, *fakeSnapshotRepo, *fakeResultRepo) {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	snapshotRepo := newFakeSnapshotRepo()
	resultRepo := &fakeResultRepo{}

	return NewSessionManager(logger, snapshotRepo, resultRepo, 0, entity.DifficultyHard), snapshotRepo, resultRepo
}

func TestSessionManager_StartGame(t *testing.T) {
	ctx := context.Background()

	t.Run("Creates a session with a generated ID and persists it", func(t *testing.T) {
		// Given: a manager with empty storage
		manager, snapshotRepo, _ := newTestManager(t)

		// When: starting a game without a session ID
		snap, err := manager.StartGame(ctx, "", "medium")

		// Then: a live session exists and its snapshot is stored
		require.NoError(t, err)
		assert.NotEmpty(t, snap.ID)
		assert.True(t, snap.Live)
		assert.Equal(t, entity.DifficultyMedium, snap.Difficulty)

		stored, err := snapshotRepo.GetByID(ctx, snap.ID)
		require.NoError(t, err)
		assert.Equal(t, snap, stored)
	})

	t.Run("Falls back to the default difficulty", func(t *testing.T) {
		manager, _, _ := newTestManager(t)

		snap, err := manager.StartGame(ctx, "", "")

		require.NoError(t, err)
		assert.Equal(t, entity.DifficultyHard, snap.Difficulty)
	})

	t.Run("Rejects an unknown difficulty", func(t *testing.T) {
		manager, _, _ := newTestManager(t)

		_, err := manager.StartGame(ctx, "", "nightmare")

		assert.ErrorIs(t, err, entity.ErrUnknownDifficulty)
	})

	t.Run("Restarts an existing session with a new difficulty", func(t *testing.T) {
		// Given: a session with one move played
		manager, _, _ := newTestManager(t)
		snap, err := manager.StartGame(ctx, "abc", "hard")
		require.NoError(t, err)
		_, err = manager.PlayerMove(ctx, snap.ID, 0)
		require.NoError(t, err)

		// When: starting again with the same ID
		restarted, err := manager.StartGame(ctx, "abc", "easy")

		// Then: the board is fresh and the difficulty changed
		require.NoError(t, err)
		assert.Equal(t, "abc", restarted.ID)
		assert.Equal(t, entity.Board{}, restarted.Board)
		assert.Equal(t, 0, restarted.MoveCount)
		assert.Equal(t, entity.DifficultyEasy, restarted.Difficulty)
	})
}

func TestSessionManager_PlayerMove(t *testing.T) {
	ctx := context.Background()

	t.Run("Applies the move and persists the latest snapshot", func(t *testing.T) {
		// Given: a started session
		manager, snapshotRepo, _ := newTestManager(t)
		snap, err := manager.StartGame(ctx, "", "hard")
		require.NoError(t, err)

		// When: making a move
		moved, err := manager.PlayerMove(ctx, snap.ID, 4)

		// Then: the human move plus the opponent reply are on the board
		require.NoError(t, err)
		assert.Equal(t, 2, moved.MoveCount)

		stored, err := snapshotRepo.GetByID(ctx, snap.ID)
		require.NoError(t, err)
		assert.Equal(t, moved, stored)
	})

	t.Run("Rejects a move for an unknown session", func(t *testing.T) {
		manager, _, _ := newTestManager(t)

		_, err := manager.PlayerMove(ctx, "missing", 0)

		assert.ErrorIs(t, err, apperror.ErrSessionNotFound)
	})
}

func TestSessionManager_FinishedGameIsArchived(t *testing.T) {
	ctx := context.Background()

	t.Run("Writes one result row when the game ends", func(t *testing.T) {
		// Given: a started hard session
		manager, _, _ := newTestManager(t)
		snap, err := manager.StartGame(ctx, "", "hard")
		require.NoError(t, err)

		// When: playing lowest-free-cell until the game ends
		for snap.Live {
			snap, err = manager.PlayerMove(ctx, snap.ID, snap.Board.EmptyCells()[0])
			require.NoError(t, err)
		}

		// Then: exactly one archived result with the final outcome
		results, err := manager.Results(ctx, snap.ID)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, snap.Outcome, results[0].Outcome)
		assert.Equal(t, snap.MoveCount, results[0].Moves)
		assert.Equal(t, entity.DifficultyHard, results[0].Difficulty)
	})
}

func TestSessionManager_ReviewFlow(t *testing.T) {
	ctx := context.Background()

	t.Run("Walks a finished game from the empty board", func(t *testing.T) {
		// Given: a finished game
		manager, _, _ := newTestManager(t)
		snap, err := manager.StartGame(ctx, "", "hard")
		require.NoError(t, err)
		for snap.Live {
			snap, err = manager.PlayerMove(ctx, snap.ID, snap.Board.EmptyCells()[0])
			require.NoError(t, err)
		}
		require.True(t, snap.CanReview)

		// When: entering review and stepping forward once
		review, err := manager.EnterReview(ctx, snap.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.Board{}, review.Board)

		stepped, err := manager.ReviewStepForward(ctx, snap.ID)
		require.NoError(t, err)

		// Then: the first move is on the board
		assert.Equal(t, 0, stepped.ReviewIndex)
		assert.Equal(t, 1, len(stepped.Board)-len(stepped.Board.EmptyCells()))

		// And stepping back returns to the empty board
		back, err := manager.ReviewStepBackward(ctx, snap.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.Board{}, back.Board)
	})
}

func TestSessionManager_GetSnapshot(t *testing.T) {
	ctx := context.Background()

	t.Run("Prefers the live session and falls back to storage", func(t *testing.T) {
		// Given: a live session and a stored-only snapshot
		manager, snapshotRepo, _ := newTestManager(t)
		live, err := manager.StartGame(ctx, "", "hard")
		require.NoError(t, err)

		stored := session.Snapshot{ID: "cold", Live: false}
		require.NoError(t, snapshotRepo.Save(ctx, stored))

		// When/Then: the live session is served from memory
		snap, err := manager.GetSnapshot(ctx, live.ID)
		require.NoError(t, err)
		assert.Equal(t, live.ID, snap.ID)

		// And the cold one comes from the repository
		snap, err = manager.GetSnapshot(ctx, "cold")
		require.NoError(t, err)
		assert.Equal(t, stored, snap)

		// And an unknown ID is reported as missing
		_, err = manager.GetSnapshot(ctx, "missing")
		assert.ErrorIs(t, err, apperror.ErrSessionNotFound)
	})
}

func TestSessionManager_UndoRedoReset(t *testing.T) {
	ctx := context.Background()

	t.Run("Undo and redo round-trip through the manager", func(t *testing.T) {
		manager, _, _ := newTestManager(t)
		snap, err := manager.StartGame(ctx, "", "hard")
		require.NoError(t, err)

		before, err := manager.PlayerMove(ctx, snap.ID, 0)
		require.NoError(t, err)

		_, err = manager.Undo(ctx, snap.ID)
		require.NoError(t, err)

		after, err := manager.Redo(ctx, snap.ID)
		require.NoError(t, err)
		assert.Equal(t, before.Board, after.Board)
	})

	t.Run("Reset produces a fresh board", func(t *testing.T) {
		manager, _, _ := newTestManager(t)
		snap, err := manager.StartGame(ctx, "", "hard")
		require.NoError(t, err)

		_, err = manager.PlayerMove(ctx, snap.ID, 0)
		require.NoError(t, err)

		fresh, err := manager.ResetGame(ctx, snap.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.Board{}, fresh.Board)
		assert.True(t, fresh.Live)
	})
}
