package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridplay/internal/entity"
	"gridplay/internal/session"
	"gridplay/testing/suite"
)

func TestSnapshotRepository_Save(t *testing.T) {
	ctx, st := suite.New(t)

	snapshotRepo := NewSnapshotRepository(st.Storage)

	// Given: a snapshot of a live session
	snapshot := session.Snapshot{
		ID:         "123",
		Live:       true,
		Turn:       entity.PlayerX,
		Difficulty: entity.DifficultyHard,
	}

	// When: Save is called
	err := snapshotRepo.Save(ctx, snapshot)

	// Then: no error should be returned
	require.NoError(t, err)
}

func TestSnapshotRepository_GetByID(t *testing.T) {
	t.Run("GetByID_Success", func(t *testing.T) {
		ctx, st := suite.New(t)

		snapshotRepo := NewSnapshotRepository(st.Storage)

		// Given: a stored snapshot with one move on the board
		snapshot := session.Snapshot{
			ID:         "123",
			Live:       true,
			Turn:       entity.PlayerO,
			Difficulty: entity.DifficultyMedium,
			MoveCount:  1,
			CanUndo:    true,
		}
		snapshot.Board[4] = entity.PlayerX

		err := snapshotRepo.Save(ctx, snapshot)
		require.NoError(t, err)

		// When: GetByID is called with the existing ID
		retrieved, err := snapshotRepo.GetByID(ctx, snapshot.ID)

		// Then: the retrieved snapshot should match the saved one
		require.NoError(t, err)
		assert.Equal(t, snapshot, retrieved)
	})

	t.Run("GetByID_NotFound", func(t *testing.T) {
		ctx, st := suite.New(t)

		snapshotRepo := NewSnapshotRepository(st.Storage)

		// When: GetByID is called with an unknown ID
		_, err := snapshotRepo.GetByID(ctx, "9999999")

		// Then: ErrSnapshotNotFound should be returned
		assert.ErrorIs(t, err, ErrSnapshotNotFound)
	})
}

func TestSnapshotRepository_DeleteByID(t *testing.T) {
	ctx, st := suite.New(t)

	snapshotRepo := NewSnapshotRepository(st.Storage)

	// Given: a stored snapshot
	snapshot := session.Snapshot{ID: "123", Live: true}
	err := snapshotRepo.Save(ctx, snapshot)
	require.NoError(t, err)

	// When: DeleteByID is called
	err = snapshotRepo.DeleteByID(ctx, snapshot.ID)
	require.NoError(t, err)

	// Then: the snapshot is gone
	_, err = snapshotRepo.GetByID(ctx, snapshot.ID)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}
