package engine

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridplay/internal/entity"
)

func newTestPolicy(difficulty entity.Difficulty) *Policy {
	return NewPolicy(difficulty, rand.New(rand.NewSource(1)))
}

func TestPolicy_ChooseMove(t *testing.T) {
	t.Run("Takes an immediate win before anything else", func(t *testing.T) {
		// Given: bot X can win at cell 2 while O also threatens at cell 5
		board := entity.Board{
			entity.PlayerX, entity.PlayerX, entity.EmptyCell,
			entity.PlayerO, entity.PlayerO, entity.EmptyCell,
			entity.EmptyCell, entity.EmptyCell, entity.EmptyCell,
		}
		policy := newTestPolicy(entity.DifficultyEasy)

		// When: choosing a move with random budget still available
		cell, used, err := policy.ChooseMove(board, entity.PlayerX, 0)

		// Then: the winning cell is taken and the budget is untouched
		require.NoError(t, err)
		assert.Equal(t, 2, cell)
		assert.Equal(t, 0, used)
	})

	t.Run("Blocks the human's immediate win", func(t *testing.T) {
		// Given: human X has two in a row at cells 0 and 1
		board := entity.Board{
			entity.PlayerX, entity.PlayerX, entity.EmptyCell,
			entity.EmptyCell, entity.PlayerO, entity.EmptyCell,
			entity.EmptyCell, entity.EmptyCell, entity.EmptyCell,
		}
		policy := newTestPolicy(entity.DifficultyEasy)

		// When: the bot (O) moves, even with random budget left
		cell, used, err := policy.ChooseMove(board, entity.PlayerO, 0)

		// Then: the block at cell 2 overrides randomization
		require.NoError(t, err)
		assert.Equal(t, 2, cell)
		assert.Equal(t, 0, used)
	})

	t.Run("Hard always searches", func(t *testing.T) {
		// Given: a neutral position with X in a corner
		board := entity.Board{entity.PlayerX}
		policy := newTestPolicy(entity.DifficultyHard)

		cell, used, err := policy.ChooseMove(board, entity.PlayerO, 0)

		// Then: the move matches the search result and no budget is spent
		require.NoError(t, err)
		assert.Equal(t, Evaluate(board, entity.PlayerO).Cell, cell)
		assert.Equal(t, 0, used)
	})

	t.Run("Medium spends one random move then searches", func(t *testing.T) {
		// Given: a fresh game where the bot moves first
		board := entity.Board{}
		policy := newTestPolicy(entity.DifficultyMedium)

		// When: choosing the first move
		first, used, err := policy.ChooseMove(board, entity.PlayerO, 0)

		// Then: any empty cell may come up and the budget is spent
		require.NoError(t, err)
		assert.Contains(t, board.EmptyCells(), first)
		assert.Equal(t, 1, used)

		// When: choosing again after a human reply, with the budget spent
		next := board
		next[first] = entity.PlayerO
		humanCell := next.EmptyCells()[0]
		next[humanCell] = entity.PlayerX

		second, used, err := policy.ChooseMove(next, entity.PlayerO, used)

		// Then: the move is the search result, not another random pick
		require.NoError(t, err)
		assert.Equal(t, Evaluate(next, entity.PlayerO).Cell, second)
		assert.Equal(t, 1, used)
	})

	t.Run("Easy spends two random moves", func(t *testing.T) {
		board := entity.Board{entity.PlayerX}
		policy := newTestPolicy(entity.DifficultyEasy)

		_, used, err := policy.ChooseMove(board, entity.PlayerO, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, used)

		_, used, err = policy.ChooseMove(board, entity.PlayerO, used)
		require.NoError(t, err)
		assert.Equal(t, 2, used)

		cell, used, err := policy.ChooseMove(board, entity.PlayerO, used)
		require.NoError(t, err)
		assert.Equal(t, 2, used)
		assert.Equal(t, Evaluate(board, entity.PlayerO).Cell, cell)
	})

	t.Run("Random pick is uniform over all empty cells", func(t *testing.T) {
		// Given: a neutral position where neither side can win next move
		board := entity.Board{entity.PlayerX}
		board[4] = entity.PlayerO
		free := board.EmptyCells()
		require.Len(t, free, 7)

		policy := NewPolicy(entity.DifficultyEasy, rand.New(rand.NewSource(42)))

		// When: sampling many random picks
		const samples = 7000
		seen := make(map[int]int)
		for i := 0; i < samples; i++ {
			cell, _, err := policy.ChooseMove(board, entity.PlayerO, 0)
			require.NoError(t, err)
			seen[cell]++
		}

		// Then: every free cell is chosen roughly equally often
		for _, cell := range free {
			assert.InDelta(t, samples/len(free), seen[cell], 140, "cell %d", cell)
		}
	})

	t.Run("Fails on a full board", func(t *testing.T) {
		board := entity.Board{
			entity.PlayerX, entity.PlayerO, entity.PlayerX,
			entity.PlayerO, entity.PlayerX, entity.PlayerO,
			entity.PlayerO, entity.PlayerX, entity.PlayerO,
		}
		policy := newTestPolicy(entity.DifficultyHard)

		_, _, err := policy.ChooseMove(board, entity.PlayerO, 0)

		assert.ErrorIs(t, err, ErrNoAvailableMoves)
	})
}
