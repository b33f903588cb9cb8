package engine

import (
	"errors"
	"math/rand"

	"gridplay/internal/entity"
)

var ErrNoAvailableMoves = errors.New("no available moves")

// Policy chooses opponent moves for a difficulty tier. The zero budget of
// hard difficulty makes it a pure minimax player; easy and medium spend
// their random-move budget on otherwise-neutral positions first.
type Policy struct {
	difficulty entity.Difficulty
	rng        *rand.Rand
}

func NewPolicy(difficulty entity.Difficulty, rng *rand.Rand) *Policy {
	return &Policy{
		difficulty: difficulty,
		rng:        rng,
	}
}

// ChooseMove picks the cell for botMark and returns the updated count of
// random moves spent. Evaluation order, first match wins:
//
//  1. a move that wins immediately,
//  2. a move that blocks the human's immediate win,
//  3. the difficulty policy: minimax, or a uniformly random cell while
//     randomMovesUsed is under the tier budget.
//
// Win and block checks always run before randomization, so the random
// budget never gives away a decided position.
func (that *Policy) ChooseMove(board entity.Board, botMark entity.Mark, randomMovesUsed int) (int, int, error) {
	cells := board.EmptyCells()
	if len(cells) == 0 {
		return NoMove, randomMovesUsed, ErrNoAvailableMoves
	}

	if cell, ok := winningCell(board, botMark, cells); ok {
		return cell, randomMovesUsed, nil
	}

	if cell, ok := winningCell(board, botMark.Opponent(), cells); ok {
		return cell, randomMovesUsed, nil
	}

	if randomMovesUsed < that.difficulty.RandomMoveBudget() {
		cell := cells[that.rng.Intn(len(cells))]
		return cell, randomMovesUsed + 1, nil
	}

	return Evaluate(board, botMark).Cell, randomMovesUsed, nil
}

// winningCell finds the lowest-index empty cell that completes a line for
// mark.
func winningCell(board entity.Board, mark entity.Mark, cells []int) (int, bool) {
	for _, cell := range cells {
		next := board
		next[cell] = mark

		if next.Winner() == mark {
			return cell, true
		}
	}

	return NoMove, false
}
