package engine

import "gridplay/internal/entity"

const (
	scoreWin  = 10
	scoreLoss = -10
	scoreDraw = 0

	// NoMove is reported when the board is terminal and no cell can be chosen.
	NoMove = -1
)

// Evaluation is the result of an exhaustive search from one position.
type Evaluation struct {
	Cell  int
	Score int
}

// Evaluate runs a full-depth minimax over every empty cell and returns the
// best move for botMark together with its score. The bot always maximizes
// and the human mark always minimizes. Scores carry no depth discount, so
// ties between equally scored cells are broken by the lowest cell index.
//
// On a terminal board Evaluate returns {Cell: NoMove}; callers must not
// select a move in that case.
func Evaluate(board entity.Board, botMark entity.Mark) Evaluation {
	return search(board, botMark, botMark)
}

func search(board entity.Board, turn, botMark entity.Mark) Evaluation {
	switch board.Winner() {
	case botMark:
		return Evaluation{Cell: NoMove, Score: scoreWin}
	case botMark.Opponent():
		return Evaluation{Cell: NoMove, Score: scoreLoss}
	}

	cells := board.EmptyCells()
	if len(cells) == 0 {
		return Evaluation{Cell: NoMove, Score: scoreDraw}
	}

	best := Evaluation{Cell: NoMove}
	for _, cell := range cells {
		next := board
		next[cell] = turn

		result := search(next, turn.Opponent(), botMark)

		if best.Cell == NoMove ||
			(turn == botMark && result.Score > best.Score) ||
			(turn != botMark && result.Score < best.Score) {
			best = Evaluation{Cell: cell, Score: result.Score}
		}
	}

	return best
}
