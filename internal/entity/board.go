package entity

import (
	"fmt"

	"gridplay/internal/apperror"
)

const (
	EmptyCell Mark = ""
	PlayerX   Mark = "X"
	PlayerO   Mark = "O"
	PlayerTie Mark = "-"

	BoardSize = 9
)

// Mark is the symbol a move places on the board. PlayerTie is only ever
// returned as a game outcome, never stored in a cell.
type Mark string

// Board is the 3x3 grid in row-major order. It is a value type, so plain
// assignment copies all nine cells; historical snapshots never alias a
// live board.
type Board [BoardSize]Mark

// WinCombos lists the 8 winning lines: 3 rows, 3 columns, 2 diagonals.
var WinCombos = [][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

func (that Mark) Opponent() Mark {
	if that == PlayerX {
		return PlayerO
	}
	return PlayerX
}

// ApplyMove returns a new board with the mark placed at cell. The receiver
// is never mutated.
func (that Board) ApplyMove(cell int, mark Mark) (Board, error) {
	if cell < 0 || cell >= BoardSize {
		return that, fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	if that[cell] != EmptyCell {
		return that, fmt.Errorf("%w: cell %d", apperror.ErrCellOccupied, cell)
	}

	that[cell] = mark

	return that, nil
}

// Winner returns the mark occupying a full win line, or EmptyCell when no
// line is complete. Alternating play guarantees at most one winning mark.
func (that Board) Winner() Mark {
	for _, combo := range WinCombos {
		a, b, c := that[combo[0]], that[combo[1]], that[combo[2]]
		if a != EmptyCell && a == b && b == c {
			return a
		}
	}

	return EmptyCell
}

func (that Board) IsFull() bool {
	for _, cell := range that {
		if cell == EmptyCell {
			return false
		}
	}

	return true
}

// IsTerminal reports whether no further moves may be played.
func (that Board) IsTerminal() bool {
	return that.Winner() != EmptyCell || that.IsFull()
}

func (that Board) EmptyCells() []int {
	cells := make([]int, 0, BoardSize)
	for i, cell := range that {
		if cell == EmptyCell {
			cells = append(cells, i)
		}
	}

	return cells
}

// Outcome reports the game result: the winning mark, PlayerTie on a full
// board without a winner, or EmptyCell while the game can continue.
func (that Board) Outcome() Mark {
	if winner := that.Winner(); winner != EmptyCell {
		return winner
	}

	if that.IsFull() {
		return PlayerTie
	}

	return EmptyCell
}
