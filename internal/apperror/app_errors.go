package apperror

import "errors"

var (
	ErrGameNotLive     = errors.New("game is not live")
	ErrGameNotFinished = errors.New("game is not finished yet")
	ErrNotYourTurn     = errors.New("it's not your turn")
	ErrCellOccupied    = errors.New("cell is already occupied")
	ErrInvalidCell     = errors.New("invalid cell index")
	ErrNothingToUndo   = errors.New("nothing to undo")
	ErrNothingToRedo   = errors.New("nothing to redo")
	ErrNoMovesToReview = errors.New("no moves to review")
	ErrSessionNotFound = errors.New("session not found")
)
