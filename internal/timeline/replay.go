package timeline

import "gridplay/internal/entity"

// Replay is a read cursor over a captured move log. Index -1 stands for
// the empty board before the first move. Stepping never mutates the log or
// the timeline it was captured from.
type Replay struct {
	log   []Record
	index int
}

func NewReplay(log []Record) *Replay {
	return &Replay{
		log:   log,
		index: -1,
	}
}

// StepForward advances the cursor by one move. ok=false at the end of the
// log, in which case the current board is returned unchanged.
func (that *Replay) StepForward() (entity.Board, bool) {
	if that.index >= len(that.log)-1 {
		return that.Board(), false
	}

	that.index++

	return that.Board(), true
}

// StepBackward rewinds the cursor by one move, down to the empty board at
// index -1. ok=false when already at the start.
func (that *Replay) StepBackward() (entity.Board, bool) {
	if that.index <= -1 {
		return that.Board(), false
	}

	that.index--

	return that.Board(), true
}

// Board is the position at the cursor: the snapshot of the move under the
// cursor, or the empty board at index -1.
func (that *Replay) Board() entity.Board {
	if that.index == -1 {
		return entity.Board{}
	}

	return that.log[that.index].Board
}

func (that *Replay) Index() int {
	return that.index
}

func (that *Replay) CanStepForward() bool {
	return that.index < len(that.log)-1
}

func (that *Replay) CanStepBackward() bool {
	return that.index > -1
}
