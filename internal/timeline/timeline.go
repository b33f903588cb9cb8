// Package timeline keeps the move history of one game: a LIFO undo stack,
// a FIFO redo queue and an append-only full log consumed by replay. During
// live play the undo stack (oldest to newest) is always the not-yet-undone
// prefix of the full log.
package timeline

import "gridplay/internal/entity"

// Record is one committed move. The board field is the full position after
// the move was applied; being an array value it is a deep copy, so later
// play cannot corrupt it. Records are never mutated after creation.
type Record struct {
	Cell            int          `json:"cell"`
	Mark            entity.Mark  `json:"mark"`
	Board           entity.Board `json:"board"`
	RandomMovesUsed int          `json:"random_moves_used"`
}

type Timeline struct {
	undoStack []Record
	redoQueue []Record
	fullLog   []Record
}

func New() *Timeline {
	return &Timeline{}
}

// Commit records a brand-new move: it goes on top of the undo stack and at
// the end of the full log, and any undone moves waiting for redo are
// discarded for good.
func (that *Timeline) Commit(record Record) {
	that.undoStack = append(that.undoStack, record)
	that.fullLog = append(that.fullLog, record)
	that.redoQueue = that.redoQueue[:0]
}

// Undo moves the newest record to the redo queue tail and truncates the
// full log. It returns the record now on top of the stack, with ok=false
// when the undo stack was already empty and top=false when the stack is
// empty after the undo (the caller restores the initial position then).
func (that *Timeline) Undo() (Record, bool, bool) {
	if len(that.undoStack) == 0 {
		return Record{}, false, false
	}

	last := len(that.undoStack) - 1
	undone := that.undoStack[last]
	that.undoStack = that.undoStack[:last]
	that.redoQueue = append(that.redoQueue, undone)
	that.fullLog = that.fullLog[:len(that.fullLog)-1]

	if len(that.undoStack) == 0 {
		return Record{}, true, false
	}

	return that.undoStack[len(that.undoStack)-1], true, true
}

// Redo takes the record at the head of the redo queue (the one undone
// first), puts it back on the undo stack and re-appends it to the full
// log. ok=false when there is nothing to redo.
func (that *Timeline) Redo() (Record, bool) {
	if len(that.redoQueue) == 0 {
		return Record{}, false
	}

	record := that.redoQueue[0]
	that.redoQueue = that.redoQueue[1:]
	that.undoStack = append(that.undoStack, record)
	that.fullLog = append(that.fullLog, record)

	return record, true
}

func (that *Timeline) Reset() {
	that.undoStack = nil
	that.redoQueue = nil
	that.fullLog = nil
}

// Len is the current move count: the number of moves standing on the board.
func (that *Timeline) Len() int {
	return len(that.undoStack)
}

func (that *Timeline) CanUndo() bool {
	return len(that.undoStack) > 0
}

func (that *Timeline) CanRedo() bool {
	return len(that.redoQueue) > 0
}

func (that *Timeline) LogLen() int {
	return len(that.fullLog)
}

// Log returns a copy of the full log for the replay navigator, so that a
// running replay is unaffected by later timeline mutation.
func (that *Timeline) Log() []Record {
	log := make([]Record, len(that.fullLog))
	copy(log, that.fullLog)

	return log
}
