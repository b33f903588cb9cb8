package session

import "gridplay/internal/entity"

// Snapshot is the observable state of a session: everything the UI layer
// needs to render a transition, including the affordance flags for its
// undo/redo/review controls.
type Snapshot struct {
	ID              string            `json:"id"`
	Board           entity.Board      `json:"board"`
	Turn            entity.Mark       `json:"player_turn,omitempty"`
	Live            bool              `json:"live"`
	InReview        bool              `json:"in_review"`
	Outcome         entity.Mark       `json:"outcome,omitempty"`
	Difficulty      entity.Difficulty `json:"difficulty"`
	MoveCount       int               `json:"move_count"`
	RandomMovesUsed int               `json:"random_moves_used"`
	CanUndo         bool              `json:"can_undo"`
	CanRedo         bool              `json:"can_redo"`
	CanReview       bool              `json:"can_review"`
	ReviewIndex     int               `json:"review_index"`
	CanStepForward  bool              `json:"can_step_forward"`
	CanStepBackward bool              `json:"can_step_backward"`
}

// Snapshot captures the current state under the session lock.
func (that *Session) Snapshot() Snapshot {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.snapshotLocked()
}

func (that *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:              that.id,
		Board:           that.board,
		Turn:            that.turn,
		Live:            that.live,
		Difficulty:      that.difficulty,
		MoveCount:       that.history.Len(),
		RandomMovesUsed: that.randomMovesUsed,
		CanUndo:         that.history.CanUndo() && that.replay == nil,
		CanRedo:         that.history.CanRedo() && that.replay == nil,
		CanReview:       !that.live && that.history.LogLen() > 0 && that.replay == nil,
		ReviewIndex:     -1,
	}

	if !that.live {
		snap.Outcome = that.board.Outcome()
	}

	if that.replay != nil {
		snap.InReview = true
		snap.Board = that.replay.Board()
		snap.ReviewIndex = that.replay.Index()
		snap.CanStepForward = that.replay.CanStepForward()
		snap.CanStepBackward = that.replay.CanStepBackward()
		snap.Outcome = entity.EmptyCell
	}

	return snap
}
