package snapshot

// DefaultCapacity is the history capacity used when none is given.
const DefaultCapacity = 100

// History is a capped undo stack with a redo stack. The top of the undo
// stack is the current state.
type History struct {
	capacity int
	undo     []*Snapshot
	redo     []*Snapshot
}

// NewHistory returns a history holding at most capacity snapshots on its
// undo stack. A capacity below one selects DefaultCapacity.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = DefaultCapacity
	}

	return &History{capacity: capacity}
}

// Capacity returns the maximum undo depth.
func (h *History) Capacity() int { return h.capacity }

// Push makes s current, clears the redo stack and evicts the oldest
// snapshot when the capacity is exceeded.
func (h *History) Push(s *Snapshot) {
	h.undo = append(h.undo, s)
	clear(h.redo)
	h.redo = h.redo[:0]

	if over := len(h.undo) - h.capacity; over > 0 {
		clear(h.undo[:over])
		h.undo = h.undo[over:]
	}
}

// Current returns the current snapshot.
func (h *History) Current() (*Snapshot, bool) {
	if len(h.undo) == 0 {
		return nil, false
	}

	return h.undo[len(h.undo)-1], true
}

// CanUndo reports whether an earlier snapshot exists.
func (h *History) CanUndo() bool { return len(h.undo) >= 2 }

// CanRedo reports whether the redo stack is non-empty.
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// UndoLen returns the undo stack depth, including the current snapshot.
func (h *History) UndoLen() int { return len(h.undo) }

// RedoLen returns the redo stack depth.
func (h *History) RedoLen() int { return len(h.redo) }

// Undo moves the current snapshot to the redo stack and returns the new
// current one. It reports false and changes nothing when fewer than two
// snapshots exist.
func (h *History) Undo() (*Snapshot, bool) {
	if !h.CanUndo() {
		return nil, false
	}

	top := h.undo[len(h.undo)-1]
	h.undo[len(h.undo)-1] = nil
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, top)

	return h.undo[len(h.undo)-1], true
}

// Redo moves the most recently undone snapshot back onto the undo stack
// and returns it. It reports false when the redo stack is empty.
func (h *History) Redo() (*Snapshot, bool) {
	if !h.CanRedo() {
		return nil, false
	}

	s := h.redo[len(h.redo)-1]
	h.redo[len(h.redo)-1] = nil
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, s)

	return s, true
}

// Reset empties both stacks.
func (h *History) Reset() {
	clear(h.undo)
	clear(h.redo)
	h.undo = h.undo[:0]
	h.redo = h.redo[:0]
}
