package game

// DefaultUndoDepth is the undo ring capacity when none is configured.
const DefaultUndoDepth = 20

// Checkpoint is the exact raster+ledger state captured before one action.
type Checkpoint struct {
	Mode   Mode
	Coord  Coord
	Raster *Raster
	Ledger *Ledger
}

// History is a bounded undo ring. Pushing past capacity evicts the oldest
// checkpoint.
type History struct {
	entries []Checkpoint
	head    int
	count   int
}

// NewHistory creates a ring holding at most capacity checkpoints.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultUndoDepth
	}
	return &History{entries: make([]Checkpoint, capacity)}
}

// Push stores cp as the newest checkpoint.
func (h *History) Push(cp Checkpoint) {
	h.entries[h.head] = cp
	h.head = (h.head + 1) % len(h.entries)
	if h.count < len(h.entries) {
		h.count++
	}
}

// Pop removes and returns the newest checkpoint.
func (h *History) Pop() (Checkpoint, error) {
	if h.count == 0 {
		return Checkpoint{}, ErrUndoEmpty
	}
	h.head = (h.head - 1 + len(h.entries)) % len(h.entries)
	cp := h.entries[h.head]
	h.entries[h.head] = Checkpoint{}
	h.count--
	return cp, nil
}

// Peek returns the newest checkpoint without removing it.
func (h *History) Peek() (Checkpoint, bool) {
	if h.count == 0 {
		return Checkpoint{}, false
	}
	return h.entries[(h.head-1+len(h.entries))%len(h.entries)], true
}

// Len returns the number of stored checkpoints.
func (h *History) Len() int { return h.count }

// Cap returns the ring capacity.
func (h *History) Cap() int { return len(h.entries) }

// Clear drops every checkpoint.
func (h *History) Clear() {
	for i := range h.entries {
		h.entries[i] = Checkpoint{}
	}
	h.head = 0
	h.count = 0
}

// Recent returns checkpoints oldest first.
func (h *History) Recent() []Checkpoint {
	n := len(h.entries)
	out := make([]Checkpoint, h.count)
	for i := 0; i < h.count; i++ {
		out[i] = h.entries[(h.head-h.count+i+n)%n]
	}
	return out
}
