package history

import "sync"

// EmptyCanvas is the canonical snapshot for a blank board. Index 0 of every
// history stack holds it.
const EmptyCanvas = ""

// History is one room's linear undo/redo stack of opaque canvas snapshots.
// pointer always satisfies 0 <= pointer < len(stack).
type History struct {
	mu      sync.Mutex
	stack   []string
	pointer int
	rev     uint64 // monotonic push counter, diagnostics only
}

func newHistory() *History {
	return &History{stack: []string{EmptyCanvas}}
}

// Push appends a snapshot and moves the pointer to it. Any redo branch
// beyond the pointer is discarded first: new edits invalidate redo.
func (h *History) Push(snapshot string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.pointer < len(h.stack)-1 {
		h.stack = h.stack[:h.pointer+1]
	}
	h.stack = append(h.stack, snapshot)
	h.pointer = len(h.stack) - 1
	h.rev++
}

// Undo steps the pointer back and returns the now-active snapshot.
// At the oldest state it reports false and changes nothing.
func (h *History) Undo() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.pointer == 0 {
		return "", false
	}
	h.pointer--
	return h.stack[h.pointer], true
}

// Redo is the inverse of Undo; false when already at the newest state.
func (h *History) Redo() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.pointer >= len(h.stack)-1 {
		return "", false
	}
	h.pointer++
	return h.stack[h.pointer], true
}

// Clear resets to the single-element initial state. The discarded history
// is unrecoverable: clearing is deliberately not undoable.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.stack = []string{EmptyCanvas}
	h.pointer = 0
	h.rev++
}

// Current returns the active snapshot.
func (h *History) Current() string {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.stack[h.pointer]
}

// Depth reports the stack length, for metrics.
func (h *History) Depth() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.stack)
}
