package history

import "sync"

// Store owns one History per room id. Histories are created lazily on the
// first canvas-affecting event and dropped in lockstep with their room.
// The map lock is held only for lookup; snapshot operations serialize on
// the per-room History lock so rooms never contend with each other.
type Store struct {
	mu    sync.RWMutex
	rooms map[string]*History
}

func NewStore() *Store {
	return &Store{rooms: make(map[string]*History)}
}

func (s *Store) getOrCreate(roomID string) *History {
	s.mu.RLock()
	h, ok := s.rooms[roomID]
	s.mu.RUnlock()
	if ok {
		return h
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok = s.rooms[roomID]; ok {
		return h
	}
	h = newHistory()
	s.rooms[roomID] = h
	return h
}

func (s *Store) Push(roomID, snapshot string) {
	s.getOrCreate(roomID).Push(snapshot)
}

func (s *Store) Undo(roomID string) (string, bool) {
	return s.getOrCreate(roomID).Undo()
}

func (s *Store) Redo(roomID string) (string, bool) {
	return s.getOrCreate(roomID).Redo()
}

func (s *Store) Clear(roomID string) {
	s.getOrCreate(roomID).Clear()
}

// Current returns the active snapshot without creating a history: absent
// rooms yield the empty-canvas sentinel.
func (s *Store) Current(roomID string) string {
	s.mu.RLock()
	h, ok := s.rooms[roomID]
	s.mu.RUnlock()
	if !ok {
		return EmptyCanvas
	}
	return h.Current()
}

// Seed initializes a room's history with a snapshot recovered from the
// durable store, so a revived room starts at its last persisted frame.
// Empty snapshots and rooms that already have history are left alone.
func (s *Store) Seed(roomID, snapshot string) {
	if snapshot == EmptyCanvas {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[roomID]; ok {
		return
	}
	s.rooms[roomID] = &History{
		stack:   []string{EmptyCanvas, snapshot},
		pointer: 1,
	}
}

// Drop discards a room's history entirely.
func (s *Store) Drop(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, roomID)
}

// Depth reports the stack length for roomID, 0 when absent.
func (s *Store) Depth(roomID string) int {
	s.mu.RLock()
	h, ok := s.rooms[roomID]
	s.mu.RUnlock()
	if !ok {
		return 0
	}
	return h.Depth()
}
