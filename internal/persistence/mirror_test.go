package persistence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkroom/inkroom/internal/domain"
	"github.com/inkroom/inkroom/internal/infrastructure/logging"
)

type recordingStore struct {
	mu      sync.Mutex
	saved   map[string]*domain.Room
	deleted []string
	block   chan struct{}
}

func newRecordingStore() *recordingStore {
	return &recordingStore{saved: make(map[string]*domain.Room)}
}

func (s *recordingStore) Save(ctx context.Context, room *domain.Room) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved[room.ID] = room
	return nil
}

func (s *recordingStore) Load(ctx context.Context, roomID string) (*domain.Room, error) {
	return nil, domain.ErrRoomNotFound
}

func (s *recordingStore) Delete(ctx context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, roomID)
	return nil
}

func (s *recordingStore) ListPublic(ctx context.Context, limit int) ([]domain.Room, error) {
	return nil, nil
}

func (s *recordingStore) savedRoom(roomID string) *domain.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved[roomID]
}

func (s *recordingStore) deletedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}

func TestMirrorFlushesSavesAndDeletes(t *testing.T) {
	store := newRecordingStore()
	m := NewMirror(store, 16, 1, logging.NewNop(), nil)
	m.Run()

	room := domain.NewRoom("abc123", "", "", false)
	room.CanvasData = "snap"
	m.Save(room)
	m.Delete("gone")

	m.Close()

	saved := store.savedRoom("abc123")
	require.NotNil(t, saved)
	assert.Equal(t, "snap", saved.CanvasData)
	assert.Equal(t, []string{"gone"}, store.deletedIDs())
}

func TestMirrorDropsWhenQueueFull(t *testing.T) {
	store := newRecordingStore()
	store.block = make(chan struct{})

	m := NewMirror(store, 1, 1, logging.NewNop(), nil)
	m.Run()

	// First save parks the worker inside the blocked store, second fills
	// the queue, third must be dropped without blocking the caller.
	m.Save(domain.NewRoom("r1", "", "", false))
	time.Sleep(20 * time.Millisecond)
	m.Save(domain.NewRoom("r2", "", "", false))

	done := make(chan struct{})
	go func() {
		m.Save(domain.NewRoom("r3", "", "", false))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("enqueue blocked on a full queue")
	}

	close(store.block)
	m.Close()
}

func TestMirrorCloseIsIdempotent(t *testing.T) {
	m := NewMirror(newRecordingStore(), 4, 2, logging.NewNop(), nil)
	m.Run()
	m.Close()
	m.Close()
}
