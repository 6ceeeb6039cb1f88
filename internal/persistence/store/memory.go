package store

import (
	"context"
	"sort"
	"sync"

	"github.com/inkroom/inkroom/internal/domain"
)

// MemoryRoomStore is the fallback domain.RoomStore used when no database is
// configured or reachable. Contents do not survive a restart.
type MemoryRoomStore struct {
	mu    sync.RWMutex
	rooms map[string]*domain.Room
}

func NewMemoryRoomStore() *MemoryRoomStore {
	return &MemoryRoomStore{rooms: make(map[string]*domain.Room)}
}

func (s *MemoryRoomStore) Save(ctx context.Context, room *domain.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.ID] = room.Clone()
	return nil
}

func (s *MemoryRoomStore) Load(ctx context.Context, roomID string) (*domain.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return room.Clone(), nil
}

func (s *MemoryRoomStore) Delete(ctx context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, roomID)
	return nil
}

func (s *MemoryRoomStore) ListPublic(ctx context.Context, limit int) ([]domain.Room, error) {
	s.mu.RLock()
	rooms := make([]domain.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		if room.IsPrivate {
			continue
		}
		rooms = append(rooms, *room.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].UpdatedAt.After(rooms[j].UpdatedAt)
	})
	if limit > 0 && len(rooms) > limit {
		rooms = rooms[:limit]
	}
	return rooms, nil
}
