// Package registry owns the set of live rooms: membership rosters, chat
// logs, and privacy state. It is the single authority on whether a room
// exists and who is in it. All state is in memory; the optional RoomStore
// is consulted only to revive rooms that survived a restart.
package registry

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/inkroom/inkroom/internal/domain"
	"github.com/inkroom/inkroom/internal/infrastructure/logging"
)

const loadTimeout = 2 * time.Second

// entry pairs a room with its own lock. The registry map lock is held only
// for lookups, so operations on different rooms never contend.
type entry struct {
	mu   sync.Mutex
	room *domain.Room
}

type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*entry
	store domain.RoomStore // nil when running memory-only
	log   logging.Logger
}

func New(store domain.RoomStore, log logging.Logger) *Registry {
	return &Registry{
		rooms: make(map[string]*entry),
		store: store,
		log:   log,
	}
}

// GetOrCreate returns the room with id, creating it when absent. Joining an
// existing room never alters its privacy or password, so an existing room
// is returned unchanged regardless of the supplied settings. The password
// is bcrypt-hashed only for new private rooms with a non-empty password.
func (r *Registry) GetOrCreate(ctx context.Context, id, name, createdBy string, isPrivate bool, password string) (*domain.Room, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}

	if e := r.lookup(ctx, id); e != nil {
		e.mu.Lock()
		defer e.mu.Unlock()
		return e.room.Clone(), nil
	}

	room := domain.NewRoom(id, name, createdBy, isPrivate)
	if isPrivate && password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		room.PasswordHash = string(hash)
	}

	r.mu.Lock()
	if e, ok := r.rooms[id]; ok {
		// Lost the race; the winner's room is authoritative.
		r.mu.Unlock()
		e.mu.Lock()
		defer e.mu.Unlock()
		return e.room.Clone(), nil
	}
	r.rooms[id] = &entry{room: room}
	r.mu.Unlock()

	r.log.Info(logging.Registry, logging.Startup, "room created", map[logging.ExtraKey]any{
		logging.RoomID: id,
	})
	return room.Clone(), nil
}

// Find returns a copy of the room, reviving it from the durable store when
// it is not live in memory. Revived rooms come back with an empty roster:
// the connections that populated it no longer exist.
func (r *Registry) Find(ctx context.Context, id string) (*domain.Room, bool) {
	e := r.lookup(ctx, id)
	if e == nil {
		return nil, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.room.Clone(), true
}

func (r *Registry) lookup(ctx context.Context, id string) *entry {
	r.mu.RLock()
	e, ok := r.rooms[id]
	r.mu.RUnlock()
	if ok {
		return e
	}
	if r.store == nil {
		return nil
	}

	loadCtx, cancel := context.WithTimeout(ctx, loadTimeout)
	defer cancel()
	stored, err := r.store.Load(loadCtx, id)
	if err != nil || stored == nil {
		return nil
	}
	stored.Members = stored.Members[:0]

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok = r.rooms[id]; ok {
		return e
	}
	e = &entry{room: stored}
	r.rooms[id] = e
	r.log.Info(logging.Registry, logging.Startup, "room revived from store", map[logging.ExtraKey]any{
		logging.RoomID: id,
	})
	return e
}

// Authorize gates entry to a room. Public rooms always pass. Private rooms
// pass only when a password was supplied and its bcrypt hash matches;
// bcrypt performs the comparison in constant time.
func (r *Registry) Authorize(ctx context.Context, id, password string) error {
	e := r.lookup(ctx, id)
	if e == nil {
		return domain.ErrRoomNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.room.IsPrivate {
		return nil
	}
	// A private room without a stored hash can never be entered; report
	// it the same way as a missing password rather than a mismatch.
	if password == "" || e.room.PasswordHash == "" {
		return domain.ErrPasswordRequired
	}
	if err := bcrypt.CompareHashAndPassword([]byte(e.room.PasswordHash), []byte(password)); err != nil {
		return domain.ErrPasswordMismatch
	}
	return nil
}

// AddMember registers a connection in the room. Re-adding a present
// connection is a no-op that reports added=false. The returned roster is a
// copy taken under the room lock, safe for broadcast fan-out.
func (r *Registry) AddMember(ctx context.Context, id, connID, username string) (domain.Member, []domain.Member, bool, error) {
	e := r.lookup(ctx, id)
	if e == nil {
		return domain.Member{}, nil, false, domain.ErrRoomNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	member, added, err := e.room.AddMember(connID, username)
	if err != nil {
		return domain.Member{}, nil, false, err
	}
	roster := append([]domain.Member(nil), e.room.Members...)
	return member, roster, added, nil
}

// RemoveMember drops a connection from the room. Removing an absent
// connection is a no-op. When the roster becomes empty the room is deleted
// from the registry so memory stays bounded to active rooms.
func (r *Registry) RemoveMember(ctx context.Context, id, connID string) (domain.Member, []domain.Member, bool, bool) {
	r.mu.RLock()
	e, ok := r.rooms[id]
	r.mu.RUnlock()
	if !ok {
		return domain.Member{}, nil, false, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	removed, found := e.room.RemoveMember(connID)
	if !found {
		return domain.Member{}, nil, false, false
	}

	if len(e.room.Members) == 0 {
		r.mu.Lock()
		delete(r.rooms, id)
		r.mu.Unlock()
		r.log.Info(logging.Registry, logging.Leave, "room empty, deleted", map[logging.ExtraKey]any{
			logging.RoomID: id,
		})
		return removed, nil, true, true
	}

	roster := append([]domain.Member(nil), e.room.Members...)
	return removed, roster, true, false
}

// AppendChat records a chat message under the room lock. Empty or
// whitespace-only text is silently dropped (nil, nil).
func (r *Registry) AppendChat(ctx context.Context, id, username, text string) (*domain.ChatMessage, error) {
	e := r.lookup(ctx, id)
	if e == nil {
		return nil, domain.ErrRoomNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.room.AppendChat(username, text), nil
}

// SetCanvas mirrors the history pointer's snapshot onto the room record.
func (r *Registry) SetCanvas(id, data string) bool {
	r.mu.RLock()
	e, ok := r.rooms[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.room.CanvasData = data
	e.room.UpdatedAt = time.Now().UTC()
	return true
}

// Snapshot returns a copy of the room for persistence or HTTP responses.
func (r *Registry) Snapshot(id string) (*domain.Room, bool) {
	r.mu.RLock()
	e, ok := r.rooms[id]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.room.Clone(), true
}

// ListPublic returns up to limit public rooms, most recently updated first.
func (r *Registry) ListPublic(limit int) []domain.Room {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.rooms))
	for _, e := range r.rooms {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	rooms := make([]domain.Room, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if !e.room.IsPrivate {
			rooms = append(rooms, *e.room.Clone())
		}
		e.mu.Unlock()
	}

	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].UpdatedAt.After(rooms[j].UpdatedAt)
	})
	if limit > 0 && len(rooms) > limit {
		rooms = rooms[:limit]
	}
	return rooms
}

// Len reports the number of live rooms, for metrics.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
