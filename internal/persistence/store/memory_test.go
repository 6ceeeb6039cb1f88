package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkroom/inkroom/internal/domain"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryRoomStore()
	ctx := context.Background()

	room := domain.NewRoom("abc123", "Sketching", "alice", false)
	room.CanvasData = "snap"
	require.NoError(t, s.Save(ctx, room))

	// Mutating the original must not leak into the store.
	room.CanvasData = "changed"

	loaded, err := s.Load(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "snap", loaded.CanvasData)
	assert.Equal(t, "Sketching", loaded.Name)
}

func TestMemoryStoreLoadMissing(t *testing.T) {
	s := NewMemoryRoomStore()
	_, err := s.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestMemoryStoreDelete(t *testing.T) {
	s := NewMemoryRoomStore()
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, domain.NewRoom("abc123", "", "", false)))
	require.NoError(t, s.Delete(ctx, "abc123"))
	require.NoError(t, s.Delete(ctx, "abc123"), "deleting twice is fine")

	_, err := s.Load(ctx, "abc123")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestMemoryStoreListPublic(t *testing.T) {
	s := NewMemoryRoomStore()
	ctx := context.Background()

	older := domain.NewRoom("older", "", "", false)
	older.UpdatedAt = time.Now().Add(-time.Hour)
	newer := domain.NewRoom("newer", "", "", false)
	secret := domain.NewRoom("secret", "", "", true)

	require.NoError(t, s.Save(ctx, older))
	require.NoError(t, s.Save(ctx, newer))
	require.NoError(t, s.Save(ctx, secret))

	rooms, err := s.ListPublic(ctx, 20)
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, "newer", rooms[0].ID)
	assert.Equal(t, "older", rooms[1].ID)

	rooms, err = s.ListPublic(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, rooms, 1)
}
