package history

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUndoRedoRoundTrip(t *testing.T) {
	s := NewStore()
	s.Push("r1", "s1")
	s.Push("r1", "s2")

	snap, ok := s.Undo("r1")
	require.True(t, ok)
	assert.Equal(t, "s1", snap)

	snap, ok = s.Redo("r1")
	require.True(t, ok)
	assert.Equal(t, "s2", snap)
}

func TestUndoAtOldestIsNoop(t *testing.T) {
	s := NewStore()
	s.Push("r1", "s1")

	snap, ok := s.Undo("r1")
	require.True(t, ok)
	assert.Equal(t, EmptyCanvas, snap)

	_, ok = s.Undo("r1")
	assert.False(t, ok, "undo past the initial state must be a no-op")
	assert.Equal(t, EmptyCanvas, s.Current("r1"))
}

func TestRedoAtNewestIsNoop(t *testing.T) {
	s := NewStore()
	s.Push("r1", "s1")

	_, ok := s.Redo("r1")
	assert.False(t, ok)
	assert.Equal(t, "s1", s.Current("r1"))
}

func TestPushDiscardsRedoBranch(t *testing.T) {
	s := NewStore()
	s.Push("r1", "s1")
	s.Push("r1", "s2")

	_, ok := s.Undo("r1")
	require.True(t, ok)

	s.Push("r1", "s3")

	_, ok = s.Redo("r1")
	assert.False(t, ok, "s2 must be unreachable after pushing s3")
	assert.Equal(t, "s3", s.Current("r1"))

	snap, ok := s.Undo("r1")
	require.True(t, ok)
	assert.Equal(t, "s1", snap)
}

func TestClearResetsToInitialState(t *testing.T) {
	s := NewStore()
	s.Push("r1", "s1")
	s.Push("r1", "s2")

	s.Clear("r1")

	assert.Equal(t, EmptyCanvas, s.Current("r1"))
	_, ok := s.Undo("r1")
	assert.False(t, ok, "clear is not undoable")
	_, ok = s.Redo("r1")
	assert.False(t, ok)
}

func TestCurrentWithoutHistory(t *testing.T) {
	s := NewStore()
	assert.Equal(t, EmptyCanvas, s.Current("nope"))
	assert.Equal(t, 0, s.Depth("nope"))
}

func TestSeedRecoversPersistedFrame(t *testing.T) {
	s := NewStore()
	s.Seed("r1", "persisted")

	assert.Equal(t, "persisted", s.Current("r1"))

	snap, ok := s.Undo("r1")
	require.True(t, ok)
	assert.Equal(t, EmptyCanvas, snap)
}

func TestSeedDoesNotOverwriteLiveHistory(t *testing.T) {
	s := NewStore()
	s.Push("r1", "live")
	s.Seed("r1", "persisted")
	assert.Equal(t, "live", s.Current("r1"))
}

func TestDropDiscardsHistory(t *testing.T) {
	s := NewStore()
	s.Push("r1", "s1")
	s.Drop("r1")
	assert.Equal(t, EmptyCanvas, s.Current("r1"))
	assert.Equal(t, 0, s.Depth("r1"))
}

// Pointer must stay inside [0, len(stack)-1] for any interleaving of
// operations; exercised concurrently to catch lock mistakes under -race.
func TestPointerStaysInBounds(t *testing.T) {
	s := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				switch j % 4 {
				case 0:
					s.Push("r1", fmt.Sprintf("s%d-%d", n, j))
				case 1:
					s.Undo("r1")
				case 2:
					s.Redo("r1")
				case 3:
					s.Current("r1")
				}
			}
		}(i)
	}
	wg.Wait()

	h := s.getOrCreate("r1")
	h.mu.Lock()
	defer h.mu.Unlock()
	assert.GreaterOrEqual(t, h.pointer, 0)
	assert.Less(t, h.pointer, len(h.stack))
}
