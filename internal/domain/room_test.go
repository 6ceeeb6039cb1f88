package domain

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRoomID(t *testing.T) {
	id := NewRoomID()
	assert.Len(t, id, RoomIDLength)
	assert.NotEqual(t, id, NewRoomID())
}

func TestNewRoomDefaults(t *testing.T) {
	room := NewRoom("abc123", "", "", false)
	assert.Equal(t, "Room abc123", room.Name)
	assert.Equal(t, "system", room.CreatedBy)
	assert.Empty(t, room.Members)
	assert.Empty(t, room.Chat)
	assert.False(t, room.CreatedAt.IsZero())
}

func TestAddMember(t *testing.T) {
	room := NewRoom("abc123", "", "", false)

	m, added, err := room.AddMember("c1", "Alice")
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, "Alice", m.Username)

	// Same connection joining again is a no-op.
	_, added, err = room.AddMember("c1", "Alice")
	require.NoError(t, err)
	assert.False(t, added)
	assert.Len(t, room.Members, 1)
}

func TestAddMemberCap(t *testing.T) {
	room := NewRoom("abc123", "", "", false)
	for i := 0; i < MaxMembers; i++ {
		_, _, err := room.AddMember(string(rune('a'+i)), "user")
		require.NoError(t, err)
	}

	_, _, err := room.AddMember("extra", "user")
	assert.ErrorIs(t, err, ErrRoomFull)
}

func TestRemoveMemberPreservesOrder(t *testing.T) {
	room := NewRoom("abc123", "", "", false)
	for _, id := range []string{"c1", "c2", "c3"} {
		_, _, err := room.AddMember(id, "u-"+id)
		require.NoError(t, err)
	}

	removed, found := room.RemoveMember("c2")
	assert.True(t, found)
	assert.Equal(t, "u-c2", removed.Username)
	require.Len(t, room.Members, 2)
	assert.Equal(t, "c1", room.Members[0].ConnID)
	assert.Equal(t, "c3", room.Members[1].ConnID)

	_, found = room.RemoveMember("c2")
	assert.False(t, found)
}

func TestAppendChat(t *testing.T) {
	room := NewRoom("abc123", "", "", false)

	msg := room.AppendChat("Alice", "   ")
	assert.Nil(t, msg)
	assert.Empty(t, room.Chat)

	msg = room.AppendChat("Alice", " hi ")
	require.NotNil(t, msg)
	assert.Equal(t, "hi", msg.Text)

	long := strings.Repeat("x", MaxChatTextLen*2)
	msg = room.AppendChat("Alice", long)
	require.NotNil(t, msg)
	assert.Len(t, msg.Text, MaxChatTextLen)
}

func TestAppendChatTruncatesOnRuneBoundary(t *testing.T) {
	room := NewRoom("abc123", "", "", false)

	msg := room.AppendChat("Alice", strings.Repeat("€", MaxChatTextLen))
	require.NotNil(t, msg)
	assert.True(t, utf8.ValidString(msg.Text), "truncation must not split a rune")
	assert.LessOrEqual(t, len(msg.Text), MaxChatTextLen)
}

func TestAppendChatEvictsOldest(t *testing.T) {
	room := NewRoom("abc123", "", "", false)
	for i := 0; i < MaxChatMessages+5; i++ {
		require.NotNil(t, room.AppendChat("Alice", strings.Repeat("m", 1)+string(rune('0'+i%10))))
	}
	assert.Len(t, room.Chat, MaxChatMessages)
}

func TestSanitizeUsername(t *testing.T) {
	assert.Equal(t, "alice", SanitizeUsername("  alice  "))
	assert.Len(t, SanitizeUsername(strings.Repeat("x", 50)), MaxUsernameLen)
	assert.Equal(t, "", SanitizeUsername("   "))

	wide := SanitizeUsername(strings.Repeat("€", MaxUsernameLen))
	assert.True(t, utf8.ValidString(wide))
	assert.LessOrEqual(t, len(wide), MaxUsernameLen)
}

func TestCloneIsDeep(t *testing.T) {
	room := NewRoom("abc123", "", "", false)
	_, _, err := room.AddMember("c1", "Alice")
	require.NoError(t, err)
	room.AppendChat("Alice", "hello")
	room.CanvasData = "snap"

	clone := room.Clone()
	clone.Members[0].Username = "Mallory"
	clone.Chat[0].Text = "tampered"
	clone.CanvasData = "other"
	clone.UpdatedAt = time.Time{}

	assert.Equal(t, "Alice", room.Members[0].Username)
	assert.Equal(t, "hello", room.Chat[0].Text)
	assert.Equal(t, "snap", room.CanvasData)
	assert.False(t, room.UpdatedAt.IsZero())
}
