package domain

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	// MaxMembers caps how many connections may share one room.
	MaxMembers = 20

	// MaxChatMessages bounds the per-room chat log; oldest entries are
	// evicted first once the cap is reached.
	MaxChatMessages = 100

	// MaxUsernameLen and MaxChatTextLen cap free-text inputs.
	MaxUsernameLen = 20
	MaxChatTextLen = 500

	// RoomIDLength is the number of UUID characters kept for a room id.
	RoomIDLength = 8
)

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomFull         = errors.New("room is full")
	ErrMemberNotFound   = errors.New("member not found")
	ErrPasswordRequired = errors.New("password required")
	ErrPasswordMismatch = errors.New("incorrect password")
	ErrInvalidInput     = errors.New("invalid input")
)

// Member is one connection's presence in a room. A connection holds at
// most one entry per room; usernames are free text and need not be unique.
type Member struct {
	ConnID   string    `json:"connectionId" bson:"connectionId"`
	Username string    `json:"username" bson:"username"`
	JoinedAt time.Time `json:"joinedAt" bson:"joinedAt"`
}

type ChatMessage struct {
	Username  string    `json:"username" bson:"username"`
	Text      string    `json:"message" bson:"message"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// Room is the authoritative in-memory record of one collaborative session.
// PasswordHash is a bcrypt hash and never leaves the server; CanvasData is
// an opaque snapshot payload mirroring the history pointer position.
type Room struct {
	ID           string        `json:"roomId" bson:"roomId"`
	Name         string        `json:"name" bson:"name"`
	IsPrivate    bool          `json:"isPrivate" bson:"isPrivate"`
	PasswordHash string        `json:"-" bson:"passwordHash"`
	CreatedBy    string        `json:"createdBy" bson:"createdBy"`
	Members      []Member      `json:"users" bson:"members"`
	Chat         []ChatMessage `json:"messages" bson:"messages"`
	CanvasData   string        `json:"canvasData" bson:"canvasData"`
	CreatedAt    time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt" bson:"updatedAt"`
}

// RoomStore is the durable-store capability. Implementations are
// best-effort mirrors: the engine stays correct if every call fails.
type RoomStore interface {
	Save(ctx context.Context, room *Room) error
	Load(ctx context.Context, roomID string) (*Room, error)
	Delete(ctx context.Context, roomID string) error
	ListPublic(ctx context.Context, limit int) ([]Room, error)
}

// NewRoomID derives a short opaque room identifier from a UUID.
func NewRoomID() string {
	return uuid.NewString()[:RoomIDLength]
}

// NewRoom builds a room with no members. The display name defaults to
// "Room <id>" when empty; password hashing is the registry's concern.
func NewRoom(id, name, createdBy string, isPrivate bool) *Room {
	now := time.Now().UTC()
	if name == "" {
		name = "Room " + id
	}
	if createdBy == "" {
		createdBy = "system"
	}
	return &Room{
		ID:        id,
		Name:      name,
		IsPrivate: isPrivate,
		CreatedBy: createdBy,
		Members:   make([]Member, 0, MaxMembers),
		Chat:      make([]ChatMessage, 0, 16),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (r *Room) FindMember(connID string) *Member {
	for i := range r.Members {
		if r.Members[i].ConnID == connID {
			return &r.Members[i]
		}
	}
	return nil
}

// AddMember appends a member entry. Adding an already-present connection
// is a no-op, not an error, so duplicate join events stay harmless.
func (r *Room) AddMember(connID, username string) (Member, bool, error) {
	if existing := r.FindMember(connID); existing != nil {
		return *existing, false, nil
	}
	if len(r.Members) >= MaxMembers {
		return Member{}, false, ErrRoomFull
	}
	m := Member{
		ConnID:   connID,
		Username: SanitizeUsername(username),
		JoinedAt: time.Now().UTC(),
	}
	r.Members = append(r.Members, m)
	r.UpdatedAt = time.Now().UTC()
	return m, true, nil
}

// RemoveMember deletes the entry for connID, preserving join order of the
// rest. Returns false when the connection was not a member.
func (r *Room) RemoveMember(connID string) (Member, bool) {
	for i := range r.Members {
		if r.Members[i].ConnID == connID {
			removed := r.Members[i]
			r.Members = append(r.Members[:i], r.Members[i+1:]...)
			r.UpdatedAt = time.Now().UTC()
			return removed, true
		}
	}
	return Member{}, false
}

// AppendChat adds a trimmed, capped chat message and evicts the oldest
// entries beyond MaxChatMessages. Empty text is dropped silently.
func (r *Room) AppendChat(username, text string) *ChatMessage {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	text = truncate(text, MaxChatTextLen)
	msg := ChatMessage{
		Username:  SanitizeUsername(username),
		Text:      text,
		Timestamp: time.Now().UTC(),
	}
	r.Chat = append(r.Chat, msg)
	if len(r.Chat) > MaxChatMessages {
		r.Chat = r.Chat[len(r.Chat)-MaxChatMessages:]
	}
	r.UpdatedAt = msg.Timestamp
	return &msg
}

// Clone returns a deep copy safe to hand outside the room's lock.
func (r *Room) Clone() *Room {
	cp := *r
	cp.Members = append([]Member(nil), r.Members...)
	cp.Chat = append([]ChatMessage(nil), r.Chat...)
	return &cp
}

func SanitizeUsername(username string) string {
	return truncate(strings.TrimSpace(username), MaxUsernameLen)
}

// truncate caps s at max bytes without splitting a multi-byte rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
