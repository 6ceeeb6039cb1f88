package messaging

import "time"

// Routing keys - using consistent event patterns
const (
	EventRoomCreated  = "room.created"
	EventRoomDeleted  = "room.deleted"
	EventMemberJoined = "member.joined"
	EventMemberLeft   = "member.left"
)

// RoomEvent is the message body published on the rooms exchange.
type RoomEvent struct {
	RoomID    string    `json:"roomId"`
	Username  string    `json:"username,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
