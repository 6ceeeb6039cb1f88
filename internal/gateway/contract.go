package gateway

import (
	"encoding/json"
	"time"

	"github.com/inkroom/inkroom/internal/domain"
)

// Envelope is the wire frame for every websocket message. Data stays raw so
// relay events can be forwarded untouched.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Payload structs
type JoinRequest struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type MemberPayload struct {
	ConnID   string `json:"connectionId"`
	Username string `json:"username"`
}

type RoomJoinedPayload struct {
	Room  *domain.Room    `json:"room"`
	Users []domain.Member `json:"users"`
}

type RoomLeftPayload struct {
	RoomID string `json:"roomId"`
}

type CanvasPayload struct {
	CanvasData string `json:"canvasData"`
}

type ChatRequest struct {
	Message string `json:"message"`
}

type ChatPayload struct {
	Username  string    `json:"username"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type TypingPayload struct {
	Username string `json:"username"`
}

// strokeData is the slice of a relay payload the gateway inspects to decide
// whether the event carries a terminal snapshot.
type strokeData struct {
	Type       string `json:"type"`
	CanvasData string `json:"canvasData"`
}

func newEnvelope(event string, payload any) *Envelope {
	data, err := json.Marshal(payload)
	if err != nil {
		return &Envelope{Event: event}
	}
	return &Envelope{Event: event, Data: data}
}

func newJoinError(message string) *Envelope {
	return newEnvelope(EventJoinError, ErrorPayload{Message: message})
}

func newRoomJoined(room *domain.Room, users []domain.Member) *Envelope {
	return newEnvelope(EventRoomJoined, RoomJoinedPayload{Room: room, Users: users})
}

func newRoomLeft(roomID string) *Envelope {
	return newEnvelope(EventRoomLeft, RoomLeftPayload{RoomID: roomID})
}

func newUserJoined(connID, username string) *Envelope {
	return newEnvelope(EventUserJoined, MemberPayload{ConnID: connID, Username: username})
}

func newUserLeft(connID, username string) *Envelope {
	return newEnvelope(EventUserLeft, MemberPayload{ConnID: connID, Username: username})
}

func newUserList(users []domain.Member) *Envelope {
	return newEnvelope(EventUserList, users)
}

func newCanvasData(snapshot string) *Envelope {
	return newEnvelope(EventCanvasData, CanvasPayload{CanvasData: snapshot})
}

func newReceiveMessage(msg *domain.ChatMessage) *Envelope {
	return newEnvelope(EventReceiveMessage, ChatPayload{
		Username:  msg.Username,
		Message:   msg.Text,
		Timestamp: msg.Timestamp,
	})
}

func newTypingEvent(event, username string) *Envelope {
	return newEnvelope(event, TypingPayload{Username: username})
}
