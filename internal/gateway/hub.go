package gateway

import (
	"sync"

	"github.com/inkroom/inkroom/internal/infrastructure/logging"
)

// Conn is one attached client. The websocket implementation lives in
// client.go; tests supply their own.
type Conn interface {
	ConnID() string
	Send(msg *Envelope) error
	Close() error
}

// Hub fans envelopes out to the connections attached to each room.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[string]Conn // roomID -> connID -> conn
	log   logging.Logger
}

func NewHub(log logging.Logger) *Hub {
	return &Hub{
		rooms: make(map[string]map[string]Conn),
		log:   log,
	}
}

func (h *Hub) Attach(roomID string, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[roomID]
	if !ok {
		room = make(map[string]Conn)
		h.rooms[roomID] = room
	}
	room[c.ConnID()] = c
}

func (h *Hub) Detach(roomID, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if room, ok := h.rooms[roomID]; ok {
		delete(room, connID)
		if len(room) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// Broadcast delivers msg to every connection in the room. A non-empty
// exclude skips that connection, mirroring sender-excluded relays.
func (h *Hub) Broadcast(roomID string, msg *Envelope, exclude string) {
	h.mu.RLock()
	conns := make([]Conn, 0, len(h.rooms[roomID]))
	for connID, c := range h.rooms[roomID] {
		if connID == exclude {
			continue
		}
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		if err := c.Send(msg); err != nil {
			h.log.Warn(logging.Gateway, logging.Broadcast, "send failed", map[logging.ExtraKey]any{
				logging.RoomID:       roomID,
				logging.ConnID:       c.ConnID(),
				logging.ErrorMessage: err.Error(),
			})
		}
	}
}

func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}
