package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/inkroom/inkroom/internal/domain"
	"github.com/inkroom/inkroom/internal/history"
	"github.com/inkroom/inkroom/internal/infrastructure/logging"
	"github.com/inkroom/inkroom/internal/infrastructure/metrics"
	"github.com/inkroom/inkroom/internal/registry"
)

// Join rejection messages, part of the wire contract.
const (
	msgInvalidJoin       = "Invalid room ID or username"
	msgRoomNotFound      = "Room not found"
	msgPasswordRequired  = "Password required"
	msgIncorrectPassword = "Incorrect password"
	msgRoomFull          = "Room is full"
	msgJoinFailed        = "Failed to join room"
)

// Mirror receives best-effort persistence work. The gateway never waits on it.
type Mirror interface {
	Save(room *domain.Room)
	Delete(roomID string)
}

// Publisher emits room lifecycle events to interested consumers.
type Publisher interface {
	MemberJoined(roomID, username string)
	MemberLeft(roomID, username string)
	RoomDeleted(roomID string)
}

// Session is the per-connection state. A connection is either idle or joined
// to exactly one room.
type Session struct {
	mu       sync.Mutex
	conn     Conn
	roomID   string
	username string
}

func NewSession(conn Conn) *Session {
	return &Session{conn: conn}
}

func (s *Session) room() (string, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomID, s.username, s.roomID != ""
}

func (s *Session) setRoom(roomID, username string) {
	s.mu.Lock()
	s.roomID = roomID
	s.username = username
	s.mu.Unlock()
}

func (s *Session) clearRoom() {
	s.setRoom("", "")
}

func (s *Session) send(msg *Envelope) {
	_ = s.conn.Send(msg)
}

// Gateway dispatches websocket events against the registry and the canvas
// history, then fans results out through the hub.
type Gateway struct {
	reg     *registry.Registry
	hist    *history.Store
	hub     *Hub
	mirror  Mirror
	pub     Publisher
	metrics *metrics.Metrics
	log     logging.Logger
}

func New(reg *registry.Registry, hist *history.Store, hub *Hub, mirror Mirror, pub Publisher, m *metrics.Metrics, log logging.Logger) *Gateway {
	return &Gateway{
		reg:     reg,
		hist:    hist,
		hub:     hub,
		mirror:  mirror,
		pub:     pub,
		metrics: m,
		log:     log,
	}
}

// HandleMessage parses one inbound frame and dispatches it. Unknown events
// are dropped.
func (g *Gateway) HandleMessage(ctx context.Context, s *Session, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		g.log.Debug(logging.Gateway, logging.Protocol, "malformed frame", map[logging.ExtraKey]any{
			logging.ConnID:       s.conn.ConnID(),
			logging.ErrorMessage: err.Error(),
		})
		return
	}

	if g.metrics != nil {
		g.metrics.RelayedEvents.WithLabelValues(env.Event).Inc()
	}

	switch env.Event {
	case EventJoinRoom:
		g.handleJoin(ctx, s, env.Data)
	case EventLeaveRoom:
		g.handleLeave(ctx, s, true)
	case EventDraw, EventStroke:
		g.handleDrawing(ctx, s, env.Event, env.Data)
	case EventShape, EventText:
		g.relay(s, env.Event, env.Data)
	case EventClearCanvas:
		g.handleClear(ctx, s)
	case EventUndo:
		g.handleStep(ctx, s, g.hist.Undo)
	case EventRedo:
		g.handleStep(ctx, s, g.hist.Redo)
	case EventRequestCanvas:
		g.handleRequestCanvas(s)
	case EventSendMessage:
		g.handleChat(ctx, s, env.Data)
	case EventTyping:
		g.handleTyping(s, EventUserTyping)
	case EventStopTyping:
		g.handleTyping(s, EventUserStopTyping)
	}
}

func (g *Gateway) handleJoin(ctx context.Context, s *Session, data json.RawMessage) {
	var req JoinRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.send(newJoinError(msgInvalidJoin))
		return
	}

	username := strings.TrimSpace(req.Username)
	if req.RoomID == "" || username == "" {
		g.rejectJoin(s, "invalid_input", msgInvalidJoin)
		return
	}

	if current, _, joined := s.room(); joined && current != req.RoomID {
		// One room per connection; switching rooms leaves the old one
		// first. A repeat join of the same room must not pass through
		// here: the implicit leave would empty the room and delete it
		// along with its history.
		g.handleLeave(ctx, s, false)
	}

	room, ok := g.reg.Find(ctx, req.RoomID)
	if !ok {
		g.rejectJoin(s, "not_found", msgRoomNotFound)
		return
	}

	if err := g.reg.Authorize(ctx, req.RoomID, req.Password); err != nil {
		switch {
		case errors.Is(err, domain.ErrPasswordRequired):
			g.rejectJoin(s, "password_required", msgPasswordRequired)
		case errors.Is(err, domain.ErrPasswordMismatch):
			g.rejectJoin(s, "password_mismatch", msgIncorrectPassword)
		default:
			g.rejectJoin(s, "error", msgJoinFailed)
		}
		return
	}

	connID := s.conn.ConnID()
	member, roster, added, err := g.reg.AddMember(ctx, req.RoomID, connID, username)
	if err != nil {
		if errors.Is(err, domain.ErrRoomFull) {
			g.rejectJoin(s, "room_full", msgRoomFull)
		} else {
			g.rejectJoin(s, "error", msgJoinFailed)
		}
		return
	}

	// Revive the undo history from the last persisted snapshot. No-op for
	// rooms that already have a live history.
	g.hist.Seed(room.ID, room.CanvasData)

	s.setRoom(req.RoomID, member.Username)
	g.hub.Attach(req.RoomID, s.conn)

	if added {
		g.hub.Broadcast(req.RoomID, newUserJoined(connID, member.Username), connID)
		g.log.Info(logging.Gateway, logging.Join, "member joined", map[logging.ExtraKey]any{
			logging.RoomID:   req.RoomID,
			logging.ConnID:   connID,
			logging.Username: member.Username,
		})
		if g.pub != nil {
			g.pub.MemberJoined(req.RoomID, member.Username)
		}
		g.mirrorRoom(req.RoomID)
	}

	if g.metrics != nil {
		g.metrics.ActiveRooms.Set(float64(g.reg.Len()))
	}

	g.hub.Broadcast(req.RoomID, newUserList(roster), "")

	if current, ok := g.reg.Snapshot(req.RoomID); ok {
		room = current
	}
	s.send(newRoomJoined(room, roster))
}

func (g *Gateway) rejectJoin(s *Session, reason, message string) {
	if g.metrics != nil {
		g.metrics.JoinFailures.WithLabelValues(reason).Inc()
	}
	s.send(newJoinError(message))
}

// relay forwards an event verbatim to everyone else in the sender's room.
func (g *Gateway) relay(s *Session, event string, data json.RawMessage) (string, bool) {
	roomID, _, joined := s.room()
	if !joined {
		return "", false
	}
	g.hub.Broadcast(roomID, &Envelope{Event: event, Data: data}, s.conn.ConnID())
	return roomID, true
}

func (g *Gateway) handleDrawing(ctx context.Context, s *Session, event string, data json.RawMessage) {
	roomID, ok := g.relay(s, event, data)
	if !ok {
		return
	}

	var stroke strokeData
	if err := json.Unmarshal(data, &stroke); err != nil {
		return
	}

	// Only terminal events carry a snapshot: a draw on pen-up, a stroke
	// whenever it has canvas data.
	terminal := stroke.CanvasData != "" && (event != EventDraw || stroke.Type == "end")
	if !terminal {
		return
	}

	g.hist.Push(roomID, stroke.CanvasData)
	g.reg.SetCanvas(roomID, stroke.CanvasData)
	if g.metrics != nil {
		g.metrics.SnapshotsPushed.Inc()
	}
	g.mirrorRoom(roomID)
}

func (g *Gateway) handleClear(ctx context.Context, s *Session) {
	roomID, _, joined := s.room()
	if !joined {
		return
	}

	g.hist.Clear(roomID)
	g.reg.SetCanvas(roomID, history.EmptyCanvas)
	g.hub.Broadcast(roomID, &Envelope{Event: EventClearCanvas}, "")
	g.mirrorRoom(roomID)
}

func (g *Gateway) handleStep(ctx context.Context, s *Session, step func(string) (string, bool)) {
	roomID, _, joined := s.room()
	if !joined {
		return
	}

	snapshot, ok := step(roomID)
	if !ok {
		// At the end of the history; nothing to announce.
		return
	}

	g.reg.SetCanvas(roomID, snapshot)
	g.hub.Broadcast(roomID, newCanvasData(snapshot), "")
	g.mirrorRoom(roomID)
}

func (g *Gateway) handleRequestCanvas(s *Session) {
	roomID, _, joined := s.room()
	if !joined {
		return
	}
	s.send(newCanvasData(g.hist.Current(roomID)))
}

func (g *Gateway) handleChat(ctx context.Context, s *Session, data json.RawMessage) {
	roomID, username, joined := s.room()
	if !joined {
		return
	}

	var req ChatRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return
	}

	msg, err := g.reg.AppendChat(ctx, roomID, username, req.Message)
	if err != nil || msg == nil {
		return
	}

	if g.metrics != nil {
		g.metrics.ChatMessages.Inc()
	}
	g.hub.Broadcast(roomID, newReceiveMessage(msg), "")
	g.mirrorRoom(roomID)
}

func (g *Gateway) handleTyping(s *Session, outbound string) {
	roomID, username, joined := s.room()
	if !joined {
		return
	}
	g.hub.Broadcast(roomID, newTypingEvent(outbound, username), s.conn.ConnID())
}

// handleLeave detaches the session from its room. With ack set a room-left
// confirmation goes back to the leaver.
func (g *Gateway) handleLeave(ctx context.Context, s *Session, ack bool) {
	roomID, _, joined := s.room()
	if !joined {
		if ack {
			s.send(newRoomLeft(""))
		}
		return
	}

	g.departRoom(ctx, s, roomID)
	if ack {
		s.send(newRoomLeft(roomID))
	}
}

// Disconnect tears the session down after its connection is gone. Safe to
// call more than once.
func (g *Gateway) Disconnect(ctx context.Context, s *Session) {
	roomID, _, joined := s.room()
	if !joined {
		return
	}
	g.departRoom(ctx, s, roomID)
}

func (g *Gateway) departRoom(ctx context.Context, s *Session, roomID string) {
	connID := s.conn.ConnID()
	g.hub.Detach(roomID, connID)
	s.clearRoom()

	removed, roster, found, deleted := g.reg.RemoveMember(ctx, roomID, connID)
	if !found {
		return
	}

	if g.metrics != nil {
		g.metrics.ActiveRooms.Set(float64(g.reg.Len()))
	}

	g.log.Info(logging.Gateway, logging.Leave, "member left", map[logging.ExtraKey]any{
		logging.RoomID:   roomID,
		logging.ConnID:   connID,
		logging.Username: removed.Username,
	})
	if g.pub != nil {
		g.pub.MemberLeft(roomID, removed.Username)
	}

	if deleted {
		g.hist.Drop(roomID)
		if g.mirror != nil {
			g.mirror.Delete(roomID)
		}
		if g.pub != nil {
			g.pub.RoomDeleted(roomID)
		}
		g.log.Info(logging.Gateway, logging.Leave, "empty room deleted", map[logging.ExtraKey]any{
			logging.RoomID: roomID,
		})
		return
	}

	g.hub.Broadcast(roomID, newUserLeft(connID, removed.Username), "")
	g.hub.Broadcast(roomID, newUserList(roster), "")
	g.mirrorRoom(roomID)
}

func (g *Gateway) mirrorRoom(roomID string) {
	if g.mirror == nil {
		return
	}
	if room, ok := g.reg.Snapshot(roomID); ok {
		g.mirror.Save(room)
	}
}
