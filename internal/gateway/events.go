package gateway

// Inbound events sent by clients.
const (
	EventJoinRoom      = "join-room"
	EventLeaveRoom     = "leave-room"
	EventDraw          = "draw"
	EventStroke        = "stroke"
	EventShape         = "shape"
	EventText          = "text"
	EventClearCanvas   = "clear-canvas"
	EventUndo          = "undo"
	EventRedo          = "redo"
	EventRequestCanvas = "request-canvas"
	EventSendMessage   = "send-message"
	EventTyping        = "typing"
	EventStopTyping    = "stop-typing"
)

// Outbound events sent to clients.
const (
	EventRoomJoined     = "room-joined"
	EventRoomLeft       = "room-left"
	EventJoinError      = "join-error"
	EventUserJoined     = "user-joined"
	EventUserLeft       = "user-left"
	EventUserList       = "user-list"
	EventCanvasData     = "canvas-data"
	EventReceiveMessage = "receive-message"
	EventUserTyping     = "user-typing"
	EventUserStopTyping = "user-stop-typing"
)
