package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/inkroom/inkroom/internal/infrastructure/logging"
	"github.com/inkroom/inkroom/internal/infrastructure/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20 // canvas snapshots are data URLs, allow 1 MiB

	sendBufferSize = 64
)

// Client wraps one websocket connection and implements Conn. Outbound
// messages go through a buffered channel so a slow reader never blocks a
// broadcast.
type Client struct {
	id      string
	conn    *websocket.Conn
	send    chan *Envelope
	gateway *Gateway
	session *Session
	log     logging.Logger
	metrics *metrics.Metrics
}

func newClient(conn *websocket.Conn, gw *Gateway, log logging.Logger, m *metrics.Metrics) *Client {
	c := &Client{
		id:      uuid.NewString(),
		conn:    conn,
		send:    make(chan *Envelope, sendBufferSize),
		gateway: gw,
		log:     log,
		metrics: m,
	}
	c.session = NewSession(c)
	return c
}

func (c *Client) ConnID() string { return c.id }

func (c *Client) Send(msg *Envelope) error {
	select {
	case c.send <- msg:
	default:
		// Client is too slow, drop the message
		c.log.Warn(logging.Gateway, logging.Broadcast, "send buffer full, dropping", map[logging.ExtraKey]any{
			logging.ConnID: c.id,
			logging.Event:  msg.Event,
		})
	}
	return nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.gateway.Disconnect(ctx, c.session)
		_ = c.conn.Close()
		if c.metrics != nil {
			c.metrics.ConnectedClients.Dec()
		}
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Debug(logging.Gateway, logging.Protocol, "read error", map[logging.ExtraKey]any{
					logging.ConnID:       c.id,
					logging.ErrorMessage: err.Error(),
				})
			}
			return
		}
		c.gateway.HandleMessage(ctx, c.session, raw)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Handler upgrades HTTP requests to websocket sessions.
type Handler struct {
	gateway  *Gateway
	upgrader websocket.Upgrader
	log      logging.Logger
	metrics  *metrics.Metrics
}

func NewHandler(gw *Gateway, allowedOrigins []string, log logging.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		gateway: gw,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		log:     log,
		metrics: m,
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn(logging.Gateway, logging.Protocol, "upgrade failed", map[logging.ExtraKey]any{
			logging.ClientIp:     r.RemoteAddr,
			logging.ErrorMessage: err.Error(),
		})
		return
	}

	client := newClient(conn, h.gateway, h.log, h.metrics)
	if h.metrics != nil {
		h.metrics.ConnectedClients.Inc()
	}

	go client.writePump()
	go client.readPump(context.Background())
}
