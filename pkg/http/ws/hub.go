package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendQueueSize  = 256
)

// Channel is one outbound path to a connected user.
type Channel interface {
	Send(v any) error
	Close()
}

// Hub maps each connected user to its current channel. A user has at most one
// channel; registering a new one closes the previous.
type Hub struct {
	mu          sync.RWMutex
	connections map[uuid.UUID]Channel
	onDrop      func(uuid.UUID)
	logger      zerolog.Logger
}

// NewHub creates a new WebSocket hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		connections: make(map[uuid.UUID]Channel),
		logger:      logger.With().Str("component", "ws_hub").Logger(),
	}
}

// SetDropHandler registers the callback run after a broadcast delivery failure
// removed a user.
func (h *Hub) SetDropHandler(fn func(uuid.UUID)) {
	h.mu.Lock()
	h.onDrop = fn
	h.mu.Unlock()
}

// Register installs ch as the user's channel, closing any older one.
func (h *Hub) Register(userID uuid.UUID, ch Channel) {
	h.mu.Lock()
	old, exists := h.connections[userID]
	h.connections[userID] = ch
	h.mu.Unlock()

	if exists && old != ch {
		old.Close()
		h.logger.Info().Str("user_id", userID.String()).Msg("connection superseded")
	}
	h.logger.Info().Str("user_id", userID.String()).Msg("connection registered")
}

// Unregister removes the user's channel only if ch is still the current one.
// It reports whether anything was removed.
func (h *Hub) Unregister(userID uuid.UUID, ch Channel) bool {
	h.mu.Lock()
	current, exists := h.connections[userID]
	if !exists || current != ch {
		h.mu.Unlock()
		return false
	}
	delete(h.connections, userID)
	h.mu.Unlock()

	ch.Close()
	h.logger.Info().Str("user_id", userID.String()).Msg("connection unregistered")
	return true
}

// Connected reports whether the user currently has a channel.
func (h *Hub) Connected(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.connections[userID]
	return ok
}

// Count returns the number of connected users.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// Send delivers v to the user. A user without a channel is a silent no-op. On
// delivery failure the channel is removed and the error returned so the caller
// can treat the user as disconnected. A failure on a channel that a newer
// login already replaced is not a disconnect and returns nil.
func (h *Hub) Send(userID uuid.UUID, v any) error {
	h.mu.RLock()
	ch, exists := h.connections[userID]
	h.mu.RUnlock()

	if !exists {
		return nil
	}
	if err := ch.Send(v); err != nil {
		if !h.Unregister(userID, ch) {
			h.logger.Debug().Err(err).Str("user_id", userID.String()).Msg("send failed on superseded connection")
			return nil
		}
		h.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("send failed, dropping connection")
		return err
	}
	return nil
}

// SendAll broadcasts v to every connected user. Users whose delivery fails are
// removed and reported to the drop handler.
func (h *Hub) SendAll(v any) {
	h.mu.RLock()
	targets := make(map[uuid.UUID]Channel, len(h.connections))
	for userID, ch := range h.connections {
		targets[userID] = ch
	}
	onDrop := h.onDrop
	h.mu.RUnlock()

	for userID, ch := range targets {
		if err := ch.Send(v); err != nil {
			h.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("broadcast_all_send_failed")
			if h.Unregister(userID, ch) && onDrop != nil {
				onDrop(userID)
			}
		}
	}
}

// Connection represents a WebSocket connection with send queue.
type Connection struct {
	conn   *websocket.Conn
	sendCh chan []byte
	mu     sync.Mutex
	closed bool
	logger zerolog.Logger
}

// NewConnection wraps a WebSocket connection.
func NewConnection(conn *websocket.Conn, logger zerolog.Logger) *Connection {
	return &Connection{
		conn:   conn,
		sendCh: make(chan []byte, sendQueueSize),
		logger: logger,
	}
}

// Send encodes v and queues it for delivery.
func (c *Connection) Send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrConnectionClosed
	}

	select {
	case c.sendCh <- data:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Close stops accepting messages. The write pump flushes what is queued,
// sends a close frame and closes the socket.
func (c *Connection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	close(c.sendCh)
}

// WritePump sends messages from the send queue and keeps the peer alive with
// pings.
func (c *Connection) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.sendCh:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Warn().Err(err).Msg("write error")
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

// ReadPump receives text frames and hands the raw bytes to handler until the
// peer goes away.
func (c *Connection) ReadPump(handler func([]byte)) {
	defer c.conn.Close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Msg("read error")
			}
			return
		}
		handler(data)
	}
}

var (
	ErrConnectionClosed = &Error{Code: "connection_closed", Message: "Connection is closed"}
	ErrSendQueueFull    = &Error{Code: "send_queue_full", Message: "Send queue is full"}
)

type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}
