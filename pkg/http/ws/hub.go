package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Hub manages WebSocket connections and broadcasts game events to the
// host dashboards watching a given passcode.
type Hub struct {
	mu          sync.RWMutex
	connections map[uuid.UUID]*Connection // connection_id -> connection
	rooms       map[string][]uuid.UUID    // passcode -> []connection_id
	logger      zerolog.Logger
}

// NewHub creates a new WebSocket hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		connections: make(map[uuid.UUID]*Connection),
		rooms:       make(map[string][]uuid.UUID),
		logger:      logger,
	}
}

// Register adds a connection under a fresh id and returns that id.
func (h *Hub) Register(conn *Connection) uuid.UUID {
	id := uuid.New()

	h.mu.Lock()
	h.connections[id] = conn
	h.mu.Unlock()

	h.logger.Debug().Str("conn_id", id.String()).Msg("connection registered")
	return id
}

// Unregister closes and removes a connection and drops it from every room.
func (h *Hub) Unregister(connID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conn, exists := h.connections[connID]; exists {
		conn.Close()
		delete(h.connections, connID)
	}

	for passcode, ids := range h.rooms {
		for i, id := range ids {
			if id == connID {
				h.rooms[passcode] = append(ids[:i], ids[i+1:]...)
				break
			}
		}
		if len(h.rooms[passcode]) == 0 {
			delete(h.rooms, passcode)
		}
	}
}

// JoinRoom subscribes a connection to events for one game passcode.
func (h *Hub) JoinRoom(passcode string, connID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ids := h.rooms[passcode]
	for _, id := range ids {
		if id == connID {
			return
		}
	}
	h.rooms[passcode] = append(ids, connID)
}

// BroadcastToRoom sends a message to every dashboard watching a passcode.
// Send failures are logged and skipped; a slow watcher must not stall the game.
func (h *Hub) BroadcastToRoom(passcode string, msg Message) {
	h.mu.RLock()
	ids := append([]uuid.UUID(nil), h.rooms[passcode]...)
	h.mu.RUnlock()

	for _, id := range ids {
		h.mu.RLock()
		conn, exists := h.connections[id]
		h.mu.RUnlock()
		if !exists {
			continue
		}
		if err := conn.Send(msg); err != nil {
			h.logger.Warn().Err(err).Str("conn_id", id.String()).Str("passcode", passcode).Msg("room broadcast send failed")
		}
	}
}

// Connection represents a WebSocket connection with a buffered send queue.
type Connection struct {
	conn   *websocket.Conn
	sendCh chan Message
	mu     sync.Mutex
	closed bool
	logger zerolog.Logger
}

// NewConnection wraps a WebSocket connection.
func NewConnection(conn *websocket.Conn, logger zerolog.Logger) *Connection {
	return &Connection{
		conn:   conn,
		sendCh: make(chan Message, 64),
		logger: logger,
	}
}

// Send queues a message for delivery.
func (c *Connection) Send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrConnectionClosed
	}

	select {
	case c.sendCh <- msg:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Close shuts down the connection.
func (c *Connection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	close(c.sendCh)
	c.conn.Close()
}

// WritePump drains the send queue onto the wire.
func (c *Connection) WritePump() {
	defer c.conn.Close()

	for msg := range c.sendCh {
		if err := c.conn.WriteJSON(msg); err != nil {
			c.logger.Warn().Err(err).Msg("write error")
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// ReadPump consumes incoming frames until the peer disconnects. The host
// feed is one-directional, so frames are discarded; reading keeps control
// messages flowing and detects closure.
func (c *Connection) ReadPump(onClose func()) {
	defer func() {
		c.conn.Close()
		if onClose != nil {
			onClose()
		}
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Msg("read error")
			}
			return
		}
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
