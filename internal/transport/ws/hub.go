package ws

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/xiaot623/gogo/chatgate/internal/domain"
	"github.com/xiaot623/gogo/chatgate/internal/observability"
)

var (
	// ErrBufferFull is returned when the send buffer is full.
	ErrBufferFull = errors.New("send buffer full")
	// ErrClosed is returned when sending on a closed connection.
	ErrClosed = errors.New("connection closed")
)

// Connection represents a single WebSocket connection.
type Connection struct {
	ID        string
	ClientKey string
	Conn      *websocket.Conn

	// session is set by a successful hello. Only the read loop touches it.
	session *domain.LaunchClaims

	send   chan []byte
	mu     sync.Mutex
	closed bool
}

// Send queues data for the write loop without blocking.
func (c *Connection) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrBufferFull
	}
}

// SendJSON marshals v and queues it.
func (c *Connection) SendJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Send(data)
}

func (c *Connection) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Hub tracks open connections.
type Hub struct {
	connections map[string]*Connection
	mu          sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{connections: make(map[string]*Connection)}
}

// NewConnection wraps ws in a connection. It is not registered yet.
func (h *Hub) NewConnection(ws *websocket.Conn, clientKey string) *Connection {
	return &Connection{
		ID:        uuid.New().String(),
		ClientKey: clientKey,
		Conn:      ws,
		send:      make(chan []byte, 64),
	}
}

// Register adds a connection.
func (h *Hub) Register(conn *Connection) {
	h.mu.Lock()
	h.connections[conn.ID] = conn
	n := len(h.connections)
	h.mu.Unlock()
	observability.SetWSConnections(n)
}

// Unregister removes a connection and closes its send buffer.
func (h *Hub) Unregister(conn *Connection) {
	h.mu.Lock()
	delete(h.connections, conn.ID)
	n := len(h.connections)
	h.mu.Unlock()
	conn.closeSend()
	observability.SetWSConnections(n)
}

// Count returns the number of open connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}
