package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/kurobon/gitgraph/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	clientSendSize = 16
)

type MessageType string

const (
	MessageTypeLayout MessageType = "layout"
)

// Message is one frame pushed to websocket clients.
type Message struct {
	Type MessageType `json:"type"`
	Data any         `json:"data"`
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

// Hub fans layout updates out to connected websocket clients. A client whose
// buffer is full misses the update rather than stalling the others.
type Hub struct {
	logger  *zap.Logger
	metrics *metrics.Collector

	mu      sync.RWMutex
	clients map[string]*client
	closed  bool
}

func NewHub(logger *zap.Logger, m *metrics.Collector) *Hub {
	return &Hub{
		logger:  logger,
		metrics: m,
		clients: make(map[string]*client),
	}
}

// Register adds conn and starts its writer. The returned id identifies the client
// in logs and in Unregister.
func (h *Hub) Register(conn *websocket.Conn) string {
	c := &client{
		id:   uuid.NewString()[:8],
		conn: conn,
		send: make(chan []byte, clientSendSize),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return c.id
	}
	h.clients[c.id] = c
	n := len(h.clients)
	h.mu.Unlock()

	h.metrics.WSClients.Inc()
	h.logger.Info("websocket client connected", zap.String("client", c.id), zap.Int("clients", n))

	go h.writePump(c)
	return c.id
}

// Unregister removes a client and closes its connection. Unknown ids are ignored.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	c, ok := h.clients[id]
	if ok {
		delete(h.clients, id)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if !ok {
		return
	}
	c.close()
	h.metrics.WSClients.Dec()
	h.logger.Info("websocket client disconnected", zap.String("client", id), zap.Int("clients", n))
}

// Send queues msg for one client.
func (h *Hub) Send(id string, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal websocket message", zap.Error(err))
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if c, ok := h.clients[id]; ok {
		h.enqueue(c, data)
	}
}

// Broadcast queues msg for every client.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal websocket message", zap.Error(err))
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		h.enqueue(c, data)
	}
}

// enqueue must be called with h.mu held.
func (h *Hub) enqueue(c *client, data []byte) {
	select {
	case c.send <- data:
	default:
		h.logger.Warn("websocket client buffer full, dropping message", zap.String("client", c.id))
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := h.clients
	h.clients = make(map[string]*client)
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
		h.metrics.WSClients.Dec()
	}
}

func (h *Hub) writePump(c *client) {
	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Debug("websocket write failed", zap.String("client", c.id), zap.Error(err))
			c.conn.Close()
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.conn.Close()
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}
