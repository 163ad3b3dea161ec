package api

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/fixitpro/fixit-engine/internal/metrics"
	"github.com/fixitpro/fixit-engine/internal/models"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 512
	sendBufferSize = 16
)

// StatusMessage is pushed to every WebSocket client on a status change
type StatusMessage struct {
	Type   string        `json:"type"`
	Status models.Status `json:"status"`
}

type wsClient struct {
	id   string
	conn *websocket.Conn
	send chan StatusMessage
}

// Hub fans status updates out to connected WebSocket clients. A client whose
// buffer is full is disconnected.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*wsClient
	last    *StatusMessage
	logger  *logrus.Entry
}

// NewHub creates an empty hub
func NewHub(logger *logrus.Logger) *Hub {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Hub{
		clients: make(map[string]*wsClient),
		logger:  logger.WithField("component", "ws_hub"),
	}
}

// Broadcast sends status to every client without blocking
func (h *Hub) Broadcast(status models.Status) {
	msg := StatusMessage{Type: "status", Status: status}

	h.mu.Lock()
	h.last = &msg
	var slow []*wsClient
	for _, c := range h.clients {
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.Unlock()

	for _, c := range slow {
		h.logger.WithField("client_id", c.id).Warn("Client too slow, disconnecting")
		h.unregister(c)
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*wsClient, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.unregister(c)
	}
}

func (h *Hub) register(conn *websocket.Conn) *wsClient {
	c := &wsClient{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan StatusMessage, sendBufferSize),
	}

	h.mu.Lock()
	h.clients[c.id] = c
	if h.last != nil {
		c.send <- *h.last
	}
	count := len(h.clients)
	h.mu.Unlock()

	metrics.UpdateWebSocketClients(count)
	h.logger.WithFields(logrus.Fields{"client_id": c.id, "clients": count}).Debug("Client connected")
	return c
}

func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.id)
	close(c.send)
	count := len(h.clients)
	h.mu.Unlock()

	metrics.UpdateWebSocketClients(count)
	h.logger.WithFields(logrus.Fields{"client_id": c.id, "clients": count}).Debug("Client disconnected")
}

// readPump discards client messages and detects disconnects
func (h *Hub) readPump(c *wsClient) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.WithField("client_id", c.id).WithError(err).Debug("Unexpected close")
			}
			return
		}
	}
}

// writePump sends queued messages and pings until the client goes away
func (h *Hub) writePump(ctx context.Context, c *wsClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
