package realtime

import (
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Hub fans pipeline events out to connected websocket clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]chan []byte
	logger  *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[*websocket.Conn]chan []byte),
		logger:  logger,
	}
}

// Register adds a client and returns its outbound channel.
func (h *Hub) Register(conn *websocket.Conn) chan []byte {
	out := make(chan []byte, 16)
	h.mu.Lock()
	h.clients[conn] = out
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("websocket client connected", zap.Int("clients", n))
	return out
}

// Unregister removes a client and closes its channel.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	out, ok := h.clients[conn]
	if ok {
		delete(h.clients, conn)
		close(out)
	}
	n := len(h.clients)
	h.mu.Unlock()
	if ok {
		h.logger.Info("websocket client disconnected", zap.Int("clients", n))
	}
}

// Broadcast queues the message for every connected client. Slow clients
// drop messages rather than block the hub.
func (h *Hub) Broadcast(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, out := range h.clients {
		select {
		case out <- message:
		default:
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
