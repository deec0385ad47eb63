package realtime

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vidscribe/backend/internal/auth"
	"github.com/vidscribe/backend/pkg/response"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser clients connect from the review UI origin; auth happens via
	// the token query parameter checked before the upgrade.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades connections and streams hub events to them.
type Handler struct {
	hub    *Hub
	jwt    *auth.JWTService
	logger *zap.Logger
}

func NewHandler(hub *Hub, jwt *auth.JWTService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{hub: hub, jwt: jwt, logger: logger}
}

// Serve handles GET /ws/events. Browsers cannot set headers on websocket
// connects, so the access token travels as a query parameter.
func (h *Handler) Serve(c *gin.Context) {
	if _, err := h.jwt.ValidateToken(c.Query("token")); err != nil {
		response.Unauthorized(c, "invalid or missing token")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	out := h.hub.Register(conn)
	go h.writeLoop(conn, out)
	go h.readLoop(conn)
}

func (h *Handler) writeLoop(conn *websocket.Conn, out chan []byte) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-out:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.hub.Unregister(conn)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.hub.Unregister(conn)
				return
			}
		}
	}
}

func (h *Handler) readLoop(conn *websocket.Conn) {
	defer h.hub.Unregister(conn)
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
