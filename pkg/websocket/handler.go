package websocket

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// RoomResolver returns the extra rooms a user joins on connect, e.g. the
// service rooms of a provider.
type RoomResolver func(ctx context.Context, userID, userType string) ([]string, error)

type Options struct {
	ReadBufferSize    int
	WriteBufferSize   int
	HandshakeTimeout  time.Duration
	PingInterval      time.Duration
	PongTimeout       time.Duration
	MaxMessageSize    int64
	EnableCompression bool
	AllowedOrigins    []string
}

type Handler struct {
	hub      *Hub
	resolver RoomResolver
	upgrader websocket.Upgrader
	options  Options
}

func NewHandler(hub *Hub, resolver RoomResolver, options Options) *Handler {
	return &Handler{
		hub:      hub,
		resolver: resolver,
		options:  options,
		upgrader: websocket.Upgrader{
			ReadBufferSize:    options.ReadBufferSize,
			WriteBufferSize:   options.WriteBufferSize,
			HandshakeTimeout:  options.HandshakeTimeout,
			EnableCompression: options.EnableCompression,
			CheckOrigin:       checkOrigin(options.AllowedOrigins),
		},
	}
}

func checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

func (h *Handler) HandleWebSocket(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
		return
	}
	userType := c.GetString("user_type")

	var rooms []string
	if h.resolver != nil {
		resolved, err := h.resolver(c.Request.Context(), userID, userType)
		if err != nil {
			h.hub.logger.WithUserID(userID).WithError(err).Error("Failed to resolve websocket rooms")
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to resolve subscriptions"})
			return
		}
		rooms = resolved
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.hub.logger.WithUserID(userID).WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	client := NewClient(h.hub, conn, userID, userType, rooms)
	if h.options.PongTimeout > 0 {
		client.pongWait = h.options.PongTimeout
	}
	if h.options.PingInterval > 0 {
		client.pingPeriod = h.options.PingInterval
	}
	if h.options.MaxMessageSize > 0 {
		client.maxMessage = h.options.MaxMessageSize
	}

	h.hub.Register(client)

	go client.writePump()
	go client.readPump()
}
