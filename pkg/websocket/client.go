package websocket

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait   = 10 * time.Second
	sendBufSize = 256
)

type Client struct {
	hub          *Hub
	conn         *websocket.Conn
	send         chan []byte
	UserID       string
	UserType     string
	rooms        map[string]bool
	initialRooms []string
	pongWait     time.Duration
	pingPeriod   time.Duration
	maxMessage   int64
}

func NewClient(hub *Hub, conn *websocket.Conn, userID, userType string, rooms []string) *Client {
	return &Client{
		hub:          hub,
		conn:         conn,
		send:         make(chan []byte, sendBufSize),
		UserID:       userID,
		UserType:     userType,
		rooms:        make(map[string]bool),
		initialRooms: rooms,
		pongWait:     60 * time.Second,
		pingPeriod:   54 * time.Second,
		maxMessage:   4096,
	}
}

func (c *Client) roomList() []string {
	rooms := make([]string, 0, len(c.rooms))
	for room := range c.rooms {
		rooms = append(rooms, room)
	}
	sort.Strings(rooms)
	return rooms
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.maxMessage)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.WithUserID(c.UserID).WithError(err).Warn("WebSocket read error")
			}
			return
		}

		c.handleMessage(message)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

// handleMessage only serves keepalive and room leave requests: dashboards are
// output-only and room membership is decided server-side.
func (c *Client) handleMessage(message []byte) {
	var msg struct {
		Type   string `json:"type"`
		RoomID string `json:"room_id"`
	}
	if err := json.Unmarshal(message, &msg); err != nil {
		return
	}

	switch msg.Type {
	case "ping":
		c.hub.sendToClient(c, Message{Type: MessageTypePong, UserID: c.UserID, Timestamp: getCurrentTimestamp()})
	case "leave_room":
		if msg.RoomID != "" && msg.RoomID != UserRoom(c.UserID) {
			c.hub.LeaveRoom(c, msg.RoomID)
		}
	}
}
