package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"supportmatch/pkg/logger"
)

const (
	MessageTypeWelcome = "welcome"
	MessageTypePong    = "pong"
)

type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	rooms      map[string]map[*Client]bool
	mutex      sync.RWMutex
	logger     *logger.Logger
}

type Message struct {
	Type      string      `json:"type"`
	RoomID    string      `json:"room_id,omitempty"`
	UserID    string      `json:"user_id,omitempty"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rooms:      make(map[string]map[*Client]bool),
		logger:     log,
	}
}

// Run serialises client registration until ctx is cancelled, then disconnects
// every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.removeClient(client)

		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				h.dropLocked(client)
			}
			h.mutex.Unlock()
			return
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) registerClient(client *Client) {
	h.mutex.Lock()
	h.clients[client] = true
	h.joinRoomLocked(client, UserRoom(client.UserID))
	for _, room := range client.initialRooms {
		h.joinRoomLocked(client, room)
	}
	rooms := client.roomList()
	h.mutex.Unlock()

	h.logger.WithUserID(client.UserID).WithField("rooms", rooms).Debug("WebSocket client registered")

	h.sendToClient(client, Message{
		Type:      MessageTypeWelcome,
		UserID:    client.UserID,
		Timestamp: getCurrentTimestamp(),
		Data: map[string]interface{}{
			"message": "Connected successfully",
			"rooms":   rooms,
		},
	})
}

func (h *Hub) removeClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if _, ok := h.clients[client]; ok {
		h.dropLocked(client)
		h.logger.WithUserID(client.UserID).Debug("WebSocket client unregistered")
	}
}

func (h *Hub) dropLocked(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)

	for roomID := range client.rooms {
		if room, exists := h.rooms[roomID]; exists {
			delete(room, client)
			if len(room) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
}

// SendToRoom delivers message to every client in roomID. Clients whose buffer
// is full are disconnected.
func (h *Hub) SendToRoom(roomID string, message Message) int {
	message.RoomID = roomID
	if message.Timestamp == 0 {
		message.Timestamp = getCurrentTimestamp()
	}

	data, err := json.Marshal(message)
	if err != nil {
		h.logger.WithError(err).Error("Failed to marshal websocket message")
		return 0
	}

	var slow []*Client
	delivered := 0

	h.mutex.RLock()
	for client := range h.rooms[roomID] {
		select {
		case client.send <- data:
			delivered++
		default:
			slow = append(slow, client)
		}
	}
	h.mutex.RUnlock()

	for _, client := range slow {
		h.removeClient(client)
	}

	return delivered
}

func (h *Hub) SendToUser(userID string, message Message) int {
	return h.SendToRoom(UserRoom(userID), message)
}

func (h *Hub) sendToClient(client *Client, message Message) {
	data, err := json.Marshal(message)
	if err != nil {
		return
	}

	h.mutex.RLock()
	_, active := h.clients[client]
	full := false
	if active {
		select {
		case client.send <- data:
		default:
			full = true
		}
	}
	h.mutex.RUnlock()

	if full {
		h.removeClient(client)
	}
}

func (h *Hub) joinRoomLocked(client *Client, roomID string) {
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Client]bool)
	}
	h.rooms[roomID][client] = true
	client.rooms[roomID] = true
}

func (h *Hub) LeaveRoom(client *Client, roomID string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if room, exists := h.rooms[roomID]; exists {
		delete(room, client)
		delete(client.rooms, roomID)

		if len(room) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

func (h *Hub) RoomSize(roomID string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.rooms[roomID])
}

func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func ServiceRoom(serviceID string) string {
	return "service_" + serviceID
}

func UserRoom(userID string) string {
	return "user_" + userID
}

func getCurrentTimestamp() int64 {
	return time.Now().Unix()
}
