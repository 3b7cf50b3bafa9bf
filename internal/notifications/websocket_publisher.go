package notifications

import (
	"context"

	"supportmatch/internal/models"
	"supportmatch/pkg/websocket"
)

const MessageTypeMatchEvent = "match_event"

// WebSocketPublisher pushes events to dashboards connected to this instance.
type WebSocketPublisher struct {
	hub *websocket.Hub
}

func NewWebSocketPublisher(hub *websocket.Hub) *WebSocketPublisher {
	return &WebSocketPublisher{hub: hub}
}

// PublishMatchEvent never fails: a room with no listeners is not an error.
func (p *WebSocketPublisher) PublishMatchEvent(_ context.Context, event *models.MatchEvent) error {
	room := websocket.ServiceRoom(event.ServiceID)
	p.hub.SendToRoom(room, websocket.Message{
		Type:   MessageTypeMatchEvent,
		RoomID: room,
		Data:   event,
	})
	return nil
}
