// Package ws pushes queue events to websocket subscribers.
package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"chargehub/internal/service"
)

// Client is one websocket subscriber. A client with an empty station receives
// events for every station.
type Client struct {
	ID      string
	Send    chan []byte
	Station string
}

// Hub fans queue events out to registered clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	logger  *zap.Logger
}

// NewHub returns an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{clients: make(map[string]*Client), logger: logger}
}

// Register adds a client.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
}

// Unregister removes a client and closes its send channel.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	delete(h.clients, client.ID)
	close(client.Send)
}

// Publish implements service.EventSink. Slow clients get dropped messages
// rather than blocking the coordinator.
func (h *Hub) Publish(event service.QueueEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Warn("failed to encode queue event", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if client.Station != "" && client.Station != event.Station {
			continue
		}
		select {
		case client.Send <- payload:
		default:
			h.logger.Debug("dropping queue event for slow client", zap.String("client", client.ID))
		}
	}
}
