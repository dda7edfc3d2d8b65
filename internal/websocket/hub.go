// Package websocket pushes refresh notifications to connected dashboards.
package websocket

import (
	"sync"

	"github.com/google/uuid"

	"go.uber.org/zap"

	"github.com/channelboard/youtube-channel-dashboard-go/pkg/logger"
)

// Notification message types.
const (
	TypeSuccess = "success"
	TypeError   = "error"
)

// Notification is the JSON message pushed to every connected client.
type Notification struct {
	ID      uuid.UUID `json:"id"`
	Type    string    `json:"type"`
	Message string    `json:"message"`
}

// NewNotification builds a notification with a fresh message id.
func NewNotification(msgType, message string) Notification {
	return Notification{
		ID:      uuid.New(),
		Type:    msgType,
		Message: message,
	}
}

// Hub maintains the set of active clients and broadcasts notifications to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Notification
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
}

// NewHub creates a new Hub. Call Run in its own goroutine to start it.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Notification, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes client lifecycle events and broadcasts until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			logger.Log.Info("websocket client connected", zap.Int("total_clients", total))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			logger.Log.Info("websocket client disconnected", zap.Int("total_clients", total))

		case notification := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- notification:
				default:
					// Slow client, drop the message rather than block the hub.
					logger.Log.Warn("websocket client send buffer full, dropping message")
				}
			}
			h.mu.RUnlock()

		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Broadcast queues a notification for every connected client.
func (h *Hub) Broadcast(notification Notification) {
	select {
	case h.broadcast <- notification:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stop disconnects every client and terminates Run.
func (h *Hub) Stop() {
	close(h.done)
}
