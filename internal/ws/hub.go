package ws

import (
	"encoding/json"
	"sync"
	"time"

	"portfolio_economy/internal/logger"
)

// Hub tracks connected clients per user and fans economy events out to
// them. A user can hold several connections (multiple tabs); every
// connection receives every event addressed to that user.
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[int64]map[*Client]struct{}),
	}
}

type event struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload,omitempty"`
	Time    string                 `json:"time"`
}

// Notify implements service.Notifier. Slow clients are skipped rather
// than blocking the caller; their send buffer simply fills up and the
// event is dropped for that connection.
func (h *Hub) Notify(userID int64, eventType string, payload map[string]interface{}) {
	msg, err := json.Marshal(event{
		Type:    eventType,
		Payload: payload,
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		logger.Error("ws: marshal event failed", "event", eventType, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients[userID] {
		select {
		case c.Send <- msg:
		default:
			logger.Warn("ws: dropping event for slow client", "user_id", userID, "event", eventType)
		}
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.UserID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.UserID] = set
	}
	set[c] = struct{}{}
	logger.Debug("ws: client registered", "user_id", c.UserID, "connections", len(set))
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.UserID]
	if !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.UserID)
	}
}

// ConnectedUsers returns how many distinct users currently hold at
// least one open connection.
func (h *Hub) ConnectedUsers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
