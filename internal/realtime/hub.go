// Package realtime pushes notifications to connected users over WebSocket.
// Rooms are keyed by user id; Redis pub/sub bridges instances so a
// notification written on one instance reaches a socket held by another.
package realtime

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait (seconds) drive the heartbeat.
	PingInterval = 30
	PongWait     = 60
)

// Publisher publishes a user event for cross-instance delivery.
type Publisher interface {
	PublishUserEvent(userID uuid.UUID, event string, payload []byte) error
}

// Subscriber subscribes to a user's channel and invokes handler per event.
type Subscriber interface {
	SubscribeUser(userID uuid.UUID, handler func(event string, payload []byte)) (cancel func(), err error)
}

// Hub maintains user_id -> set of connections and delivers events to them.
type Hub struct {
	// userID -> map[clientID]*Client
	users  map[uuid.UUID]map[string]*Client
	subs   map[uuid.UUID]func() // cancel Redis subscription per user
	mu     sync.RWMutex
	logger *zap.Logger
	pub    Publisher
	sub    Subscriber
}

// NewHub creates a notification hub.
func NewHub(logger *zap.Logger, pub Publisher, sub Subscriber) *Hub {
	return &Hub{
		users:  make(map[uuid.UUID]map[string]*Client),
		subs:   make(map[uuid.UUID]func()),
		logger: logger,
		pub:    pub,
		sub:    sub,
	}
}

// Register adds a client connection. Starts the Redis subscription for the
// user on their first connection.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.users[c.UserID] == nil {
		h.users[c.UserID] = make(map[string]*Client)
		if h.sub != nil {
			cancel, err := h.sub.SubscribeUser(c.UserID, func(event string, payload []byte) {
				h.deliverLocal(c.UserID, event, json.RawMessage(payload))
			})
			if err == nil {
				h.subs[c.UserID] = cancel
			}
		}
	}
	h.users[c.UserID][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("client connected", zap.String("client_id", c.ID), zap.String("user_id", c.UserID.String()))
}

// Unregister removes a client. Cancels the Redis subscription when the
// user's last connection closes.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.users[c.UserID]; ok {
		delete(m, c.ID)
		if len(m) == 0 {
			delete(h.users, c.UserID)
			if cancel, ok := h.subs[c.UserID]; ok {
				cancel()
				delete(h.subs, c.UserID)
			}
		}
	}
	h.mu.Unlock()
	h.logger.Debug("client disconnected", zap.String("client_id", c.ID), zap.String("user_id", c.UserID.String()))
}

// deliverLocal sends an event to the user's local connections only.
func (h *Hub) deliverLocal(userID uuid.UUID, event string, payload interface{}) {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		data, _ = json.Marshal(payload)
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	clients := h.users[userID]
	h.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// Push publishes an event addressed to one user. Delivery goes through
// Redis so every instance (including this one) broadcasts exactly once;
// without Redis it falls back to local delivery.
func (h *Hub) Push(userID uuid.UUID, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if h.pub != nil {
		_ = h.pub.PublishUserEvent(userID, event, data)
		return
	}
	h.deliverLocal(userID, event, json.RawMessage(data))
}

// Connections returns the number of open connections for a user.
func (h *Hub) Connections(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}
