// Package realtime fans thread events out to websocket subscribers, across
// instances when Redis is configured.
package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60
)

// Event names sent to clients.
const (
	EventThreadMessage = "thread_message"
	EventTyping        = "typing"
	EventPresence      = "presence"
	EventError         = "error"
)

// Publisher publishes thread events for cross-instance broadcast.
type Publisher interface {
	PublishThreadEvent(threadID string, event string, payload []byte) error
}

// Subscriber subscribes to thread channels and invokes handler for incoming events.
type Subscriber interface {
	SubscribeThread(threadID string, handler func(event string, payload []byte)) (cancel func(), err error)
}

// Hub maintains thread_id -> set of connections and broadcasts messages.
// Rooms without a live Redis subscription are also served locally.
type Hub struct {
	threads map[string]map[string]*Client
	subs    map[string]func()
	local   map[string]bool
	mu      sync.RWMutex
	logger  *zap.Logger
	pub     Publisher
	sub     Subscriber
}

// NewHub creates a hub. pub and sub may be nil for a single instance.
func NewHub(logger *zap.Logger, pub Publisher, sub Subscriber) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		threads: make(map[string]map[string]*Client),
		subs:    make(map[string]func()),
		local:   make(map[string]bool),
		logger:  logger,
		pub:     pub,
		sub:     sub,
	}
}

// Register adds a client to its thread room. The first client of a room
// starts the Redis subscription.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	first := h.threads[c.ThreadID] == nil
	if first {
		h.threads[c.ThreadID] = make(map[string]*Client)
		h.local[c.ThreadID] = true
	}
	h.threads[c.ThreadID][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("client joined thread", zap.String("client_id", c.ID), zap.String("thread_id", c.ThreadID))

	if first && h.sub != nil {
		h.subscribe(c.ThreadID)
	}
}

// subscribe runs outside h.mu. The room stays local until the subscription
// is confirmed.
func (h *Hub) subscribe(threadID string) {
	cancel, err := h.sub.SubscribeThread(threadID, func(event string, payload []byte) {
		h.BroadcastToThread(threadID, event, json.RawMessage(payload))
	})
	if err != nil {
		h.logger.Warn("thread subscribe failed, serving room locally", zap.String("thread_id", threadID), zap.Error(err))
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.threads[threadID] == nil || h.subs[threadID] != nil {
		cancel()
		return
	}
	h.subs[threadID] = cancel
	delete(h.local, threadID)
}

// Unregister removes a client. The last client of a room cancels the Redis
// subscription.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.threads[c.ThreadID]; ok {
		if _, ok := m[c.ID]; ok {
			delete(m, c.ID)
			close(c.send)
		}
		if len(m) == 0 {
			delete(h.threads, c.ThreadID)
			delete(h.local, c.ThreadID)
			if cancel, ok := h.subs[c.ThreadID]; ok {
				cancel()
				delete(h.subs, c.ThreadID)
			}
		}
	}
	h.mu.Unlock()
	h.logger.Debug("client left thread", zap.String("client_id", c.ID), zap.String("thread_id", c.ThreadID))
}

func encode(payload interface{}) ([]byte, error) {
	switch v := payload.(type) {
	case []byte:
		return v, nil
	case json.RawMessage:
		return v, nil
	}
	return json.Marshal(payload)
}

// BroadcastToThread sends a message to all local clients of a thread.
func (h *Hub) BroadcastToThread(threadID, event string, payload interface{}) {
	data, err := encode(payload)
	if err != nil {
		h.logger.Warn("encode event", zap.String("event", event), zap.Error(err))
		return
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.threads[threadID] {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// Publish delivers an event to every subscriber of the thread. With Redis
// configured the subscriber callback performs the broadcast once for all
// instances, including this one, unless the room is served locally.
func (h *Hub) Publish(threadID, event string, payload interface{}) {
	data, err := encode(payload)
	if err != nil {
		h.logger.Warn("encode event", zap.String("event", event), zap.Error(err))
		return
	}
	if h.pub != nil {
		err := h.pub.PublishThreadEvent(threadID, event, data)
		if err == nil {
			h.mu.RLock()
			local := h.local[threadID]
			h.mu.RUnlock()
			if local {
				h.BroadcastToThread(threadID, event, json.RawMessage(data))
			}
			return
		}
		h.logger.Warn("publish thread event, falling back to local", zap.String("thread_id", threadID), zap.Error(err))
	}
	h.BroadcastToThread(threadID, event, json.RawMessage(data))
}

// SubscriberCount returns the number of local clients watching a thread.
func (h *Hub) SubscriberCount(threadID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.threads[threadID])
}

// SendToClient sends a message to a single local client.
func (h *Hub) SendToClient(threadID, clientID, event string, payload interface{}) {
	data, err := encode(payload)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.threads[threadID][clientID]
	if !ok {
		return
	}
	select {
	case c.send <- WSMessage{Event: event, Data: data}:
	default:
	}
}
