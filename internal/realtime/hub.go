// Package realtime pushes live vote results to websocket clients, optionally
// fanned out across instances through Redis pub/sub.
package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat, in seconds.
	PingInterval = 30
	PongWait     = 60

	// EventResults carries the tally of a question.
	EventResults = "results"
)

// Publisher publishes a question event to other instances.
type Publisher interface {
	PublishQuestionEvent(questionID, event string, payload []byte) error
}

// Subscriber subscribes to a question channel and invokes handler for incoming events.
type Subscriber interface {
	SubscribeQuestion(questionID string, handler func(event string, payload []byte)) (cancel func(), err error)
}

// Hub maintains question id -> set of connections and broadcasts messages.
type Hub struct {
	rooms  map[string]map[string]*Client
	subs   map[string]func() // cancel Redis subscription per question
	mu     sync.RWMutex
	logger *zap.Logger
	pub    Publisher
	sub    Subscriber
}

// NewHub creates a hub. pub and sub may be nil for a single-instance deployment.
func NewHub(logger *zap.Logger, pub Publisher, sub Subscriber) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		rooms:  make(map[string]map[string]*Client),
		subs:   make(map[string]func()),
		logger: logger,
		pub:    pub,
		sub:    sub,
	}
}

// Register adds a client to a question room. Starts the Redis subscription
// for this question if it is the first client.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	first := h.rooms[c.QuestionID] == nil
	if first {
		h.rooms[c.QuestionID] = make(map[string]*Client)
	}
	h.rooms[c.QuestionID][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("client joined question", zap.String("client_id", c.ID), zap.String("question_id", c.QuestionID))

	if first && h.sub != nil {
		h.subscribe(c.QuestionID)
	}
}

// subscribe runs outside h.mu. The subscription is dropped if the room emptied
// meanwhile or another Register already stored one.
func (h *Hub) subscribe(questionID string) {
	cancel, err := h.sub.SubscribeQuestion(questionID, func(event string, payload []byte) {
		h.Broadcast(questionID, event, json.RawMessage(payload))
	})
	if err != nil {
		h.logger.Warn("subscribe question", zap.String("question_id", questionID), zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, dup := h.subs[questionID]; dup || h.rooms[questionID] == nil {
		cancel()
		return
	}
	h.subs[questionID] = cancel
}

// Unregister removes a client from its room and closes its send channel.
// Cancels the Redis subscription when the last client leaves.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.rooms[c.QuestionID]; ok {
		if _, ok := m[c.ID]; ok {
			delete(m, c.ID)
			close(c.send)
		}
		if len(m) == 0 {
			delete(h.rooms, c.QuestionID)
			if cancel, ok := h.subs[c.QuestionID]; ok {
				cancel()
				delete(h.subs, c.QuestionID)
			}
		}
	}
	h.mu.Unlock()
	h.logger.Debug("client left question", zap.String("client_id", c.ID), zap.String("question_id", c.QuestionID))
}

// Broadcast sends a message to all local clients watching questionID.
func (h *Hub) Broadcast(questionID, event string, payload interface{}) {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		var err error
		if data, err = json.Marshal(payload); err != nil {
			h.logger.Error("marshal event", zap.String("event", event), zap.Error(err))
			return
		}
	}
	msg := Message{Event: event, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.rooms[questionID] {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// Publish delivers an event to every instance. With Redis configured the
// subscriber callback performs the local broadcast, so local clients get the
// event once; without Redis it broadcasts locally.
func (h *Hub) Publish(questionID, event string, payload interface{}) {
	if h.pub == nil {
		h.Broadcast(questionID, event, payload)
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("marshal event", zap.String("event", event), zap.Error(err))
		return
	}
	if err := h.pub.PublishQuestionEvent(questionID, event, data); err != nil {
		h.logger.Warn("publish question event, falling back to local broadcast", zap.String("question_id", questionID), zap.Error(err))
		h.Broadcast(questionID, event, json.RawMessage(data))
	}
}

// watchers returns the number of local clients watching questionID.
func (h *Hub) watchers(questionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[questionID])
}
