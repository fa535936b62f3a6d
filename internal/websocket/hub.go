package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Message is a change notice. Clients re-fetch the named entity; the notice
// itself carries no state.
type Message struct {
	Type   string         `json:"type"`
	Entity string         `json:"entity"`
	Action string         `json:"action"`
	ID     int64          `json:"id,omitempty"`
	Extra  map[string]any `json:"extra,omitempty"`
}

// NewMessage builds a notice whose Type is "<entity>_<action>", e.g. completion_approved.
func NewMessage(entity, action string, id int64, extra map[string]any) Message {
	return Message{Type: entity + "_" + action, Entity: entity, Action: action, ID: id, Extra: extra}
}

// Hub keeps subscribers grouped by family so a notice only reaches the
// family it concerns.
type Hub struct {
	mu       sync.RWMutex
	families map[int64]map[*Client]struct{}
	logger   *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		families: make(map[int64]map[*Client]struct{}),
		logger:   logger.With("component", "websocket"),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.families[c.familyID]
	if !ok {
		set = make(map[*Client]struct{})
		h.families[c.familyID] = set
	}
	set[c] = struct{}{}
}

// Unregister drops c and closes its send channel. Calling it twice is safe.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.families[c.familyID]
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.families, c.familyID)
	}
}

// Broadcast queues msg for every subscriber of familyID. A subscriber whose
// buffer is full misses the notice and catches up on its next re-fetch.
func (h *Hub) Broadcast(familyID int64, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("encode notice", "error", err, "type", msg.Type)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.families[familyID] {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("subscriber buffer full, notice dropped", "family_id", familyID, "type", msg.Type)
		}
	}
}

// Publish lets the hub serve as the schedule service's publisher.
func (h *Hub) Publish(familyID int64, entity, action string, id int64, extra map[string]any) {
	h.Broadcast(familyID, NewMessage(entity, action, id, extra))
}

// ClientCount reports subscribers across all families.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.families {
		n += len(set)
	}
	return n
}
