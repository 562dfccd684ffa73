package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
)

const TypeItemCreated = "item_created"

// Message is the live-update notification pushed to a list's subscribers.
type Message struct {
	Type   string `json:"type"`
	ListID int64  `json:"list_id"`
	ItemID int64  `json:"item_id,omitempty"`
	Text   string `json:"text,omitempty"`
}

func ItemCreated(listID, itemID int64, text string) Message {
	return Message{
		Type:   TypeItemCreated,
		ListID: listID,
		ItemID: itemID,
		Text:   text,
	}
}

// Hub tracks connected clients per list and fans out messages to them.
type Hub struct {
	mu     sync.RWMutex
	lists  map[int64]map[*Client]struct{}
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		lists:  make(map[int64]map[*Client]struct{}),
		logger: logger,
	}
}

// Register subscribes a client to its list.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.lists[c.listID]
	if !ok {
		subs = make(map[*Client]struct{})
		h.lists[c.listID] = subs
	}
	subs[c] = struct{}{}
}

// Unregister removes a client and closes its send channel. Safe to call twice.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.lists[c.listID]
	if !ok {
		return
	}
	if _, ok := subs[c]; !ok {
		return
	}
	delete(subs, c)
	close(c.send)
	if len(subs) == 0 {
		delete(h.lists, c.listID)
	}
}

// Broadcast sends msg to every client subscribed to msg.ListID.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.lists[msg.ListID] {
		select {
		case c.send <- data:
		default:
			// buffer full, drop rather than block the sender
			h.logger.Warn("dropped live update", "list_id", msg.ListID)
		}
	}
}

// ClientCount returns the number of clients subscribed to a list.
func (h *Hub) ClientCount(listID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.lists[listID])
}

// ListCount returns the number of lists with at least one subscriber.
func (h *Hub) ListCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.lists)
}
