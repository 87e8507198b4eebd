package websocket

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

var (
	// ErrClientClosed is returned when sending to a closed subscriber
	ErrClientClosed = errors.New("client is closed")
	// ErrSendBufferFull is returned when a subscriber has fallen too far behind
	ErrSendBufferFull = errors.New("client send buffer is full")
)

// Subscriber is a connection the hub delivers workspace events to. Send must not block.
type Subscriber interface {
	ID() string
	WorkspaceID() int32
	Wants(entity EntityType) bool
	Send(data []byte) error
	Close() error
}

// Hub tracks subscribers per workspace and fans ledger events out to them.
// Events for one workspace reach each subscriber in the order Broadcast was called.
type Hub struct {
	mu         sync.RWMutex
	workspaces map[int32]map[string]Subscriber

	// broadcastMu serializes delivery so concurrent ledger mutations cannot
	// interleave a transaction event with another mutation's balance event
	broadcastMu sync.Mutex

	logger zerolog.Logger
}

// NewHub creates a new Hub
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		workspaces: make(map[int32]map[string]Subscriber),
		logger:     logger.With().Str("component", "ws_hub").Logger(),
	}
}

// Register adds a subscriber under its workspace
func (h *Hub) Register(sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	workspaceID := sub.WorkspaceID()
	if h.workspaces[workspaceID] == nil {
		h.workspaces[workspaceID] = make(map[string]Subscriber)
	}
	h.workspaces[workspaceID][sub.ID()] = sub

	h.logger.Debug().
		Int32("workspace_id", workspaceID).
		Str("client_id", sub.ID()).
		Msg("Subscriber registered")
}

// Unregister removes a subscriber. Unknown subscribers are ignored.
func (h *Hub) Unregister(sub Subscriber) {
	if h.remove(sub) {
		h.logger.Debug().
			Int32("workspace_id", sub.WorkspaceID()).
			Str("client_id", sub.ID()).
			Msg("Subscriber unregistered")
	}
}

func (h *Hub) remove(sub Subscriber) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.workspaces[sub.WorkspaceID()]
	if _, ok := clients[sub.ID()]; !ok {
		return false
	}
	delete(clients, sub.ID())
	if len(clients) == 0 {
		delete(h.workspaces, sub.WorkspaceID())
	}
	return true
}

// Broadcast delivers an event to every subscriber of the workspace that wants
// its entity. Subscribers whose buffer is full are disconnected.
func (h *Hub) Broadcast(workspaceID int32, event Event) {
	data, err := event.ToJSON()
	if err != nil {
		h.logger.Error().
			Err(err).
			Int32("workspace_id", workspaceID).
			Str("event_type", event.Type).
			Msg("Failed to serialize event")
		return
	}

	h.broadcastMu.Lock()
	defer h.broadcastMu.Unlock()

	h.mu.RLock()
	targets := make([]Subscriber, 0, len(h.workspaces[workspaceID]))
	for _, sub := range h.workspaces[workspaceID] {
		if sub.Wants(event.Entity) {
			targets = append(targets, sub)
		}
	}
	h.mu.RUnlock()

	var slow []Subscriber
	for _, sub := range targets {
		switch err := sub.Send(data); {
		case errors.Is(err, ErrSendBufferFull):
			slow = append(slow, sub)
		case err != nil:
			h.logger.Debug().Err(err).Str("client_id", sub.ID()).Msg("Skipping closed subscriber")
		}
	}

	for _, sub := range slow {
		h.logger.Warn().
			Int32("workspace_id", workspaceID).
			Str("client_id", sub.ID()).
			Msg("Disconnecting subscriber that stopped reading")
		h.remove(sub)
		_ = sub.Close()
	}

	h.logger.Debug().
		Int32("workspace_id", workspaceID).
		Str("event_type", event.Type).
		Int("delivered", len(targets)-len(slow)).
		Msg("Broadcast event")
}

// ClientCount returns the number of subscribers of a workspace
func (h *Hub) ClientCount(workspaceID int32) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.workspaces[workspaceID])
}

// TotalClientCount returns the number of subscribers across all workspaces
func (h *Hub) TotalClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, clients := range h.workspaces {
		total += len(clients)
	}
	return total
}

// CloseAll disconnects every subscriber, used on shutdown
func (h *Hub) CloseAll() {
	h.mu.Lock()
	all := h.workspaces
	h.workspaces = make(map[int32]map[string]Subscriber)
	h.mu.Unlock()

	for _, clients := range all {
		for _, sub := range clients {
			_ = sub.Close()
		}
	}
}
