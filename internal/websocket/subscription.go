package websocket

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// Subscriber control actions
const (
	ActionSubscribe   = "subscribe"
	ActionUnsubscribe = "unsubscribe"
)

// ControlMessage is the only message a subscriber may send:
//
//	{"action": "subscribe", "entities": ["transaction", "account"]}
//
// A connection starts subscribed to every entity. Subscribe replaces the set,
// unsubscribe removes from it.
type ControlMessage struct {
	Action   string       `json:"action"`
	Entities []EntityType `json:"entities"`
}

// ParseControlMessage decodes and validates a control message
func ParseControlMessage(data []byte) (ControlMessage, error) {
	var msg ControlMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, fmt.Errorf("decode control message: %w", err)
	}
	if msg.Action != ActionSubscribe && msg.Action != ActionUnsubscribe {
		return msg, fmt.Errorf("unknown action %q", msg.Action)
	}
	for _, e := range msg.Entities {
		if !e.IsValid() {
			return msg, fmt.Errorf("unknown entity %q", e)
		}
	}
	return msg, nil
}

// ParseEntityList parses a comma separated list such as "transaction,account"
func ParseEntityList(raw string) ([]EntityType, error) {
	var out []EntityType
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		e := EntityType(part)
		if !e.IsValid() {
			return nil, fmt.Errorf("unknown entity %q", part)
		}
		out = append(out, e)
	}
	return out, nil
}

// subscriptions is the set of entities a subscriber receives events for.
// A nil set means everything.
type subscriptions struct {
	mu       sync.RWMutex
	entities map[EntityType]bool
}

func (s *subscriptions) wants(entity EntityType) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entities == nil || s.entities[entity]
}

// apply replaces the set on subscribe (an empty list restores everything) and
// removes the listed entities on unsubscribe
func (s *subscriptions) apply(msg ControlMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch msg.Action {
	case ActionSubscribe:
		if len(msg.Entities) == 0 {
			s.entities = nil
			return
		}
		s.entities = make(map[EntityType]bool, len(msg.Entities))
		for _, e := range msg.Entities {
			s.entities[e] = true
		}
	case ActionUnsubscribe:
		if s.entities == nil {
			s.entities = make(map[EntityType]bool, len(allEntities))
			for _, e := range allEntities {
				s.entities[e] = true
			}
		}
		for _, e := range msg.Entities {
			delete(s.entities, e)
		}
	}
}
