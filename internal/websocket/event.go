package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents what happened to an entity
type EventType string

const (
	EventTypeCreated        EventType = "created"
	EventTypeUpdated        EventType = "updated"
	EventTypeDeleted        EventType = "deleted"
	EventTypeGenerated      EventType = "generated"
	EventTypeBalanceChanged EventType = "balance_changed"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypeTransaction EntityType = "transaction"
	EntityTypeRecurring   EntityType = "recurring"
	EntityTypeAccount     EntityType = "account"
)

var allEntities = []EntityType{EntityTypeTransaction, EntityTypeRecurring, EntityTypeAccount}

// IsValid reports whether e is an entity events are published for
func (e EntityType) IsValid() bool {
	for _, known := range allEntities {
		if e == known {
			return true
		}
	}
	return false
}

// Event is the envelope pushed to subscribers.
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"` // e.g. "transaction.created"
	Entity    EntityType  `json:"entity"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionCreated creates a transaction.created event
func TransactionCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeTransaction, payload)
}

// TransactionUpdated creates a transaction.updated event
func TransactionUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeTransaction, payload)
}

// TransactionDeleted creates a transaction.deleted event
func TransactionDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypeTransaction, payload)
}

// RecurringGenerated creates a recurring.generated event, sent once per
// materialized transaction
func RecurringGenerated(payload interface{}) Event {
	return NewEvent(EventTypeGenerated, EntityTypeRecurring, payload)
}

// AccountBalanceChanged creates an account.balance_changed event
func AccountBalanceChanged(payload interface{}) Event {
	return NewEvent(EventTypeBalanceChanged, EntityTypeAccount, payload)
}
