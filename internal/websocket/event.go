package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents what happened to an entity
type EventType string

const (
	EventTypePersisted       EventType = "persisted"
	EventTypeAwaitingMapping EventType = "awaiting_mapping"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypeDecisions EntityType = "decisions"
	EntityTypeStatement EntityType = "statement"
)

// Event represents a WebSocket event message sent to clients
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`      // Combined type e.g. "decisions.persisted"
	Entity    EntityType  `json:"entity"`    // Entity type e.g. "decisions"
	Payload   interface{} `json:"payload"`   // Event data
	Timestamp time.Time   `json:"timestamp"` // Event timestamp
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

// DecisionsPersisted creates a decisions.persisted event
func DecisionsPersisted(payload interface{}) Event {
	return NewEvent(EventTypePersisted, EntityTypeDecisions, payload)
}

// StatementAwaitingMapping creates a statement.awaiting_mapping event
func StatementAwaitingMapping(payload interface{}) Event {
	return NewEvent(EventTypeAwaitingMapping, EntityTypeStatement, payload)
}
