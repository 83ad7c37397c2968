package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType names the store mutation an event reports.
type EventType string

const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventDeleted EventType = "deleted"
	EventCleared EventType = "cleared"
)

func (t EventType) IsValid() bool {
	switch t {
	case EventCreated, EventUpdated, EventDeleted, EventCleared:
		return true
	default:
		return false
	}
}

// SubscriptionEvent is a change notification. It carries only the record ID;
// consumers read the record itself from the store.
type SubscriptionEvent struct {
	Type      EventType `json:"type"`
	ID        string    `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSubscriptionEvent stamps an event with the current time. id is empty
// for EventCleared.
func NewSubscriptionEvent(t EventType, id string) *SubscriptionEvent {
	return &SubscriptionEvent{
		Type:      t,
		ID:        id,
		Timestamp: time.Now().UTC(),
	}
}

func (e *SubscriptionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// SubscriptionEventFromJSON decodes an event and rejects unknown types.
func SubscriptionEventFromJSON(data []byte) (*SubscriptionEvent, error) {
	var e SubscriptionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if !e.Type.IsValid() {
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
	return &e, nil
}
