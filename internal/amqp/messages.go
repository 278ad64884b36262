package amqp

import (
	"encoding/json"
	"time"
)

// EventType discriminates ledger event messages on the events queue.
type EventType string

const (
	// EventEntryChanged signals that a family's committed entries changed
	// (add, edit or delete). Consumers drop cached summaries for the family.
	EventEntryChanged EventType = "entry_changed"
	// EventSyncCompleted signals that replay committed queued offline
	// writes. Count carries how many were synced.
	EventSyncCompleted EventType = "sync_completed"
)

// EventMessage is the wire format for ledger events. It is intentionally
// small: consumers fetch fresh state from the store rather than trusting
// message payloads.
type EventMessage struct {
	Type      EventType `json:"type"`
	FamilyID  string    `json:"family_id"`
	Count     int       `json:"count,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEntryChangedMessage(familyID string) *EventMessage {
	return &EventMessage{
		Type:      EventEntryChanged,
		FamilyID:  familyID,
		Timestamp: time.Now(),
	}
}

func NewSyncCompletedMessage(familyID string, count int) *EventMessage {
	return &EventMessage{
		Type:      EventSyncCompleted,
		FamilyID:  familyID,
		Count:     count,
		Timestamp: time.Now(),
	}
}

func (m *EventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func EventMessageFromJSON(data []byte) (*EventMessage, error) {
	var msg EventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
