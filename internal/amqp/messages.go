package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType names what changed.
type EventType string

const (
	EventExpenditureCreated EventType = "expenditure.created"
	EventExpenditureDeleted EventType = "expenditure.deleted"
	EventSettingsChanged    EventType = "settings.changed"
)

// ChangeEvent is a lightweight notification that budget data changed. It
// carries only identifiers; consumers read current state from the stores.
type ChangeEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	RecordID   string    `json:"record_id,omitempty"`
	SettingKey string    `json:"setting_key,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewRecordEvent creates a created/deleted event for an expenditure.
func NewRecordEvent(t EventType, recordID string) *ChangeEvent {
	return &ChangeEvent{
		ID:        uuid.NewString(),
		Type:      t,
		RecordID:  recordID,
		Timestamp: time.Now(),
	}
}

// NewSettingsEvent creates a settings.changed event for key.
func NewSettingsEvent(key string) *ChangeEvent {
	return &ChangeEvent{
		ID:         uuid.NewString(),
		Type:       EventSettingsChanged,
		SettingKey: key,
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (m *ChangeEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeEventFromJSON decodes and validates an event.
func ChangeEventFromJSON(data []byte) (*ChangeEvent, error) {
	var msg ChangeEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Type {
	case EventExpenditureCreated, EventExpenditureDeleted:
		if msg.RecordID == "" {
			return nil, fmt.Errorf("%s event without record id", msg.Type)
		}
	case EventSettingsChanged:
	case "":
		return nil, errors.New("event without type")
	default:
		return nil, fmt.Errorf("unknown event type %q", msg.Type)
	}
	return &msg, nil
}
