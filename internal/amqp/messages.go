package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"paytrack/internal/core"
)

// EventType names the change an EntryEvent describes.
type EventType string

const (
	EventCreated       EventType = "created"
	EventStatusChanged EventType = "status_changed"
	EventDeleted       EventType = "deleted"
)

// EntryEvent is published after a change has been persisted. Created events
// carry the full entry; the others carry the id and, for status changes, the
// new status.
type EntryEvent struct {
	Type      EventType   `json:"type"`
	EntryID   string      `json:"entry_id"`
	Entry     *core.Entry `json:"entry,omitempty"`
	Status    core.Status `json:"status,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func NewCreatedEvent(e core.Entry) *EntryEvent {
	return &EntryEvent{Type: EventCreated, EntryID: e.ID, Entry: &e, Status: e.Status, Timestamp: time.Now().UTC()}
}

func NewStatusChangedEvent(id string, status core.Status) *EntryEvent {
	return &EntryEvent{Type: EventStatusChanged, EntryID: id, Status: status, Timestamp: time.Now().UTC()}
}

func NewDeletedEvent(id string) *EntryEvent {
	return &EntryEvent{Type: EventDeleted, EntryID: id, Timestamp: time.Now().UTC()}
}

// Validate rejects events a consumer could not act on.
func (m *EntryEvent) Validate() error {
	if m.EntryID == "" {
		return fmt.Errorf("event %q: %w", m.Type, core.ErrMissingID)
	}
	switch m.Type {
	case EventCreated:
		if m.Entry == nil {
			return fmt.Errorf("created event for %s has no entry", m.EntryID)
		}
	case EventStatusChanged:
		if err := m.Status.Validate(); err != nil {
			return fmt.Errorf("status event for %s: %w", m.EntryID, err)
		}
	case EventDeleted:
	default:
		return fmt.Errorf("unknown event type %q", m.Type)
	}
	return nil
}

func (m *EntryEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func EntryEventFromJSON(data []byte) (*EntryEvent, error) {
	var msg EntryEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
