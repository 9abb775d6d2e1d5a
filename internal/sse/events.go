// Package sse implements Server-Sent Events for live list, todo, and
// contact updates.
package sse

import (
	"time"

	"github.com/daylistapp/daylist-server/internal/domain"
	"github.com/daylistapp/daylist-server/internal/store"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventListCreated represents a list creation event.
	EventListCreated EventType = "list.created"
	// EventListUpdated represents a list update event.
	EventListUpdated EventType = "list.updated"
	// EventListDeleted represents a list deletion event.
	EventListDeleted EventType = "list.deleted"

	// EventTodoCreated represents a todo creation event.
	EventTodoCreated EventType = "todo.created"
	// EventTodoUpdated represents a todo update event, including toggles.
	EventTodoUpdated EventType = "todo.updated"
	// EventTodoDeleted represents a todo deletion event.
	EventTodoDeleted EventType = "todo.deleted"

	// EventContactCreated represents a contact creation event.
	EventContactCreated EventType = "contact.created"
	// EventContactDeleted represents a contact deletion event.
	EventContactDeleted EventType = "contact.deleted"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
// The Data field contains the event payload as a JSON object for direct
// deserialization.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`

	// Delivery filters, never serialized. At most one of these is set:
	// UserID delivers to a single user, Recipients to an explicit set,
	// ListID to whoever the access checker admits. All empty means
	// broadcast to every client.
	UserID     string   `json:"-"`
	ListID     string   `json:"-"`
	Recipients []string `json:"-"`
}

// TodoDeletedEventData is the data payload for todo delete events.
type TodoDeletedEventData struct {
	DeletedAt time.Time `json:"deleted_at"`
	TodoID    string    `json:"todo_id"`
	ListID    string    `json:"list_id"`
}

// ListDeletedEventData is the data payload for list delete events.
type ListDeletedEventData struct {
	DeletedAt time.Time `json:"deleted_at"`
	ListID    string    `json:"list_id"`
}

// ContactDeletedEventData is the data payload for contact delete events.
type ContactDeletedEventData struct {
	DeletedAt time.Time `json:"deleted_at"`
	ContactID string    `json:"contact_id"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	return Event{
		Type: EventHeartbeat,
		Data: HeartbeatEventData{
			ServerTime: time.Now(),
		},
		Timestamp: time.Now(),
	}
}

// opEventType maps a store op onto the created/updated/deleted triple
// for the given resource.
func opEventType(op store.Op, created, updated, deleted EventType) (EventType, bool) {
	switch op {
	case store.OpCreate:
		return created, true
	case store.OpUpdate:
		return updated, true
	case store.OpDelete:
		return deleted, true
	default:
		return "", false
	}
}

// FromChange maps a committed store change onto a client event with
// its delivery filter. Changes that clients never see, such as user
// and session writes, return ok=false.
func FromChange(change store.Change) (Event, bool) {
	now := time.Now()

	switch change.Collection {
	case "list":
		list, ok := change.Doc.(*domain.List)
		if !ok {
			return Event{}, false
		}
		eventType, ok := opEventType(change.Op, EventListCreated, EventListUpdated, EventListDeleted)
		if !ok {
			return Event{}, false
		}
		event := Event{
			Type: eventType,
			Data: list,
			// A deleted list cannot be re-read for membership; the last
			// stored version names who must hear about it.
			Recipients: list.Collaborators,
			Timestamp:  now,
		}
		if change.Op == store.OpDelete {
			event.Data = ListDeletedEventData{ListID: change.ID, DeletedAt: now}
		}
		return event, true

	case "todo":
		todo, ok := change.Doc.(*domain.Todo)
		if !ok {
			return Event{}, false
		}
		eventType, ok := opEventType(change.Op, EventTodoCreated, EventTodoUpdated, EventTodoDeleted)
		if !ok {
			return Event{}, false
		}
		event := Event{
			Type:      eventType,
			Data:      todo,
			ListID:    todo.ListID,
			Timestamp: now,
		}
		if change.Op == store.OpDelete {
			event.Data = TodoDeletedEventData{TodoID: change.ID, ListID: todo.ListID, DeletedAt: now}
		}
		return event, true

	case "contact":
		contact, ok := change.Doc.(*domain.Contact)
		if !ok {
			return Event{}, false
		}
		var eventType EventType
		switch change.Op {
		case store.OpCreate:
			eventType = EventContactCreated
		case store.OpDelete:
			eventType = EventContactDeleted
		default:
			// Contacts are immutable once created; updates only happen
			// through delete-and-recreate.
			return Event{}, false
		}
		event := Event{
			Type:      eventType,
			Data:      contact,
			UserID:    contact.CreatedBy,
			Timestamp: now,
		}
		if change.Op == store.OpDelete {
			event.Data = ContactDeletedEventData{ContactID: change.ID, DeletedAt: now}
		}
		return event, true

	default:
		return Event{}, false
	}
}
