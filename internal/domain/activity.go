package domain

import "time"

// ActivityVerb identifies the kind of mutation an activity records.
type ActivityVerb string

const (
	// VerbListCreated records a list creation.
	VerbListCreated ActivityVerb = "list.created"
	// VerbListDeleted records a list deletion.
	VerbListDeleted ActivityVerb = "list.deleted"
	// VerbTodoAdded records a todo added to a list.
	VerbTodoAdded ActivityVerb = "todo.added"
	// VerbTodoToggled records a todo completion toggle.
	VerbTodoToggled ActivityVerb = "todo.toggled"
	// VerbTodoDeleted records a todo removed from a list.
	VerbTodoDeleted ActivityVerb = "todo.deleted"
	// VerbContactAdded records a contact creation.
	VerbContactAdded ActivityVerb = "contact.added"
	// VerbContactDeleted records a contact deletion.
	VerbContactDeleted ActivityVerb = "contact.deleted"
)

// Activity is one audit entry for a mutation on shared data.
// Entries are written best-effort after the store write succeeds;
// a failed activity write never fails the mutation itself.
type Activity struct {
	ID        int64        `json:"id"`
	ActorID   string       `json:"actor_id"`
	Verb      ActivityVerb `json:"verb"`
	ListID    string       `json:"list_id,omitempty"`
	ItemID    string       `json:"item_id,omitempty"`
	Summary   string       `json:"summary"`
	CreatedAt time.Time    `json:"created_at"`
}
