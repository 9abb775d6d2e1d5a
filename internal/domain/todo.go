package domain

import "time"

// Todo is a task belonging to a list. Readers must hold list
// membership at read time; the store schema does not enforce it.
type Todo struct {
	ID        string    `json:"id"`
	ListID    string    `json:"list_id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewTodo constructs an incomplete todo under the given list.
func NewTodo(id, listID, text, creatorID string) *Todo {
	now := time.Now()
	return &Todo{
		ID:        id,
		ListID:    listID,
		Text:      text,
		Completed: false,
		CreatedBy: creatorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks the invariants a decoded todo record must satisfy.
func (t *Todo) Validate() error {
	if t.ID == "" {
		return ErrMissingID
	}
	if t.ListID == "" {
		return ErrMissingField("list_id")
	}
	if t.Text == "" {
		return ErrMissingField("text")
	}
	return nil
}
