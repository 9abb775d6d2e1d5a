package store

// Op identifies the kind of committed write a Change describes.
type Op string

const (
	// OpCreate marks a document creation.
	OpCreate Op = "create"
	// OpUpdate marks a document overwrite.
	OpUpdate Op = "update"
	// OpDelete marks a document removal.
	OpDelete Op = "delete"
)

// Change describes one committed write. Doc holds the typed document
// (*domain.List, *domain.Todo, ...); for deletes it is the last stored
// version. The SSE layer maps changes onto client events and applies
// per-user delivery filtering.
type Change struct {
	Collection string
	Op         Op
	ID         string
	Doc        any
}
