package store

import (
	"context"
	"slices"
)

// Query describes the result set a caller wants from a collection:
// a conjunction of equality or array-membership filters and a single
// sort key, ascending or descending.
type Query[T any] struct {
	// Match reports whether a document belongs to the result set.
	// Nil matches everything.
	Match func(*T) bool
	// Less orders the result set. Nil leaves store iteration order
	// (key order), which is stable but unspecified to callers.
	Less func(a, b *T) bool
}

// Eq builds an equality filter over one field.
func Eq[T any, V comparable](field func(*T) V, want V) func(*T) bool {
	return func(doc *T) bool { return field(doc) == want }
}

// Contains builds an array-membership filter over one string-array field.
func Contains[T any](field func(*T) []string, want string) func(*T) bool {
	return func(doc *T) bool { return slices.Contains(field(doc), want) }
}

// And combines filters into a conjunction.
func And[T any](preds ...func(*T) bool) func(*T) bool {
	return func(doc *T) bool {
		for _, p := range preds {
			if !p(doc) {
				return false
			}
		}
		return true
	}
}

// Find evaluates a query against the current collection contents and
// returns the full result set. This is the one-shot form of Subscribe;
// both produce identical snapshots for the same query and state.
func (c *Collection[T]) Find(ctx context.Context, q Query[T]) ([]*T, error) {
	var out []*T
	for doc, err := range c.All(ctx) {
		if err != nil {
			return nil, err
		}
		if q.Match == nil || q.Match(doc) {
			out = append(out, doc)
		}
	}
	if q.Less != nil {
		slices.SortStableFunc(out, func(a, b *T) int {
			switch {
			case q.Less(a, b):
				return -1
			case q.Less(b, a):
				return 1
			default:
				return 0
			}
		})
	}
	return out, nil
}
