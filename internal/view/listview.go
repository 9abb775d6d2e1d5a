package view

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/daylistapp/daylist-server/internal/domain"
	"github.com/daylistapp/daylist-server/internal/errors"
	"github.com/daylistapp/daylist-server/internal/id"
	"github.com/daylistapp/daylist-server/internal/store"
)

// ListView is a live, ordered projection of the todos in one list.
//
// Mutations write through to the store and never touch the local
// snapshot; the next delivery is the only confirmation. There is an
// inherent window between write acknowledgement and visible update,
// and callers must not assume synchronous consistency.
type ListView struct {
	*liveView[domain.Todo]

	st          *store.Store
	auth        *Authorizer
	listID      string
	principalID string
	listName    string

	optMu    sync.Mutex
	ordering Ordering
	filter   Filter
}

// OpenListView authorizes the principal against the list and, only on
// success, opens the subscription. A Forbidden or NotFound principal
// never gets a subscription, not even a short-lived one.
func OpenListView(ctx context.Context, s *store.Store, auth *Authorizer, listID, principalID string, ordering Ordering, filter Filter) (*ListView, error) {
	list, err := auth.Authorize(ctx, listID, principalID)
	if err != nil {
		return nil, err
	}

	v := &ListView{
		st:          s,
		auth:        auth,
		listID:      listID,
		principalID: principalID,
		listName:    list.Name,
		ordering:    ordering,
		filter:      filter,
	}
	v.liveView = newLiveView(s.Todos, v.buildQuery)

	if err := v.open(ctx); err != nil {
		return nil, err
	}
	return v, nil
}

// ListName returns the display name captured during authorization.
func (v *ListView) ListName() string {
	return v.listName
}

// Ordering returns the active ordering.
func (v *ListView) Ordering() Ordering {
	v.optMu.Lock()
	defer v.optMu.Unlock()
	return v.ordering
}

// Filter returns the active completion filter.
func (v *ListView) Filter() Filter {
	v.optMu.Lock()
	defer v.optMu.Unlock()
	return v.filter
}

func (v *ListView) buildQuery() store.Query[domain.Todo] {
	v.optMu.Lock()
	ordering, filter := v.ordering, v.filter
	v.optMu.Unlock()

	match := store.Eq(func(t *domain.Todo) string { return t.ListID }, v.listID)
	switch filter {
	case FilterPending:
		match = store.And(match, func(t *domain.Todo) bool { return !t.Completed })
	case FilterCompleted:
		match = store.And(match, func(t *domain.Todo) bool { return t.Completed })
	}

	// Collators are not goroutine-safe, and an outgoing subscription
	// may still be evaluating while the replacement computes its
	// initial snapshot, so every query owns its own collator.
	col := newCollator()

	var less func(a, b *domain.Todo) bool
	switch ordering {
	case OrderNameAsc:
		less = func(a, b *domain.Todo) bool { return col.CompareString(a.Text, b.Text) < 0 }
	case OrderNameDesc:
		less = func(a, b *domain.Todo) bool { return col.CompareString(a.Text, b.Text) > 0 }
	case OrderCreatedDesc:
		less = func(a, b *domain.Todo) bool { return a.CreatedAt.After(b.CreatedAt) }
	default:
		less = func(a, b *domain.Todo) bool { return a.CreatedAt.Before(b.CreatedAt) }
	}

	return store.Query[domain.Todo]{Match: match, Less: less}
}

// AddItem validates and writes a new todo. The local snapshot is not
// appended to; the item appears when the subscription delivers it.
func (v *ListView) AddItem(ctx context.Context, text string) (*domain.Todo, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.Validation("todo text cannot be empty")
	}

	// Re-run the membership check: collaborators may have changed
	// since the view was opened.
	if _, err := v.auth.Authorize(ctx, v.listID, v.principalID); err != nil {
		return nil, err
	}

	todoID, err := id.Generate("todo")
	if err != nil {
		return nil, errors.Internal("generate id").WithCause(err)
	}
	todo := domain.NewTodo(todoID, v.listID, text, v.principalID)
	if err := v.st.Todos.Create(ctx, todo.ID, todo); err != nil {
		return nil, mapStoreErr(err)
	}
	return todo, nil
}

// ToggleItem writes the logical negation of the last-known local
// completed flag. The flag may be stale while another writer's toggle
// is in flight; both then write the same negated value and the item
// settles there. Last-writer-wins, a known consistency gap.
func (v *ListView) ToggleItem(ctx context.Context, todoID string) error {
	var last *domain.Todo
	for _, t := range v.Current() {
		if t.ID == todoID {
			last = t
			break
		}
	}
	if last == nil {
		return errors.NotFound("todo not found")
	}

	if _, err := v.auth.Authorize(ctx, v.listID, v.principalID); err != nil {
		return err
	}

	updated := *last
	updated.Completed = !last.Completed
	updated.UpdatedAt = time.Now().UTC()
	if err := v.st.Todos.Update(ctx, todoID, &updated); err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return errors.NotFound("todo not found")
		}
		return mapStoreErr(err)
	}
	return nil
}

// DeleteItem deletes by identifier with no existence check; deleting
// an absent id is a no-op. Subscription delivery is the sole
// confirmation of deletion.
func (v *ListView) DeleteItem(ctx context.Context, todoID string) error {
	if _, err := v.auth.Authorize(ctx, v.listID, v.principalID); err != nil {
		return err
	}
	if err := v.st.Todos.Delete(ctx, todoID); err != nil {
		return mapStoreErr(err)
	}
	return nil
}

// ChangeOrdering tears down the subscription and reopens it with the
// new ordering.
func (v *ListView) ChangeOrdering(ctx context.Context, ordering Ordering) error {
	v.optMu.Lock()
	v.ordering = ordering
	v.optMu.Unlock()
	return v.resubscribe(ctx)
}

// ChangeFilter tears down the subscription and reopens it with the new
// completion filter.
func (v *ListView) ChangeFilter(ctx context.Context, filter Filter) error {
	v.optMu.Lock()
	v.filter = filter
	v.optMu.Unlock()
	return v.resubscribe(ctx)
}
