package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/daylistapp/daylist-server/internal/domain"
	"github.com/daylistapp/daylist-server/internal/errors"
	"github.com/daylistapp/daylist-server/internal/id"
	"github.com/daylistapp/daylist-server/internal/store"
	"github.com/daylistapp/daylist-server/internal/view"
)

// TodoService serves the one-shot REST mutations on todos. Streaming
// clients mutate through their ListView instead; both paths share the
// same authorization and write-through semantics.
type TodoService struct {
	store      *store.Store
	authorizer *view.Authorizer
	activity   *ActivityService
	logger     *slog.Logger
}

// NewTodoService creates a new todo service.
func NewTodoService(st *store.Store, authorizer *view.Authorizer, activity *ActivityService, logger *slog.Logger) *TodoService {
	return &TodoService{
		store:      st,
		authorizer: authorizer,
		activity:   activity,
		logger:     logger,
	}
}

// ListTodos returns the current todos of a list, one-shot, with the
// requested ordering and filter.
func (s *TodoService) ListTodos(ctx context.Context, principalID, listID string, ordering view.Ordering, filter view.Filter) ([]*domain.Todo, error) {
	v, err := view.OpenListView(ctx, s.store, s.authorizer, listID, principalID, ordering, filter)
	if err != nil {
		return nil, err
	}
	defer v.Close()

	// The initial snapshot is computed before OpenListView returns.
	return v.Current(), nil
}

// AddTodo validates and creates a todo under a list the principal may
// write.
func (s *TodoService) AddTodo(ctx context.Context, principalID, listID, text string) (*domain.Todo, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.Validation("todo text cannot be empty")
	}

	list, err := s.authorizer.Authorize(ctx, listID, principalID)
	if err != nil {
		return nil, err
	}

	todoID, err := id.Generate("todo")
	if err != nil {
		return nil, fmt.Errorf("generate todo ID: %w", err)
	}

	todo := domain.NewTodo(todoID, listID, text, principalID)
	if err := s.store.Todos.Create(ctx, todo.ID, todo); err != nil {
		return nil, fmt.Errorf("create todo: %w", err)
	}

	s.activity.Record(ctx, &domain.Activity{
		ActorID: principalID,
		Verb:    domain.VerbTodoAdded,
		ListID:  listID,
		ItemID:  todo.ID,
		Summary: fmt.Sprintf("added %q to %q", todo.Text, list.Name),
	})

	return todo, nil
}

// ToggleTodo flips a todo's completed flag: read, negate, last-writer-
// wins write. Two racing toggles can negate the same value and settle
// on it; that matches the view-level contract.
func (s *TodoService) ToggleTodo(ctx context.Context, principalID, listID, todoID string) (*domain.Todo, error) {
	list, err := s.authorizer.Authorize(ctx, listID, principalID)
	if err != nil {
		return nil, err
	}

	todo, err := s.store.Todos.Get(ctx, todoID)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, errors.NotFound("todo not found")
		}
		return nil, fmt.Errorf("get todo: %w", err)
	}
	if todo.ListID != listID {
		// The id exists under a different list; to this caller it does
		// not exist.
		return nil, errors.NotFound("todo not found")
	}

	todo.Completed = !todo.Completed
	todo.UpdatedAt = time.Now().UTC()
	if err := s.store.Todos.Update(ctx, todo.ID, todo); err != nil {
		return nil, fmt.Errorf("update todo: %w", err)
	}

	s.activity.Record(ctx, &domain.Activity{
		ActorID: principalID,
		Verb:    domain.VerbTodoToggled,
		ListID:  listID,
		ItemID:  todo.ID,
		Summary: fmt.Sprintf("toggled %q in %q", todo.Text, list.Name),
	})

	return todo, nil
}

// DeleteTodo deletes by id. Absent ids are a no-op, so a repeated
// delete never errors.
func (s *TodoService) DeleteTodo(ctx context.Context, principalID, listID, todoID string) error {
	list, err := s.authorizer.Authorize(ctx, listID, principalID)
	if err != nil {
		return err
	}

	// A todo under another list must not be deletable through this
	// list's route.
	todo, err := s.store.Todos.Get(ctx, todoID)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("get todo: %w", err)
	}
	if todo.ListID != listID {
		return nil
	}

	if err := s.store.Todos.Delete(ctx, todoID); err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}

	s.activity.Record(ctx, &domain.Activity{
		ActorID: principalID,
		Verb:    domain.VerbTodoDeleted,
		ListID:  listID,
		ItemID:  todoID,
		Summary: fmt.Sprintf("removed %q from %q", todo.Text, list.Name),
	})

	return nil
}
