package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daylistapp/daylist-server/internal/domain"
	"github.com/daylistapp/daylist-server/internal/errors"
	"github.com/daylistapp/daylist-server/internal/view"
)

func setupListWithUsers(t *testing.T) (*listFixture, *domain.List) {
	t.Helper()
	f := setupListTest(t)
	f.addUser(t, "alice")
	f.addUser(t, "bob")
	f.addUser(t, "mallory")

	list, err := f.lists.CreateList(context.Background(), "alice", CreateListRequest{
		Name:          "Groceries",
		Collaborators: []string{"bob"},
	})
	require.NoError(t, err)
	return f, list
}

func TestTodoService_AddTodo(t *testing.T) {
	f, list := setupListWithUsers(t)
	ctx := context.Background()

	todo, err := f.todos.AddTodo(ctx, "alice", list.ID, "  Milk  ")
	require.NoError(t, err)
	assert.Equal(t, "Milk", todo.Text)
	assert.False(t, todo.Completed)
	assert.Equal(t, "alice", todo.CreatedBy)

	t.Run("blank text rejected", func(t *testing.T) {
		_, err := f.todos.AddTodo(ctx, "alice", list.ID, "   ")
		assert.True(t, errors.Is(err, errors.ErrValidation))
	})

	t.Run("non-collaborator forbidden", func(t *testing.T) {
		_, err := f.todos.AddTodo(ctx, "mallory", list.ID, "Eggs")
		assert.True(t, errors.Is(err, errors.ErrForbidden))
	})

	t.Run("unknown list not found", func(t *testing.T) {
		_, err := f.todos.AddTodo(ctx, "alice", "list_missing", "Eggs")
		assert.True(t, errors.Is(err, errors.ErrNotFound))
	})
}

func TestTodoService_ListTodos(t *testing.T) {
	f, list := setupListWithUsers(t)
	ctx := context.Background()

	for _, text := range []string{"Apples", "bread", "Milk"} {
		_, err := f.todos.AddTodo(ctx, "alice", list.ID, text)
		require.NoError(t, err)
	}

	todos, err := f.todos.ListTodos(ctx, "bob", list.ID, view.OrderNameAsc, view.FilterAll)
	require.NoError(t, err)
	require.Len(t, todos, 3)
	assert.Equal(t, "Apples", todos[0].Text)
	assert.Equal(t, "bread", todos[1].Text)
	assert.Equal(t, "Milk", todos[2].Text)

	_, err = f.todos.ListTodos(ctx, "mallory", list.ID, view.DefaultOrdering, view.FilterAll)
	assert.True(t, errors.Is(err, errors.ErrForbidden))
}

func TestTodoService_ToggleTodo(t *testing.T) {
	f, list := setupListWithUsers(t)
	ctx := context.Background()

	todo, err := f.todos.AddTodo(ctx, "alice", list.ID, "Milk")
	require.NoError(t, err)

	toggled, err := f.todos.ToggleTodo(ctx, "bob", list.ID, todo.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Completed)

	toggled, err = f.todos.ToggleTodo(ctx, "bob", list.ID, todo.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Completed)

	t.Run("unknown todo not found", func(t *testing.T) {
		_, err := f.todos.ToggleTodo(ctx, "alice", list.ID, "todo_missing")
		assert.True(t, errors.Is(err, errors.ErrNotFound))
	})

	t.Run("todo under another list not found", func(t *testing.T) {
		other, err := f.lists.CreateList(ctx, "alice", CreateListRequest{Name: "Other"})
		require.NoError(t, err)
		foreign, err := f.todos.AddTodo(ctx, "alice", other.ID, "Elsewhere")
		require.NoError(t, err)

		_, err = f.todos.ToggleTodo(ctx, "alice", list.ID, foreign.ID)
		assert.True(t, errors.Is(err, errors.ErrNotFound))
	})
}

func TestTodoService_DeleteTodo(t *testing.T) {
	f, list := setupListWithUsers(t)
	ctx := context.Background()

	todo, err := f.todos.AddTodo(ctx, "alice", list.ID, "Milk")
	require.NoError(t, err)

	require.NoError(t, f.todos.DeleteTodo(ctx, "alice", list.ID, todo.ID))

	// A second delete of the same id is a no-op.
	require.NoError(t, f.todos.DeleteTodo(ctx, "alice", list.ID, todo.ID))

	todos, err := f.todos.ListTodos(ctx, "alice", list.ID, view.DefaultOrdering, view.FilterAll)
	require.NoError(t, err)
	assert.Empty(t, todos)

	t.Run("todo under another list untouched", func(t *testing.T) {
		other, err := f.lists.CreateList(ctx, "alice", CreateListRequest{Name: "Other"})
		require.NoError(t, err)
		foreign, err := f.todos.AddTodo(ctx, "alice", other.ID, "Elsewhere")
		require.NoError(t, err)

		require.NoError(t, f.todos.DeleteTodo(ctx, "alice", list.ID, foreign.ID))

		kept, err := f.store.Todos.Get(ctx, foreign.ID)
		require.NoError(t, err)
		assert.Equal(t, "Elsewhere", kept.Text)
	})

	t.Run("non-collaborator forbidden", func(t *testing.T) {
		err := f.todos.DeleteTodo(ctx, "mallory", list.ID, "whatever")
		assert.True(t, errors.Is(err, errors.ErrForbidden))
	})
}
