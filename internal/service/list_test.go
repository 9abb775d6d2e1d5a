package service

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daylistapp/daylist-server/internal/activity"
	"github.com/daylistapp/daylist-server/internal/domain"
	"github.com/daylistapp/daylist-server/internal/errors"
	"github.com/daylistapp/daylist-server/internal/store"
	"github.com/daylistapp/daylist-server/internal/view"
)

type listFixture struct {
	store    *store.Store
	lists    *ListService
	todos    *TodoService
	activity *ActivityService
	log      *activity.Log
}

func setupListTest(t *testing.T) *listFixture {
	t.Helper()

	dir := t.TempDir()
	logger := slog.New(slog.DiscardHandler)

	s, err := store.New(filepath.Join(dir, "db"), logger, store.NoopEmitter{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	log, err := activity.Open(filepath.Join(dir, "activity.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = log.Close() })

	authorizer := view.NewAuthorizer(s)
	activitySvc := NewActivityService(log, s, logger)

	return &listFixture{
		store:    s,
		lists:    NewListService(s, authorizer, activitySvc, logger),
		todos:    NewTodoService(s, authorizer, activitySvc, logger),
		activity: activitySvc,
		log:      log,
	}
}

func (f *listFixture) addUser(t *testing.T, id string) {
	t.Helper()
	u := &domain.User{ID: id, Email: id + "@example.com", DisplayName: id}
	require.NoError(t, f.store.Users.Create(context.Background(), u.ID, u))
}

func TestListService_CreateList(t *testing.T) {
	f := setupListTest(t)
	ctx := context.Background()
	f.addUser(t, "alice")
	f.addUser(t, "bob")

	t.Run("deduplicates collaborators with creator first", func(t *testing.T) {
		list, err := f.lists.CreateList(ctx, "alice", CreateListRequest{
			Name:          "Groceries",
			Collaborators: []string{"bob", "alice", "bob"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"alice", "bob"}, list.Collaborators)
		assert.Equal(t, "alice", list.CreatedBy)
	})

	t.Run("creator alone when no collaborators given", func(t *testing.T) {
		list, err := f.lists.CreateList(ctx, "alice", CreateListRequest{Name: "Solo"})
		require.NoError(t, err)
		assert.Equal(t, []string{"alice"}, list.Collaborators)
	})

	t.Run("rejects unknown collaborator", func(t *testing.T) {
		_, err := f.lists.CreateList(ctx, "alice", CreateListRequest{
			Name:          "Broken",
			Collaborators: []string{"nobody"},
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrValidation))
	})

	t.Run("rejects blank name", func(t *testing.T) {
		_, err := f.lists.CreateList(ctx, "alice", CreateListRequest{Name: "   "})
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrValidation))
	})

	t.Run("rejects anonymous caller", func(t *testing.T) {
		_, err := f.lists.CreateList(ctx, "", CreateListRequest{Name: "Nope"})
		require.Error(t, err)
	})
}

func TestListService_ListsFor(t *testing.T) {
	f := setupListTest(t)
	ctx := context.Background()
	f.addUser(t, "alice")
	f.addUser(t, "bob")

	_, err := f.lists.CreateList(ctx, "alice", CreateListRequest{Name: "Mine"})
	require.NoError(t, err)
	shared, err := f.lists.CreateList(ctx, "bob", CreateListRequest{
		Name:          "Shared",
		Collaborators: []string{"alice"},
	})
	require.NoError(t, err)
	_, err = f.lists.CreateList(ctx, "bob", CreateListRequest{Name: "Private"})
	require.NoError(t, err)

	lists, err := f.lists.ListsFor(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, lists, 2)

	// Newest first; the shared list was created after alice's own.
	assert.Equal(t, shared.ID, lists[0].ID)

	_, err = f.lists.ListsFor(ctx, "")
	assert.True(t, errors.Is(err, errors.ErrForbidden))
}

func TestListService_DeleteList(t *testing.T) {
	f := setupListTest(t)
	ctx := context.Background()
	f.addUser(t, "alice")
	f.addUser(t, "bob")

	list, err := f.lists.CreateList(ctx, "alice", CreateListRequest{
		Name:          "Groceries",
		Collaborators: []string{"bob"},
	})
	require.NoError(t, err)

	t.Run("collaborator cannot delete", func(t *testing.T) {
		err := f.lists.DeleteList(ctx, "bob", list.ID, true)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrForbidden))
	})

	t.Run("creator must confirm", func(t *testing.T) {
		err := f.lists.DeleteList(ctx, "alice", list.ID, false)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrValidation))

		_, err = f.lists.GetList(ctx, "alice", list.ID)
		require.NoError(t, err)
	})

	t.Run("confirmed delete does not cascade to todos", func(t *testing.T) {
		todo, err := f.todos.AddTodo(ctx, "alice", list.ID, "Milk")
		require.NoError(t, err)

		require.NoError(t, f.lists.DeleteList(ctx, "alice", list.ID, true))

		_, err = f.lists.GetList(ctx, "alice", list.ID)
		assert.True(t, errors.Is(err, errors.ErrNotFound))

		// The todo record survives; the janitor reclaims it later.
		orphan, err := f.store.Todos.Get(ctx, todo.ID)
		require.NoError(t, err)
		assert.Equal(t, "Milk", orphan.Text)
	})

	t.Run("outsider sees forbidden, unknown id not found", func(t *testing.T) {
		other, err := f.lists.CreateList(ctx, "alice", CreateListRequest{Name: "Other"})
		require.NoError(t, err)

		err = f.lists.DeleteList(ctx, "bob", other.ID, true)
		assert.True(t, errors.Is(err, errors.ErrForbidden))

		err = f.lists.DeleteList(ctx, "alice", "list_missing", true)
		assert.True(t, errors.Is(err, errors.ErrNotFound))
	})
}
