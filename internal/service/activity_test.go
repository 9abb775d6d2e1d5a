package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daylistapp/daylist-server/internal/domain"
)

func TestActivityFeed_ScopedToCollaborators(t *testing.T) {
	f := setupListTest(t)
	ctx := context.Background()
	f.addUser(t, "alice")
	f.addUser(t, "bob")

	private, err := f.lists.CreateList(ctx, "alice", CreateListRequest{Name: "Secret plans"})
	require.NoError(t, err)
	_, err = f.todos.AddTodo(ctx, "alice", private.ID, "buy surprise gift")
	require.NoError(t, err)

	shared, err := f.lists.CreateList(ctx, "alice", CreateListRequest{
		Name:          "Groceries",
		Collaborators: []string{"bob"},
	})
	require.NoError(t, err)
	_, err = f.todos.AddTodo(ctx, "alice", shared.ID, "Milk")
	require.NoError(t, err)

	// Bob only collaborates on the shared list; the private list must
	// not surface in his feed, not even by name.
	feed, err := f.activity.Feed(ctx, "bob", 50, nil, 0)
	require.NoError(t, err)
	require.Len(t, feed, 2)
	for _, a := range feed {
		assert.Equal(t, shared.ID, a.ListID)
		assert.NotContains(t, a.Summary, "Secret plans")
		assert.NotContains(t, a.Summary, "surprise")
	}

	// Alice sees all four entries across both of her lists.
	feed, err = f.activity.Feed(ctx, "alice", 50, nil, 0)
	require.NoError(t, err)
	assert.Len(t, feed, 4)
}

func TestActivityFeed_IncludesOwnContactActivity(t *testing.T) {
	f := setupListTest(t)
	ctx := context.Background()
	f.addUser(t, "alice")
	f.addUser(t, "bob")

	// Contact activity carries no list id; it is private to the actor.
	f.activity.Record(ctx, &domain.Activity{
		ActorID: "alice",
		Verb:    domain.VerbContactAdded,
		ItemID:  "contact-1",
		Summary: `added contact "Margaret"`,
	})

	feed, err := f.activity.Feed(ctx, "alice", 50, nil, 0)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, "alice", feed[0].ActorID)

	feed, err = f.activity.Feed(ctx, "bob", 50, nil, 0)
	require.NoError(t, err)
	assert.Empty(t, feed)
}

func TestActivityFeed_RequiresPrincipal(t *testing.T) {
	f := setupListTest(t)

	_, err := f.activity.Feed(context.Background(), "", 50, nil, 0)
	assert.Error(t, err)
}
