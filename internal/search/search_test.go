package search

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daylistapp/daylist-server/internal/domain"
)

func newTestIndex(t *testing.T) *ContactIndex {
	t.Helper()

	idx, err := Open(t.TempDir(), slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func contact(id, name, owner string) *domain.Contact {
	now := time.Now()
	return &domain.Contact{
		ID:        id,
		Name:      name,
		CreatedBy: owner,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestContactIndex_SearchScopedToOwner(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.IndexContact(contact("contact-1", "Jane Doe", "user-a")))
	require.NoError(t, idx.IndexContact(contact("contact-2", "Jane Smith", "user-b")))

	hits, err := idx.Search(ctx, "user-a", "jane", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "contact-1", hits[0].ID)
	assert.Equal(t, "Jane Doe", hits[0].Name)
}

func TestContactIndex_PrefixAndFuzzy(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.IndexContact(contact("contact-1", "Margaret Hamilton", "user-a")))

	// Partially typed name.
	hits, err := idx.Search(ctx, "user-a", "marg", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)

	// One edit away.
	hits, err = idx.Search(ctx, "user-a", "hamiltan", 10)
	require.NoError(t, err)
	assert.NotEmpty(t, hits)
}

func TestContactIndex_ShortQueriesStayExact(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.IndexContact(contact("contact-1", "Jane Doe", "user-a")))
	require.NoError(t, idx.IndexContact(contact("contact-2", "John Roe", "user-a")))

	// "roe" is one edit from "doe"; a 3-rune query must not drag in
	// near-miss names.
	hits, err := idx.Search(ctx, "user-a", "roe", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "contact-2", hits[0].ID)

	// Four runes and up keep the typo tolerance.
	hits, err = idx.Search(ctx, "user-a", "jame", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "contact-1", hits[0].ID)
}

func TestContactIndex_DeleteRemovesFromResults(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.IndexContact(contact("contact-1", "Jane Doe", "user-a")))
	require.NoError(t, idx.DeleteContact("contact-1"))

	hits, err := idx.Search(ctx, "user-a", "jane", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestContactIndex_Rebuild(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	contacts := []*domain.Contact{
		contact("contact-1", "Jane Doe", "user-a"),
		contact("contact-2", "John Roe", "user-a"),
	}
	require.NoError(t, idx.Rebuild(contacts))

	hits, err := idx.Search(ctx, "user-a", "roe", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "contact-2", hits[0].ID)
}
