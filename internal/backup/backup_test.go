package backup

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daylistapp/daylist-server/internal/activity"
	"github.com/daylistapp/daylist-server/internal/domain"
	"github.com/daylistapp/daylist-server/internal/errors"
	"github.com/daylistapp/daylist-server/internal/store"
)

func openStore(t *testing.T, dir string) *store.Store {
	t.Helper()
	s, err := store.New(dir, slog.New(slog.DiscardHandler), store.NoopEmitter{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func openLog(t *testing.T, path string) *activity.Log {
	t.Helper()
	log, err := activity.Open(path, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(func() { _ = log.Close() })
	return log
}

func seedStore(t *testing.T, s *store.Store, log *activity.Log) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	user := &domain.User{
		ID:           "user_alice",
		Email:        "alice@example.com",
		DisplayName:  "Alice",
		PasswordHash: "x",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, s.Users.Create(ctx, user.ID, user))

	list := domain.NewList("list_groceries", "Groceries", user.ID, nil)
	require.NoError(t, s.Lists.Create(ctx, list.ID, list))

	todo := domain.NewTodo("todo_milk", list.ID, "Milk", user.ID)
	require.NoError(t, s.Todos.Create(ctx, todo.ID, todo))

	contact := &domain.Contact{
		ID:        "contact_margaret",
		Name:      "Margaret Hamilton",
		CreatedBy: user.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.Contacts.Create(ctx, contact.ID, contact))

	require.NoError(t, log.Record(ctx, &domain.Activity{
		ActorID: user.ID,
		Verb:    domain.VerbListCreated,
		ListID:  list.ID,
		Summary: "created list \"Groceries\"",
	}))
}

func newService(t *testing.T, s *store.Store, log *activity.Log, backupDir string) *Service {
	t.Helper()
	return NewService(s, log, backupDir, "Test Server", "dev", slog.New(slog.DiscardHandler))
}

func TestBackupRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	src := openStore(t, filepath.Join(dir, "src"))
	srcLog := openLog(t, filepath.Join(dir, "src-activity.db"))
	seedStore(t, src, srcLog)

	backupDir := filepath.Join(dir, "backups")
	svc := newService(t, src, srcLog, backupDir)

	result, err := svc.Create(ctx, ExportOptions{IncludeActivity: true})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Counts.Users)
	assert.Equal(t, 1, result.Counts.Lists)
	assert.Equal(t, 1, result.Counts.Todos)
	assert.Equal(t, 1, result.Counts.Contacts)
	assert.Equal(t, 1, result.Counts.Activities)
	assert.NotEmpty(t, result.Checksum)
	assert.Positive(t, result.Size)

	// Restore into a fresh store.
	dst := openStore(t, filepath.Join(dir, "dst"))
	dstLog := openLog(t, filepath.Join(dir, "dst-activity.db"))
	restoreSvc := newService(t, dst, dstLog, backupDir)

	backups, err := restoreSvc.List(ctx)
	require.NoError(t, err)
	require.Len(t, backups, 1)

	counts, err := restoreSvc.Restore(ctx, backups[0].ID, RestoreOptions{})
	require.NoError(t, err)
	assert.Equal(t, result.Counts, *counts)

	user, err := dst.Users.Get(ctx, "user_alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)

	todo, err := dst.Todos.Get(ctx, "todo_milk")
	require.NoError(t, err)
	assert.Equal(t, "Milk", todo.Text)
	assert.Equal(t, "list_groceries", todo.ListID)

	feed, err := dstLog.FeedForList(ctx, "list_groceries", 10)
	require.NoError(t, err)
	assert.Len(t, feed, 1)

	// The email index survives the restore.
	byEmail, err := dst.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "user_alice", byEmail.ID)
}

func TestRestoreRefusesPopulatedStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	src := openStore(t, filepath.Join(dir, "src"))
	srcLog := openLog(t, filepath.Join(dir, "src-activity.db"))
	seedStore(t, src, srcLog)

	backupDir := filepath.Join(dir, "backups")
	svc := newService(t, src, srcLog, backupDir)

	_, err := svc.Create(ctx, ExportOptions{})
	require.NoError(t, err)

	backups, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, backups, 1)

	// Restoring into the same (populated) store fails without force.
	_, err = svc.Restore(ctx, backups[0].ID, RestoreOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConflict))
}

func TestGetUnknownBackup(t *testing.T) {
	dir := t.TempDir()
	s := openStore(t, filepath.Join(dir, "src"))
	svc := newService(t, s, nil, filepath.Join(dir, "backups"))

	_, err := svc.Get(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestListEmptyDir(t *testing.T) {
	dir := t.TempDir()
	s := openStore(t, filepath.Join(dir, "src"))
	svc := newService(t, s, nil, filepath.Join(dir, "missing"))

	backups, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, backups)

	// Unrelated files are ignored once the dir exists.
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "missing"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "missing", "notes.txt"), []byte("x"), 0o644))
	backups, err = svc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, backups)
}
