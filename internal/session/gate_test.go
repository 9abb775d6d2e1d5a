package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitState(t *testing.T, ch <-chan State) State {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for auth state")
		return State{}
	}
}

func TestGate_InitialStateIsUnknown(t *testing.T) {
	g := NewGate()

	s := g.State()
	assert.False(t, s.Known)
	assert.False(t, s.Authenticated)
}

func TestGate_SignInReplacesWholeSnapshot(t *testing.T) {
	g := NewGate()

	g.SignIn(Principal{ID: "user-a", DisplayName: "Ada"})
	s := g.State()
	require.True(t, s.Known)
	require.True(t, s.Authenticated)
	assert.Equal(t, "user-a", s.Principal.ID)
	assert.Equal(t, "Ada", s.Principal.DisplayName)

	g.SignOut()
	s = g.State()
	require.True(t, s.Known)
	assert.False(t, s.Authenticated)
	// Principal cleared with the same transition, never left behind.
	assert.Empty(t, s.Principal.ID)
}

func TestGate_WatchDeliversTransitions(t *testing.T) {
	g := NewGate()
	ch, cancel := g.Watch()
	defer cancel()

	g.SignIn(Principal{ID: "user-a"})
	s := waitState(t, ch)
	assert.True(t, s.Authenticated)

	g.SignOut()
	s = waitState(t, ch)
	assert.False(t, s.Authenticated)
}

func TestGate_WatchCoalescesForSlowWatcher(t *testing.T) {
	g := NewGate()
	ch, cancel := g.Watch()
	defer cancel()

	g.SignIn(Principal{ID: "user-a"})
	g.SignOut()
	g.SignIn(Principal{ID: "user-b"})

	// Only the newest state is observable.
	s := waitState(t, ch)
	assert.True(t, s.Authenticated)
	assert.Equal(t, "user-b", s.Principal.ID)

	select {
	case extra := <-ch:
		t.Fatalf("unexpected buffered state: %+v", extra)
	default:
	}
}

func TestGate_CancelledWatcherStopsReceiving(t *testing.T) {
	g := NewGate()
	ch, cancel := g.Watch()

	cancel()
	cancel() // safe to call twice

	g.SignIn(Principal{ID: "user-a"})
	select {
	case s := <-ch:
		t.Fatalf("unexpected state after cancel: %+v", s)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRegistry_CloseAll(t *testing.T) {
	r := NewRegistry()

	var closed []int
	for i := range 3 {
		r.Add(func() { closed = append(closed, i) })
	}
	require.Equal(t, 3, r.Len())

	r.CloseAll()
	assert.Len(t, closed, 3)
	assert.Zero(t, r.Len())
}

func TestRegistry_ReleaseDoesNotCancel(t *testing.T) {
	r := NewRegistry()

	var cancelled bool
	release := r.Add(func() { cancelled = true })
	release()
	release() // no-op

	r.CloseAll()
	assert.False(t, cancelled)
}

func TestBindGate_SignOutClosesSubscriptions(t *testing.T) {
	g := NewGate()
	r := NewRegistry()
	stop := BindGate(g, r)
	defer stop()

	done := make(chan struct{})
	r.Add(func() { close(done) })

	g.SignIn(Principal{ID: "user-a"})
	select {
	case <-done:
		t.Fatal("sign-in must not close subscriptions")
	case <-time.After(50 * time.Millisecond):
	}

	g.SignOut()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sign-out did not close subscriptions")
	}
}

func TestNameCache(t *testing.T) {
	c := NewNameCache(t.TempDir())

	assert.Empty(t, c.Get())
	require.NoError(t, c.Put("Ada"))
	assert.Equal(t, "Ada", c.Get())
	require.NoError(t, c.Clear())
	assert.Empty(t, c.Get())
	// Clearing an empty cache is fine.
	require.NoError(t, c.Clear())
}
