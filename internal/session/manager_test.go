package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_AttachAndState(t *testing.T) {
	m := NewManager()

	assert.False(t, m.State("sess-1").Known)

	m.Attach("sess-1", Principal{ID: "user-a", DisplayName: "Ada"})
	s := m.State("sess-1")
	require.True(t, s.Known)
	assert.True(t, s.Authenticated)
	assert.Equal(t, "user-a", s.Principal.ID)

	// Re-attach on refresh updates the principal snapshot.
	m.Attach("sess-1", Principal{ID: "user-a", DisplayName: "Ada L."})
	assert.Equal(t, "Ada L.", m.State("sess-1").Principal.DisplayName)
}

func TestManager_SignOutClosesViews(t *testing.T) {
	m := NewManager()
	m.Attach("sess-1", Principal{ID: "user-a"})

	var closed int
	m.Registry("sess-1").Add(func() { closed++ })

	m.SignOut("sess-1")
	assert.Equal(t, 1, closed)
	assert.False(t, m.State("sess-1").Known)
	assert.Nil(t, m.Registry("sess-1"))

	// Revoking an unknown session is a no-op.
	m.SignOut("sess-gone")
}

func TestManager_SignOutAll(t *testing.T) {
	m := NewManager()

	var closed int
	for _, id := range []string{"sess-1", "sess-2"} {
		m.Attach(id, Principal{ID: "user-" + id})
		m.Registry(id).Add(func() { closed++ })
	}

	m.SignOutAll()
	assert.Equal(t, 2, closed)
	assert.Nil(t, m.Registry("sess-1"))
	assert.Nil(t, m.Registry("sess-2"))
}
