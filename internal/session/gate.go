// Package session tracks the authenticated principal and fans
// auth-state transitions out to dependent components.
package session

import (
	"sync"
	"sync/atomic"
)

// Principal identifies a signed-in user. DisplayName and AvatarURL are
// display hints only and never consulted for authorization.
type Principal struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// State is one immutable snapshot of the auth state. Known is false
// until the identity layer reports a definite answer; consumers must
// not treat an unknown state as either signed in or signed out.
type State struct {
	Known         bool
	Authenticated bool
	Principal     Principal
}

// Gate holds the current auth state. The identity layer is the single
// writer; everything else reads the snapshot or watches transitions.
// Each transition replaces the whole snapshot, so a reader can never
// observe Authenticated true alongside a stale principal.
type Gate struct {
	state atomic.Pointer[State]

	mu       sync.Mutex
	watchers map[uint64]chan State
	nextID   uint64
}

// NewGate creates a gate in the unknown state.
func NewGate() *Gate {
	g := &Gate{watchers: make(map[uint64]chan State)}
	g.state.Store(&State{})
	return g
}

// State returns the current snapshot.
func (g *Gate) State() State {
	return *g.state.Load()
}

// SignIn transitions the gate to authenticated as the given principal.
func (g *Gate) SignIn(p Principal) {
	g.transition(State{Known: true, Authenticated: true, Principal: p})
}

// SignOut transitions the gate to unauthenticated and clears the
// principal.
func (g *Gate) SignOut() {
	g.transition(State{Known: true})
}

func (g *Gate) transition(next State) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.state.Store(&next)
	for _, ch := range g.watchers {
		// Latest-wins: displace an undelivered state so a slow
		// watcher always sees the newest transition.
		select {
		case <-ch:
		default:
		}
		ch <- next
	}
}

// Watch registers for auth-state transitions. The returned channel
// carries each new state; an undelivered state is displaced by a newer
// one. The cancel func unregisters the watcher and is safe to call
// more than once.
func (g *Gate) Watch() (<-chan State, func()) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.nextID
	g.nextID++
	ch := make(chan State, 1)
	g.watchers[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.watchers, id)
			g.mu.Unlock()
		})
	}
	return ch, cancel
}
