package session

import "sync"

// Manager keys a Gate and its view Registry by server session id.
// Stream handlers register their live views under the session that
// opened them; revoking the session signs its gate out, which closes
// every registered view through the gate binding.
type Manager struct {
	mu      sync.Mutex
	entries map[string]*managed
}

type managed struct {
	gate     *Gate
	registry *Registry
	unbind   func()
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{entries: make(map[string]*managed)}
}

// Attach ensures a gate exists for the session and signs it in as the
// principal. Safe to call again on token refresh; the gate just
// transitions to the (possibly updated) principal snapshot.
func (m *Manager) Attach(sessionID string, p Principal) {
	m.mu.Lock()
	e, ok := m.entries[sessionID]
	if !ok {
		gate := NewGate()
		registry := NewRegistry()
		e = &managed{
			gate:     gate,
			registry: registry,
			unbind:   BindGate(gate, registry),
		}
		m.entries[sessionID] = e
	}
	m.mu.Unlock()

	e.gate.SignIn(p)
}

// Registry returns the view registry for a session, or nil if the
// session is not attached.
func (m *Manager) Registry(sessionID string) *Registry {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[sessionID]; ok {
		return e.registry
	}
	return nil
}

// State returns the gate state for a session. An unattached session
// reports the unknown state.
func (m *Manager) State(sessionID string) State {
	m.mu.Lock()
	e, ok := m.entries[sessionID]
	m.mu.Unlock()
	if !ok {
		return State{}
	}
	return e.gate.State()
}

// SignOut transitions the session's gate to unauthenticated, closing
// its registered views, and discards the entry. Unknown sessions are
// a no-op.
func (m *Manager) SignOut(sessionID string) {
	m.mu.Lock()
	e, ok := m.entries[sessionID]
	if ok {
		delete(m.entries, sessionID)
	}
	m.mu.Unlock()

	if !ok {
		return
	}
	e.gate.SignOut()
	// Watch delivery is asynchronous; close the views directly so
	// revocation is effective when SignOut returns. The cancel funcs
	// are exactly-once, so the gate binding firing too is harmless.
	e.registry.CloseAll()
	e.unbind()
}

// SignOutAll revokes every attached session. Used on shutdown so no
// view outlives its transport.
func (m *Manager) SignOutAll() {
	m.mu.Lock()
	entries := m.entries
	m.entries = make(map[string]*managed)
	m.mu.Unlock()

	for _, e := range entries {
		e.gate.SignOut()
		e.registry.CloseAll()
		e.unbind()
	}
}
