package session

import "sync"

// Registry tracks cancel funcs for live subscriptions opened under the
// current session. When the gate transitions to unauthenticated, every
// registered subscription is cancelled, so no view keeps receiving
// data after the authorization context that justified opening it is
// gone.
type Registry struct {
	mu     sync.Mutex
	nextID uint64
	open   map[uint64]func()
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{open: make(map[uint64]func())}
}

// Add registers a cancel func and returns a release func that
// unregisters it without cancelling. Callers release on normal
// teardown and rely on CloseAll for sign-out.
func (r *Registry) Add(cancel func()) (release func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++
	r.open[id] = cancel

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.open, id)
			r.mu.Unlock()
		})
	}
}

// CloseAll cancels every registered subscription and empties the
// registry.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	open := r.open
	r.open = make(map[uint64]func())
	r.mu.Unlock()

	for _, cancel := range open {
		cancel()
	}
}

// Len reports how many subscriptions are currently registered.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.open)
}

// BindGate wires a registry to a gate: any transition to a
// not-authenticated state closes all registered subscriptions. The
// returned stop func detaches the binding.
func BindGate(g *Gate, r *Registry) (stop func()) {
	ch, cancel := g.Watch()
	done := make(chan struct{})

	go func() {
		for {
			select {
			case state := <-ch:
				if state.Known && !state.Authenticated {
					r.CloseAll()
				}
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			close(done)
		})
	}
}
