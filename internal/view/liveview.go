package view

import (
	"context"
	"sync"

	"github.com/daylistapp/daylist-server/internal/store"
)

// liveView is the shared machinery behind ListView and ContactView:
// one store subscription at a time, a coalescing output channel, and
// the last delivered snapshot kept for mutation methods that need the
// last-known local state.
type liveView[T any] struct {
	coll  *store.Collection[T]
	query func() store.Query[T]

	mu      sync.Mutex
	sub     *store.Subscription[T]
	current []*T
	closed  bool

	outMu     sync.Mutex
	out       chan []*T
	outClosed bool
}

func newLiveView[T any](coll *store.Collection[T], query func() store.Query[T]) *liveView[T] {
	return &liveView[T]{
		coll:  coll,
		query: query,
		out:   make(chan []*T, 1),
	}
}

// open establishes the first subscription. The initial snapshot is
// computed before open returns, so the view never renders state older
// than the authorization that admitted it.
func (v *liveView[T]) open(ctx context.Context) error {
	return v.resubscribe(ctx)
}

// resubscribe tears down the current subscription, if any, and opens a
// new one with the current query. The old subscription is cancelled
// before the new one opens: two live subscriptions on one view would
// leak a watcher and deliver duplicates.
func (v *liveView[T]) resubscribe(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return nil
	}
	if v.sub != nil {
		v.sub.Cancel()
		v.sub = nil
	}

	sub, err := v.coll.Subscribe(ctx, v.query())
	if err != nil {
		v.closed = true
		v.closeOut()
		return mapStoreErr(err)
	}
	v.sub = sub
	v.current = sub.Initial()
	go v.pump(sub)
	return nil
}

// pump forwards snapshots from one subscription to the view's output.
// A pump left over from before a resubscribe exits as soon as it
// notices it no longer serves the current subscription.
func (v *liveView[T]) pump(sub *store.Subscription[T]) {
	for snap := range sub.Snapshots() {
		v.mu.Lock()
		if v.sub != sub {
			v.mu.Unlock()
			return
		}
		v.current = snap
		v.mu.Unlock()
		v.push(snap)
	}

	// The subscription's channel closed. If this pump still serves the
	// current subscription, delivery ended for real, either via Close
	// or a mid-subscription store failure, and the consumer must see
	// the output channel close.
	v.mu.Lock()
	still := v.sub == sub
	v.mu.Unlock()
	if still {
		v.closeOut()
	}
}

// push places a snapshot in the outbox, displacing an undelivered one.
func (v *liveView[T]) push(snap []*T) {
	v.outMu.Lock()
	defer v.outMu.Unlock()
	if v.outClosed {
		return
	}
	for {
		select {
		case v.out <- snap:
			return
		default:
			select {
			case <-v.out:
			default:
			}
		}
	}
}

func (v *liveView[T]) closeOut() {
	v.outMu.Lock()
	defer v.outMu.Unlock()
	if !v.outClosed {
		v.outClosed = true
		close(v.out)
	}
}

// Snapshots returns the channel of result sets. The channel closes when
// the view is closed or delivery fails; if the consumer lags, older
// snapshots are displaced by newer ones.
func (v *liveView[T]) Snapshots() <-chan []*T {
	return v.out
}

// Current returns the last delivered snapshot.
func (v *liveView[T]) Current() []*T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// Close releases the subscription and closes the output channel.
// Closing an already-closed view is a no-op.
func (v *liveView[T]) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	sub := v.sub
	v.mu.Unlock()

	if sub != nil {
		sub.Cancel()
	} else {
		v.closeOut()
	}
}
