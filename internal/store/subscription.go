package store

import (
	"context"
	"sync"
)

// Subscription is a live query: after the initial snapshot it delivers
// the full current result set again whenever the collection changes.
// Snapshots arrive in evaluation order on a single subscription; no
// ordering holds across different subscriptions.
//
// Delivery coalesces: if the consumer lags, intermediate snapshots are
// replaced by newer ones rather than queued. Consumers always converge
// on the latest state, which is the only guarantee snapshot semantics
// need.
type Subscription[T any] struct {
	collection *Collection[T]
	query      Query[T]

	out     chan []*T
	signal  chan struct{}
	done    chan struct{}
	initial []*T

	watchID uint64
	once    sync.Once
}

// Subscribe opens a live query against the collection. The initial
// snapshot is computed synchronously before Subscribe returns, so a
// caller that sequences authorize-then-subscribe observes state no
// older than the authorization check.
//
// The subscription must be released with Cancel; it is also released
// when ctx is cancelled.
func (c *Collection[T]) Subscribe(ctx context.Context, q Query[T]) (*Subscription[T], error) {
	watchID, signal := c.store.watch(c.prefix)

	sub := &Subscription[T]{
		collection: c,
		query:      q,
		out:        make(chan []*T, 1),
		signal:     signal,
		done:       make(chan struct{}),
		watchID:    watchID,
	}

	initial, err := c.Find(ctx, q)
	if err != nil {
		c.store.unwatch(c.prefix, watchID)
		return nil, err
	}
	sub.initial = initial
	sub.push(initial)

	go sub.run(ctx)
	return sub, nil
}

// Snapshots returns the channel of result sets. The channel is closed
// after Cancel (or context cancellation) once the pump goroutine exits.
func (s *Subscription[T]) Snapshots() <-chan []*T {
	return s.out
}

// Initial returns the snapshot computed when the subscription opened.
// It is also the first delivery on Snapshots; callers that need the
// result set before any channel read use this.
func (s *Subscription[T]) Initial() []*T {
	return s.initial
}

// Cancel stops delivery and releases the watcher. Exactly-once:
// calling Cancel again, or after context cancellation, is a no-op.
func (s *Subscription[T]) Cancel() {
	s.once.Do(func() {
		s.collection.store.unwatch(s.collection.prefix, s.watchID)
		close(s.done)
	})
}

// run re-evaluates the query on every change signal until cancelled.
func (s *Subscription[T]) run(ctx context.Context) {
	defer close(s.out)

	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			s.Cancel()
			return
		case <-s.signal:
			snap, err := s.collection.Find(ctx, s.query)
			if err != nil {
				// Store read failed mid-subscription. Stop delivery;
				// the consumer observes the closed channel and surfaces
				// a generic retry-later failure.
				s.Cancel()
				return
			}
			s.push(snap)
		}
	}
}

// push places a snapshot in the outbox, displacing an undelivered one.
func (s *Subscription[T]) push(snap []*T) {
	for {
		select {
		case s.out <- snap:
			return
		default:
			select {
			case <-s.out:
			default:
			}
		}
	}
}
