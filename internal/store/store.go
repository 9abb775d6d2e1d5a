// Package store implements the document database backing DayList: typed
// collections over Badger with JSON decode/validate at the boundary,
// equality and array-membership queries with a single sort key, and
// realtime subscriptions that deliver the full current result set of a
// query on every change.
package store

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"

	"github.com/daylistapp/daylist-server/internal/domain"
)

// EventEmitter receives a Change for every committed write.
// The SSE layer implements this to broadcast changes to connected
// clients without the store depending on transport details.
type EventEmitter interface {
	Emit(change Change)
}

// NoopEmitter is a no-op implementation of EventEmitter for testing.
type NoopEmitter struct{}

// Emit implements EventEmitter.Emit as a no-op.
func (NoopEmitter) Emit(Change) {}

// ContactIndexer keeps the contact search index in sync with store
// writes. Index updates run after the write commits and never fail it.
type ContactIndexer interface {
	IndexContact(c *domain.Contact) error
	DeleteContact(contactID string) error
}

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	emitter EventEmitter

	// Contact search indexer. Set via SetContactIndexer after store
	// creation to avoid circular dependencies.
	indexer atomic.Pointer[ContactIndexer]

	// Subscription watchers, keyed by collection prefix.
	watchMu   sync.RWMutex
	watchers  map[string]map[uint64]chan struct{}
	nextWatch atomic.Uint64

	// Typed collections.
	Users    *Collection[domain.User]
	Sessions *Collection[domain.Session]
	Lists    *Collection[domain.List]
	Todos    *Collection[domain.Todo]
	Contacts *Collection[domain.Contact]
}

// New opens the database at path and initializes all collections.
// The emitter is required; pass NoopEmitter when no transport exists.
func New(path string, logger *slog.Logger, emitter EventEmitter) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}

	s := &Store{
		db:       db,
		logger:   logger,
		emitter:  emitter,
		watchers: make(map[string]map[uint64]chan struct{}),
	}
	s.initCollections()

	if logger != nil {
		logger.Info("document store opened", "path", path)
	}
	return s, nil
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("closing document store")
	}
	return s.db.Close()
}

// SetContactIndexer sets the search indexer for contacts.
// Set after store creation because the search service needs the store
// to exist first.
func (s *Store) SetContactIndexer(indexer ContactIndexer) {
	s.indexer.Store(&indexer)
}

// initCollections wires the typed collections and their secondary
// indexes. Email lookups are case-insensitive; sessions are looked up
// by refresh-token hash during refresh.
func (s *Store) initCollections() {
	s.Users = NewCollection[domain.User](s, "user:").
		WithIndexTransform("email",
			func(u *domain.User) []string {
				return []string{normalizeEmail(u.Email)}
			},
			normalizeEmail,
		)

	s.Sessions = NewCollection[domain.Session](s, "sess:").
		WithIndex("token", func(sess *domain.Session) []string {
			return []string{sess.RefreshTokenHash}
		}).
		WithMultiIndex("user", func(sess *domain.Session) []string {
			return []string{sess.UserID}
		})

	s.Lists = NewCollection[domain.List](s, "list:")
	s.Todos = NewCollection[domain.Todo](s, "todo:")
	s.Contacts = NewCollection[domain.Contact](s, "contact:").
		WithWriteHook(s.indexContact)
}

// indexContact forwards contact writes to the search indexer, if set.
// Indexing failures are logged and swallowed; the write already
// committed and search lags behind rather than failing mutations.
func (s *Store) indexContact(op Op, contactID string, contact *domain.Contact) {
	ptr := s.indexer.Load()
	if ptr == nil {
		return
	}
	indexer := *ptr

	var err error
	switch op {
	case OpDelete:
		err = indexer.DeleteContact(contactID)
	case OpCreate, OpUpdate:
		err = indexer.IndexContact(contact)
	}
	if err != nil && s.logger != nil {
		s.logger.Warn("contact search index update failed",
			"contact_id", contactID, "op", string(op), "error", err)
	}
}

// watch registers a signal channel for changes to the given collection
// prefix. The channel has a buffer of one; notify coalesces signals.
func (s *Store) watch(prefix string) (uint64, chan struct{}) {
	id := s.nextWatch.Add(1)
	ch := make(chan struct{}, 1)

	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	if s.watchers[prefix] == nil {
		s.watchers[prefix] = make(map[uint64]chan struct{})
	}
	s.watchers[prefix][id] = ch
	return id, ch
}

// unwatch removes a previously registered watcher. Safe to call with
// an id that was already removed.
func (s *Store) unwatch(prefix string, id uint64) {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	delete(s.watchers[prefix], id)
}

// notify signals every watcher of a collection that its contents
// changed. Non-blocking: a watcher that already has a pending signal
// keeps exactly one.
func (s *Store) notify(prefix string) {
	s.watchMu.RLock()
	defer s.watchMu.RUnlock()
	for _, ch := range s.watchers[prefix] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// emit forwards a committed change to the event emitter.
func (s *Store) emit(change Change) {
	if s.emitter != nil {
		s.emitter.Emit(change)
	}
}
