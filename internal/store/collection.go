package store

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"iter"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/daylistapp/daylist-server/internal/errors"
)

// Collection provides typed CRUD, queries, and subscriptions for one
// document kind. Every read decodes the raw document into T and runs
// its Validate method before handing it to the caller; an external
// shape is never trusted silently.
type Collection[T any] struct {
	store   *Store
	prefix  string
	indexes []index[T]
	hooks   []func(Op, string, *T)
}

// index defines a secondary index on a collection. Unique indexes map
// one key to one document id and conflict on duplicates; multi indexes
// append the document id to the key and allow fan-out.
type index[T any] struct {
	name            string
	keyGen          func(*T) []string
	lookupTransform func(string) string // optional transformation for lookups
	multi           bool
}

// NewCollection creates a Collection for type T under the given key prefix.
func NewCollection[T any](s *Store, prefix string) *Collection[T] {
	return &Collection[T]{
		store:  s,
		prefix: prefix,
	}
}

// WithIndex adds a unique secondary index to the collection.
func (c *Collection[T]) WithIndex(name string, keyGen func(*T) []string) *Collection[T] {
	c.indexes = append(c.indexes, index[T]{name: name, keyGen: keyGen})
	return c
}

// WithIndexTransform adds a unique secondary index with lookup transformation.
// The transform is applied to search values before lookup, enabling
// case-insensitive matching.
func (c *Collection[T]) WithIndexTransform(name string, keyGen func(*T) []string, lookupTransform func(string) string) *Collection[T] {
	c.indexes = append(c.indexes, index[T]{name: name, keyGen: keyGen, lookupTransform: lookupTransform})
	return c
}

// WithMultiIndex adds a non-unique secondary index: many documents may
// share one index key.
func (c *Collection[T]) WithMultiIndex(name string, keyGen func(*T) []string) *Collection[T] {
	c.indexes = append(c.indexes, index[T]{name: name, keyGen: keyGen, multi: true})
	return c
}

// WithWriteHook registers a function invoked after every committed
// write, outside the transaction. On delete the document argument is
// the last stored version, or nil when the delete was a no-op.
func (c *Collection[T]) WithWriteHook(hook func(Op, string, *T)) *Collection[T] {
	c.hooks = append(c.hooks, hook)
	return c
}

// decode unmarshals a raw document and validates its invariants.
func (c *Collection[T]) decode(val []byte, entity *T) error {
	if err := json.Unmarshal(val, entity); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	if v, ok := any(entity).(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("invalid document under %q: %w", c.prefix, err)
		}
	}
	return nil
}

// indexKey builds the key for one index entry. Multi indexes append
// the document id so entries for different documents never collide.
func (c *Collection[T]) indexKey(idx index[T], value, docID string) []byte {
	key := c.prefix + "idx:" + idx.name + ":" + value
	if idx.multi {
		key += ":" + docID
	}
	return []byte(key)
}

// Create stores a new document under the given id.
// Returns ErrAlreadyExists if the id or a unique index key is taken.
func (c *Collection[T]) Create(ctx context.Context, docID string, entity *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := []byte(c.prefix + docID)
	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	err = c.store.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err == nil {
			return errors.ErrAlreadyExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check existing key: %w", err)
		}

		for _, idx := range c.indexes {
			for _, ik := range idx.keyGen(entity) {
				idxKey := c.indexKey(idx, ik, docID)
				if !idx.multi {
					if _, err := txn.Get(idxKey); err == nil {
						return errors.AlreadyExists(fmt.Sprintf("index %s conflict on %s", idx.name, ik))
					} else if !errors.Is(err, badger.ErrKeyNotFound) {
						return fmt.Errorf("check index key: %w", err)
					}
				}
				if err := txn.Set(idxKey, []byte(docID)); err != nil {
					return fmt.Errorf("set index key: %w", err)
				}
			}
		}

		return txn.Set(key, data)
	})
	if err != nil {
		return err
	}

	c.committed(OpCreate, docID, entity)
	return nil
}

// Get retrieves a document by id. Returns ErrNotFound if absent.
func (c *Collection[T]) Get(ctx context.Context, docID string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := []byte(c.prefix + docID)
	var entity T

	err := c.store.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return errors.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get key: %w", err)
		}
		return item.Value(func(val []byte) error {
			return c.decode(val, &entity)
		})
	})
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

// GetByIndex retrieves a document via a unique secondary index.
func (c *Collection[T]) GetByIndex(ctx context.Context, indexName, value string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lookup := value
	for _, idx := range c.indexes {
		if idx.name == indexName && idx.lookupTransform != nil {
			lookup = idx.lookupTransform(value)
			break
		}
	}

	idxKey := []byte(c.prefix + "idx:" + indexName + ":" + lookup)
	var docID string
	err := c.store.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(idxKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return errors.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			docID = string(val)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return c.Get(ctx, docID)
}

// FindByMultiIndex returns every document whose multi index entry
// matches the given value.
func (c *Collection[T]) FindByMultiIndex(ctx context.Context, indexName, value string) ([]*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(c.prefix + "idx:" + indexName + ":" + value + ":")
	var ids []string
	err := c.store.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false // only need the doc id suffix
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().Key()
			ids = append(ids, string(key[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]*T, 0, len(ids))
	for _, docID := range ids {
		doc, err := c.Get(ctx, docID)
		if err != nil {
			if errors.Is(err, errors.ErrNotFound) {
				continue // deleted between scans
			}
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

// Update overwrites an existing document. Returns ErrNotFound if the
// document does not exist. Updates are last-writer-wins at document
// granularity; there is no compare-and-swap.
func (c *Collection[T]) Update(ctx context.Context, docID string, entity *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := []byte(c.prefix + docID)
	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	err = c.store.db.Update(func(txn *badger.Txn) error {
		var old T
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return errors.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get existing key: %w", err)
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &old)
		}); err != nil {
			return fmt.Errorf("decode old document: %w", err)
		}

		// Drop stale index entries, then write the new ones.
		for _, idx := range c.indexes {
			for _, ik := range idx.keyGen(&old) {
				if err := txn.Delete(c.indexKey(idx, ik, docID)); err != nil {
					return fmt.Errorf("delete old index key: %w", err)
				}
			}
		}
		for _, idx := range c.indexes {
			oldKeys := make(map[string]bool)
			for _, ik := range idx.keyGen(&old) {
				oldKeys[ik] = true
			}
			for _, ik := range idx.keyGen(entity) {
				idxKey := c.indexKey(idx, ik, docID)
				if !idx.multi && !oldKeys[ik] {
					if _, err := txn.Get(idxKey); err == nil {
						return errors.AlreadyExists(fmt.Sprintf("index %s conflict on %s", idx.name, ik))
					} else if !errors.Is(err, badger.ErrKeyNotFound) {
						return fmt.Errorf("check index key: %w", err)
					}
				}
				if err := txn.Set(idxKey, []byte(docID)); err != nil {
					return fmt.Errorf("set index key: %w", err)
				}
			}
		}

		return txn.Set(key, data)
	})
	if err != nil {
		return err
	}

	c.committed(OpUpdate, docID, entity)
	return nil
}

// Delete removes a document by id. Idempotent: deleting an absent
// document is not an error, and no change is emitted for it.
func (c *Collection[T]) Delete(ctx context.Context, docID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := []byte(c.prefix + docID)
	var deleted *T

	err := c.store.db.Update(func(txn *badger.Txn) error {
		var entity T
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get key: %w", err)
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entity)
		}); err != nil {
			return fmt.Errorf("decode document: %w", err)
		}

		for _, idx := range c.indexes {
			for _, ik := range idx.keyGen(&entity) {
				if err := txn.Delete(c.indexKey(idx, ik, docID)); err != nil {
					return fmt.Errorf("delete index key: %w", err)
				}
			}
		}
		if err := txn.Delete(key); err != nil {
			return fmt.Errorf("delete key: %w", err)
		}
		deleted = &entity
		return nil
	})
	if err != nil {
		return err
	}

	if deleted != nil {
		c.committed(OpDelete, docID, deleted)
	}
	return nil
}

// All returns an iterator over every document in the collection.
func (c *Collection[T]) All(ctx context.Context) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		_ = c.store.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = []byte(c.prefix)

			it := txn.NewIterator(opts)
			defer it.Close()

			for it.Seek([]byte(c.prefix)); it.ValidForPrefix([]byte(c.prefix)); it.Next() {
				if ctx.Err() != nil {
					yield(nil, ctx.Err())
					return ctx.Err()
				}

				// Skip index keys.
				key := string(it.Item().Key())
				if strings.HasPrefix(key[len(c.prefix):], "idx:") {
					continue
				}

				var entity T
				err := it.Item().Value(func(val []byte) error {
					return c.decode(val, &entity)
				})
				if err != nil {
					yield(nil, err)
					return err
				}
				if !yield(&entity, nil) {
					return nil // Consumer stopped early
				}
			}
			return nil
		})
	}
}

// committed runs post-commit side effects for a write: subscription
// wakeups, the change feed, and per-collection hooks.
func (c *Collection[T]) committed(op Op, docID string, entity *T) {
	c.store.notify(c.prefix)
	c.store.emit(Change{Collection: strings.TrimSuffix(c.prefix, ":"), Op: op, ID: docID, Doc: entity})
	for _, hook := range c.hooks {
		hook(op, docID, entity)
	}
}
