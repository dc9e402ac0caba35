package repositories

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shashiranjanraj/mazraa/pkg/kv"
)

// ErrNotFound is returned when an id is not present in a collection.
var ErrNotFound = errors.New("record not found")

// Entity is anything stored in a Collection.
type Entity interface {
	GetID() string
}

// Collection is an indexed in-memory view of one JSON array in the blob
// store. It loads lazily on first use, mutates in memory, and writes the
// whole array back only on Flush and only when something changed.
type Collection[T Entity] struct {
	store kv.Store
	key   string
	clone func(T) T

	mu     sync.RWMutex
	loaded bool
	dirty  bool
	order  []string
	items  map[string]T

	flushMu sync.Mutex
}

// NewCollection binds a collection to key. clone deep-copies values that
// carry slices; pass nil for flat types.
func NewCollection[T Entity](store kv.Store, key string, clone func(T) T) *Collection[T] {
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return &Collection[T]{store: store, key: key, clone: clone}
}

// Key is the blob store key backing the collection.
func (c *Collection[T]) Key() string { return c.key }

// ensureLoaded must be called with c.mu held for writing.
func (c *Collection[T]) ensureLoaded(ctx context.Context) error {
	if c.loaded {
		return nil
	}

	var list []T
	if _, err := kv.GetJSON(ctx, c.store, c.key, &list); err != nil {
		return fmt.Errorf("%s: load: %w", c.key, err)
	}

	c.items = make(map[string]T, len(list))
	c.order = make([]string, 0, len(list))
	for _, v := range list {
		id := v.GetID()
		if _, dup := c.items[id]; !dup {
			c.order = append(c.order, id)
		}
		c.items[id] = v
	}
	c.loaded = true
	return nil
}

// read runs fn under the read lock, loading first if necessary.
func (c *Collection[T]) read(ctx context.Context, fn func()) error {
	c.mu.RLock()
	if c.loaded {
		defer c.mu.RUnlock()
		fn()
		return nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureLoaded(ctx); err != nil {
		return err
	}
	fn()
	return nil
}

// write runs fn under the write lock, loading first if necessary.
func (c *Collection[T]) write(ctx context.Context, fn func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureLoaded(ctx); err != nil {
		return err
	}
	return fn()
}

// All returns every value in insertion order.
func (c *Collection[T]) All(ctx context.Context) ([]T, error) {
	var out []T
	err := c.read(ctx, func() {
		out = make([]T, 0, len(c.order))
		for _, id := range c.order {
			out = append(out, c.clone(c.items[id]))
		}
	})
	return out, err
}

// Get returns the value with id.
func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	var (
		out T
		ok  bool
	)
	err := c.read(ctx, func() {
		var v T
		if v, ok = c.items[id]; ok {
			out = c.clone(v)
		}
	})
	if err != nil {
		return out, err
	}
	if !ok {
		return out, ErrNotFound
	}
	return out, nil
}

// Find returns the first value, in insertion order, matching pred.
func (c *Collection[T]) Find(ctx context.Context, pred func(T) bool) (T, bool, error) {
	var (
		out   T
		found bool
	)
	err := c.read(ctx, func() {
		for _, id := range c.order {
			if v := c.items[id]; pred(v) {
				out, found = c.clone(v), true
				return
			}
		}
	})
	return out, found, err
}

// Filter returns every value matching pred, in insertion order.
func (c *Collection[T]) Filter(ctx context.Context, pred func(T) bool) ([]T, error) {
	out := []T{}
	err := c.read(ctx, func() {
		for _, id := range c.order {
			if v := c.items[id]; pred(v) {
				out = append(out, c.clone(v))
			}
		}
	})
	return out, err
}

// Len is the number of stored values.
func (c *Collection[T]) Len(ctx context.Context) (int, error) {
	n := 0
	err := c.read(ctx, func() { n = len(c.order) })
	return n, err
}

// Put inserts v, or replaces the value with the same id in place.
func (c *Collection[T]) Put(ctx context.Context, v T) error {
	return c.write(ctx, func() error {
		id := v.GetID()
		if _, ok := c.items[id]; !ok {
			c.order = append(c.order, id)
		}
		c.items[id] = c.clone(v)
		c.dirty = true
		return nil
	})
}

// Update applies fn to the value with id. A non-nil error from fn aborts the
// update and leaves the stored value unchanged.
func (c *Collection[T]) Update(ctx context.Context, id string, fn func(*T) error) (T, error) {
	var out T
	err := c.write(ctx, func() error {
		v, ok := c.items[id]
		if !ok {
			return ErrNotFound
		}
		v = c.clone(v)
		if err := fn(&v); err != nil {
			return err
		}
		c.items[id] = v
		c.dirty = true
		out = c.clone(v)
		return nil
	})
	return out, err
}

// UpdateWhere applies fn to every value; fn reports whether it changed the
// value. Returns how many values changed.
func (c *Collection[T]) UpdateWhere(ctx context.Context, fn func(*T) bool) (int, error) {
	changed := 0
	err := c.write(ctx, func() error {
		for _, id := range c.order {
			v := c.clone(c.items[id])
			if fn(&v) {
				c.items[id] = v
				changed++
			}
		}
		if changed > 0 {
			c.dirty = true
		}
		return nil
	})
	return changed, err
}

// Delete removes id. Deleting a missing id returns ErrNotFound.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	return c.write(ctx, func() error {
		if _, ok := c.items[id]; !ok {
			return ErrNotFound
		}
		delete(c.items, id)
		for i, oid := range c.order {
			if oid == id {
				c.order = append(c.order[:i], c.order[i+1:]...)
				break
			}
		}
		c.dirty = true
		return nil
	})
}

// Dirty reports whether there are unflushed changes.
func (c *Collection[T]) Dirty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dirty
}

// Flush writes the whole collection back when it has changed since the
// last successful flush.
func (c *Collection[T]) Flush(ctx context.Context) error {
	c.flushMu.Lock()
	defer c.flushMu.Unlock()

	c.mu.Lock()
	if !c.dirty {
		c.mu.Unlock()
		return nil
	}
	list := make([]T, 0, len(c.order))
	for _, id := range c.order {
		list = append(list, c.clone(c.items[id]))
	}
	c.dirty = false
	c.mu.Unlock()

	if err := kv.SetJSON(ctx, c.store, c.key, list); err != nil {
		c.mu.Lock()
		c.dirty = true
		c.mu.Unlock()
		return fmt.Errorf("%s: flush: %w", c.key, err)
	}
	return nil
}
