// Package memory keeps documents in process memory. It backs tests and the
// "memory" store driver.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/adeilh/go-places/query"
	"github.com/adeilh/go-places/record"
	"github.com/adeilh/go-places/store"
)

// Collection is an in-memory store.Collection. Documents keep insertion order
// and receive a monotonically increasing handle. Documents are deep-copied on
// the way in and out so slices and maps are never shared with callers.
type Collection[T any] struct {
	schema record.Schema[T]

	mu   sync.RWMutex
	docs []T
	seq  int64
}

var _ store.Collection[record.Place] = (*Collection[record.Place])(nil)

func New[T any](schema record.Schema[T]) *Collection[T] {
	return &Collection[T]{schema: schema}
}

func (c *Collection[T]) Find(ctx context.Context, pred query.Predicate) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []T
	for _, d := range c.docs {
		if !pred.Match(c.schema.Fields(d)) {
			continue
		}
		cp, err := clone(d)
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	return out, nil
}

func (c *Collection[T]) FindOne(ctx context.Context, pred query.Predicate) (T, bool, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, d := range c.docs {
		if pred.Match(c.schema.Fields(d)) {
			cp, err := clone(d)
			if err != nil {
				return zero, false, err
			}
			return cp, true, nil
		}
	}
	return zero, false, nil
}

func (c *Collection[T]) Distinct(ctx context.Context, field string) ([]any, error) {
	if err := store.ValidField(field); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	values := make([]any, 0, len(c.docs))
	for _, d := range c.docs {
		if v, ok := c.schema.Field(d, field); ok {
			values = append(values, v)
		}
	}
	return store.DistinctValues(values), nil
}

// Insert adds docs atomically: either all are stored or none.
func (c *Collection[T]) Insert(ctx context.Context, docs ...T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make(map[string]struct{}, len(c.docs)+len(docs))
	for _, d := range c.docs {
		ids[c.schema.ID(d)] = struct{}{}
	}
	copies := make([]T, 0, len(docs))
	for _, d := range docs {
		id := c.schema.ID(d)
		if _, dup := ids[id]; dup {
			return fmt.Errorf("memory: insert %q: %w", id, store.ErrDuplicate)
		}
		ids[id] = struct{}{}
		cp, err := clone(d)
		if err != nil {
			return err
		}
		copies = append(copies, cp)
	}
	for _, d := range copies {
		c.seq++
		c.docs = append(c.docs, c.schema.WithHandle(d, c.seq))
	}
	return nil
}

func (c *Collection[T]) Replace(ctx context.Context, id string, doc T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, d := range c.docs {
		if c.schema.ID(d) != id {
			continue
		}
		cp, err := clone(doc)
		if err != nil {
			return err
		}
		doc = c.schema.WithID(cp, id)
		c.docs[i] = c.schema.WithHandle(doc, c.schema.Handle(d))
		return nil
	}
	return fmt.Errorf("memory: replace %q: %w", id, store.ErrNotFound)
}

func (c *Collection[T]) Delete(ctx context.Context, pred query.Predicate) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	var removed []T
	kept := c.docs[:0:0]
	for _, d := range c.docs {
		if pred.Match(c.schema.Fields(d)) {
			// removed documents are no longer reachable from the store
			removed = append(removed, d)
			continue
		}
		kept = append(kept, d)
	}
	c.docs = kept
	return removed, nil
}

func (c *Collection[T]) Drop(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs = nil
	return nil
}

// clone deep-copies a document through its JSON form, the same encoding the
// SQL collections persist.
func clone[T any](doc T) (T, error) {
	var out T
	raw, err := json.Marshal(doc)
	if err != nil {
		return out, fmt.Errorf("memory: encode document: %w", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("memory: decode document: %w", err)
	}
	return out, nil
}
