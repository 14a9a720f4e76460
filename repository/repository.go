// Package repository answers record lookups from the cache when it can and
// from the document store when it must, keeping the two consistent on writes.
package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adeilh/go-places/cache"
	"github.com/adeilh/go-places/query"
	"github.com/adeilh/go-places/record"
	"github.com/adeilh/go-places/store"
)

// ErrStore wraps failures of the document store. They are fatal for the
// request; cache failures never are.
var ErrStore = errors.New("repository: store failure")

// IDGenerator produces globally unique record identifiers.
type IDGenerator func() string

type options struct {
	newID  IDGenerator
	logger *zap.Logger
}

type Option func(*options)

func WithIDGenerator(gen IDGenerator) Option {
	return func(o *options) {
		if gen != nil {
			o.newID = gen
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Repository composes a store.Collection with an optional cache.
type Repository[T any] struct {
	store  store.Collection[T]
	cache  *cache.Records[T]
	schema record.Schema[T]
	newID  IDGenerator
	logger *zap.Logger
}

// New builds a repository. A nil cache disables caching.
func New[T any](coll store.Collection[T], c *cache.Records[T], schema record.Schema[T], opts ...Option) *Repository[T] {
	o := options{newID: uuid.NewString, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Repository[T]{
		store:  coll,
		cache:  c,
		schema: schema,
		newID:  o.newID,
		logger: o.logger.With(zap.String("collection", schema.Collection)),
	}
}

func (r *Repository[T]) Schema() record.Schema[T] { return r.schema }

// Search returns the records matching p, sorted by name. Parameters without
// any criterion fail with query.ErrInvalidQuery before the cache or the
// store is touched.
func (r *Repository[T]) Search(ctx context.Context, p query.Params) ([]T, error) {
	p = p.Normalize()
	pred, err := query.Build(p, r.schema.Search)
	if err != nil {
		return nil, err
	}
	return r.list(ctx, cache.SearchKey(p), pred, false)
}

// All returns every record sorted by name. force skips the cache read but
// still refreshes the entry.
func (r *Repository[T]) All(ctx context.Context, force bool) ([]T, error) {
	return r.list(ctx, cache.AllKey, query.NewPredicate(), force)
}

func (r *Repository[T]) list(ctx context.Context, key string, pred query.Predicate, force bool) ([]T, error) {
	if !force {
		if docs, ok := r.cachedList(ctx, key); ok {
			return docs, nil
		}
	}
	docs, err := r.store.Find(ctx, pred)
	if err != nil {
		return nil, fmt.Errorf("%w: find: %w", ErrStore, err)
	}
	docs = r.strip(docs)
	r.sortByName(docs)
	if len(docs) > 0 && r.cache != nil {
		if err := r.cache.SetRecords(ctx, key, docs); err != nil {
			r.logger.Debug("cache write skipped", zap.String("key", key), zap.Error(err))
		}
	}
	return docs, nil
}

func (r *Repository[T]) cachedList(ctx context.Context, key string) ([]T, bool) {
	if r.cache == nil {
		return nil, false
	}
	docs, ok := r.cache.GetRecords(ctx, key)
	if !ok || len(docs) == 0 {
		return nil, false
	}
	return docs, true
}

// GetByName returns the first record, by name order, whose name equals name
// (exact) or contains it case-insensitively.
func (r *Repository[T]) GetByName(ctx context.Context, name string, exact bool) (T, bool, error) {
	var zero T
	if name == "" || r.schema.Search.Name == "" {
		return zero, false, query.ErrInvalidQuery
	}
	key := cache.NameKey(name, exact)
	if doc, ok := r.cachedOne(ctx, key); ok {
		return doc, true, nil
	}
	cond := query.ContainsFold(r.schema.Search.Name, name)
	if exact {
		cond = query.Equals(r.schema.Search.Name, name)
	}
	docs, err := r.store.Find(ctx, query.NewPredicate(cond))
	if err != nil {
		return zero, false, fmt.Errorf("%w: find: %w", ErrStore, err)
	}
	if len(docs) == 0 {
		return zero, false, nil
	}
	docs = r.strip(docs)
	r.sortByName(docs)
	r.remember(ctx, key, docs[0])
	return docs[0], true, nil
}

// GetByIdentifier returns the record whose identifier is id.
func (r *Repository[T]) GetByIdentifier(ctx context.Context, id string) (T, bool, error) {
	var zero T
	if id == "" {
		return zero, false, query.ErrInvalidQuery
	}
	key := cache.IDKey(id)
	if doc, ok := r.cachedOne(ctx, key); ok {
		return doc, true, nil
	}
	doc, ok, err := r.store.FindOne(ctx, query.NewPredicate(query.Equals("id", id)))
	if err != nil {
		return zero, false, fmt.Errorf("%w: find: %w", ErrStore, err)
	}
	if !ok {
		return zero, false, nil
	}
	doc = r.schema.Strip(doc)
	r.remember(ctx, key, doc)
	return doc, true, nil
}

func (r *Repository[T]) cachedOne(ctx context.Context, key string) (T, bool) {
	var zero T
	if r.cache == nil {
		return zero, false
	}
	return r.cache.GetRecord(ctx, key)
}

func (r *Repository[T]) remember(ctx context.Context, key string, doc T) {
	if r.cache == nil {
		return
	}
	if err := r.cache.SetRecord(ctx, key, doc); err != nil {
		r.logger.Debug("cache write skipped", zap.String("key", key), zap.Error(err))
	}
}

// Find returns the records matching pred in store order, bypassing the cache.
func (r *Repository[T]) Find(ctx context.Context, pred query.Predicate) ([]T, error) {
	docs, err := r.store.Find(ctx, pred)
	if err != nil {
		return nil, fmt.Errorf("%w: find: %w", ErrStore, err)
	}
	return r.strip(docs), nil
}

// FindOne returns the first record matching pred, bypassing the cache.
func (r *Repository[T]) FindOne(ctx context.Context, pred query.Predicate) (T, bool, error) {
	doc, ok, err := r.store.FindOne(ctx, pred)
	if err != nil {
		return doc, false, fmt.Errorf("%w: find: %w", ErrStore, err)
	}
	return r.schema.Strip(doc), ok, nil
}

// Distinct lists the distinct values of field across the collection.
func (r *Repository[T]) Distinct(ctx context.Context, field string) ([]any, error) {
	values, err := r.store.Distinct(ctx, field)
	if err != nil {
		if errors.Is(err, store.ErrInvalidField) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: distinct: %w", ErrStore, err)
	}
	return values, nil
}

// Insert assigns identifiers to docs that lack one, validates and stores
// them, and returns the stored records.
func (r *Repository[T]) Insert(ctx context.Context, docs ...T) ([]T, error) {
	out := make([]T, len(docs))
	for i, d := range docs {
		if r.schema.ID(d) == "" {
			d = r.schema.WithID(d, r.newID())
		}
		if r.schema.Validate != nil {
			if err := r.schema.Validate(d); err != nil {
				return nil, err
			}
		}
		out[i] = r.schema.Strip(d)
	}
	if err := r.store.Insert(ctx, out...); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: insert: %w", ErrStore, err)
	}
	r.invalidate(ctx, out...)
	return out, nil
}

// Replace overwrites the stored record with doc's identifier.
func (r *Repository[T]) Replace(ctx context.Context, doc T) error {
	id := r.schema.ID(doc)
	if id == "" {
		return fmt.Errorf("%w: identifier is required", record.ErrInvalid)
	}
	if r.schema.Validate != nil {
		if err := r.schema.Validate(doc); err != nil {
			return err
		}
	}
	old, found, err := r.store.FindOne(ctx, query.NewPredicate(query.Equals("id", id)))
	if err != nil {
		return fmt.Errorf("%w: find: %w", ErrStore, err)
	}
	if !found {
		return fmt.Errorf("repository: replace %q: %w", id, store.ErrNotFound)
	}
	if err := r.store.Replace(ctx, id, r.schema.Strip(doc)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: replace: %w", ErrStore, err)
	}
	r.invalidate(ctx, old, doc)
	return nil
}

// Delete removes the records matching pred and returns them. An empty
// predicate is refused; use Drop to clear a collection.
func (r *Repository[T]) Delete(ctx context.Context, pred query.Predicate) ([]T, error) {
	if pred.Empty() {
		return nil, query.ErrInvalidQuery
	}
	removed, err := r.store.Delete(ctx, pred)
	if err != nil {
		return nil, fmt.Errorf("%w: delete: %w", ErrStore, err)
	}
	removed = r.strip(removed)
	r.invalidate(ctx, removed...)
	return removed, nil
}

// Drop removes every record and clears the collection's cache entries.
func (r *Repository[T]) Drop(ctx context.Context) error {
	if err := r.store.Drop(ctx); err != nil {
		return fmt.Errorf("%w: drop: %w", ErrStore, err)
	}
	if r.cache == nil {
		return nil
	}
	keys, err := r.cache.Cache().Keys(ctx, "*")
	if err != nil {
		r.logger.Debug("cache clear skipped", zap.Error(err))
		return nil
	}
	for _, k := range keys {
		if err := r.cache.Delete(ctx, k); err != nil {
			r.logger.Debug("cache invalidation skipped", zap.String("key", k), zap.Error(err))
		}
	}
	return nil
}

// Invalidate drops a single cache entry.
func (r *Repository[T]) Invalidate(ctx context.Context, key string) error {
	if r.cache == nil {
		return nil
	}
	return r.cache.Delete(ctx, key)
}

// invalidate drops the unfiltered list and the id and exact-name entries of
// docs. Other search entries expire with their TTL.
func (r *Repository[T]) invalidate(ctx context.Context, docs ...T) {
	if r.cache == nil {
		return
	}
	keys := []string{cache.AllKey}
	for _, d := range docs {
		if id := r.schema.ID(d); id != "" {
			keys = append(keys, cache.IDKey(id))
		}
		if r.schema.Name != nil {
			if name := r.schema.Name(d); name != "" {
				keys = append(keys, cache.NameKey(name, true))
			}
		}
	}
	for _, k := range keys {
		if err := r.cache.Delete(ctx, k); err != nil {
			r.logger.Debug("cache invalidation skipped", zap.String("key", k), zap.Error(err))
		}
	}
}

func (r *Repository[T]) strip(docs []T) []T {
	for i := range docs {
		docs[i] = r.schema.Strip(docs[i])
	}
	return docs
}

// sortByName orders docs by name, byte-wise, keeping store order for ties.
func (r *Repository[T]) sortByName(docs []T) {
	if r.schema.Name == nil {
		return
	}
	slices.SortStableFunc(docs, func(a, b T) int {
		return strings.Compare(r.schema.Name(a), r.schema.Name(b))
	})
}
