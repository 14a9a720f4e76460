package cache

import (
	"context"

	"github.com/adeilh/go-places/record"
)

// Records stores typed records and record collections in a Cache. Store
// internal fields are stripped before encoding.
type Records[T any] struct {
	cache  *Cache
	schema record.Schema[T]
}

// NewRecords binds c to the record type described by schema.
func NewRecords[T any](c *Cache, schema record.Schema[T]) *Records[T] {
	return &Records[T]{cache: c, schema: schema}
}

// Cache returns the untyped cache underneath.
func (r *Records[T]) Cache() *Cache { return r.cache }

func (r *Records[T]) GetRecord(ctx context.Context, key string) (T, bool) {
	var v T
	if !r.cache.Get(ctx, key, &v) {
		var zero T
		return zero, false
	}
	return v, true
}

func (r *Records[T]) SetRecord(ctx context.Context, key string, v T) error {
	return r.cache.Set(ctx, key, r.schema.Strip(v))
}

// GetRecords returns the cached collection under key in its stored order.
func (r *Records[T]) GetRecords(ctx context.Context, key string) ([]T, bool) {
	var vs []T
	if !r.cache.Get(ctx, key, &vs) {
		return nil, false
	}
	return vs, true
}

func (r *Records[T]) SetRecords(ctx context.Context, key string, vs []T) error {
	stripped := make([]T, len(vs))
	for i, v := range vs {
		stripped[i] = r.schema.Strip(v)
	}
	return r.cache.Set(ctx, key, stripped)
}

func (r *Records[T]) Delete(ctx context.Context, key string) error {
	return r.cache.Delete(ctx, key)
}
