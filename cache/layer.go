package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Cache is a namespaced, codec-aware view over a Store. Backend failures are
// reported as ErrUnavailable and never stop a caller from serving from the
// system of record.
type Cache struct {
	store     Store
	namespace string
	ttl       time.Duration
	codec     Codec
	logger    *zap.Logger
	metrics   *Metrics
	breaker   *gobreaker.CircuitBreaker
	degraded  atomic.Bool
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets the lifetime of entries written through the cache.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithCodec selects the value encoding.
func WithCodec(codec Codec) Option {
	return func(c *Cache) {
		if codec != nil {
			c.codec = codec
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// WithBreaker overrides the circuit breaker settings guarding the backend.
func WithBreaker(st gobreaker.Settings) Option {
	return func(c *Cache) { c.breaker = c.newBreaker(st) }
}

// New wraps store so that every key lives under namespace.
func New(store Store, namespace string, opts ...Option) *Cache {
	c := &Cache{
		store:     store,
		namespace: namespace,
		ttl:       DefaultTTL,
		codec:     JSON,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.String("cache_namespace", namespace))
	if c.breaker == nil {
		c.breaker = c.newBreaker(gobreaker.Settings{
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		})
	}
	return c
}

func (c *Cache) newBreaker(st gobreaker.Settings) *gobreaker.CircuitBreaker {
	if st.Name == "" {
		st.Name = "cache:" + c.namespace
	}
	st.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, ErrNotFound) ||
			errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
	}
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		c.logger.Debug("cache breaker state changed",
			zap.String("breaker", name),
			zap.Stringer("from", from),
			zap.Stringer("to", to))
	}
	return gobreaker.NewCircuitBreaker(st)
}

// Namespace returns the prefix applied to every key.
func (c *Cache) Namespace() string { return c.namespace }

// TTL returns the lifetime of entries written through the cache.
func (c *Cache) TTL() time.Duration { return c.ttl }

func (c *Cache) key(k string) string {
	if c.namespace == "" {
		return k
	}
	return c.namespace + ":" + k
}

// Get decodes the value stored under key into dst. It reports false on a
// miss, on backend failure and on undecodable entries, which are removed.
func (c *Cache) Get(ctx context.Context, key string, dst any) bool {
	data, err := c.get(ctx, key)
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		c.metrics.observe(c.namespace, "miss")
		return false
	default:
		c.metrics.observe(c.namespace, "error")
		return false
	}
	if err := c.codec.Unmarshal(data, dst); err != nil {
		c.metrics.observe(c.namespace, "error")
		c.logger.Warn("dropping undecodable cache entry",
			zap.String("key", key), zap.String("codec", c.codec.Name()), zap.Error(err))
		_ = c.Delete(ctx, key)
		return false
	}
	c.metrics.observe(c.namespace, "hit")
	return true
}

func (c *Cache) get(ctx context.Context, key string) ([]byte, error) {
	v, err := c.do(ctx, func() (any, error) {
		return c.store.Get(ctx, c.key(key))
	})
	if err != nil {
		return nil, err
	}
	data, _ := v.([]byte)
	return data, nil
}

// Set encodes v and stores it under key for the configured TTL, replacing
// any previous value and TTL.
func (c *Cache) Set(ctx context.Context, key string, v any) error {
	data, err := c.codec.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache: encode %q: %w", key, err)
	}
	_, err = c.do(ctx, func() (any, error) {
		return nil, c.store.Set(ctx, c.key(key), data, c.ttl)
	})
	return err
}

// Delete removes key. A missing key is not an error.
func (c *Cache) Delete(ctx context.Context, key string) error {
	_, err := c.do(ctx, func() (any, error) {
		return nil, c.store.Delete(ctx, c.key(key))
	})
	return err
}

// Exists reports whether a live entry is stored under key.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	v, err := c.do(ctx, func() (any, error) {
		return c.store.Exists(ctx, c.key(key))
	})
	if err != nil {
		return false, err
	}
	ok, _ := v.(bool)
	return ok, nil
}

// Keys lists live keys in this namespace matching pattern. Returned keys have
// the namespace prefix removed.
func (c *Cache) Keys(ctx context.Context, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "*"
	}
	v, err := c.do(ctx, func() (any, error) {
		return c.store.Keys(ctx, c.key(pattern))
	})
	if err != nil {
		return nil, err
	}
	full, _ := v.([]string)
	keys := make([]string, 0, len(full))
	prefix := ""
	if c.namespace != "" {
		prefix = c.namespace + ":"
	}
	for _, k := range full {
		keys = append(keys, strings.TrimPrefix(k, prefix))
	}
	return keys, nil
}

// do runs fn through the breaker and tracks the degraded state so that an
// outage is logged once when it starts and once when it ends.
func (c *Cache) do(ctx context.Context, fn func() (any, error)) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, err := c.breaker.Execute(fn)
	switch {
	case err == nil:
		c.recovered()
		return v, nil
	case errors.Is(err, ErrNotFound):
		c.recovered()
		return nil, err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, err
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	default:
		if c.degraded.CompareAndSwap(false, true) {
			c.logger.Warn("cache backend unavailable, serving from store", zap.Error(err))
		}
		if errors.Is(err, ErrUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}

func (c *Cache) recovered() {
	if c.degraded.CompareAndSwap(true, false) {
		c.logger.Info("cache backend recovered")
	}
}
