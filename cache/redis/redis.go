// Package redis implements cache.Store on top of a Redis server.
package redis

import (
	"context"
	"errors"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/adeilh/go-places/cache"
)

// Store implements cache.Store using a shared go-redis client. The client is
// created on first use.
type Store struct {
	opts Options

	once   sync.Once
	client *goredis.Client
}

// NewStore builds a Redis-backed cache store. No connection is made until the
// first command.
func NewStore(opts Options) *Store {
	return &Store{opts: opts.withDefaults()}
}

func (s *Store) conn() *goredis.Client {
	s.once.Do(func() {
		s.client = goredis.NewClient(&goredis.Options{
			Addr:         s.opts.Addr(),
			Password:     s.opts.Password,
			DB:           s.opts.DB,
			DialTimeout:  s.opts.DialTimeout,
			ReadTimeout:  s.opts.ReadTimeout,
			WriteTimeout: s.opts.WriteTimeout,
			PoolSize:     s.opts.PoolSize,
		})
	})
	return s.client
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	payload, err := s.conn().Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, cache.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl > 0 && ttl < time.Millisecond {
		ttl = time.Millisecond
	}
	return s.conn().Set(ctx, key, value, ttl).Err()
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.conn().Del(ctx, key).Err()
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.conn().Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Keys walks the keyspace with SCAN so large databases are not blocked.
func (s *Store) Keys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	seen := make(map[string]struct{})
	iter := s.conn().Scan(ctx, 0, pattern, s.opts.ScanCount).Iterator()
	for iter.Next(ctx) {
		k := iter.Val()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn().Ping(ctx).Err()
}

// Close releases the connection pool if one was opened.
func (s *Store) Close() error {
	var err error
	s.once.Do(func() {})
	if s.client != nil {
		err = s.client.Close()
	}
	return err
}
