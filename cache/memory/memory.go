// Package memory provides an in-process cache.Store backed by sturdyc.
package memory

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/viccon/sturdyc"

	"github.com/adeilh/go-places/cache"
)

// Options sizes the in-process cache.
type Options struct {
	Capacity           int
	NumShards          int
	EvictionPercentage int
	// MaxTTL bounds every entry; longer TTLs are clamped.
	MaxTTL time.Duration
	// Now overrides the clock used for per-entry expiry.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Capacity <= 0 {
		o.Capacity = 10_000
	}
	if o.NumShards <= 0 {
		o.NumShards = 8
	}
	if o.EvictionPercentage <= 0 || o.EvictionPercentage > 100 {
		o.EvictionPercentage = 10
	}
	if o.MaxTTL <= 0 {
		o.MaxTTL = cache.DefaultTTL
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Store implements cache.Store in process memory.
type Store struct {
	opts   Options
	client *sturdyc.Client[entry]
}

// NewStore builds an in-memory cache store.
func NewStore(opts Options) *Store {
	cfg := opts.withDefaults()
	client := sturdyc.New[entry](cfg.Capacity, cfg.NumShards, cfg.MaxTTL, cfg.EvictionPercentage)
	return &Store{opts: cfg, client: client}
}

func (s *Store) live(key string) (entry, bool) {
	e, ok := s.client.Get(key)
	if !ok {
		return entry{}, false
	}
	if !s.opts.Now().Before(e.expiresAt) {
		s.client.Delete(key)
		return entry{}, false
	}
	return e, true
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e, ok := s.live(key)
	if !ok {
		return nil, cache.ErrNotFound
	}
	return append([]byte(nil), e.value...), nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ttl <= 0 || ttl > s.opts.MaxTTL {
		ttl = s.opts.MaxTTL
	}
	s.client.Set(key, entry{
		value:     append([]byte(nil), value...),
		expiresAt: s.opts.Now().Add(ttl),
	})
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.client.Delete(key)
	return nil
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, ok := s.live(key)
	return ok, nil
}

func (s *Store) Keys(ctx context.Context, pattern string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	re, err := globRegexp(pattern)
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, k := range s.client.ScanKeys() {
		if !re.MatchString(k) {
			continue
		}
		if _, ok := s.live(k); ok {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// globRegexp translates a Redis-style glob into an anchored regexp.
func globRegexp(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	inClass := false
	for i := 0; i < len(pattern); i++ {
		ch := pattern[i]
		switch {
		case inClass:
			switch ch {
			case ']':
				inClass = false
				b.WriteByte(']')
			case '\\':
				b.WriteString(`\\`)
			default:
				b.WriteByte(ch)
			}
		case ch == '\\' && i+1 < len(pattern):
			i++
			b.WriteString(regexp.QuoteMeta(string(pattern[i])))
		case ch == '*':
			b.WriteString("(?s:.*)")
		case ch == '?':
			b.WriteString("(?s:.)")
		case ch == '[':
			inClass = true
			b.WriteByte('[')
			if i+1 < len(pattern) && pattern[i+1] == '^' {
				i++
				b.WriteByte('^')
			}
		default:
			b.WriteString(regexp.QuoteMeta(string(ch)))
		}
	}
	if inClass {
		b.WriteByte(']')
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}
