package memory

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/adeilh/go-places/cache"
)

func TestStoreSetGetDelete(t *testing.T) {
	store := NewStore(Options{})
	ctx := context.Background()

	if err := store.Set(ctx, "k", []byte("payload"), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != "payload" {
		t.Fatalf("Get() = %q, want payload", got)
	}
	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Get(ctx, "k"); !errors.Is(err, cache.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete() of missing key error = %v", err)
	}
}

func TestStoreTTL(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	store := NewStore(Options{Now: func() time.Time { return now }, MaxTTL: time.Hour})
	ctx := context.Background()

	_ = store.Set(ctx, "short", []byte("v"), time.Second)
	_ = store.Set(ctx, "clamped", []byte("v"), 48*time.Hour)

	now = now.Add(time.Second)
	if _, err := store.Get(ctx, "short"); !errors.Is(err, cache.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after TTL, got %v", err)
	}
	now = now.Add(time.Hour)
	if ok, _ := store.Exists(ctx, "clamped"); ok {
		t.Fatalf("TTL above MaxTTL was not clamped")
	}
}

func TestStoreReturnsCopies(t *testing.T) {
	store := NewStore(Options{})
	ctx := context.Background()
	value := []byte("abc")
	_ = store.Set(ctx, "k", value, time.Minute)
	value[0] = 'x'

	got, _ := store.Get(ctx, "k")
	got[1] = 'y'
	again, _ := store.Get(ctx, "k")
	if string(again) != "abc" {
		t.Fatalf("stored value was aliased: %q", again)
	}
}

func TestStoreContextCancellation(t *testing.T) {
	store := NewStore(Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := store.Set(ctx, "any", []byte("value"), 0); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestGlob(t *testing.T) {
	cases := []struct {
		pattern string
		key     string
		want    bool
	}{
		{"*", "places:all", true},
		{"places:id:*", "places:id:abc/def", true},
		{"places:id:*", "recipes:id:abc", false},
		{"places:?ll", "places:all", true},
		{"places:[ab]ll", "places:all", true},
		{"places:[^a]ll", "places:all", false},
		{"places:name.*", "places:namex", false},
		{`places:\*`, "places:*", true},
		{`places:\*`, "places:x", false},
	}
	for _, tc := range cases {
		re, err := globRegexp(tc.pattern)
		if err != nil {
			t.Fatalf("globRegexp(%q) error = %v", tc.pattern, err)
		}
		if got := re.MatchString(tc.key); got != tc.want {
			t.Errorf("glob %q on %q = %v, want %v", tc.pattern, tc.key, got, tc.want)
		}
	}
}

func TestStoreKeys(t *testing.T) {
	store := NewStore(Options{})
	ctx := context.Background()
	for _, k := range []string{"places:id:1", "places:id:2", "places:all", "recipes:id:1"} {
		_ = store.Set(ctx, k, []byte("v"), time.Minute)
	}
	keys, err := store.Keys(ctx, "places:id:*")
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "places:id:1" || keys[1] != "places:id:2" {
		t.Fatalf("Keys() = %v", keys)
	}
}
