// Package store defines the document collection contract that repositories
// read from and write to.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/adeilh/go-places/query"
)

var (
	// ErrNotFound is returned by Replace when no document has the identifier.
	ErrNotFound = errors.New("store: document not found")
	// ErrDuplicate is returned by Insert when an identifier is already taken.
	ErrDuplicate = errors.New("store: duplicate identifier")
	// ErrInvalidField rejects field names that cannot address a document member.
	ErrInvalidField = errors.New("store: invalid field name")
)

// Collection is a predicate-addressable set of documents of type T.
// Implementations return copies; callers never share state with the store.
type Collection[T any] interface {
	// Find returns every document matching pred in insertion order. An empty
	// predicate matches everything.
	Find(ctx context.Context, pred query.Predicate) ([]T, error)
	// FindOne returns the first document matching pred.
	FindOne(ctx context.Context, pred query.Predicate) (T, bool, error)
	// Distinct returns the distinct non-null values of field, sorted.
	Distinct(ctx context.Context, field string) ([]any, error)
	Insert(ctx context.Context, docs ...T) error
	// Replace overwrites the document whose identifier is id.
	Replace(ctx context.Context, id string, doc T) error
	// Delete removes the documents matching pred and returns them.
	Delete(ctx context.Context, pred query.Predicate) ([]T, error)
	// Drop removes every document.
	Drop(ctx context.Context) error
}

var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// ValidField checks that field is a dotted path of identifiers.
func ValidField(field string) error {
	if !fieldPattern.MatchString(field) {
		return fmt.Errorf("%w: %q", ErrInvalidField, field)
	}
	return nil
}

// DistinctValues flattens array values one level, drops nulls and duplicates
// and sorts the result: numbers before strings before everything else.
func DistinctValues(values []any) []any {
	seen := make(map[string]struct{}, len(values))
	out := make([]any, 0, len(values))
	add := func(v any) {
		if v == nil {
			return
		}
		k := distinctKey(v)
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	for _, v := range values {
		switch vv := v.(type) {
		case []any:
			for _, item := range vv {
				add(item)
			}
		case []string:
			for _, item := range vv {
				add(item)
			}
		default:
			add(v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return lessValue(out[i], out[j]) })
	return out
}

func distinctKey(v any) string {
	switch vv := v.(type) {
	case string:
		return "s:" + vv
	case float64:
		return "n:" + strconv.FormatFloat(vv, 'g', -1, 64)
	case int:
		return "n:" + strconv.Itoa(vv)
	case int64:
		return "n:" + strconv.FormatInt(vv, 10)
	case bool:
		return "b:" + strconv.FormatBool(vv)
	default:
		return fmt.Sprintf("o:%v", vv)
	}
}

func rank(v any) int {
	switch v.(type) {
	case float64, int, int64:
		return 0
	case string:
		return 1
	case bool:
		return 2
	default:
		return 3
	}
}

func lessValue(a, b any) bool {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return ra < rb
	}
	switch ra {
	case 0:
		fa, _ := number(a)
		fb, _ := number(b)
		return fa < fb
	case 1:
		return a.(string) < b.(string)
	case 2:
		return !a.(bool) && b.(bool)
	default:
		return fmt.Sprint(a) < fmt.Sprint(b)
	}
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
