// Package record defines the place, recipe and comment documents stored by the
// service, and the schemas that tell stores and repositories how to address them.
package record

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/adeilh/go-places/query"
)

// ErrInvalid wraps validation failures for records and their sub-items.
var ErrInvalid = errors.New("record: invalid")

// Schema describes how generic stores and repositories handle a record type T.
type Schema[T any] struct {
	// Collection is the store collection (table) name.
	Collection string
	// Search maps query parameters onto document fields.
	Search query.Fields

	ID         func(T) string
	WithID     func(T, string) T
	Handle     func(T) int64
	WithHandle func(T, int64) T
	Name       func(T) string
	Field      func(T, string) (any, bool)
	Validate   func(T) error
}

// Strip removes store-internal fields before the record leaves the store's
// ownership (cache encoding, API responses).
func (s Schema[T]) Strip(v T) T {
	if s.WithHandle == nil {
		return v
	}
	return s.WithHandle(v, 0)
}

// Fields returns a query.FieldFunc bound to v.
func (s Schema[T]) Fields(v T) query.FieldFunc {
	return func(name string) (any, bool) { return s.Field(v, name) }
}

var validate = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
})

// Validate runs struct-tag validation on v.
func Validate(v any) error {
	if err := validate().Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

func stringField(s string) (any, bool) {
	if s == "" {
		return nil, false
	}
	return s, true
}
