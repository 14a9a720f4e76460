// Package query turns optional search parameters into match predicates over records.
package query

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// Op identifies how a condition compares a record field against its operand.
type Op int

const (
	// OpEquals matches when the field equals the operand exactly.
	OpEquals Op = iota + 1
	// OpContainsFold matches when the field contains the operand, ignoring case.
	OpContainsFold
	// OpGreaterOrEqual matches when the numeric field is >= the operand.
	OpGreaterOrEqual
)

func (o Op) String() string {
	switch o {
	case OpEquals:
		return "eq"
	case OpContainsFold:
		return "contains_fold"
	case OpGreaterOrEqual:
		return "gte"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// Condition is a single field-level match condition.
type Condition struct {
	Field string
	Op    Op
	Value any
}

// Equals builds an exact-equality condition.
func Equals(field string, value any) Condition {
	return Condition{Field: field, Op: OpEquals, Value: value}
}

// ContainsFold builds a case-insensitive substring condition.
func ContainsFold(field, substring string) Condition {
	return Condition{Field: field, Op: OpContainsFold, Value: substring}
}

// GreaterOrEqual builds a numeric lower-bound condition.
func GreaterOrEqual(field string, n float64) Condition {
	return Condition{Field: field, Op: OpGreaterOrEqual, Value: n}
}

// Predicate is an ordered, immutable conjunction of conditions.
// The zero value has no conditions and matches every record.
type Predicate struct {
	conds []Condition
}

// NewPredicate copies conds into a new Predicate.
func NewPredicate(conds ...Condition) Predicate {
	if len(conds) == 0 {
		return Predicate{}
	}
	return Predicate{conds: append([]Condition(nil), conds...)}
}

// Conditions returns a copy of the predicate's conditions in order.
func (p Predicate) Conditions() []Condition {
	return append([]Condition(nil), p.conds...)
}

// Len reports the number of conditions.
func (p Predicate) Len() int { return len(p.conds) }

// Empty reports whether the predicate has no conditions.
func (p Predicate) Empty() bool { return len(p.conds) == 0 }

func (p Predicate) String() string {
	parts := make([]string, len(p.conds))
	for i, c := range p.conds {
		parts[i] = fmt.Sprintf("%s %s %v", c.Field, c.Op, c.Value)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// FieldFunc resolves a record field by name. ok is false when the field is
// unset (nil pointer, missing key).
type FieldFunc func(field string) (value any, ok bool)

// Match evaluates the predicate against a record's fields. Every condition
// must hold; an unset field never matches.
func (p Predicate) Match(get FieldFunc) bool {
	for _, c := range p.conds {
		v, ok := get(c.Field)
		if !ok || !c.match(v) {
			return false
		}
	}
	return true
}

func (c Condition) match(v any) bool {
	switch c.Op {
	case OpEquals:
		if want, ok := toFloat(c.Value); ok {
			got, ok := toFloat(v)
			return ok && got == want
		}
		got, ok := v.(string)
		if !ok {
			return false
		}
		want, _ := c.Value.(string)
		return got == want
	case OpContainsFold:
		got, ok := v.(string)
		if !ok {
			return false
		}
		want, _ := c.Value.(string)
		return ContainsFoldString(got, want)
	case OpGreaterOrEqual:
		got, ok := toFloat(v)
		if !ok {
			return false
		}
		want, _ := toFloat(c.Value)
		return got >= want
	default:
		return false
	}
}

// ContainsFoldString reports whether s contains substr under Unicode case folding.
func ContainsFoldString(s, substr string) bool {
	folder := cases.Fold()
	return strings.Contains(folder.String(s), folder.String(substr))
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	default:
		return 0, false
	}
}
