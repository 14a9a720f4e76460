package query

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidQuery is returned when search parameters cannot produce a predicate.
var ErrInvalidQuery = errors.New("query: at least one search criterion is required")

// Params carries optional search parameters. A nil or empty string and a nil
// rating mean "not supplied".
type Params struct {
	Name      *string
	Address   *string
	MinRating *float64
	Exact     bool
}

// Fields names the record fields that Params map onto. An empty name means the
// record type cannot be searched by that criterion.
type Fields struct {
	Name    string
	Address string
	Rating  string
}

// Normalize returns a copy of p with empty strings collapsed to nil, so that
// "absent" has a single representation.
func (p Params) Normalize() Params {
	out := Params{Exact: p.Exact, MinRating: p.MinRating}
	if p.Name != nil && *p.Name != "" {
		name := *p.Name
		out.Name = &name
	}
	if p.Address != nil && *p.Address != "" {
		addr := *p.Address
		out.Address = &addr
	}
	if p.MinRating != nil {
		r := *p.MinRating
		out.MinRating = &r
	}
	return out
}

// HasCriteria reports whether at least one criterion is supplied.
func (p Params) HasCriteria() bool {
	n := p.Normalize()
	return n.Name != nil || n.Address != nil || n.MinRating != nil
}

// Build produces the predicate for p. Text criteria become Equals when Exact is
// set and ContainsFold otherwise; the rating threshold is always GreaterOrEqual.
func Build(p Params, f Fields) (Predicate, error) {
	p = p.Normalize()
	if !p.HasCriteria() {
		return Predicate{}, ErrInvalidQuery
	}

	conds := make([]Condition, 0, 3)
	if p.Name != nil {
		c, err := textCondition("name", f.Name, *p.Name, p.Exact)
		if err != nil {
			return Predicate{}, err
		}
		conds = append(conds, c)
	}
	if p.Address != nil {
		c, err := textCondition("address", f.Address, *p.Address, p.Exact)
		if err != nil {
			return Predicate{}, err
		}
		conds = append(conds, c)
	}
	if p.MinRating != nil {
		r := *p.MinRating
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return Predicate{}, fmt.Errorf("%w: min rating must be finite", ErrInvalidQuery)
		}
		if f.Rating == "" {
			return Predicate{}, fmt.Errorf("%w: rating is not searchable", ErrInvalidQuery)
		}
		conds = append(conds, GreaterOrEqual(f.Rating, r))
	}
	return NewPredicate(conds...), nil
}

func textCondition(criterion, field, value string, exact bool) (Condition, error) {
	if strings.TrimSpace(field) == "" {
		return Condition{}, fmt.Errorf("%w: %s is not searchable", ErrInvalidQuery, criterion)
	}
	if exact {
		return Equals(field, value), nil
	}
	return ContainsFold(field, value), nil
}

// String returns a pointer to s; handy for building Params literals.
func String(s string) *string { return &s }

// Float returns a pointer to f.
func Float(f float64) *float64 { return &f }
