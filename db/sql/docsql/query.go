package docsql

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/adeilh/go-places/query"
	"github.com/adeilh/go-places/store"
)

type builder struct {
	dialect Dialect
	args    []any
}

func (b *builder) bind(arg any) string {
	b.args = append(b.args, arg)
	return b.dialect.Placeholder(len(b.args))
}

// where renders pred as a WHERE clause. The clause must never reject a row
// the predicate accepts, but it may match a superset when the engine cannot
// fold case like Go does; Collection re-checks every row with Predicate.Match.
func (b *builder) where(pred query.Predicate) (string, error) {
	conds := pred.Conditions()
	if len(conds) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(conds))
	for _, c := range conds {
		if err := store.ValidField(c.Field); err != nil {
			return "", err
		}
		part, err := b.condition(c)
		if err != nil {
			return "", err
		}
		parts = append(parts, "("+part+")")
	}
	return " WHERE " + strings.Join(parts, " AND "), nil
}

func (b *builder) condition(c query.Condition) (string, error) {
	d := b.dialect
	switch c.Op {
	case query.OpEquals:
		if n, ok := number(c.Value); ok {
			return d.Number(b.bind, c.Field) + " = " + b.bind(n), nil
		}
		s, ok := c.Value.(string)
		if !ok {
			return "", fmt.Errorf("docsql: unsupported equality operand %T", c.Value)
		}
		return d.IsString(b.bind, c.Field) + " AND " + d.Text(b.bind, c.Field) + " = " + b.bind(s), nil
	case query.OpContainsFold:
		s, _ := c.Value.(string)
		// the needle is bound already folded
		needle := b.bind(cases.Fold().String(s))
		return d.IsString(b.bind, c.Field) + " AND " + d.ContainsFold(d.Text(b.bind, c.Field), needle), nil
	case query.OpGreaterOrEqual:
		n, ok := number(c.Value)
		if !ok {
			return "", fmt.Errorf("docsql: non-numeric bound %T", c.Value)
		}
		return d.Number(b.bind, c.Field) + " >= " + b.bind(n), nil
	default:
		return "", fmt.Errorf("docsql: unsupported operator %s", c.Op)
	}
}

func number(v any) (float64, bool) {
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
	}
	return 0, false
}
