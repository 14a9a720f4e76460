package docsql

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/adeilh/go-places/query"
	"github.com/adeilh/go-places/store"
)

// testDialect renders a readable SQL form with numbered placeholders.
type testDialect struct{}

func (testDialect) Name() string                              { return "test" }
func (testDialect) Placeholder(n int) string                  { return fmt.Sprintf("$%d", n) }
func (testDialect) QuoteIdent(name string) string             { return `"` + name + `"` }
func (testDialect) Schema(string) []string                    { return nil }
func (testDialect) DocParam(ph string) string                 { return ph }
func (testDialect) JSON(bind Bind, f string) string           { return "json(" + bind(f) + ")" }
func (testDialect) IsString(bind Bind, f string) string       { return "is_string(" + bind(f) + ")" }
func (testDialect) Text(bind Bind, f string) string           { return "text(" + bind(f) + ")" }
func (testDialect) Number(bind Bind, f string) string         { return "num(" + bind(f) + ")" }
func (testDialect) ContainsFold(h, n string) string           { return "fold(" + h + ", " + n + ")" }
func (testDialect) Translate(err error) error                 { return err }

func TestWhere(t *testing.T) {
	b := &builder{dialect: testDialect{}}
	where, err := b.where(query.NewPredicate(
		query.ContainsFold("name", "pasta"),
		query.Equals("formatted_address", "1 Main St"),
		query.GreaterOrEqual("rating", 4),
	))
	if err != nil {
		t.Fatalf("where() error = %v", err)
	}
	want := " WHERE (is_string($1) AND fold(text($2), $3))" +
		" AND (is_string($4) AND text($5) = $6)" +
		" AND (num($7) >= $8)"
	if where != want {
		t.Fatalf("where() =\n%s\nwant\n%s", where, want)
	}
	wantArgs := []any{"name", "name", "pasta", "formatted_address", "formatted_address", "1 Main St", "rating", 4.0}
	if diff := cmp.Diff(wantArgs, b.args); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestWhereEmptyAndInvalid(t *testing.T) {
	b := &builder{dialect: testDialect{}}
	if where, err := b.where(query.NewPredicate()); err != nil || where != "" {
		t.Fatalf("where(empty) = %q, %v", where, err)
	}
	_, err := b.where(query.NewPredicate(query.Equals("name') OR 1=1 --", "x")))
	if !errors.Is(err, store.ErrInvalidField) {
		t.Fatalf("where() error = %v, want ErrInvalidField", err)
	}
}

func TestNumericEquality(t *testing.T) {
	b := &builder{dialect: testDialect{}}
	where, err := b.where(query.NewPredicate(query.Equals("price_level", 2)))
	if err != nil {
		t.Fatalf("where() error = %v", err)
	}
	if where != " WHERE (num($1) = $2)" {
		t.Fatalf("where() = %q", where)
	}
	if diff := cmp.Diff([]any{"price_level", 2.0}, b.args); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestContainsFoldBindsFoldedNeedle(t *testing.T) {
	b := &builder{dialect: testDialect{}}
	if _, err := b.where(query.NewPredicate(query.ContainsFold("name", "STRAßE"))); err != nil {
		t.Fatalf("where() error = %v", err)
	}
	if diff := cmp.Diff([]any{"name", "name", "strasse"}, b.args); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}
