package query

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var placeFields = Fields{Name: "name", Address: "formatted_address", Rating: "rating"}

func TestBuildRequiresCriteria(t *testing.T) {
	cases := []Params{
		{},
		{Exact: true},
		{Name: String(""), Address: String("")},
	}
	for _, p := range cases {
		if _, err := Build(p, placeFields); !errors.Is(err, ErrInvalidQuery) {
			t.Fatalf("Build(%+v) error = %v, want ErrInvalidQuery", p, err)
		}
	}
}

func TestBuildConditions(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		want   []Condition
	}{
		{
			name:   "fuzzy name",
			params: Params{Name: String("pasta")},
			want:   []Condition{ContainsFold("name", "pasta")},
		},
		{
			name:   "exact name and address",
			params: Params{Name: String("Pasta Palace"), Address: String("1 Main St"), Exact: true},
			want:   []Condition{Equals("name", "Pasta Palace"), Equals("formatted_address", "1 Main St")},
		},
		{
			name:   "rating ignores exact",
			params: Params{MinRating: Float(4), Exact: true},
			want:   []Condition{GreaterOrEqual("rating", 4)},
		},
		{
			name:   "all three in canonical order",
			params: Params{MinRating: Float(3.5), Address: String("soho"), Name: String("noodle")},
			want: []Condition{
				ContainsFold("name", "noodle"),
				ContainsFold("formatted_address", "soho"),
				GreaterOrEqual("rating", 3.5),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pred, err := Build(tt.params, placeFields)
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, pred.Conditions()); diff != "" {
				t.Fatalf("conditions mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildRejectsUnsupportedFields(t *testing.T) {
	recipeFields := Fields{Name: "name", Address: "source"}
	if _, err := Build(Params{MinRating: Float(2)}, recipeFields); !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery for rating on recipes, got %v", err)
	}
	if _, err := Build(Params{MinRating: Float(math.NaN())}, placeFields); !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery for NaN rating, got %v", err)
	}
}

func TestPredicateIsImmutable(t *testing.T) {
	conds := []Condition{Equals("name", "a")}
	pred := NewPredicate(conds...)
	conds[0] = Equals("name", "b")
	got := pred.Conditions()
	got[0] = Equals("name", "c")

	if v := pred.Conditions()[0].Value; v != "a" {
		t.Fatalf("predicate mutated, value = %v", v)
	}
}

type doc map[string]any

func (d doc) get(field string) (any, bool) {
	v, ok := d[field]
	return v, ok && v != nil
}

func TestMatch(t *testing.T) {
	palace := doc{"name": "Pasta Palace", "formatted_address": "Café Rouge, 12 Rue Oberkampf", "rating": 4.2}
	unrated := doc{"name": "Pasta Corner", "rating": nil}

	tests := []struct {
		name string
		pred Predicate
		d    doc
		want bool
	}{
		{"contains ignores case", NewPredicate(ContainsFold("name", "pasta")), palace, true},
		{"exact is case sensitive", NewPredicate(Equals("name", "pasta")), palace, false},
		{"exact matches", NewPredicate(Equals("name", "Pasta Palace")), palace, true},
		{"unicode fold", NewPredicate(ContainsFold("formatted_address", "CAFÉ ROUGE")), palace, true},
		{"substring not prefix", NewPredicate(ContainsFold("name", "palace")), palace, true},
		{"rating threshold", NewPredicate(GreaterOrEqual("rating", 4.0)), palace, true},
		{"rating below", NewPredicate(GreaterOrEqual("rating", 4.5)), palace, false},
		{"missing rating", NewPredicate(GreaterOrEqual("rating", 1)), unrated, false},
		{"conjunction", NewPredicate(ContainsFold("name", "pasta"), GreaterOrEqual("rating", 4.5)), palace, false},
		{"empty matches all", Predicate{}, unrated, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pred.Match(tt.d.get); got != tt.want {
				t.Fatalf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}
