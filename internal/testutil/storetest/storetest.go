// Package storetest checks that a store.Collection implementation honours
// the collection contract.
package storetest

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/adeilh/go-places/query"
	"github.com/adeilh/go-places/record"
	"github.com/adeilh/go-places/store"
)

// Factory returns an empty place collection.
type Factory func(t *testing.T) store.Collection[record.Place]

func rating(f float64) *float64 { return &f }

// Places is the fixture inserted by Run, in insertion order.
func Places() []record.Place {
	return []record.Place{
		{ID: "p1", Name: "Pasta Palace", FormattedAddress: "1 Main St", Rating: rating(4.5), Types: []string{"restaurant", "food"},
			Extra: record.Extra{"opening_hours": json.RawMessage(`{"open_now":true}`)}},
		{ID: "p2", Name: "Burger Barn", FormattedAddress: "2 Side St", Rating: rating(3.9), Types: []string{"restaurant"}},
		{ID: "p3", Name: "Café Rouge", FormattedAddress: "12 Rue Oberkampf", Rating: rating(4.0)},
		{ID: "p4", Name: "pasta corner", FormattedAddress: "3 Main St"},
	}
}

// Run exercises every Collection operation against a fresh collection.
func Run(t *testing.T, newCollection Factory) {
	t.Helper()

	setup := func(t *testing.T) (context.Context, store.Collection[record.Place]) {
		t.Helper()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		t.Cleanup(cancel)
		c := newCollection(t)
		if err := c.Insert(ctx, Places()...); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
		return ctx, c
	}

	ids := func(ps []record.Place) []string {
		out := make([]string, len(ps))
		for i, p := range ps {
			out[i] = p.ID
		}
		return out
	}

	equal := func(a, b []string) bool {
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
		return true
	}

	t.Run("FindAllKeepsInsertionOrder", func(t *testing.T) {
		ctx, c := setup(t)
		got, err := c.Find(ctx, query.NewPredicate())
		if err != nil {
			t.Fatalf("Find() error = %v", err)
		}
		if want := []string{"p1", "p2", "p3", "p4"}; !equal(ids(got), want) {
			t.Fatalf("Find() ids = %v, want %v", ids(got), want)
		}
		if got[0].Handle == 0 || got[1].Handle <= got[0].Handle {
			t.Fatalf("handles not assigned in insertion order: %d, %d", got[0].Handle, got[1].Handle)
		}
		if _, ok := got[0].Extra["opening_hours"]; !ok {
			t.Fatalf("extra fields lost: %v", got[0].Extra)
		}
	})

	t.Run("Predicates", func(t *testing.T) {
		ctx, c := setup(t)
		cases := []struct {
			name string
			pred query.Predicate
			want []string
		}{
			{"contains fold", query.NewPredicate(query.ContainsFold("name", "PASTA")), []string{"p1", "p4"}},
			{"contains fold unicode", query.NewPredicate(query.ContainsFold("name", "CAFÉ")), []string{"p3"}},
			{"equals", query.NewPredicate(query.Equals("name", "Burger Barn")), []string{"p2"}},
			{"equals is case sensitive", query.NewPredicate(query.Equals("name", "burger barn")), nil},
			{"rating bound", query.NewPredicate(query.GreaterOrEqual("rating", 4.0)), []string{"p1", "p3"}},
			{"unset rating never matches", query.NewPredicate(query.GreaterOrEqual("rating", 0)), []string{"p1", "p2", "p3"}},
			{"numeric equality", query.NewPredicate(query.Equals("rating", 3.9)), []string{"p2"}},
			{"conjunction", query.NewPredicate(
				query.ContainsFold("formatted_address", "main"),
				query.GreaterOrEqual("rating", 4)), []string{"p1"}},
			{"missing field", query.NewPredicate(query.Equals("nope", "x")), nil},
		}
		for _, tc := range cases {
			got, err := c.Find(ctx, tc.pred)
			if err != nil {
				t.Fatalf("%s: Find() error = %v", tc.name, err)
			}
			if !equal(ids(got), tc.want) {
				t.Errorf("%s: Find() ids = %v, want %v", tc.name, ids(got), tc.want)
			}
		}
	})

	t.Run("FoldExpansions", func(t *testing.T) {
		ctx, c := setup(t)
		err := c.Insert(ctx,
			record.Place{ID: "f1", Name: "Straßen Grill", FormattedAddress: "Hauptstraße 1"},
			record.Place{ID: "f2", Name: "STRASSEN DINER", FormattedAddress: "Ringstrasse 9"},
		)
		if err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
		for _, needle := range []string{"STRASSE", "straße", "Strasse"} {
			got, err := c.Find(ctx, query.NewPredicate(query.ContainsFold("name", needle)))
			if err != nil {
				t.Fatalf("Find(%q) error = %v", needle, err)
			}
			if want := []string{"f1", "f2"}; !equal(ids(got), want) {
				t.Errorf("Find(%q) ids = %v, want %v", needle, ids(got), want)
			}
		}
		got, err := c.Find(ctx, query.NewPredicate(query.ContainsFold("formatted_address", "STRASSE 9")))
		if err != nil {
			t.Fatalf("Find() error = %v", err)
		}
		if want := []string{"f2"}; !equal(ids(got), want) {
			t.Errorf("Find(address) ids = %v, want %v", ids(got), want)
		}
	})

	t.Run("ResultsAreCopies", func(t *testing.T) {
		ctx, c := setup(t)
		pred := query.NewPredicate(query.Equals("id", "p1"))
		got, err := c.Find(ctx, pred)
		if err != nil || len(got) != 1 {
			t.Fatalf("Find() = %v, %v", ids(got), err)
		}
		got[0].Types[0] = "MUTATED"
		got[0].Extra["opening_hours"] = json.RawMessage(`null`)

		again, ok, err := c.FindOne(ctx, pred)
		if err != nil || !ok {
			t.Fatalf("FindOne() = %v, %v", ok, err)
		}
		if again.Types[0] != "restaurant" {
			t.Fatalf("stored types changed through a returned document: %v", again.Types)
		}
		if string(again.Extra["opening_hours"]) == "null" {
			t.Fatalf("stored extra changed through a returned document")
		}
	})

	t.Run("FindOne", func(t *testing.T) {
		ctx, c := setup(t)
		got, ok, err := c.FindOne(ctx, query.NewPredicate(query.ContainsFold("name", "pasta")))
		if err != nil || !ok || got.ID != "p1" {
			t.Fatalf("FindOne() = %v, %v, %v", got.ID, ok, err)
		}
		_, ok, err = c.FindOne(ctx, query.NewPredicate(query.Equals("id", "zzz")))
		if err != nil || ok {
			t.Fatalf("FindOne() on miss = %v, %v", ok, err)
		}
	})

	t.Run("Distinct", func(t *testing.T) {
		ctx, c := setup(t)
		got, err := c.Distinct(ctx, "types")
		if err != nil {
			t.Fatalf("Distinct() error = %v", err)
		}
		if len(got) != 2 || got[0] != "food" || got[1] != "restaurant" {
			t.Fatalf("Distinct(types) = %v", got)
		}
		if _, err := c.Distinct(ctx, "x; drop table"); !errors.Is(err, store.ErrInvalidField) {
			t.Fatalf("Distinct() invalid field error = %v", err)
		}
	})

	t.Run("InsertDuplicate", func(t *testing.T) {
		ctx, c := setup(t)
		err := c.Insert(ctx, record.Place{ID: "p9", Name: "New"}, record.Place{ID: "p1", Name: "Dup"})
		if !errors.Is(err, store.ErrDuplicate) {
			t.Fatalf("Insert() error = %v, want ErrDuplicate", err)
		}
		if _, ok, _ := c.FindOne(ctx, query.NewPredicate(query.Equals("id", "p9"))); ok {
			t.Fatalf("failed batch left p9 behind")
		}
	})

	t.Run("Replace", func(t *testing.T) {
		ctx, c := setup(t)
		if err := c.Replace(ctx, "p2", record.Place{ID: "p2", Name: "Burger Barn II"}); err != nil {
			t.Fatalf("Replace() error = %v", err)
		}
		got, ok, err := c.FindOne(ctx, query.NewPredicate(query.Equals("id", "p2")))
		if err != nil || !ok || got.Name != "Burger Barn II" {
			t.Fatalf("after Replace() = %+v, %v, %v", got, ok, err)
		}
		if err := c.Replace(ctx, "missing", record.Place{Name: "x"}); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("Replace() missing error = %v", err)
		}
	})

	t.Run("DeleteAndDrop", func(t *testing.T) {
		ctx, c := setup(t)
		removed, err := c.Delete(ctx, query.NewPredicate(query.ContainsFold("formatted_address", "MAIN ST")))
		if err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if want := []string{"p1", "p4"}; !equal(ids(removed), want) {
			t.Fatalf("Delete() removed %v, want %v", ids(removed), want)
		}
		left, _ := c.Find(ctx, query.NewPredicate())
		if want := []string{"p2", "p3"}; !equal(ids(left), want) {
			t.Fatalf("remaining = %v, want %v", ids(left), want)
		}
		if err := c.Drop(ctx); err != nil {
			t.Fatalf("Drop() error = %v", err)
		}
		if left, _ := c.Find(ctx, query.NewPredicate()); len(left) != 0 {
			t.Fatalf("Drop() left %d docs", len(left))
		}
	})
}
