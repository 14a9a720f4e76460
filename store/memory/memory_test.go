package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/adeilh/go-places/internal/testutil/storetest"
	"github.com/adeilh/go-places/query"
	"github.com/adeilh/go-places/record"
	"github.com/adeilh/go-places/store"
)

func rating(f float64) *float64 { return &f }

func seed(t *testing.T) *Collection[record.Place] {
	t.Helper()
	c := New(record.PlaceSchema)
	err := c.Insert(context.Background(),
		record.Place{ID: "1", Name: "Pasta Palace", FormattedAddress: "1 Main St", Rating: rating(4.5), Types: []string{"restaurant", "food"}},
		record.Place{ID: "2", Name: "Burger Barn", FormattedAddress: "2 Side St", Rating: rating(3.9), Types: []string{"restaurant"}},
		record.Place{ID: "3", Name: "pasta corner", FormattedAddress: "3 Main St"},
	)
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	return c
}

func TestFindAssignsHandlesInInsertionOrder(t *testing.T) {
	c := seed(t)
	got, err := c.Find(context.Background(), query.NewPredicate())
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Find() returned %d docs, want 3", len(got))
	}
	for i, p := range got {
		if p.Handle != int64(i+1) {
			t.Fatalf("doc %d handle = %d, want %d", i, p.Handle, i+1)
		}
	}
}

func TestFindWithPredicate(t *testing.T) {
	c := seed(t)
	pred := query.NewPredicate(query.ContainsFold("name", "PASTA"))
	got, err := c.Find(context.Background(), pred)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "3" {
		t.Fatalf("Find() = %+v", got)
	}

	one, ok, err := c.FindOne(context.Background(), query.NewPredicate(query.GreaterOrEqual("rating", 4)))
	if err != nil || !ok || one.ID != "1" {
		t.Fatalf("FindOne() = %+v, %v, %v", one, ok, err)
	}
}

func TestInsertDuplicateIsAtomic(t *testing.T) {
	c := seed(t)
	err := c.Insert(context.Background(), record.Place{ID: "4", Name: "New"}, record.Place{ID: "1", Name: "Dup"})
	if !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("Insert() error = %v, want ErrDuplicate", err)
	}
	if _, ok, _ := c.FindOne(context.Background(), query.NewPredicate(query.Equals("id", "4"))); ok {
		t.Fatalf("partial insert left doc 4 behind")
	}
}

func TestReplaceKeepsIdentity(t *testing.T) {
	c := seed(t)
	ctx := context.Background()
	if err := c.Replace(ctx, "2", record.Place{ID: "other", Name: "Burger Barn II"}); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	got, ok, _ := c.FindOne(ctx, query.NewPredicate(query.Equals("id", "2")))
	if !ok || got.Name != "Burger Barn II" || got.Handle != 2 {
		t.Fatalf("Replace() stored %+v", got)
	}
	if err := c.Replace(ctx, "missing", record.Place{Name: "x"}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Replace() of missing doc error = %v", err)
	}
}

func TestDeleteReturnsRemoved(t *testing.T) {
	c := seed(t)
	ctx := context.Background()
	removed, err := c.Delete(ctx, query.NewPredicate(query.ContainsFold("formatted_address", "main st")))
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(removed) != 2 {
		t.Fatalf("Delete() removed %d docs, want 2", len(removed))
	}
	left, _ := c.Find(ctx, query.NewPredicate())
	if len(left) != 1 || left[0].ID != "2" {
		t.Fatalf("remaining docs = %+v", left)
	}
	if err := c.Drop(ctx); err != nil {
		t.Fatalf("Drop() error = %v", err)
	}
	if left, _ := c.Find(ctx, query.NewPredicate()); len(left) != 0 {
		t.Fatalf("Drop() left %d docs", len(left))
	}
}

func TestDistinct(t *testing.T) {
	c := seed(t)
	got, err := c.Distinct(context.Background(), "types")
	if err != nil {
		t.Fatalf("Distinct() error = %v", err)
	}
	if len(got) != 2 || got[0] != "food" || got[1] != "restaurant" {
		t.Fatalf("Distinct(types) = %v", got)
	}
	if _, err := c.Distinct(context.Background(), "bad field"); !errors.Is(err, store.ErrInvalidField) {
		t.Fatalf("Distinct() error = %v, want ErrInvalidField", err)
	}
}

func TestCollectionContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Collection[record.Place] {
		return New(record.PlaceSchema)
	})
}

func TestReturnedDocumentsAreCopies(t *testing.T) {
	c := seed(t)
	ctx := context.Background()

	got, err := c.Find(ctx, query.NewPredicate(query.Equals("id", "1")))
	if err != nil || len(got) != 1 {
		t.Fatalf("Find() = %+v, %v", got, err)
	}
	got[0].Types[0] = "MUTATED"

	one, ok, err := c.FindOne(ctx, query.NewPredicate(query.Equals("id", "1")))
	if err != nil || !ok {
		t.Fatalf("FindOne() = %v, %v", ok, err)
	}
	if one.Types[0] != "restaurant" {
		t.Fatalf("stored types changed through a Find result: %v", one.Types)
	}
	one.Types = append(one.Types[:1], "bar")

	again, _, _ := c.FindOne(ctx, query.NewPredicate(query.Equals("id", "1")))
	if len(again.Types) != 2 || again.Types[1] != "food" {
		t.Fatalf("stored types changed through a FindOne result: %v", again.Types)
	}
}

func TestStoredDocumentsDoNotAliasInput(t *testing.T) {
	c := New(record.PlaceSchema)
	ctx := context.Background()
	types := []string{"cafe"}
	if err := c.Insert(ctx, record.Place{ID: "1", Name: "Cafe", Types: types}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	types[0] = "MUTATED"

	replacement := record.Place{Name: "Cafe", Types: []string{"bakery"}}
	if err := c.Replace(ctx, "1", replacement); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	replacement.Types[0] = "MUTATED"

	got, _, _ := c.FindOne(ctx, query.NewPredicate(query.Equals("id", "1")))
	if len(got.Types) != 1 || got.Types[0] != "bakery" {
		t.Fatalf("stored types = %v, want [bakery]", got.Types)
	}
	if got.Handle != 1 {
		t.Fatalf("handle = %d, want 1", got.Handle)
	}
}
