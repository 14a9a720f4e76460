package store

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestValidField(t *testing.T) {
	for _, f := range []string{"name", "geometry.location.lat", "_id", "plus_code"} {
		if err := ValidField(f); err != nil {
			t.Errorf("ValidField(%q) error = %v", f, err)
		}
	}
	for _, f := range []string{"", "na me", "a..b", "x'); drop", "1abc", "a."} {
		if err := ValidField(f); !errors.Is(err, ErrInvalidField) {
			t.Errorf("ValidField(%q) = %v, want ErrInvalidField", f, err)
		}
	}
}

func TestDistinctValues(t *testing.T) {
	got := DistinctValues([]any{
		"b", nil, 2.0, "a", []any{"c", "a", nil}, []string{"d"}, 1.0, 2.0, true,
	})
	want := []any{1.0, 2.0, "a", "b", "c", "d", true}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("DistinctValues() mismatch (-want +got):\n%s", diff)
	}
}
