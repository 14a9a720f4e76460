package record

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPlaceKeepsUnknownFields(t *testing.T) {
	raw := []byte(`{
		"id": "abc",
		"name": "Pasta Palace",
		"place_id": "ChIJ123",
		"formatted_address": "1 Main St",
		"rating": 4.5,
		"opening_hours": {"open_now": true},
		"geometry": {"location": {"lat": 1.5, "lng": 2.5}, "viewport": {"northeast": {"lat": 0, "lng": 0}, "southwest": {"lat": 0, "lng": 0}}},
		"plus_code": {"compound_code": "X", "global_code": "Y"},
		"user_ratings_total": 10
	}`)

	var p Place
	if err := json.Unmarshal(raw, &p); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if p.Name != "Pasta Palace" || p.Rating == nil || *p.Rating != 4.5 {
		t.Fatalf("typed fields not decoded: %+v", p)
	}
	if _, ok := p.Extra["opening_hours"]; !ok {
		t.Fatalf("expected opening_hours in Extra, got %v", p.Extra)
	}
	if _, ok := p.Extra["name"]; ok {
		t.Fatalf("typed field leaked into Extra")
	}

	encoded, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var back Place
	if err := json.Unmarshal(encoded, &back); err != nil {
		t.Fatalf("Unmarshal(round trip) error = %v", err)
	}
	if diff := cmp.Diff(p, back); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}

	v, ok := back.Field("opening_hours")
	if !ok {
		t.Fatalf("Field(opening_hours) missing")
	}
	if m, _ := v.(map[string]any); m["open_now"] != true {
		t.Fatalf("Field(opening_hours) = %v", v)
	}
}

func TestPlaceNormalize(t *testing.T) {
	p := Place{Name: "Pasta Palace", PlaceID: "ChIJ123"}.Normalize()
	if p.Collection != DefaultCollection {
		t.Fatalf("Collection = %q, want %q", p.Collection, DefaultCollection)
	}
	if p.ReservationURL != ReservationBaseURL+"ChIJ123" {
		t.Fatalf("ReservationURL = %q", p.ReservationURL)
	}
	if got := (Place{Name: "No Id"}).Normalize().ReservationURL; got != "" {
		t.Fatalf("ReservationURL without place_id = %q, want empty", got)
	}
}

func TestPlaceFieldUnsetValues(t *testing.T) {
	p := Place{Name: "x"}
	if _, ok := p.Field("rating"); ok {
		t.Fatalf("nil rating should be unset")
	}
	if _, ok := p.Field("formatted_address"); ok {
		t.Fatalf("empty address should be unset")
	}
}

func TestValidate(t *testing.T) {
	if err := PlaceSchema.Validate(Place{}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for empty name, got %v", err)
	}
	bad := 7.5
	if err := PlaceSchema.Validate(Place{Name: "x", Rating: &bad}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for rating out of range, got %v", err)
	}

	recipe := Recipe{
		Name:         "Soup",
		Description:  "Warm",
		Instructions: []Instruction{{Step: 0, Description: "boil"}},
	}
	if err := RecipeSchema.Validate(recipe); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for step 0, got %v", err)
	}
	recipe.Instructions[0].Step = 1
	if err := RecipeSchema.Validate(recipe); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	blank := ""
	recipe.Ingredients = []Ingredient{{Name: "salt", Quantity: "1", Measurement: "tsp", Preparation: &blank}}
	if err := RecipeSchema.Validate(recipe); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for blank preparation, got %v", err)
	}
}

func TestRecipeWithItemIDs(t *testing.T) {
	r := Recipe{
		Ingredients: []Ingredient{{Name: "salt"}, {ID: "keep", Name: "pepper"}},
		Notes:       []Note{{Title: "t", Body: "b"}},
	}
	out := r.WithItemIDs()
	if out.Ingredients[0].ID == "" || out.Notes[0].ID == "" {
		t.Fatalf("missing generated ids: %+v", out)
	}
	if out.Ingredients[1].ID != "keep" {
		t.Fatalf("existing id replaced: %q", out.Ingredients[1].ID)
	}
	if r.Ingredients[0].ID != "" {
		t.Fatalf("original recipe mutated")
	}
}

func TestStripClearsHandle(t *testing.T) {
	p := Place{ID: "a", Handle: 42, Name: "x"}
	if got := PlaceSchema.Strip(p); got.Handle != 0 || got.ID != "a" {
		t.Fatalf("Strip() = %+v", got)
	}
}
