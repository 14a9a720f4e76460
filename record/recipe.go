package record

import (
	"encoding/json"
	"reflect"

	"github.com/google/uuid"

	"github.com/adeilh/go-places/query"
)

// Ingredient is a single ingredient line of a recipe.
type Ingredient struct {
	ID          string  `json:"id"`
	Name        string  `json:"name" validate:"required"`
	Quantity    string  `json:"quantity" validate:"required"`
	Measurement string  `json:"measurement" validate:"required"`
	Preparation *string `json:"preparation,omitempty" validate:"omitempty,min=1"`
}

// Instruction is a numbered recipe step.
type Instruction struct {
	ID          string `json:"id"`
	Step        int    `json:"step" validate:"gt=0"`
	Description string `json:"description" validate:"required"`
}

// Note is a free-form annotation on a recipe.
type Note struct {
	ID    string `json:"id"`
	Title string `json:"title" validate:"required"`
	Body  string `json:"body" validate:"required"`
}

// Recipe is a stored recipe document.
type Recipe struct {
	ID     string `json:"id"`
	Handle int64  `json:"_id,omitempty"`

	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"required"`
	Source      string `json:"source,omitempty"`

	Ingredients  []Ingredient  `json:"ingredients" validate:"dive"`
	Instructions []Instruction `json:"instructions" validate:"dive"`
	Notes        []Note        `json:"notes" validate:"dive"`

	Extra Extra `json:"-" msgpack:"_extra,omitempty"`
}

// WithItemIDs returns a copy of r where every sub-item has an identifier.
func (r Recipe) WithItemIDs() Recipe {
	r.Ingredients = append([]Ingredient(nil), r.Ingredients...)
	for i := range r.Ingredients {
		r.Ingredients[i] = r.Ingredients[i].WithID()
	}
	r.Instructions = append([]Instruction(nil), r.Instructions...)
	for i := range r.Instructions {
		r.Instructions[i] = r.Instructions[i].WithID()
	}
	r.Notes = append([]Note(nil), r.Notes...)
	for i := range r.Notes {
		r.Notes[i] = r.Notes[i].WithID()
	}
	return r
}

// WithID assigns a fresh identifier when none is set.
func (i Ingredient) WithID() Ingredient {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return i
}

// WithID assigns a fresh identifier when none is set.
func (i Instruction) WithID() Instruction {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return i
}

// WithID assigns a fresh identifier when none is set.
func (n Note) WithID() Note {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return n
}

type recipeJSON Recipe

func (r *Recipe) UnmarshalJSON(data []byte) error {
	var v recipeJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	extra, err := splitExtra(data, reflect.TypeOf(v))
	if err != nil {
		return err
	}
	v.Extra = extra
	*r = Recipe(v)
	return nil
}

func (r Recipe) MarshalJSON() ([]byte, error) {
	encoded, err := json.Marshal(recipeJSON(r))
	if err != nil {
		return nil, err
	}
	return mergeExtra(encoded, r.Extra)
}

// Field resolves a document field by its JSON name.
func (r Recipe) Field(name string) (any, bool) {
	switch name {
	case "id":
		return stringField(r.ID)
	case "name":
		return stringField(r.Name)
	case "description":
		return stringField(r.Description)
	case "source":
		return stringField(r.Source)
	default:
		return r.Extra.Get(name)
	}
}

// RecipeSearchFields maps search parameters onto recipe fields; the source
// stands in for the address and recipes carry no rating.
var RecipeSearchFields = query.Fields{Name: "name", Address: "source"}

// RecipeSchema addresses recipes in the "recipes" collection.
var RecipeSchema = Schema[Recipe]{
	Collection: "recipes",
	Search:     RecipeSearchFields,
	ID:         func(r Recipe) string { return r.ID },
	WithID: func(r Recipe, id string) Recipe {
		r.ID = id
		return r
	},
	Handle:     func(r Recipe) int64 { return r.Handle },
	WithHandle: func(r Recipe, h int64) Recipe {
		r.Handle = h
		return r
	},
	Name:     func(r Recipe) string { return r.Name },
	Field:    Recipe.Field,
	Validate: func(r Recipe) error { return Validate(r) },
}
