package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/adeilh/go-places/query"
	"github.com/adeilh/go-places/record"
	"github.com/adeilh/go-places/repository"
)

// Recipes manages recipes and their ingredients, instructions and notes.
type Recipes struct {
	repo *repository.Repository[record.Recipe]
}

func NewRecipes(repo *repository.Repository[record.Recipe]) *Recipes {
	return &Recipes{repo: repo}
}

func (s *Recipes) Repository() *repository.Repository[record.Recipe] { return s.repo }

// Add stores r, assigning identifiers to the recipe and its sub-items.
func (s *Recipes) Add(ctx context.Context, r record.Recipe) (record.Recipe, error) {
	inserted, err := s.repo.Insert(ctx, r.WithItemIDs())
	if err != nil {
		return record.Recipe{}, err
	}
	return inserted[0], nil
}

func (s *Recipes) Get(ctx context.Context, id string) (record.Recipe, bool, error) {
	if strings.TrimSpace(id) == "" {
		return record.Recipe{}, false, fmt.Errorf("%w: recipe id is required", ErrInvalidArgument)
	}
	return s.repo.GetByIdentifier(ctx, id)
}

func (s *Recipes) All(ctx context.Context) ([]record.Recipe, error) {
	return s.repo.All(ctx, false)
}

// Search matches recipes whose name or source contain the given text.
func (s *Recipes) Search(ctx context.Context, name, source string) ([]record.Recipe, error) {
	p := query.Params{}
	if name != "" {
		p.Name = query.String(name)
	}
	if source != "" {
		p.Address = query.String(source)
	}
	return s.repo.Search(ctx, p)
}

func (s *Recipes) AddIngredient(ctx context.Context, id string, in record.Ingredient) (record.Recipe, error) {
	return s.update(ctx, id, in, func(r *record.Recipe) {
		r.Ingredients = append(r.Ingredients, in.WithID())
	})
}

func (s *Recipes) AddInstruction(ctx context.Context, id string, in record.Instruction) (record.Recipe, error) {
	return s.update(ctx, id, in, func(r *record.Recipe) {
		r.Instructions = append(r.Instructions, in.WithID())
	})
}

func (s *Recipes) AddNote(ctx context.Context, id string, n record.Note) (record.Recipe, error) {
	return s.update(ctx, id, n, func(r *record.Recipe) {
		r.Notes = append(r.Notes, n.WithID())
	})
}

// update validates item, applies mutate to the stored recipe and replaces it.
func (s *Recipes) update(ctx context.Context, id string, item any, mutate func(*record.Recipe)) (record.Recipe, error) {
	if strings.TrimSpace(id) == "" {
		return record.Recipe{}, fmt.Errorf("%w: recipe id is required", ErrInvalidArgument)
	}
	if err := record.Validate(item); err != nil {
		return record.Recipe{}, err
	}
	r, ok, err := s.repo.FindOne(ctx, query.NewPredicate(query.Equals("id", id)))
	if err != nil {
		return record.Recipe{}, err
	}
	if !ok {
		return record.Recipe{}, fmt.Errorf("%w: recipe %s", ErrNotFound, id)
	}
	mutate(&r)
	if err := s.repo.Replace(ctx, r); err != nil {
		return record.Recipe{}, err
	}
	return r, nil
}

func (s *Recipes) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: recipe id is required", ErrInvalidArgument)
	}
	removed, err := s.repo.Delete(ctx, query.NewPredicate(query.Equals("id", id)))
	if err != nil {
		return err
	}
	if len(removed) == 0 {
		return fmt.Errorf("%w: recipe %s", ErrNotFound, id)
	}
	return nil
}
