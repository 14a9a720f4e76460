package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/adeilh/go-places/lookup"
	"github.com/adeilh/go-places/query"
	"github.com/adeilh/go-places/record"
	"github.com/adeilh/go-places/repository"
)

// PlaceInput names a restaurant to enrich and store.
type PlaceInput struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

// PlaceResult is the outcome of adding one PlaceInput.
type PlaceResult struct {
	Input   PlaceInput
	Place   record.Place
	Created bool
	Err     error
}

// SeedReport summarizes a Seed run.
type SeedReport struct {
	Read     int
	Skipped  int
	Inserted int
	Existing int
	Failed   []string
}

// Places adds and removes restaurants, enriching them through a lookup.Finder.
type Places struct {
	repo   *repository.Repository[record.Place]
	finder lookup.Finder
	logger *zap.Logger
}

func NewPlaces(repo *repository.Repository[record.Place], finder lookup.Finder, logger *zap.Logger) *Places {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Places{repo: repo, finder: finder, logger: logger}
}

// Repository exposes the underlying place repository for reads.
func (s *Places) Repository() *repository.Repository[record.Place] { return s.repo }

// Add resolves name near location and stores the first match. A place whose
// place_id is already stored is returned unchanged with created false.
func (s *Places) Add(ctx context.Context, name, location string) (p record.Place, created bool, err error) {
	name = strings.TrimSpace(name)
	location = strings.TrimSpace(location)
	if name == "" || location == "" {
		return record.Place{}, false, fmt.Errorf("%w: name and location are required", ErrInvalidArgument)
	}
	if s.finder == nil {
		return record.Place{}, false, fmt.Errorf("service: add %q: %w", name, lookup.ErrUnavailable)
	}

	found, ok, err := s.finder.FindPlace(ctx, lookup.Query(name, location))
	if err != nil {
		return record.Place{}, false, fmt.Errorf("service: add %q: %w", name, err)
	}
	if !ok {
		return record.Place{}, false, fmt.Errorf("%w: %s near %s", ErrNoMatch, name, location)
	}

	if found.PlaceID != "" {
		existing, ok, err := s.repo.FindOne(ctx, query.NewPredicate(query.Equals("place_id", found.PlaceID)))
		if err != nil {
			return record.Place{}, false, err
		}
		if ok {
			return existing, false, nil
		}
	}

	inserted, err := s.repo.Insert(ctx, found.Normalize())
	if err != nil {
		return record.Place{}, false, err
	}
	s.logger.Info("place added", zap.String("name", inserted[0].Name), zap.String("place_id", inserted[0].PlaceID))
	return inserted[0], true, nil
}

// AddMany adds every input and reports a result per item, in input order.
func (s *Places) AddMany(ctx context.Context, inputs []PlaceInput) []PlaceResult {
	results := make([]PlaceResult, 0, len(inputs))
	for _, in := range inputs {
		p, created, err := s.Add(ctx, in.Name, in.Location)
		results = append(results, PlaceResult{Input: in, Place: p, Created: created, Err: err})
	}
	return results
}

// Delete removes the places with placeID, or with exactly name when placeID
// is empty.
func (s *Places) Delete(ctx context.Context, placeID, name string) ([]record.Place, error) {
	var cond query.Condition
	switch {
	case placeID != "":
		cond = query.Equals("place_id", placeID)
	case name != "":
		cond = query.Equals("name", name)
	default:
		return nil, fmt.Errorf("%w: place_id or name is required", ErrInvalidArgument)
	}
	removed, err := s.repo.Delete(ctx, query.NewPredicate(cond))
	if err != nil {
		return nil, err
	}
	if len(removed) == 0 {
		return nil, ErrNotFound
	}
	return removed, nil
}

// DeleteMany deletes by every place id and then every name, returning the
// identifiers that were removed and those that failed.
func (s *Places) DeleteMany(ctx context.Context, placeIDs, names []string) (deleted, failed []string) {
	for _, id := range placeIDs {
		if _, err := s.Delete(ctx, id, ""); err != nil {
			failed = append(failed, id)
			continue
		}
		deleted = append(deleted, id)
	}
	for _, name := range names {
		if _, err := s.Delete(ctx, "", name); err != nil {
			failed = append(failed, name)
			continue
		}
		deleted = append(deleted, name)
	}
	return deleted, failed
}

// Seed reads a JSON array of PlaceInput from r and adds the entries whose
// name is not stored yet, at most limit of them when limit is positive.
func (s *Places) Seed(ctx context.Context, r io.Reader, limit int) (SeedReport, error) {
	var inputs []PlaceInput
	if err := json.NewDecoder(r).Decode(&inputs); err != nil {
		return SeedReport{}, fmt.Errorf("%w: seed data: %w", ErrInvalidArgument, err)
	}
	report := SeedReport{Read: len(inputs)}

	names, err := s.repo.Distinct(ctx, "name")
	if err != nil {
		return report, err
	}
	existing := make(map[string]struct{}, len(names))
	for _, n := range names {
		if name, ok := n.(string); ok {
			existing[name] = struct{}{}
		}
	}

	pending := inputs[:0:0]
	for _, in := range inputs {
		if _, ok := existing[in.Name]; ok {
			report.Skipped++
			continue
		}
		pending = append(pending, in)
	}
	if limit > 0 && len(pending) > limit {
		report.Skipped += len(pending) - limit
		pending = pending[:limit]
	}

	for _, res := range s.AddMany(ctx, pending) {
		switch {
		case res.Err != nil:
			if errors.Is(res.Err, repository.ErrStore) {
				return report, res.Err
			}
			s.logger.Warn("seed entry failed", zap.String("name", res.Input.Name), zap.Error(res.Err))
			report.Failed = append(report.Failed, res.Input.Name)
		case res.Created:
			report.Inserted++
		default:
			report.Existing++
		}
	}
	return report, nil
}
