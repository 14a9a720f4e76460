package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/adeilh/go-places/query"
	"github.com/adeilh/go-places/record"
	"github.com/adeilh/go-places/repository"
)

// Comments attaches free-text comments to stored places.
type Comments struct {
	repo   *repository.Repository[record.Comment]
	places *repository.Repository[record.Place]
	now    func() time.Time
}

type CommentsOption func(*Comments)

// WithClock overrides the clock used to stamp comments.
func WithClock(now func() time.Time) CommentsOption {
	return func(c *Comments) {
		if now != nil {
			c.now = now
		}
	}
}

func NewComments(repo *repository.Repository[record.Comment], places *repository.Repository[record.Place], opts ...CommentsOption) *Comments {
	c := &Comments{repo: repo, places: places, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (s *Comments) Repository() *repository.Repository[record.Comment] { return s.repo }

// Add stores a comment on the place with the given record id.
func (s *Comments) Add(ctx context.Context, placeID, text string) (record.Comment, error) {
	placeID = strings.TrimSpace(placeID)
	text = strings.TrimSpace(text)
	if placeID == "" || text == "" {
		return record.Comment{}, fmt.Errorf("%w: place_id and text are required", ErrInvalidArgument)
	}
	if _, ok, err := s.places.GetByIdentifier(ctx, placeID); err != nil {
		return record.Comment{}, err
	} else if !ok {
		return record.Comment{}, fmt.Errorf("%w: place %s", ErrNotFound, placeID)
	}

	now := s.now().UTC()
	inserted, err := s.repo.Insert(ctx, record.Comment{
		PlaceID:   placeID,
		Text:      text,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return record.Comment{}, err
	}
	return inserted[0], nil
}

// ForPlace lists the comments on a place, oldest first.
func (s *Comments) ForPlace(ctx context.Context, placeID string) ([]record.Comment, error) {
	if strings.TrimSpace(placeID) == "" {
		return nil, fmt.Errorf("%w: place_id is required", ErrInvalidArgument)
	}
	comments, err := s.repo.Find(ctx, query.NewPredicate(query.Equals("place_id", placeID)))
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(comments, func(a, b record.Comment) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return comments, nil
}
