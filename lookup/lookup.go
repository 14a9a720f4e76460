// Package lookup resolves free-text restaurant queries into place records.
package lookup

import (
	"context"
	"errors"
	"strings"

	"github.com/adeilh/go-places/record"
)

// ErrUnavailable reports that the lookup service could not be reached or
// rejected the request.
var ErrUnavailable = errors.New("lookup: service unavailable")

// Finder looks up a single place. found is false when the service returned
// no candidates.
type Finder interface {
	FindPlace(ctx context.Context, query string) (p record.Place, found bool, err error)
}

// Query renders the free-text query for a restaurant name and an optional
// location.
func Query(name, location string) string {
	name = strings.TrimSpace(name)
	location = strings.TrimSpace(location)
	if location == "" {
		return name
	}
	return name + " near " + location
}

// FinderFunc adapts a function to the Finder interface.
type FinderFunc func(ctx context.Context, query string) (record.Place, bool, error)

func (f FinderFunc) FindPlace(ctx context.Context, query string) (record.Place, bool, error) {
	return f(ctx, query)
}
