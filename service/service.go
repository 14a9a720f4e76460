// Package service implements the place, recipe and comment workflows on top
// of the cached repositories.
package service

import "errors"

var (
	// ErrInvalidArgument reports missing or malformed input.
	ErrInvalidArgument = errors.New("service: invalid argument")
	// ErrNotFound reports that the addressed record does not exist.
	ErrNotFound = errors.New("service: not found")
	// ErrNoMatch reports that the lookup service found no place for a query.
	ErrNoMatch = errors.New("service: no matching place")
)
