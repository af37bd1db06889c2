package catalog

import "errors"

var (
	// ErrNotFound is returned when no record with the given identifier exists.
	ErrNotFound = errors.New("catalog: not found")
	// ErrDuplicateIdentifier is returned when admitting an identifier that is
	// already present.
	ErrDuplicateIdentifier = errors.New("catalog: duplicate identifier")
	// ErrInvalidQuery is returned for malformed filter predicates.
	ErrInvalidQuery = errors.New("catalog: invalid query")
	// ErrRejected is returned when a record fails validation or resolution.
	ErrRejected = errors.New("catalog: record rejected")
)
