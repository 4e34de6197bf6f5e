package store

import "errors"

var (
	// ErrNotFound is returned when an item doesn't exist or has expired (TTL <= now).
	ErrNotFound = errors.New("store: item not found")

	// ErrMissingID is returned when an operation is called with an empty id.
	ErrMissingID = errors.New("store: missing item id")
)
