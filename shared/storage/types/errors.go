package types

import "errors"

// Common storage errors
var (
	// ErrObjectNotFound is returned when an object is not found in storage
	ErrObjectNotFound = errors.New("object not found")

	// ErrInvalidKey is returned when a key is empty or escapes the storage root
	ErrInvalidKey = errors.New("invalid object key")
)
