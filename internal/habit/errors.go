package habit

import "errors"

var (
	// ErrValidation is returned when a draft or edit is rejected before any mutation.
	ErrValidation = errors.New("invalid habit")

	// ErrNotFound is returned when an operation references an unknown habit id.
	ErrNotFound = errors.New("habit not found")
)
