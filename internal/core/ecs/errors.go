package ecs

import "errors"

var (
	// ErrEntityNotFound is returned by structural writes against an id that
	// was never issued or has already been destroyed.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrInvalidComponentState is returned when a caller requires a component
	// the entity does not (or no longer) own.
	ErrInvalidComponentState = errors.New("invalid component state")
)
