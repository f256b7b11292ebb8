package filter

import "errors"

var (
	// ErrShape is returned when a field does not match the geometry or
	// the companion field it is combined with.
	ErrShape = errors.New("filter: field shape mismatch")

	// ErrWindow is returned for an empty or inverted intensity window.
	ErrWindow = errors.New("filter: invalid intensity window")

	// ErrRadius is returned for a negative neighbourhood radius.
	ErrRadius = errors.New("filter: negative radius")
)
