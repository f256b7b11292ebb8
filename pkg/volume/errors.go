package volume

import "errors"

var (
	// ErrGeometry reports inconsistent or non-invertible grid geometry:
	// non-positive extents or spacing, non-finite values, or a singular
	// direction matrix. It is fatal to grid construction.
	ErrGeometry = errors.New("volume: invalid geometry")

	// ErrFieldNotAttached is returned when sampling a field that was never
	// attached or has been detached or released.
	ErrFieldNotAttached = errors.New("volume: field not attached")

	// ErrFieldShape is returned when a field buffer does not match the
	// extents it is declared with or the grid it is attached to.
	ErrFieldShape = errors.New("volume: field shape mismatch")

	// ErrOutOfBounds is returned when a sample position falls outside the
	// grid. Positions are never clamped silently.
	ErrOutOfBounds = errors.New("volume: index out of bounds")
)
