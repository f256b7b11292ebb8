package mesh

import "errors"

var (
	// ErrIndexOutOfRange is returned when a triangle references a vertex
	// index outside the vertex arena.
	ErrIndexOutOfRange = errors.New("mesh: vertex index out of range")

	// ErrBadBuffer is returned by FromBuffers when a flat buffer length is not
	// a multiple of 3 or the normal buffer does not match the positions.
	ErrBadBuffer = errors.New("mesh: malformed buffer")
)
