package matrix

import "errors"

// Sentinel errors returned by the matrix package. Callers match them with
// errors.Is; operations that fail return the empty sentinel matrix together
// with one of these so a single failed solve never aborts a fitting loop.
var (
	// ErrDimensionMismatch indicates incompatible operand shapes, e.g. Add/Sub
	// of different shapes or Mul where a.Cols() != b.Rows().
	ErrDimensionMismatch = errors.New("matrix: dimension mismatch")

	// ErrNotVector is returned by Norm when the matrix is neither a single
	// row nor a single column.
	ErrNotVector = errors.New("matrix: not a row or column vector")

	// ErrRankDeficient marks a pseudoinverse whose singular values all fell
	// at or below the tolerance. The returned zero matrix is still valid.
	ErrRankDeficient = errors.New("matrix: rank deficient")

	// ErrSVDFailed indicates the singular value decomposition did not converge.
	ErrSVDFailed = errors.New("matrix: svd failed")
)
