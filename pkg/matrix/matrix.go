// Package matrix provides a small dense matrix type with the arithmetic and
// the SVD-based generalized inverse needed by local least-squares surface fits.
//
// Matrices are values: every operation returning a matrix allocates a new,
// independent instance. Shape errors never panic; the failing operation returns
// the empty 0×0 sentinel and an error wrapping ErrDimensionMismatch.
package matrix

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

const (
	opAdd      = "Add"
	opSub      = "Sub"
	opMul      = "Mul"
	opNorm     = "Norm"
	opPinv     = "Pinv"
	opSolve    = "Solve"
	opFromRows = "NewFromRows"
	opFromData = "NewFromData"
)

// Matrix is a dense row-major matrix of float64 values.
// Element (i, j) lives at data[i*cols+j].
type Matrix struct {
	rows, cols int
	data       []float64
}

// matrixErrorf attaches an operation tag and the operand shapes to err.
func matrixErrorf(op string, a, b *Matrix, err error) error {
	return fmt.Errorf("%s (%d,%d) x (%d,%d): %w", op, a.rows, a.cols, b.rows, b.cols, err)
}

// New returns a zero-initialized rows×cols matrix. Negative dimensions are a
// programmer error and panic, like make.
func New(rows, cols int) *Matrix {
	if rows < 0 || cols < 0 {
		panic(fmt.Sprintf("matrix: negative dimensions %dx%d", rows, cols))
	}
	return &Matrix{rows: rows, cols: cols, data: make([]float64, rows*cols)}
}

// Empty returns the 0×0 sentinel returned by failed operations.
func Empty() *Matrix {
	return New(0, 0)
}

// Identity returns the n×n identity matrix.
func Identity(n int) *Matrix {
	m := New(n, n)
	for i := 0; i < n; i++ {
		m.data[i*n+i] = 1
	}
	return m
}

// NewFromRows builds a matrix from a slice of equally long rows.
func NewFromRows(rows [][]float64) (*Matrix, error) {
	if len(rows) == 0 {
		return Empty(), nil
	}
	cols := len(rows[0])
	m := New(len(rows), cols)
	for i, row := range rows {
		if len(row) != cols {
			return Empty(), fmt.Errorf("%s: row %d has %d values, want %d: %w",
				opFromRows, i, len(row), cols, ErrDimensionMismatch)
		}
		copy(m.data[i*cols:(i+1)*cols], row)
	}
	return m, nil
}

// NewFromData wraps a copy of data (row-major, length rows*cols).
func NewFromData(rows, cols int, data []float64) (*Matrix, error) {
	if rows < 0 || cols < 0 || len(data) != rows*cols {
		return Empty(), fmt.Errorf("%s: %d values for %dx%d: %w",
			opFromData, len(data), rows, cols, ErrDimensionMismatch)
	}
	m := New(rows, cols)
	copy(m.data, data)
	return m, nil
}

// Rows returns the number of rows.
func (m *Matrix) Rows() int { return m.rows }

// Cols returns the number of columns.
func (m *Matrix) Cols() int { return m.cols }

// At returns element (i, j). Indices are not validated beyond the slice
// bounds check; this is an inner-loop accessor.
func (m *Matrix) At(i, j int) float64 { return m.data[i*m.cols+j] }

// Set assigns element (i, j). Same indexing contract as At.
func (m *Matrix) Set(i, j int, v float64) { m.data[i*m.cols+j] = v }

// IsEmpty reports whether m has no elements.
func (m *Matrix) IsEmpty() bool { return m.rows == 0 || m.cols == 0 }

// Clone returns a deep copy of m.
func (m *Matrix) Clone() *Matrix {
	c := New(m.rows, m.cols)
	copy(c.data, m.data)
	return c
}

// Row returns a copy of row i.
func (m *Matrix) Row(i int) []float64 {
	r := make([]float64, m.cols)
	copy(r, m.data[i*m.cols:(i+1)*m.cols])
	return r
}

// Col returns a copy of column j.
func (m *Matrix) Col(j int) []float64 {
	c := make([]float64, m.rows)
	for i := range c {
		c[i] = m.data[i*m.cols+j]
	}
	return c
}

func (m *Matrix) String() string {
	var sb strings.Builder
	for i := 0; i < m.rows; i++ {
		sb.WriteString("[")
		for j := 0; j < m.cols; j++ {
			if j > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%g", m.data[i*m.cols+j])
		}
		sb.WriteString("]\n")
	}
	return sb.String()
}

// Mul returns a×b computed with the plain triple sum.
func Mul(a, b *Matrix) (*Matrix, error) {
	if a.cols != b.rows {
		return Empty(), matrixErrorf(opMul, a, b, ErrDimensionMismatch)
	}
	res := New(a.rows, b.cols)
	for i := 0; i < a.rows; i++ {
		rowA := a.data[i*a.cols : (i+1)*a.cols]
		rowR := res.data[i*b.cols : (i+1)*b.cols]
		for j := 0; j < b.cols; j++ {
			var sum float64
			for k, av := range rowA {
				sum += av * b.data[k*b.cols+j]
			}
			rowR[j] = sum
		}
	}
	return res, nil
}

func addSub(a, b *Matrix, sign float64, op string) (*Matrix, error) {
	if a.rows != b.rows || a.cols != b.cols {
		return Empty(), matrixErrorf(op, a, b, ErrDimensionMismatch)
	}
	res := New(a.rows, a.cols)
	for i := range res.data {
		res.data[i] = a.data[i] + sign*b.data[i]
	}
	return res, nil
}

// Add returns a+b. Shapes must match exactly.
func Add(a, b *Matrix) (*Matrix, error) { return addSub(a, b, 1, opAdd) }

// Sub returns a-b. Shapes must match exactly.
func Sub(a, b *Matrix) (*Matrix, error) { return addSub(a, b, -1, opSub) }

// Div divides every element by s. Division by zero is left to IEEE semantics;
// callers must not pass s == 0.
func Div(a *Matrix, s float64) *Matrix {
	res := a.Clone()
	for i := range res.data {
		res.data[i] /= s
	}
	return res
}

// Scale multiplies every element by s.
func Scale(a *Matrix, s float64) *Matrix {
	res := a.Clone()
	for i := range res.data {
		res.data[i] *= s
	}
	return res
}

// Transpose returns aᵗ. It only permutes storage, so
// Transpose(Transpose(a)) is bit-identical to a.
func Transpose(a *Matrix) *Matrix {
	res := New(a.cols, a.rows)
	for i := 0; i < a.rows; i++ {
		for j := 0; j < a.cols; j++ {
			res.data[j*a.rows+i] = a.data[i*a.cols+j]
		}
	}
	return res
}

// Norm returns the Euclidean norm of a row or column vector. Any other shape
// returns 0 and ErrNotVector.
func Norm(a *Matrix) (float64, error) {
	if a.rows != 1 && a.cols != 1 {
		return 0, fmt.Errorf("%s (%d,%d): %w", opNorm, a.rows, a.cols, ErrNotVector)
	}
	var sum float64
	for _, v := range a.data {
		sum += v * v
	}
	return math.Sqrt(sum), nil
}

// Equal reports whether a and b have the same shape and identical elements.
func Equal(a, b *Matrix) bool {
	if a.rows != b.rows || a.cols != b.cols {
		return false
	}
	for i := range a.data {
		if a.data[i] != b.data[i] {
			return false
		}
	}
	return true
}

// EqualApprox reports whether a and b have the same shape and every pair of
// elements differs by at most tol.
func EqualApprox(a, b *Matrix, tol float64) bool {
	if a.rows != b.rows || a.cols != b.cols {
		return false
	}
	for i := range a.data {
		if math.Abs(a.data[i]-b.data[i]) > tol {
			return false
		}
	}
	return true
}

// MaxAbs returns the largest absolute element, 0 for an empty matrix.
func MaxAbs(a *Matrix) float64 {
	var m float64
	for _, v := range a.data {
		if av := math.Abs(v); av > m {
			m = av
		}
	}
	return m
}

// ToDense copies m into a gonum dense matrix. Empty matrices have no gonum
// representation and return nil.
func (m *Matrix) ToDense() *mat.Dense {
	if m.IsEmpty() {
		return nil
	}
	data := make([]float64, len(m.data))
	copy(data, m.data)
	return mat.NewDense(m.rows, m.cols, data)
}

// FromDense copies any gonum matrix into a new Matrix.
func FromDense(d mat.Matrix) *Matrix {
	r, c := d.Dims()
	m := New(r, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			m.data[i*c+j] = d.At(i, j)
		}
	}
	return m
}
