// Package fit solves the small least-squares problems used to describe
// cross-sections of a segmented structure: circles through contour points and
// planes through surface patches. Circle systems are solved with the
// truncated pseudoinverse of package matrix; planes come from the smallest
// eigenvector of the point covariance.
package fit

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"meshseg/pkg/matrix"
)

// ErrTooFewPoints is returned when a fit has fewer points than unknowns.
var ErrTooFewPoints = errors.New("fit: too few points")

// Circle is a circle in a 2-D cross-section.
type Circle struct {
	Center r2.Vec
	Radius float64

	// RMS is the root mean square radial residual of the fitted points.
	RMS float64
}

// FitCircle fits a circle to points with the algebraic (Kåsa) method:
// x²+y²+D·x+E·y+F = 0 is solved for D, E, F in the least-squares sense.
// Collinear or coincident points make the system rank deficient; the error
// then wraps matrix.ErrRankDeficient.
func FitCircle(points []r2.Vec, tol float64) (Circle, error) {
	if len(points) < 3 {
		return Circle{}, fmt.Errorf("circle from %d points: %w", len(points), ErrTooFewPoints)
	}
	a := matrix.New(len(points), 3)
	b := matrix.New(len(points), 1)
	for i, p := range points {
		a.Set(i, 0, p.X)
		a.Set(i, 1, p.Y)
		a.Set(i, 2, 1)
		b.Set(i, 0, -(p.X*p.X + p.Y*p.Y))
	}

	x, rank, err := matrix.SolveRank(a, b, tol)
	if err != nil {
		return Circle{}, fmt.Errorf("circle: %w", err)
	}
	if rank < 3 {
		return Circle{}, fmt.Errorf("circle: rank %d: %w", rank, matrix.ErrRankDeficient)
	}

	d, e, f := x.At(0, 0), x.At(1, 0), x.At(2, 0)
	c := Circle{Center: r2.Vec{X: -d / 2, Y: -e / 2}}
	r2sq := r2.Norm2(c.Center) - f
	if r2sq <= 0 {
		return Circle{}, fmt.Errorf("circle: imaginary radius: %w", matrix.ErrRankDeficient)
	}
	c.Radius = math.Sqrt(r2sq)

	var ss float64
	for _, p := range points {
		res := r2.Norm(r2.Sub(p, c.Center)) - c.Radius
		ss += res * res
	}
	c.RMS = math.Sqrt(ss / float64(len(points)))
	return c, nil
}

// Plane is an oriented plane through Point with unit Normal.
type Plane struct {
	Point  r3.Vec
	Normal r3.Vec
}

// Distance returns the signed distance from p to the plane.
func (pl Plane) Distance(p r3.Vec) float64 {
	return r3.Dot(r3.Sub(p, pl.Point), pl.Normal)
}

// FitPlane fits the total least-squares plane through points: it passes
// through the centroid and its normal is the direction of least variance.
// Collinear or coincident points return an error wrapping
// matrix.ErrRankDeficient.
func FitPlane(points []r3.Vec, tol float64) (Plane, error) {
	if len(points) < 3 {
		return Plane{}, fmt.Errorf("plane from %d points: %w", len(points), ErrTooFewPoints)
	}
	var centroid r3.Vec
	for _, p := range points {
		centroid = r3.Add(centroid, p)
	}
	centroid = r3.Scale(1/float64(len(points)), centroid)

	centred := matrix.New(len(points), 3)
	for i, p := range points {
		d := r3.Sub(p, centroid)
		centred.Set(i, 0, d.X)
		centred.Set(i, 1, d.Y)
		centred.Set(i, 2, d.Z)
	}
	rank, err := matrix.Rank(centred, tol)
	if err != nil {
		return Plane{}, fmt.Errorf("plane: %w", err)
	}
	if rank < 2 {
		return Plane{}, fmt.Errorf("plane: rank %d: %w", rank, matrix.ErrRankDeficient)
	}

	cov, err := matrix.Mul(matrix.Transpose(centred), centred)
	if err != nil {
		return Plane{}, fmt.Errorf("plane: %w", err)
	}
	var eig mat.EigenSym
	sym := mat.NewSymDense(3, nil)
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			sym.SetSym(i, j, cov.At(i, j))
		}
	}
	if !eig.Factorize(sym, true) {
		return Plane{}, fmt.Errorf("plane: eigen decomposition failed: %w", matrix.ErrSVDFailed)
	}
	var vecs mat.Dense
	eig.VectorsTo(&vecs)
	// Eigenvalues come back in ascending order.
	n := r3.Unit(r3.Vec{X: vecs.At(0, 0), Y: vecs.At(1, 0), Z: vecs.At(2, 0)})
	return Plane{Point: centroid, Normal: n}, nil
}
