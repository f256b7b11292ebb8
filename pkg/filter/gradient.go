// Package filter implements the volume preprocessing that produces the
// fields a segmentation grid is built from: image gradients, gradient
// magnitude, median denoising and intensity windowing.
//
// Filters split the volume into z slabs processed concurrently. Each call
// returns only once every slab is done.
package filter

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"meshseg/pkg/volume"
)

// derivative returns the finite difference of f along axis at idx in index
// units: central inside, one-sided on the borders, zero for a single voxel.
func derivative(f *volume.ScalarField, idx volume.Index, axis int) float64 {
	n := f.Size[axis]
	if n < 2 {
		return 0
	}
	lo, hi := idx, idx
	switch i := idx[axis]; {
	case i == 0:
		hi[axis] = 1
	case i == n-1:
		lo[axis] = n - 2
	default:
		lo[axis], hi[axis] = i-1, i+1
	}
	return (f.At(hi) - f.At(lo)) / float64(hi[axis]-lo[axis])
}

// Gradient computes the image gradient in physical units, expressed in world
// coordinates: per-axis finite differences are divided by the spacing and
// rotated by the direction cosines.
func Gradient(f *volume.ScalarField, geom volume.Geometry, workers int) (*volume.VectorField, error) {
	if f == nil || !geom.Valid() || f.Size != geom.Size() || len(f.Data) != geom.Len() {
		return nil, fmt.Errorf("gradient: %w", ErrShape)
	}
	dir := geom.Direction()
	sp := geom.Spacing()
	out := volume.NewVectorField(f.Size)

	forEachSlab(f.Size[2], workers, func(k0, k1 int) {
		for k := k0; k < k1; k++ {
			for j := 0; j < f.Size[1]; j++ {
				for i := 0; i < f.Size[0]; i++ {
					idx := volume.Index{i, j, k}
					local := r3.Vec{
						X: derivative(f, idx, 0) / sp.X,
						Y: derivative(f, idx, 1) / sp.Y,
						Z: derivative(f, idx, 2) / sp.Z,
					}
					out.Set(idx, dir.MulVec(local))
				}
			}
		}
	})
	return out, nil
}

// GradientMagnitude returns the per-voxel Euclidean norm of a vector field.
func GradientMagnitude(g *volume.VectorField, workers int) *volume.ScalarField {
	out := volume.NewScalarField(g.Size)
	plane := g.Size[0] * g.Size[1]
	forEachSlab(g.Size[2], workers, func(k0, k1 int) {
		for n := k0 * plane; n < k1*plane; n++ {
			out.Data[n] = r3.Norm(g.Data[n])
		}
	})
	return out
}
