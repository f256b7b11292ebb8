package volume

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// stencil holds the eight corner offsets and trilinear weights around a
// continuous index.
type stencil struct {
	offsets [8]int
	weights [8]float64
}

// newStencil computes the trilinear stencil of ci. Positions outside the
// buffered region [-0.5, n-0.5) fail; neighbours past the first or last voxel
// are clamped onto it.
func newStencil(size [3]int, ci r3.Vec) (stencil, error) {
	var st stencil
	if !containsContinuous(size, ci) {
		return st, fmt.Errorf("continuous index %v outside %v: %w", ci, size, ErrOutOfBounds)
	}
	var lo, hi [3]int
	var frac [3]float64
	for axis, c := range [3]float64{ci.X, ci.Y, ci.Z} {
		base := math.Floor(c)
		frac[axis] = c - base
		lo[axis] = clamp(int(base), size[axis])
		hi[axis] = clamp(int(base)+1, size[axis])
	}
	n := 0
	for dz := 0; dz < 2; dz++ {
		k, wz := lo[2], 1-frac[2]
		if dz == 1 {
			k, wz = hi[2], frac[2]
		}
		for dy := 0; dy < 2; dy++ {
			j, wy := lo[1], 1-frac[1]
			if dy == 1 {
				j, wy = hi[1], frac[1]
			}
			for dx := 0; dx < 2; dx++ {
				i, wx := lo[0], 1-frac[0]
				if dx == 1 {
					i, wx = hi[0], frac[0]
				}
				st.offsets[n] = offset(size, Index{i, j, k})
				st.weights[n] = wx * wy * wz
				n++
			}
		}
	}
	return st, nil
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// ScalarInterpolator evaluates a scalar field at continuous indices with
// trilinear interpolation.
type ScalarInterpolator struct {
	field *ScalarField
}

// NewScalarInterpolator binds an interpolator to f.
func NewScalarInterpolator(f *ScalarField) *ScalarInterpolator {
	return &ScalarInterpolator{field: f}
}

// Evaluate returns the interpolated value at ci.
func (in *ScalarInterpolator) Evaluate(ci r3.Vec) (float64, error) {
	st, err := newStencil(in.field.Size, ci)
	if err != nil {
		return 0, err
	}
	var v float64
	for n, off := range st.offsets {
		if w := st.weights[n]; w != 0 {
			v += w * in.field.Data[off]
		}
	}
	return v, nil
}

// VectorInterpolator is the vector counterpart of ScalarInterpolator.
type VectorInterpolator struct {
	field *VectorField
}

// NewVectorInterpolator binds an interpolator to f.
func NewVectorInterpolator(f *VectorField) *VectorInterpolator {
	return &VectorInterpolator{field: f}
}

// Evaluate returns the interpolated vector at ci.
func (in *VectorInterpolator) Evaluate(ci r3.Vec) (r3.Vec, error) {
	st, err := newStencil(in.field.Size, ci)
	if err != nil {
		return r3.Vec{}, err
	}
	var v r3.Vec
	for n, off := range st.offsets {
		if w := st.weights[n]; w != 0 {
			v = r3.Add(v, r3.Scale(w, in.field.Data[off]))
		}
	}
	return v, nil
}
