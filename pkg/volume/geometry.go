package volume

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Index is an integer grid index (i, j, k). Grid index (0,0,0) is the centre
// of the first voxel.
type Index [3]int

// Geometry is the affine relation between grid indices and physical
// coordinates:
//
//	world = Origin + Direction · diag(Spacing) · index
//
// The forward matrix and its inverse are computed once by NewGeometry and
// never change afterwards. The zero value has no inverse; its world to index
// transforms report failure.
type Geometry struct {
	size      [3]int
	origin    r3.Vec
	spacing   r3.Vec
	direction *r3.Mat

	toWorld *r3.Mat
	toIndex *r3.Mat
}

// NewGeometry validates the extents, spacing and direction cosines and caches
// the forward and inverse affine maps. A nil direction means identity.
func NewGeometry(size [3]int, origin, spacing r3.Vec, direction *r3.Mat) (Geometry, error) {
	for axis, n := range size {
		if n <= 0 {
			return Geometry{}, fmt.Errorf("extent %d along axis %d: %w", n, axis, ErrGeometry)
		}
	}
	for axis, s := range [3]float64{spacing.X, spacing.Y, spacing.Z} {
		if !(s > 0) || math.IsInf(s, 0) {
			return Geometry{}, fmt.Errorf("spacing %g along axis %d: %w", s, axis, ErrGeometry)
		}
	}
	if !finite(origin) {
		return Geometry{}, fmt.Errorf("origin %v: %w", origin, ErrGeometry)
	}
	if direction == nil {
		direction = r3.Eye()
	}

	dir := r3.NewMat(nil)
	dir.CloneFrom(direction)
	toWorld := r3.NewMat(nil)
	scale := [3]float64{spacing.X, spacing.Y, spacing.Z}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			v := dir.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return Geometry{}, fmt.Errorf("direction (%d,%d)=%g: %w", i, j, v, ErrGeometry)
			}
			toWorld.Set(i, j, v*scale[j])
		}
	}

	if dir.Det() == 0 {
		return Geometry{}, fmt.Errorf("singular direction matrix: %w", ErrGeometry)
	}
	var inv mat.Dense
	if err := inv.Inverse(toWorld); err != nil {
		return Geometry{}, fmt.Errorf("direction matrix not invertible (%v): %w", err, ErrGeometry)
	}
	toIndex := r3.NewMat(nil)
	toIndex.CloneFrom(&inv)

	return Geometry{
		size:      size,
		origin:    origin,
		spacing:   spacing,
		direction: dir,
		toWorld:   toWorld,
		toIndex:   toIndex,
	}, nil
}

func finite(v r3.Vec) bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Size returns the grid extents (nx, ny, nz).
func (g Geometry) Size() [3]int { return g.size }

// Origin returns the physical position of index (0,0,0).
func (g Geometry) Origin() r3.Vec { return g.origin }

// Spacing returns the physical distance per index step along each axis.
func (g Geometry) Spacing() r3.Vec { return g.spacing }

// Direction returns a copy of the direction cosine matrix.
func (g Geometry) Direction() *r3.Mat {
	d := r3.NewMat(nil)
	if g.direction != nil {
		d.CloneFrom(g.direction)
	}
	return d
}

// Valid reports whether g was produced by NewGeometry.
func (g Geometry) Valid() bool { return g.toIndex != nil }

// Len returns the number of voxels.
func (g Geometry) Len() int { return g.size[0] * g.size[1] * g.size[2] }

// Offset returns the linear offset of idx in an x-fastest buffer.
func (g Geometry) Offset(idx Index) int { return offset(g.size, idx) }

func offset(size [3]int, idx Index) int {
	return idx[0] + size[0]*(idx[1]+size[1]*idx[2])
}

// Contains reports whether idx addresses a voxel of the grid.
func (g Geometry) Contains(idx Index) bool { return contains(g.size, idx) }

func contains(size [3]int, idx Index) bool {
	for axis := 0; axis < 3; axis++ {
		if idx[axis] < 0 || idx[axis] >= size[axis] {
			return false
		}
	}
	return true
}

// ContainsContinuous reports whether ci lies in the buffered region, which
// extends half a voxel beyond the first and last voxel centres.
func (g Geometry) ContainsContinuous(ci r3.Vec) bool {
	return containsContinuous(g.size, ci)
}

func containsContinuous(size [3]int, ci r3.Vec) bool {
	for axis, c := range [3]float64{ci.X, ci.Y, ci.Z} {
		if !(c >= -0.5) || !(c < float64(size[axis])-0.5) {
			return false
		}
	}
	return true
}

// ContinuousIndexToWorld maps a continuous index to physical coordinates.
func (g Geometry) ContinuousIndexToWorld(ci r3.Vec) r3.Vec {
	if g.toWorld == nil {
		return r3.Add(g.origin, ci)
	}
	return r3.Add(g.origin, g.toWorld.MulVec(ci))
}

// IndexToWorld maps a voxel index to the physical position of its centre.
func (g Geometry) IndexToWorld(idx Index) r3.Vec {
	return g.ContinuousIndexToWorld(r3.Vec{X: float64(idx[0]), Y: float64(idx[1]), Z: float64(idx[2])})
}

// WorldToContinuousIndex applies the inverse affine map. ok is false only when
// the map cannot represent p: the geometry has no inverse or the input or
// result is not finite. Points outside the extent still succeed; callers that
// need an in-extent position must check ContainsContinuous.
func (g Geometry) WorldToContinuousIndex(p r3.Vec) (ci r3.Vec, ok bool) {
	if g.toIndex == nil || !finite(p) {
		return r3.Vec{}, false
	}
	ci = g.toIndex.MulVec(r3.Sub(p, g.origin))
	return ci, finite(ci)
}

// maxIndex bounds rounded indices so the int conversion stays exact.
const maxIndex = 1 << 52

// WorldToIndex maps p to the nearest voxel index, rounding halves up along
// each axis. Success follows the same rule as WorldToContinuousIndex.
func (g Geometry) WorldToIndex(p r3.Vec) (Index, bool) {
	ci, ok := g.WorldToContinuousIndex(p)
	if !ok {
		return Index{}, false
	}
	var idx Index
	for axis, c := range [3]float64{ci.X, ci.Y, ci.Z} {
		r := math.Floor(c + 0.5)
		if math.Abs(r) > maxIndex {
			return Index{}, false
		}
		idx[axis] = int(r)
	}
	return idx, true
}

// PhysicalExtent returns spacing × size along each grid axis.
func (g Geometry) PhysicalExtent() r3.Vec {
	return r3.Vec{
		X: g.spacing.X * float64(g.size[0]),
		Y: g.spacing.Y * float64(g.size[1]),
		Z: g.spacing.Z * float64(g.size[2]),
	}
}

// Bounds returns the axis-aligned world box containing every voxel centre.
func (g Geometry) Bounds() r3.Box {
	p := g.IndexToWorld(Index{})
	box := r3.Box{Min: p, Max: p}
	for _, i := range [2]int{0, g.size[0] - 1} {
		for _, j := range [2]int{0, g.size[1] - 1} {
			for _, k := range [2]int{0, g.size[2] - 1} {
				p = g.IndexToWorld(Index{i, j, k})
				box.Min = r3.Vec{X: math.Min(box.Min.X, p.X), Y: math.Min(box.Min.Y, p.Y), Z: math.Min(box.Min.Z, p.Z)}
				box.Max = r3.Vec{X: math.Max(box.Max.X, p.X), Y: math.Max(box.Max.Y, p.Y), Z: math.Max(box.Max.Z, p.Z)}
			}
		}
	}
	return box
}

// SameShape reports whether two geometries share extents, origin, spacing
// and direction exactly.
func (g Geometry) SameShape(o Geometry) bool {
	if g.size != o.size || g.origin != o.origin || g.spacing != o.spacing {
		return false
	}
	if g.direction == nil || o.direction == nil {
		return g.direction == o.direction
	}
	return mat.Equal(g.direction, o.direction)
}
