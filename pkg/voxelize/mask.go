package voxelize

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"meshseg/pkg/volume"
)

// Mask is a binary volume with one byte per voxel, 1 inside and 0 outside.
// Data uses the same x-fastest layout as volume fields:
// Data[i + nx*(j + ny*k)].
type Mask struct {
	Size [3]int
	Data []uint8
}

// NewMask allocates an all-outside mask.
func NewMask(size [3]int) *Mask {
	return &Mask{Size: size, Data: make([]uint8, size[0]*size[1]*size[2])}
}

func (m *Mask) offset(idx volume.Index) int {
	return idx[0] + m.Size[0]*(idx[1]+m.Size[1]*idx[2])
}

// At returns the mask value at idx. idx must be in range.
func (m *Mask) At(idx volume.Index) uint8 { return m.Data[m.offset(idx)] }

// Set assigns the mask value at idx. idx must be in range.
func (m *Mask) Set(idx volume.Index, v uint8) { m.Data[m.offset(idx)] = v }

// Count returns the number of inside voxels.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Data {
		if v != 0 {
			n++
		}
	}
	return n
}

// voxelVolume is the physical volume of one voxel of geom.
func voxelVolume(geom volume.Geometry) float64 {
	s := geom.Spacing()
	return s.X * s.Y * s.Z * math.Abs(geom.Direction().Det())
}

// Volume returns the physical volume covered by inside voxels.
func (m *Mask) Volume(geom volume.Geometry) float64 {
	return float64(m.Count()) * voxelVolume(geom)
}

// CrossSectionalAreas returns, for every slice k, the physical area of the
// inside voxels in that slice.
func (m *Mask) CrossSectionalAreas(geom volume.Geometry) []float64 {
	s := geom.Spacing()
	d := geom.Direction()
	// Area of the parallelogram spanned by the first two grid axes.
	ax := d.MulVec(r3.Vec{X: 1})
	ay := d.MulVec(r3.Vec{Y: 1})
	pixel := s.X * s.Y * r3.Norm(r3.Cross(ax, ay))

	areas := make([]float64, m.Size[2])
	plane := m.Size[0] * m.Size[1]
	for k := range areas {
		n := 0
		for _, v := range m.Data[k*plane : (k+1)*plane] {
			if v != 0 {
				n++
			}
		}
		areas[k] = float64(n) * pixel
	}
	return areas
}

// ToScalarField converts the mask to a 0/1 scalar field.
func (m *Mask) ToScalarField() *volume.ScalarField {
	f := volume.NewScalarField(m.Size)
	for n, v := range m.Data {
		f.Data[n] = float64(v)
	}
	return f
}
