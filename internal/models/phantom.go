// Package models builds synthetic phantoms: intensity volumes and closed
// surfaces with known analytic volume, used to exercise the segmentation
// stack end to end.
package models

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"meshseg/pkg/mesh"
	"meshseg/pkg/volume"
)

// Phantom describes a synthetic scan of a bright or dark blob.
type Phantom struct {
	// Geometry of the generated grid
	Geometry volume.Geometry

	// Center of the structure in world coordinates
	Center r3.Vec

	// Radius of the structure in world units
	Radius float64

	// Inside and Outside are the intensities inside and outside the structure
	Inside, Outside float64
}

// SphereVolume renders the phantom as a sphere. Voxels whose centre lies
// inside get Inside; the remaining voxels get Outside.
func (p Phantom) SphereVolume() *volume.ScalarField {
	return p.render(func(w r3.Vec) float64 {
		return r3.Norm(r3.Sub(w, p.Center))
	})
}

// CylinderVolume renders the phantom as an infinite cylinder along the
// world z axis.
func (p Phantom) CylinderVolume() *volume.ScalarField {
	return p.render(func(w r3.Vec) float64 {
		return math.Hypot(w.X-p.Center.X, w.Y-p.Center.Y)
	})
}

func (p Phantom) render(dist func(r3.Vec) float64) *volume.ScalarField {
	size := p.Geometry.Size()
	f := volume.NewScalarField(size)
	for k := 0; k < size[2]; k++ {
		for j := 0; j < size[1]; j++ {
			for i := 0; i < size[0]; i++ {
				idx := volume.Index{i, j, k}
				v := p.Outside
				if dist(p.Geometry.IndexToWorld(idx)) <= p.Radius {
					v = p.Inside
				}
				f.Set(idx, v)
			}
		}
	}
	return f
}

// SphereVolume returns the analytic volume of a sphere of radius r.
func SphereVolume(r float64) float64 { return 4.0 / 3.0 * math.Pi * r * r * r }

// UVSphere returns a closed, outward-wound latitude/longitude sphere.
// stacks is the number of latitude bands (>= 2) and slices the number of
// longitude segments (>= 3).
func UVSphere(center r3.Vec, radius float64, stacks, slices int) *mesh.Surface {
	s := &mesh.Surface{}
	add := func(p r3.Vec) {
		s.Vertices = append(s.Vertices, mesh.Vertex{
			Position: r3.Add(center, r3.Scale(radius, p)),
			Normal:   p,
		})
	}

	add(r3.Vec{Z: 1})
	for i := 1; i < stacks; i++ {
		theta := math.Pi * float64(i) / float64(stacks)
		for j := 0; j < slices; j++ {
			phi := 2 * math.Pi * float64(j) / float64(slices)
			add(r3.Vec{
				X: math.Sin(theta) * math.Cos(phi),
				Y: math.Sin(theta) * math.Sin(phi),
				Z: math.Cos(theta),
			})
		}
	}
	add(r3.Vec{Z: -1})

	ring := func(i, j int) int { return 1 + (i-1)*slices + j%slices }
	bottom := len(s.Vertices) - 1
	for j := 0; j < slices; j++ {
		s.Triangles = append(s.Triangles, mesh.Triangle{0, ring(1, j), ring(1, j+1)})
	}
	for i := 1; i < stacks-1; i++ {
		for j := 0; j < slices; j++ {
			a, b := ring(i, j), ring(i, j+1)
			c, d := ring(i+1, j), ring(i+1, j+1)
			s.Triangles = append(s.Triangles,
				mesh.Triangle{a, c, d},
				mesh.Triangle{a, d, b})
		}
	}
	for j := 0; j < slices; j++ {
		s.Triangles = append(s.Triangles, mesh.Triangle{bottom, ring(stacks-1, j+1), ring(stacks-1, j)})
	}
	return s
}

// Box returns the closed, outward-wound surface of the axis-aligned box
// [min, max].
func Box(min, max r3.Vec) *mesh.Surface {
	s := &mesh.Surface{}
	// Vertex n has x = max.X when bit 2 is set, y when bit 1, z when bit 0.
	for n := 0; n < 8; n++ {
		p := min
		if n&4 != 0 {
			p.X = max.X
		}
		if n&2 != 0 {
			p.Y = max.Y
		}
		if n&1 != 0 {
			p.Z = max.Z
		}
		s.Vertices = append(s.Vertices, mesh.Vertex{Position: p})
	}
	quads := [6][4]int{
		{0, 1, 3, 2}, {4, 6, 7, 5},
		{0, 4, 5, 1}, {2, 3, 7, 6},
		{0, 2, 6, 4}, {1, 5, 7, 3},
	}
	for _, q := range quads {
		s.Triangles = append(s.Triangles,
			mesh.Triangle{q[0], q[1], q[2]},
			mesh.Triangle{q[0], q[2], q[3]})
	}
	s.ComputeNormals()
	return s
}

// Cylinder returns a closed cylinder around the world z axis through
// center, with flat caps at center.Z ± height/2.
func Cylinder(center r3.Vec, radius, height float64, segments int) *mesh.Surface {
	s := &mesh.Surface{}
	zLo, zHi := center.Z-height/2, center.Z+height/2
	s.Vertices = append(s.Vertices,
		mesh.Vertex{Position: r3.Vec{X: center.X, Y: center.Y, Z: zLo}},
		mesh.Vertex{Position: r3.Vec{X: center.X, Y: center.Y, Z: zHi}})
	for j := 0; j < segments; j++ {
		phi := 2 * math.Pi * float64(j) / float64(segments)
		x, y := center.X+radius*math.Cos(phi), center.Y+radius*math.Sin(phi)
		s.Vertices = append(s.Vertices,
			mesh.Vertex{Position: r3.Vec{X: x, Y: y, Z: zLo}},
			mesh.Vertex{Position: r3.Vec{X: x, Y: y, Z: zHi}})
	}
	lo := func(j int) int { return 2 + 2*(j%segments) }
	hi := func(j int) int { return 3 + 2*(j%segments) }
	for j := 0; j < segments; j++ {
		s.Triangles = append(s.Triangles,
			mesh.Triangle{0, lo(j + 1), lo(j)},
			mesh.Triangle{1, hi(j), hi(j + 1)},
			mesh.Triangle{lo(j), lo(j + 1), hi(j + 1)},
			mesh.Triangle{lo(j), hi(j + 1), hi(j)})
	}
	s.ComputeNormals()
	return s
}
