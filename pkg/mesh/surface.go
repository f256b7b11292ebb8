// Package mesh holds the triangulated surface produced by the fitting stage.
//
// A Surface is an arena of vertices plus triangles that index into it. Nothing
// in the package holds pointers between the two, so a Surface can be copied,
// transformed and handed to the voxelizer without ownership concerns.
package mesh

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Vertex is a surface point with its normal.
type Vertex struct {
	Position r3.Vec
	Normal   r3.Vec
}

// Triangle holds three indices into Surface.Vertices. Counter-clockwise order
// seen from outside gives an outward normal.
type Triangle [3]int

// Surface is a triangulated surface stored as arena + index.
type Surface struct {
	Vertices  []Vertex
	Triangles []Triangle
}

// FromBuffers builds a Surface from flat x,y,z position and normal buffers
// and a flat triangle index buffer. normals may be nil, in which case normals
// are computed from the faces. Indices are validated.
func FromBuffers(positions, normals []float64, indices []int) (*Surface, error) {
	if len(positions)%3 != 0 {
		return nil, fmt.Errorf("position buffer of length %d: %w", len(positions), ErrBadBuffer)
	}
	if normals != nil && len(normals) != len(positions) {
		return nil, fmt.Errorf("normal buffer of length %d for %d positions: %w",
			len(normals), len(positions), ErrBadBuffer)
	}
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("index buffer of length %d: %w", len(indices), ErrBadBuffer)
	}

	s := &Surface{
		Vertices:  make([]Vertex, len(positions)/3),
		Triangles: make([]Triangle, len(indices)/3),
	}
	for i := range s.Vertices {
		s.Vertices[i].Position = r3.Vec{X: positions[3*i], Y: positions[3*i+1], Z: positions[3*i+2]}
		if normals != nil {
			s.Vertices[i].Normal = r3.Vec{X: normals[3*i], Y: normals[3*i+1], Z: normals[3*i+2]}
		}
	}
	for t := range s.Triangles {
		s.Triangles[t] = Triangle{indices[3*t], indices[3*t+1], indices[3*t+2]}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if normals == nil {
		s.ComputeNormals()
	}
	return s, nil
}

// Validate checks that every triangle index refers to an existing vertex.
func (s *Surface) Validate() error {
	for t, tri := range s.Triangles {
		if !s.valid(tri) {
			return fmt.Errorf("triangle %d %v with %d vertices: %w", t, tri, len(s.Vertices), ErrIndexOutOfRange)
		}
	}
	return nil
}

func (s *Surface) valid(tri Triangle) bool {
	for _, v := range tri {
		if v < 0 || v >= len(s.Vertices) {
			return false
		}
	}
	return true
}

// Corners returns the three vertex positions of tri and false when tri
// references a missing vertex.
func (s *Surface) Corners(tri Triangle) (a, b, c r3.Vec, ok bool) {
	if !s.valid(tri) {
		return a, b, c, false
	}
	return s.Vertices[tri[0]].Position, s.Vertices[tri[1]].Position, s.Vertices[tri[2]].Position, true
}

// Clone returns a deep copy of s.
func (s *Surface) Clone() *Surface {
	c := &Surface{
		Vertices:  make([]Vertex, len(s.Vertices)),
		Triangles: make([]Triangle, len(s.Triangles)),
	}
	copy(c.Vertices, s.Vertices)
	copy(c.Triangles, s.Triangles)
	return c
}

// Bounds returns the axis-aligned box of all vertex positions. An empty
// surface has a zero box.
func (s *Surface) Bounds() r3.Box {
	if len(s.Vertices) == 0 {
		return r3.Box{}
	}
	p := s.Vertices[0].Position
	box := r3.Box{Min: p, Max: p}
	for _, v := range s.Vertices[1:] {
		p = v.Position
		box.Min = r3.Vec{X: math.Min(box.Min.X, p.X), Y: math.Min(box.Min.Y, p.Y), Z: math.Min(box.Min.Z, p.Z)}
		box.Max = r3.Vec{X: math.Max(box.Max.X, p.X), Y: math.Max(box.Max.Y, p.Y), Z: math.Max(box.Max.Z, p.Z)}
	}
	return box
}

// Area returns the total surface area. Triangles with bad indices are
// ignored.
func (s *Surface) Area() float64 {
	var area float64
	for _, tri := range s.Triangles {
		a, b, c, ok := s.Corners(tri)
		if !ok {
			continue
		}
		area += 0.5 * r3.Norm(r3.Cross(r3.Sub(b, a), r3.Sub(c, a)))
	}
	return area
}

// SignedVolume returns the volume enclosed by a closed surface, positive when
// the triangles are wound with outward normals.
func (s *Surface) SignedVolume() float64 {
	var vol float64
	for _, tri := range s.Triangles {
		a, b, c, ok := s.Corners(tri)
		if !ok {
			continue
		}
		vol += r3.Dot(a, r3.Cross(b, c))
	}
	return vol / 6
}

// ComputeNormals replaces every vertex normal by the area-weighted mean of
// the adjacent face normals. Vertices without faces get a zero normal.
func (s *Surface) ComputeNormals() {
	acc := make([]r3.Vec, len(s.Vertices))
	for _, tri := range s.Triangles {
		a, b, c, ok := s.Corners(tri)
		if !ok {
			continue
		}
		// |cross| is twice the area, so the sum is area weighted.
		n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
		for _, v := range tri {
			acc[v] = r3.Add(acc[v], n)
		}
	}
	for i, n := range acc {
		if norm := r3.Norm(n); norm > 0 {
			n = r3.Scale(1/norm, n)
		}
		s.Vertices[i].Normal = n
	}
}

// Flip reverses the winding of every triangle and negates the normals.
func (s *Surface) Flip() {
	for t, tri := range s.Triangles {
		s.Triangles[t] = Triangle{tri[0], tri[2], tri[1]}
	}
	for i := range s.Vertices {
		s.Vertices[i].Normal = r3.Scale(-1, s.Vertices[i].Normal)
	}
}

// Transform returns a copy of s with fn applied to every vertex position.
// Normals are recomputed from the transformed faces.
func (s *Surface) Transform(fn func(r3.Vec) r3.Vec) *Surface {
	c := s.Clone()
	for i := range c.Vertices {
		c.Vertices[i].Position = fn(c.Vertices[i].Position)
	}
	c.ComputeNormals()
	return c
}
