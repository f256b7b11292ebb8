package voxelize

import (
	"gonum.org/v1/gonum/spatial/r3"

	"meshseg/pkg/mesh"
	"meshseg/pkg/volume"
)

// faceCorners lists, for each of the six face directions, the corner offsets
// of the voxel face in counter-clockwise order seen from outside. Corner
// (a, b, c) of voxel (i, j, k) sits at continuous index
// (i+a-0.5, j+b-0.5, k+c-0.5).
var faceCorners = [6]struct {
	dir     volume.Index
	corners [4]volume.Index
}{
	{volume.Index{1, 0, 0}, [4]volume.Index{{1, 0, 0}, {1, 1, 0}, {1, 1, 1}, {1, 0, 1}}},
	{volume.Index{-1, 0, 0}, [4]volume.Index{{0, 0, 0}, {0, 0, 1}, {0, 1, 1}, {0, 1, 0}}},
	{volume.Index{0, 1, 0}, [4]volume.Index{{0, 1, 0}, {0, 1, 1}, {1, 1, 1}, {1, 1, 0}}},
	{volume.Index{0, -1, 0}, [4]volume.Index{{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1}}},
	{volume.Index{0, 0, 1}, [4]volume.Index{{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1}}},
	{volume.Index{0, 0, -1}, [4]volume.Index{{0, 0, 0}, {0, 1, 0}, {1, 1, 0}, {1, 0, 0}}},
}

// Boundary extracts the closed surface separating inside from outside
// voxels, made of the voxel faces between them, mapped to world space with
// geom. Faces of inside voxels on the grid border are included, so the
// surface is always closed, and voxelizing it against geom reproduces m.
//
// Corners shared by several faces are stored once. The winding is outward
// in index space; a direction matrix with negative determinant mirrors it.
func Boundary(m *Mask, geom volume.Geometry) *mesh.Surface {
	s := &mesh.Surface{}
	nx, ny := m.Size[0]+1, m.Size[1]+1
	vertices := make(map[int]int)
	vertex := func(c volume.Index) int {
		key := c[0] + nx*(c[1]+ny*c[2])
		if v, ok := vertices[key]; ok {
			return v
		}
		v := len(s.Vertices)
		vertices[key] = v
		ci := r3.Vec{X: float64(c[0]) - 0.5, Y: float64(c[1]) - 0.5, Z: float64(c[2]) - 0.5}
		s.Vertices = append(s.Vertices, mesh.Vertex{Position: geom.ContinuousIndexToWorld(ci)})
		return v
	}
	inside := func(idx volume.Index) bool {
		for axis, n := range m.Size {
			if idx[axis] < 0 || idx[axis] >= n {
				return false
			}
		}
		return m.At(idx) != 0
	}

	for k := 0; k < m.Size[2]; k++ {
		for j := 0; j < m.Size[1]; j++ {
			for i := 0; i < m.Size[0]; i++ {
				idx := volume.Index{i, j, k}
				if m.At(idx) == 0 {
					continue
				}
				for _, f := range faceCorners {
					if inside(volume.Index{i + f.dir[0], j + f.dir[1], k + f.dir[2]}) {
						continue
					}
					var q [4]int
					for n, c := range f.corners {
						q[n] = vertex(volume.Index{i + c[0], j + c[1], k + c[2]})
					}
					s.Triangles = append(s.Triangles,
						mesh.Triangle{q[0], q[1], q[2]},
						mesh.Triangle{q[0], q[2], q[3]})
				}
			}
		}
	}
	s.ComputeNormals()
	return s
}
