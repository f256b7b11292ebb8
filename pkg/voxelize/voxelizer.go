// Package voxelize rasterizes closed triangulated surfaces into binary masks
// aligned with a reference grid geometry.
//
// A voxel is inside when its centre, mapped to world space with
// Geometry.IndexToWorld, lies inside the surface. The surface is mapped into
// continuous-index space and a ray is cast along the first grid axis through
// every (j, k) voxel line. Ray/triangle hits are decided with exact sign
// tests under a symbolic perturbation of the ray, so a ray through a shared
// edge or vertex is counted exactly once and axis-aligned boxes come out
// exact. A crossing at x counts for voxel i when x <= i.
package voxelize

import (
	"fmt"
	"io"
	"log"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"meshseg/pkg/mesh"
	"meshseg/pkg/volume"
)

// Voxelizer rasterizes surfaces against one reference geometry.
type Voxelizer struct {
	geom   volume.Geometry
	logger *log.Logger
}

// Option configures a Voxelizer.
type Option func(*Voxelizer)

// WithLogger sets the logger degeneracy warnings are written to. A nil
// logger silences them.
func WithLogger(l *log.Logger) Option {
	return func(v *Voxelizer) {
		if l == nil {
			l = log.New(io.Discard, "", 0)
		}
		v.logger = l
	}
}

// NewVoxelizer returns a voxelizer for geom, which must come from
// volume.NewGeometry.
func NewVoxelizer(geom volume.Geometry, opts ...Option) (*Voxelizer, error) {
	if !geom.Valid() {
		return nil, fmt.Errorf("new voxelizer: %w", volume.ErrGeometry)
	}
	v := &Voxelizer{geom: geom, logger: log.Default()}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Geometry returns the reference geometry.
func (v *Voxelizer) Geometry() volume.Geometry { return v.geom }

// Voxelize rasterizes s. It never fails: degenerate input is skipped or
// repaired, logged, and summarized in the returned Report.
func (v *Voxelizer) Voxelize(s *mesh.Surface) (*Mask, Report) {
	size := v.geom.Size()
	mask := NewMask(size)
	rep := Report{}
	if s == nil {
		return mask, rep
	}
	rep.Triangles = len(s.Triangles)

	// Map every vertex once so shared corners stay bit-identical.
	pts := make([]r3.Vec, len(s.Vertices))
	finite := make([]bool, len(s.Vertices))
	for n, vert := range s.Vertices {
		pts[n], finite[n] = v.geom.WorldToContinuousIndex(vert.Position)
	}

	lines := make([][]float64, size[1]*size[2])
	for _, tri := range s.Triangles {
		if _, _, _, ok := s.Corners(tri); !ok {
			rep.BadIndices++
			continue
		}
		if !finite[tri[0]] || !finite[tri[1]] || !finite[tri[2]] {
			rep.NonFinite++
			continue
		}
		a, b, c := pts[tri[0]], pts[tri[1]], pts[tri[2]]
		if r3.Norm2(r3.Cross(r3.Sub(b, a), r3.Sub(c, a))) == 0 {
			rep.ZeroArea++
			continue
		}
		scanTriangle(lines, size, tri, pts)
	}

	for k := 0; k < size[2]; k++ {
		for j := 0; j < size[1]; j++ {
			xs := lines[j+size[1]*k]
			if len(xs) == 0 {
				continue
			}
			sort.Float64s(xs)
			if len(xs)%2 == 1 {
				rep.OddLines++
				xs = xs[:len(xs)-1]
			}
			fillLine(mask, j, k, xs)
		}
	}

	if rep.Degenerate() {
		v.logger.Printf("voxelize: %v", rep)
	}
	return mask, rep
}

// fillLine marks voxels i of line (j, k) with an odd number of crossings
// x <= i. xs is sorted with even length.
func fillLine(m *Mask, j, k int, xs []float64) {
	nx := m.Size[0]
	row := m.Data[nx*(j+m.Size[1]*k) : nx*(j+m.Size[1]*k+1)]
	for p := 0; p+1 < len(xs); p += 2 {
		// Inside for xs[p] <= i < xs[p+1].
		lo := math.Max(0, math.Ceil(xs[p]))
		hi := math.Min(float64(nx), math.Ceil(xs[p+1]))
		for i := int(lo); i < int(hi); i++ {
			row[i] = 1
		}
	}
}

// scanTriangle appends the x coordinate at which every candidate (j, k) line
// crosses the triangle.
func scanTriangle(lines [][]float64, size [3]int, tri mesh.Triangle, pts []r3.Vec) {
	a, b, c := pts[tri[0]], pts[tri[1]], pts[tri[2]]
	jlo, jhi, ok := lineRange(math.Min(a.Y, math.Min(b.Y, c.Y)), math.Max(a.Y, math.Max(b.Y, c.Y)), size[1])
	if !ok {
		return
	}
	klo, khi, ok := lineRange(math.Min(a.Z, math.Min(b.Z, c.Z)), math.Max(a.Z, math.Max(b.Z, c.Z)), size[2])
	if !ok {
		return
	}

	for k := klo; k <= khi; k++ {
		for j := jlo; j <= jhi; j++ {
			py, pz := float64(j), float64(k)
			ea, sa := edge(tri[1], tri[2], pts, py, pz)
			eb, sb := edge(tri[2], tri[0], pts, py, pz)
			ec, sc := edge(tri[0], tri[1], pts, py, pz)
			if sa == 0 || sa != sb || sb != sc {
				continue
			}
			total := ea + eb + ec
			if total == 0 {
				continue
			}
			x := (ea*a.X + eb*b.X + ec*c.X) / total
			n := j + size[1]*k
			lines[n] = append(lines[n], x)
		}
	}
}

// lineRange returns the clipped range of integer line coordinates that may
// hit a triangle spanning [lo, hi], with one line of margin on each side.
func lineRange(lo, hi float64, n int) (int, int, bool) {
	first := math.Max(0, math.Ceil(lo)-1)
	last := math.Min(float64(n-1), math.Floor(hi)+1)
	if first > last {
		return 0, 0, false
	}
	return int(first), int(last), true
}

// edge evaluates the 2-D edge function of the directed edge p→q at (py, pz)
// in the yz plane, and its sign under the perturbation
// (py, pz) → (py + ε, pz + ε²). The value is always computed from the
// lower-numbered vertex so the two triangles sharing an edge get exactly
// opposite results.
func edge(p, q int, pts []r3.Vec, py, pz float64) (float64, int) {
	flip := 1.0
	if p > q {
		p, q = q, p
		flip = -1
	}
	pp, qq := pts[p], pts[q]
	dy, dz := qq.Y-pp.Y, qq.Z-pp.Z
	e := dy*(pz-pp.Z) - dz*(py-pp.Y)
	e, dy, dz = flip*e, flip*dy, flip*dz

	switch {
	case e > 0:
		return e, 1
	case e < 0:
		return e, -1
	case dz != 0:
		// ∂e/∂py = -dz
		if dz < 0 {
			return e, 1
		}
		return e, -1
	case dy > 0:
		return e, 1
	case dy < 0:
		return e, -1
	}
	return e, 0
}
