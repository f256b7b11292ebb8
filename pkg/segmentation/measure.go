package segmentation

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"meshseg/pkg/fit"
	"meshseg/pkg/mesh"
	"meshseg/pkg/volume"
	"meshseg/pkg/voxelize"
)

// SliceCircle is the circle fitted to the contour of one mask slice.
type SliceCircle struct {
	// K is the slice index.
	K int

	// Circle is expressed in the slice plane, in physical units along the
	// first two grid axes.
	Circle fit.Circle

	// Center is the circle centre in world coordinates.
	Center r3.Vec
}

// FitSliceCircles fits a circle to the contour voxels of every slice of
// mask. Slices with fewer than three contour voxels or a degenerate contour
// are skipped; the error joins the reasons for the skipped non-empty slices.
func FitSliceCircles(mask *voxelize.Mask, geom volume.Geometry, tol float64) ([]SliceCircle, error) {
	sp := geom.Spacing()
	var circles []SliceCircle
	var skipped []error
	for k := 0; k < mask.Size[2]; k++ {
		contour := sliceContour(mask, k)
		if len(contour) == 0 {
			continue
		}
		pts := make([]r2.Vec, len(contour))
		for n, c := range contour {
			pts[n] = r2.Vec{X: float64(c[0]) * sp.X, Y: float64(c[1]) * sp.Y}
		}
		c, err := fit.FitCircle(pts, tol)
		if err != nil {
			skipped = append(skipped, fmt.Errorf("slice %d: %w", k, err))
			continue
		}
		ci := r3.Vec{X: c.Center.X / sp.X, Y: c.Center.Y / sp.Y, Z: float64(k)}
		circles = append(circles, SliceCircle{K: k, Circle: c, Center: geom.ContinuousIndexToWorld(ci)})
	}
	if len(skipped) > 0 {
		return circles, fmt.Errorf("skipped %d slices, first: %w", len(skipped), skipped[0])
	}
	return circles, nil
}

// sliceContour returns the inside voxels of slice k with at least one
// outside 4-neighbour in the slice.
func sliceContour(mask *voxelize.Mask, k int) [][2]int {
	nx, ny := mask.Size[0], mask.Size[1]
	inside := func(i, j int) bool {
		return i >= 0 && i < nx && j >= 0 && j < ny && mask.At(volume.Index{i, j, k}) != 0
	}
	var out [][2]int
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			if !inside(i, j) {
				continue
			}
			if !inside(i-1, j) || !inside(i+1, j) || !inside(i, j-1) || !inside(i, j+1) {
				out = append(out, [2]int{i, j})
			}
		}
	}
	return out
}

// EstimateNormals estimates a normal for every vertex of s from the plane
// fitted through its k nearest vertices, oriented to agree with the stored
// normal. Vertices whose neighbourhood is degenerate keep their normal; the
// count of those is returned.
func EstimateNormals(s *mesh.Surface, k int, tol float64) ([]r3.Vec, int) {
	loc := mesh.NewLocator(s)
	normals := make([]r3.Vec, len(s.Vertices))
	kept := 0
	for i, v := range s.Vertices {
		normals[i] = v.Normal
		near := loc.KNearest(v.Position, k)
		pts := make([]r3.Vec, len(near))
		for n, idx := range near {
			pts[n] = s.Vertices[idx].Position
		}
		pl, err := fit.FitPlane(pts, tol)
		if err != nil {
			kept++
			continue
		}
		n := pl.Normal
		if r3.Dot(n, v.Normal) < 0 {
			n = r3.Scale(-1, n)
		}
		normals[i] = n
	}
	return normals, kept
}
