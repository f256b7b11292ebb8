package voxelize

import (
	"fmt"
	"strings"
)

// Report summarizes what a Voxelize call had to skip or repair.
type Report struct {
	// Triangles is the number of triangles in the input.
	Triangles int

	// BadIndices counts triangles referencing missing vertices.
	BadIndices int

	// NonFinite counts triangles with a NaN or infinite corner after mapping
	// into grid space.
	NonFinite int

	// ZeroArea counts triangles with collinear corners.
	ZeroArea int

	// OddLines counts scan lines that crossed the surface an odd number of
	// times, which only happens for open or self-intersecting surfaces. The
	// unmatched last crossing is dropped on those lines.
	OddLines int
}

// Degenerate reports whether anything was skipped or repaired.
func (r Report) Degenerate() bool {
	return r.BadIndices+r.NonFinite+r.ZeroArea+r.OddLines > 0
}

// Err returns nil for a clean run and an error wrapping ErrDegenerateMesh
// otherwise. It is diagnostic only.
func (r Report) Err() error {
	if !r.Degenerate() {
		return nil
	}
	return fmt.Errorf("%s: %w", r.String(), ErrDegenerateMesh)
}

func (r Report) String() string {
	var parts []string
	add := func(n int, what string) {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, what))
		}
	}
	add(r.BadIndices, "triangles with bad indices")
	add(r.NonFinite, "non-finite triangles")
	add(r.ZeroArea, "zero-area triangles")
	add(r.OddLines, "odd scan lines")
	if len(parts) == 0 {
		return fmt.Sprintf("%d triangles, no degeneracies", r.Triangles)
	}
	return fmt.Sprintf("%d triangles, %s", r.Triangles, strings.Join(parts, ", "))
}
