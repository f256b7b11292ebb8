package segmentation

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"meshseg/internal/models"
	"meshseg/pkg/matrix"
	"meshseg/pkg/volume"
	"meshseg/pkg/voxelize"
)

func TestSliceContour(t *testing.T) {
	m := voxelize.NewMask([3]int{5, 5, 1})
	for j := 1; j < 4; j++ {
		for i := 1; i < 4; i++ {
			m.Set(volume.Index{i, j, 0}, 1)
		}
	}
	contour := sliceContour(m, 0)
	if len(contour) != 8 {
		t.Fatalf("Expected 8 contour voxels, got %d", len(contour))
	}
	for _, c := range contour {
		if c == [2]int{2, 2} {
			t.Error("Interior voxel reported on the contour")
		}
	}
}

func TestFitSliceCircles(t *testing.T) {
	geom, err := volume.NewGeometry([3]int{20, 20, 20}, r3.Vec{X: -5, Y: -5, Z: 0}, r3.Vec{X: 0.5, Y: 0.5, Z: 1}, nil)
	if err != nil {
		t.Fatalf("Failed to create geometry: %v", err)
	}
	center := r3.Vec{X: -0.25, Y: -0.25, Z: 9.5}
	v, err := voxelize.NewVoxelizer(geom)
	if err != nil {
		t.Fatal(err)
	}
	mask, rep := v.Voxelize(models.Cylinder(center, 2.5, 12, 64))
	if rep.Degenerate() {
		t.Fatalf("Unexpected degeneracy: %v", rep)
	}

	circles, err := FitSliceCircles(mask, geom, matrix.DefaultTolerance)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(circles) != 12 {
		t.Fatalf("Expected 12 slices, got %d", len(circles))
	}
	for _, c := range circles {
		if c.K < 4 || c.K > 15 {
			t.Errorf("Unexpected slice %d", c.K)
		}
		if math.Abs(c.Center.X-center.X) > 1e-6 || math.Abs(c.Center.Y-center.Y) > 1e-6 {
			t.Errorf("Slice %d centre %v, expected axis at %v", c.K, c.Center, center)
		}
		if c.Circle.Radius < 1.75 || c.Circle.Radius > 2.5 {
			t.Errorf("Slice %d radius %f", c.K, c.Circle.Radius)
		}
	}
}

func TestFitSliceCirclesSkipsDegenerate(t *testing.T) {
	geom, err := volume.NewGeometry([3]int{6, 6, 2}, r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1}, nil)
	if err != nil {
		t.Fatal(err)
	}
	m := voxelize.NewMask(geom.Size())
	// A single row of voxels is collinear.
	for i := 1; i < 5; i++ {
		m.Set(volume.Index{i, 2, 1}, 1)
	}
	circles, err := FitSliceCircles(m, geom, matrix.DefaultTolerance)
	if err == nil {
		t.Fatal("Expected an error for a collinear slice")
	}
	if len(circles) != 0 {
		t.Errorf("Expected no circles, got %d", len(circles))
	}
}
