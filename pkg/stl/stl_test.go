package stl

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"meshseg/internal/models"
)

// TestSaveToSTL verifies that the STL file can be written
func TestSaveToSTL(t *testing.T) {
	// Create a simple triangle for testing
	triangles := []Triangle{
		{
			Normal:  [3]float32{0, 0, 1},
			Vertex1: [3]float32{0, 0, 0},
			Vertex2: [3]float32{1, 0, 0},
			Vertex3: [3]float32{0, 1, 0},
		},
	}

	path := filepath.Join(t.TempDir(), "test.stl")
	if err := SaveToSTL(path, triangles); err != nil {
		t.Fatalf("Failed to save STL: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Failed to stat output file: %v", err)
	}

	// STL header: 80 bytes
	// Number of triangles: 4 bytes
	// Triangle: 50 bytes (12 bytes per vertex, 12 bytes per normal, 2 bytes attribute)
	wantSize := int64(80 + 4 + 50)
	if info.Size() != wantSize {
		t.Errorf("STL file size: expected %d bytes, got %d", wantSize, info.Size())
	}

	loaded, err := LoadSTL(path)
	if err != nil {
		t.Fatalf("Failed to load STL: %v", err)
	}
	if len(loaded) != 1 || loaded[0] != triangles[0] {
		t.Errorf("Round trip mismatch: got %+v", loaded)
	}
}

// TestSurfaceRoundTrip writes a closed sphere and checks that reading it back
// merges the corners into the same closed surface
func TestSurfaceRoundTrip(t *testing.T) {
	sphere := models.UVSphere(r3.Vec{X: 1, Y: 2, Z: 3}, 4, 12, 24)

	var buf bytes.Buffer
	if err := Write(&buf, FromSurface(sphere)); err != nil {
		t.Fatalf("Failed to write STL: %v", err)
	}
	triangles, err := Read(&buf)
	if err != nil {
		t.Fatalf("Failed to read STL: %v", err)
	}
	if len(triangles) != len(sphere.Triangles) {
		t.Fatalf("Expected %d triangles, got %d", len(sphere.Triangles), len(triangles))
	}

	back := ToSurface(triangles)
	if len(back.Vertices) != len(sphere.Vertices) {
		t.Errorf("Expected %d merged vertices, got %d", len(sphere.Vertices), len(back.Vertices))
	}
	if err := back.Validate(); err != nil {
		t.Fatalf("Invalid surface: %v", err)
	}
	want, got := sphere.SignedVolume(), back.SignedVolume()
	if math.Abs(want-got) > 1e-4*want {
		t.Errorf("Volume changed: want %f, got %f", want, got)
	}
}

// TestFaceNormals checks that normals written for a box point outward
func TestFaceNormals(t *testing.T) {
	box := models.Box(r3.Vec{}, r3.Vec{X: 2, Y: 2, Z: 2})
	centre := r3.Vec{X: 1, Y: 1, Z: 1}
	for i, tri := range FromSurface(box) {
		c := r3.Scale(1.0/3, r3.Add(fromF32(tri.Vertex1), r3.Add(fromF32(tri.Vertex2), fromF32(tri.Vertex3))))
		if r3.Dot(fromF32(tri.Normal), r3.Sub(c, centre)) <= 0 {
			t.Errorf("Triangle %d normal %v points inward", i, tri.Normal)
		}
	}
}

// TestReadTruncated verifies malformed input is reported
func TestReadTruncated(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FromSurface(models.Box(r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1}))); err != nil {
		t.Fatalf("Failed to write STL: %v", err)
	}
	data := buf.Bytes()

	for _, n := range []int{10, 82, len(data) - 1} {
		_, err := Read(bytes.NewReader(data[:n]))
		if !errors.Is(err, ErrFormat) {
			t.Errorf("Truncated at %d: expected ErrFormat, got %v", n, err)
		}
	}
}

// BenchmarkWrite benchmarks STL encoding of a dense sphere
func BenchmarkWrite(b *testing.B) {
	triangles := FromSurface(models.UVSphere(r3.Vec{}, 10, 64, 128))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var buf bytes.Buffer
		if err := Write(&buf, triangles); err != nil {
			b.Fatal(err)
		}
	}
}
