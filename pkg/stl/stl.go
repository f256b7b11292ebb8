// Package stl reads and writes binary STL files and converts between STL
// triangle soups and indexed surfaces.
package stl

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gonum.org/v1/gonum/spatial/r3"

	"meshseg/pkg/mesh"
)

// ErrFormat is returned when a file is not a well-formed binary STL.
var ErrFormat = errors.New("stl: malformed file")

// Triangle represents a triangle in the STL file
type Triangle struct {
	Normal  [3]float32
	Vertex1 [3]float32
	Vertex2 [3]float32
	Vertex3 [3]float32
}

const (
	headerSize   = 80
	triangleSize = 50
)

func toF32(v r3.Vec) [3]float32 {
	return [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
}

func fromF32(v [3]float32) r3.Vec {
	return r3.Vec{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])}
}

// FromSurface flattens s into STL triangles with per-face normals. Triangles
// with bad indices are skipped.
func FromSurface(s *mesh.Surface) []Triangle {
	out := make([]Triangle, 0, len(s.Triangles))
	for _, tri := range s.Triangles {
		a, b, c, ok := s.Corners(tri)
		if !ok {
			continue
		}
		n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
		if norm := r3.Norm(n); norm > 0 {
			n = r3.Scale(1/norm, n)
		}
		out = append(out, Triangle{
			Normal:  toF32(n),
			Vertex1: toF32(a),
			Vertex2: toF32(b),
			Vertex3: toF32(c),
		})
	}
	return out
}

// ToSurface rebuilds an indexed surface from a triangle soup. Bit-identical
// corners are merged into one vertex, which closes surfaces written by
// FromSurface.
func ToSurface(triangles []Triangle) *mesh.Surface {
	s := &mesh.Surface{Triangles: make([]mesh.Triangle, len(triangles))}
	index := make(map[[3]float32]int)
	vertex := func(v [3]float32) int {
		if i, ok := index[v]; ok {
			return i
		}
		i := len(s.Vertices)
		index[v] = i
		s.Vertices = append(s.Vertices, mesh.Vertex{Position: fromF32(v)})
		return i
	}
	for t, tri := range triangles {
		s.Triangles[t] = mesh.Triangle{vertex(tri.Vertex1), vertex(tri.Vertex2), vertex(tri.Vertex3)}
	}
	s.ComputeNormals()
	return s
}

// Write encodes triangles as binary STL.
func Write(w io.Writer, triangles []Triangle) error {
	bw := bufio.NewWriter(w)
	header := make([]byte, headerSize)
	copy(header, "binary STL written by meshseg")
	if _, err := bw.Write(header); err != nil {
		return err
	}
	if uint64(len(triangles)) > math.MaxUint32 {
		return fmt.Errorf("%d triangles: %w", len(triangles), ErrFormat)
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(triangles))); err != nil {
		return err
	}
	for _, t := range triangles {
		if err := binary.Write(bw, binary.LittleEndian, t); err != nil {
			return err
		}
		// Attribute byte count
		if err := binary.Write(bw, binary.LittleEndian, uint16(0)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Read decodes a binary STL stream.
func Read(r io.Reader) ([]Triangle, error) {
	br := bufio.NewReader(r)
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(br, header); err != nil {
		return nil, fmt.Errorf("header: %v: %w", err, ErrFormat)
	}
	var count uint32
	if err := binary.Read(br, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("triangle count: %v: %w", err, ErrFormat)
	}

	var triangles []Triangle
	for i := uint32(0); i < count; i++ {
		var t Triangle
		if err := binary.Read(br, binary.LittleEndian, &t); err != nil {
			return nil, fmt.Errorf("triangle %d of %d: %v: %w", i, count, err, ErrFormat)
		}
		var attr uint16
		if err := binary.Read(br, binary.LittleEndian, &attr); err != nil {
			return nil, fmt.Errorf("triangle %d of %d: %v: %w", i, count, err, ErrFormat)
		}
		triangles = append(triangles, t)
	}
	return triangles, nil
}

// SaveToSTL saves triangles to a binary STL file
func SaveToSTL(filename string, triangles []Triangle) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create STL file: %v", err)
	}
	if err := Write(f, triangles); err != nil {
		f.Close()
		return fmt.Errorf("failed to write STL file: %w", err)
	}
	return f.Close()
}

// LoadSTL reads a binary STL file
func LoadSTL(filename string) ([]Triangle, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open STL file: %v", err)
	}
	defer f.Close()
	return Read(f)
}

// SaveSurface writes s to filename as binary STL.
func SaveSurface(filename string, s *mesh.Surface) error {
	return SaveToSTL(filename, FromSurface(s))
}

// LoadSurface reads a binary STL file into an indexed surface.
func LoadSurface(filename string) (*mesh.Surface, error) {
	triangles, err := LoadSTL(filename)
	if err != nil {
		return nil, err
	}
	return ToSurface(triangles), nil
}
