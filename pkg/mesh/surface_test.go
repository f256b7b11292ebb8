package mesh

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

// unitCube returns the closed, outward-wound surface of [0,1]³.
func unitCube() *Surface {
	s := &Surface{}
	for i := 0; i < 8; i++ {
		p := r3.Vec{X: float64(i >> 2 & 1), Y: float64(i >> 1 & 1), Z: float64(i & 1)}
		s.Vertices = append(s.Vertices, Vertex{Position: p})
	}
	quads := [6][4]int{
		{0, 1, 3, 2}, {4, 6, 7, 5},
		{0, 4, 5, 1}, {2, 3, 7, 6},
		{0, 2, 6, 4}, {1, 5, 7, 3},
	}
	for _, q := range quads {
		s.Triangles = append(s.Triangles,
			Triangle{q[0], q[1], q[2]},
			Triangle{q[0], q[2], q[3]})
	}
	s.ComputeNormals()
	return s
}

func TestFromBuffers(t *testing.T) {
	positions := []float64{
		0, 0, 0,
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}
	indices := []int{0, 2, 1, 0, 1, 3, 0, 3, 2, 1, 2, 3}

	s, err := FromBuffers(positions, nil, indices)
	require.NoError(t, err)
	require.Len(t, s.Vertices, 4)
	require.Len(t, s.Triangles, 4)
	assert.Equal(t, Triangle{1, 2, 3}, s.Triangles[3])
	assert.InDelta(t, 1.0/6, s.SignedVolume(), 1e-15)
	assert.InDelta(t, 1.0, r3.Norm(s.Vertices[0].Normal), 1e-12)

	normals := make([]float64, len(positions))
	normals[2] = 1
	s, err = FromBuffers(positions, normals, indices)
	require.NoError(t, err)
	assert.Equal(t, r3.Vec{Z: 1}, s.Vertices[0].Normal)

	t.Run("Bad buffers", func(t *testing.T) {
		_, err := FromBuffers(positions[:4], nil, indices)
		require.ErrorIs(t, err, ErrBadBuffer)
		_, err = FromBuffers(positions, normals[:6], indices)
		require.ErrorIs(t, err, ErrBadBuffer)
		_, err = FromBuffers(positions, nil, indices[:5])
		require.ErrorIs(t, err, ErrBadBuffer)
	})

	t.Run("Index out of range", func(t *testing.T) {
		_, err := FromBuffers(positions, nil, []int{0, 1, 4})
		require.ErrorIs(t, err, ErrIndexOutOfRange)
		_, err = FromBuffers(positions, nil, []int{0, -1, 2})
		require.ErrorIs(t, err, ErrIndexOutOfRange)
	})
}

func TestCubeMeasures(t *testing.T) {
	s := unitCube()
	require.NoError(t, s.Validate())

	assert.InDelta(t, 6.0, s.Area(), 1e-12)
	assert.InDelta(t, 1.0, s.SignedVolume(), 1e-12)

	b := s.Bounds()
	assert.Equal(t, r3.Vec{}, b.Min)
	assert.Equal(t, r3.Vec{X: 1, Y: 1, Z: 1}, b.Max)

	// Corner normals point away from the centre along the diagonal.
	n := s.Vertices[7].Normal
	assert.InDelta(t, 1.0, r3.Norm(n), 1e-12)
	assert.Greater(t, r3.Dot(n, r3.Vec{X: 1, Y: 1, Z: 1}), 0.0)

	s.Flip()
	assert.InDelta(t, -1.0, s.SignedVolume(), 1e-12)
	assert.Less(t, r3.Dot(s.Vertices[7].Normal, r3.Vec{X: 1, Y: 1, Z: 1}), 0.0)
}

func TestTransform(t *testing.T) {
	s := unitCube()
	scaled := s.Transform(func(p r3.Vec) r3.Vec {
		return r3.Add(r3.Scale(2, p), r3.Vec{X: -1, Y: 5})
	})
	assert.InDelta(t, 8.0, scaled.SignedVolume(), 1e-12)
	assert.InDelta(t, 24.0, scaled.Area(), 1e-12)
	assert.Equal(t, r3.Vec{X: -1, Y: 5}, scaled.Bounds().Min)

	// The original is untouched.
	assert.InDelta(t, 1.0, s.SignedVolume(), 1e-12)

	mirrored := s.Transform(func(p r3.Vec) r3.Vec { return r3.Vec{X: -p.X, Y: p.Y, Z: p.Z} })
	assert.InDelta(t, -1.0, mirrored.SignedVolume(), 1e-12)
}

func TestMeasuresSkipBadTriangles(t *testing.T) {
	s := unitCube()
	s.Triangles = append(s.Triangles, Triangle{0, 1, 99})
	require.ErrorIs(t, s.Validate(), ErrIndexOutOfRange)
	assert.InDelta(t, 6.0, s.Area(), 1e-12)
	assert.InDelta(t, 1.0, s.SignedVolume(), 1e-12)
	assert.NotPanics(t, s.ComputeNormals)

	_, _, _, ok := s.Corners(Triangle{0, 1, 99})
	assert.False(t, ok)
}

func TestEmptySurface(t *testing.T) {
	var s Surface
	assert.NoError(t, s.Validate())
	assert.Equal(t, r3.Box{}, s.Bounds())
	assert.Zero(t, s.Area())
	assert.Zero(t, s.SignedVolume())

	l := NewLocator(&s)
	_, d, ok := l.Nearest(r3.Vec{})
	assert.False(t, ok)
	assert.True(t, math.IsInf(d, 1))
	assert.Nil(t, l.Within(r3.Vec{}, 10))
}
