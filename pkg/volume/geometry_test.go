package volume

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

// rotationZ returns the direction cosines of a grid rotated by theta about
// the world z axis.
func rotationZ(theta float64) *r3.Mat {
	c, s := math.Cos(theta), math.Sin(theta)
	return r3.NewMat([]float64{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	})
}

func vecInDelta(t *testing.T, want, got r3.Vec, delta float64) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, delta, "x: want %v got %v", want, got)
	assert.InDelta(t, want.Y, got.Y, delta, "y: want %v got %v", want, got)
	assert.InDelta(t, want.Z, got.Z, delta, "z: want %v got %v", want, got)
}

func TestNewGeometryRejectsBadInput(t *testing.T) {
	unit := r3.Vec{X: 1, Y: 1, Z: 1}
	singular := r3.NewMat([]float64{
		1, 2, 0,
		2, 4, 0,
		0, 0, 1,
	})
	cases := []struct {
		name    string
		size    [3]int
		origin  r3.Vec
		spacing r3.Vec
		dir     *r3.Mat
	}{
		{"Zero extent", [3]int{4, 0, 4}, r3.Vec{}, unit, nil},
		{"Negative extent", [3]int{-1, 4, 4}, r3.Vec{}, unit, nil},
		{"Zero spacing", [3]int{4, 4, 4}, r3.Vec{}, r3.Vec{X: 1, Y: 0, Z: 1}, nil},
		{"Negative spacing", [3]int{4, 4, 4}, r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: -2}, nil},
		{"NaN spacing", [3]int{4, 4, 4}, r3.Vec{}, r3.Vec{X: math.NaN(), Y: 1, Z: 1}, nil},
		{"Infinite origin", [3]int{4, 4, 4}, r3.Vec{X: math.Inf(1)}, unit, nil},
		{"Singular direction", [3]int{4, 4, 4}, r3.Vec{}, unit, singular},
		{"Zero direction", [3]int{4, 4, 4}, r3.Vec{}, unit, r3.NewMat(nil)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g, err := NewGeometry(tc.size, tc.origin, tc.spacing, tc.dir)
			require.ErrorIs(t, err, ErrGeometry)
			assert.False(t, g.Valid())
		})
	}
}

func TestGeometryRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	permuted := r3.NewMat([]float64{
		0, 0, 1,
		1, 0, 0,
		0, 1, 0,
	})
	cases := []struct {
		name string
		dir  *r3.Mat
	}{
		{"Identity", nil},
		{"Rotated", rotationZ(math.Pi / 6)},
		{"Permuted", permuted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g, err := NewGeometry([3]int{20, 30, 12},
				r3.Vec{X: -12.5, Y: 40, Z: 3},
				r3.Vec{X: 0.7, Y: 1.3, Z: 2.5}, tc.dir)
			require.NoError(t, err)

			for n := 0; n < 200; n++ {
				ci := r3.Vec{
					X: rng.Float64() * 19,
					Y: rng.Float64() * 29,
					Z: rng.Float64() * 11,
				}
				p := g.ContinuousIndexToWorld(ci)
				back, ok := g.WorldToContinuousIndex(p)
				require.True(t, ok)
				vecInDelta(t, ci, back, 1e-9)
				vecInDelta(t, p, g.ContinuousIndexToWorld(back), 1e-9)
			}
		})
	}
}

func TestWorldToIndexRoundsHalfUp(t *testing.T) {
	g, err := NewGeometry([3]int{10, 10, 10}, r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1}, nil)
	require.NoError(t, err)

	idx, ok := g.WorldToIndex(r3.Vec{X: 2.5, Y: 2.49, Z: -0.5})
	require.True(t, ok)
	assert.Equal(t, Index{3, 2, 0}, idx)

	// Outside the extent is still a successful transform.
	idx, ok = g.WorldToIndex(r3.Vec{X: 100, Y: -7.2, Z: 0})
	require.True(t, ok)
	assert.Equal(t, Index{100, -7, 0}, idx)
	assert.False(t, g.Contains(idx))
}

func TestWorldToIndexFailure(t *testing.T) {
	var zero Geometry
	_, ok := zero.WorldToContinuousIndex(r3.Vec{X: 1})
	assert.False(t, ok)

	g, err := NewGeometry([3]int{2, 2, 2}, r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1}, nil)
	require.NoError(t, err)
	_, ok = g.WorldToIndex(r3.Vec{X: math.NaN()})
	assert.False(t, ok)
	_, ok = g.WorldToIndex(r3.Vec{X: 1e300})
	assert.False(t, ok)
}

func TestGeometryAccessors(t *testing.T) {
	g, err := NewGeometry([3]int{4, 5, 6}, r3.Vec{X: 1, Y: 2, Z: 3}, r3.Vec{X: 2, Y: 1, Z: 0.5}, rotationZ(math.Pi/2))
	require.NoError(t, err)

	assert.Equal(t, 120, g.Len())
	assert.Equal(t, 1+4*(2+5*3), g.Offset(Index{1, 2, 3}))
	assert.Equal(t, r3.Vec{X: 8, Y: 5, Z: 3}, g.PhysicalExtent())
	assert.True(t, g.ContainsContinuous(r3.Vec{X: -0.5, Y: 4.49, Z: 0}))
	assert.False(t, g.ContainsContinuous(r3.Vec{X: 3.5, Y: 0, Z: 0}))

	// Grid x runs along world y after a quarter turn.
	vecInDelta(t, r3.Vec{X: 1, Y: 4, Z: 3}, g.IndexToWorld(Index{1, 0, 0}), 1e-12)

	b := g.Bounds()
	vecInDelta(t, r3.Vec{X: -3, Y: 2, Z: 3}, b.Min, 1e-12)
	vecInDelta(t, r3.Vec{X: 1, Y: 8, Z: 5.5}, b.Max, 1e-12)

	// Direction returns a copy.
	d := g.Direction()
	d.Set(0, 0, 42)
	assert.NotEqual(t, 42.0, g.Direction().At(0, 0))

	same, err := NewGeometry([3]int{4, 5, 6}, r3.Vec{X: 1, Y: 2, Z: 3}, r3.Vec{X: 2, Y: 1, Z: 0.5}, rotationZ(math.Pi/2))
	require.NoError(t, err)
	assert.True(t, g.SameShape(same))
	other, err := NewGeometry([3]int{4, 5, 6}, r3.Vec{X: 1, Y: 2, Z: 3}, r3.Vec{X: 2, Y: 1, Z: 0.5}, nil)
	require.NoError(t, err)
	assert.False(t, g.SameShape(other))
}
