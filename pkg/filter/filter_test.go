package filter

import (
	"math"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"meshseg/pkg/volume"
)

func ramp(size [3]int, fn func(i, j, k int) float64) *volume.ScalarField {
	f := volume.NewScalarField(size)
	for k := 0; k < size[2]; k++ {
		for j := 0; j < size[1]; j++ {
			for i := 0; i < size[0]; i++ {
				f.Set(volume.Index{i, j, k}, fn(i, j, k))
			}
		}
	}
	return f
}

func TestForEachSlabCoversRange(t *testing.T) {
	for _, workers := range []int{-1, 0, 1, 3, 7, 64} {
		var seen [13]int32
		forEachSlab(len(seen), workers, func(k0, k1 int) {
			for k := k0; k < k1; k++ {
				atomic.AddInt32(&seen[k], 1)
			}
		})
		for k, n := range seen {
			assert.Equal(t, int32(1), n, "workers %d slice %d", workers, k)
		}
	}
}

func TestGradientOfLinearRamp(t *testing.T) {
	size := [3]int{6, 5, 4}
	f := ramp(size, func(i, j, k int) float64 { return 2*float64(i) + 3*float64(j) - float64(k) })
	spacing := r3.Vec{X: 0.5, Y: 1, Z: 2}

	t.Run("Identity", func(t *testing.T) {
		geom, err := volume.NewGeometry(size, r3.Vec{}, spacing, nil)
		require.NoError(t, err)
		g, err := Gradient(f, geom, 3)
		require.NoError(t, err)
		for _, v := range g.Data {
			assert.InDelta(t, 4.0, v.X, 1e-12)
			assert.InDelta(t, 3.0, v.Y, 1e-12)
			assert.InDelta(t, -0.5, v.Z, 1e-12)
		}

		mag := GradientMagnitude(g, 2)
		for _, m := range mag.Data {
			assert.InDelta(t, math.Sqrt(16+9+0.25), m, 1e-12)
		}
	})

	t.Run("Rotated", func(t *testing.T) {
		// Grid x runs along world y, grid y along world -x.
		dir := r3.NewMat([]float64{
			0, -1, 0,
			1, 0, 0,
			0, 0, 1,
		})
		geom, err := volume.NewGeometry(size, r3.Vec{}, spacing, dir)
		require.NoError(t, err)
		g, err := Gradient(f, geom, 0)
		require.NoError(t, err)
		v := g.At(volume.Index{2, 2, 2})
		assert.InDelta(t, -3.0, v.X, 1e-12)
		assert.InDelta(t, 4.0, v.Y, 1e-12)
		assert.InDelta(t, -0.5, v.Z, 1e-12)
	})

	t.Run("Shape mismatch", func(t *testing.T) {
		geom, err := volume.NewGeometry([3]int{6, 5, 5}, r3.Vec{}, spacing, nil)
		require.NoError(t, err)
		_, err = Gradient(f, geom, 1)
		require.ErrorIs(t, err, ErrShape)
	})
}

func TestGradientSingleVoxelAxis(t *testing.T) {
	size := [3]int{4, 4, 1}
	f := ramp(size, func(i, j, k int) float64 { return float64(i) })
	geom, err := volume.NewGeometry(size, r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1}, nil)
	require.NoError(t, err)
	g, err := Gradient(f, geom, 1)
	require.NoError(t, err)
	assert.Equal(t, r3.Vec{X: 1}, g.At(volume.Index{0, 0, 0}))
	assert.Equal(t, r3.Vec{X: 1}, g.At(volume.Index{3, 3, 0}))
}

func TestMedianRemovesSpike(t *testing.T) {
	size := [3]int{7, 7, 7}
	f := ramp(size, func(i, j, k int) float64 { return 10 })
	f.Set(volume.Index{3, 3, 3}, 1e6)
	f.Set(volume.Index{0, 0, 0}, -1e6)

	out, err := Median(f, DefaultMedianRadius, 4)
	require.NoError(t, err)
	for _, v := range out.Data {
		assert.Equal(t, 10.0, v)
	}
	// The input is untouched.
	assert.Equal(t, 1e6, f.At(volume.Index{3, 3, 3}))

	_, err = Median(f, -1, 1)
	require.ErrorIs(t, err, ErrRadius)

	same, err := Median(f, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, f.Data, same.Data)
}

func TestMedianPreservesStep(t *testing.T) {
	size := [3]int{8, 3, 3}
	f := ramp(size, func(i, j, k int) float64 {
		if i < 4 {
			return 0
		}
		return 100
	})
	out, err := Median(f, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, f.Data, out.Data)
}

func TestIntensityWindow(t *testing.T) {
	f, err := volume.ScalarFieldFrom([3]int{5, 1, 1}, []float64{-5, 0, 5, 10, 20})
	require.NoError(t, err)

	w := MinMax(f)
	assert.Equal(t, Window{Min: -5, Max: 20}, w)

	out, err := RescaleIntensity(f, Window{Min: 0, Max: 10}, Window{Min: 0, Max: 1000}, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 500, 1000, 1000}, out.Data)

	_, err = RescaleIntensity(f, Window{Min: 3, Max: 3}, Window{Max: 1}, 1)
	require.ErrorIs(t, err, ErrWindow)
	_, err = RescaleIntensity(f, Window{Max: 1}, Window{Min: 1, Max: 0}, 1)
	require.ErrorIs(t, err, ErrWindow)
}

func TestCrop(t *testing.T) {
	size := [3]int{4, 4, 4}
	f := ramp(size, func(i, j, k int) float64 { return 1 })
	c := Crop(f, volume.Index{1, 1, 1}, volume.Index{3, 3, 3}, 0)
	sum := 0.0
	for _, v := range c.Data {
		sum += v
	}
	assert.Equal(t, 8.0, sum)
	assert.Equal(t, 1.0, c.At(volume.Index{2, 2, 2}))
	assert.Equal(t, 0.0, c.At(volume.Index{3, 2, 2}))
	assert.Equal(t, 1.0, f.At(volume.Index{3, 2, 2}))
}

func BenchmarkMedian(b *testing.B) {
	f := ramp([3]int{32, 32, 32}, func(i, j, k int) float64 { return float64((i * j * k) % 17) })
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Median(f, 2, 0); err != nil {
			b.Fatal(err)
		}
	}
}
