package filter

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"meshseg/pkg/volume"
)

// DefaultMedianRadius is the neighbourhood radius used for denoising before
// the intensity window is measured.
const DefaultMedianRadius = 2

// Median replaces every voxel by the median of the (2r+1)³ box around it.
// Neighbours past the border replicate the edge voxel, so every window has
// the same size.
func Median(f *volume.ScalarField, radius, workers int) (*volume.ScalarField, error) {
	if radius < 0 {
		return nil, fmt.Errorf("median radius %d: %w", radius, ErrRadius)
	}
	if radius == 0 {
		return f.Clone(), nil
	}
	out := volume.NewScalarField(f.Size)
	size := f.Size
	width := 2*radius + 1

	forEachSlab(size[2], workers, func(k0, k1 int) {
		window := make([]float64, 0, width*width*width)
		for k := k0; k < k1; k++ {
			for j := 0; j < size[1]; j++ {
				for i := 0; i < size[0]; i++ {
					window = window[:0]
					for dz := -radius; dz <= radius; dz++ {
						z := clampIndex(k+dz, size[2])
						for dy := -radius; dy <= radius; dy++ {
							y := clampIndex(j+dy, size[1])
							for dx := -radius; dx <= radius; dx++ {
								x := clampIndex(i+dx, size[0])
								window = append(window, f.Data[x+size[0]*(y+size[1]*z)])
							}
						}
					}
					sort.Float64s(window)
					out.Set(volume.Index{i, j, k}, stat.Quantile(0.5, stat.Empirical, window, nil))
				}
			}
		}
	})
	return out, nil
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
