package filter

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"meshseg/pkg/volume"
)

// Window is the [Min, Max] intensity range mapped onto the output range by
// RescaleIntensity.
type Window struct {
	Min, Max float64
}

// MinMax returns the smallest and largest sample of f.
func MinMax(f *volume.ScalarField) Window {
	if len(f.Data) == 0 {
		return Window{}
	}
	return Window{Min: floats.Min(f.Data), Max: floats.Max(f.Data)}
}

// RescaleIntensity maps in linearly onto out. Samples below in.Min map to
// out.Min and samples above in.Max map to out.Max.
func RescaleIntensity(f *volume.ScalarField, in, out Window, workers int) (*volume.ScalarField, error) {
	if !(in.Max > in.Min) {
		return nil, fmt.Errorf("input window [%g, %g]: %w", in.Min, in.Max, ErrWindow)
	}
	if !(out.Max >= out.Min) {
		return nil, fmt.Errorf("output window [%g, %g]: %w", out.Min, out.Max, ErrWindow)
	}
	scale := (out.Max - out.Min) / (in.Max - in.Min)
	res := volume.NewScalarField(f.Size)
	plane := f.Size[0] * f.Size[1]

	forEachSlab(f.Size[2], workers, func(k0, k1 int) {
		for n := k0 * plane; n < k1*plane; n++ {
			v := f.Data[n]
			switch {
			case v <= in.Min:
				res.Data[n] = out.Min
			case v >= in.Max:
				res.Data[n] = out.Max
			default:
				res.Data[n] = out.Min + (v-in.Min)*scale
			}
		}
	})
	return res, nil
}

// Crop returns a copy of f where every voxel outside the box [lo, hi) is set
// to fill. The extents are unchanged so the result can share f's grid.
func Crop(f *volume.ScalarField, lo, hi volume.Index, fill float64) *volume.ScalarField {
	res := f.Clone()
	for k := 0; k < f.Size[2]; k++ {
		for j := 0; j < f.Size[1]; j++ {
			for i := 0; i < f.Size[0]; i++ {
				if i >= lo[0] && i < hi[0] && j >= lo[1] && j < hi[1] && k >= lo[2] && k < hi[2] {
					continue
				}
				res.Set(volume.Index{i, j, k}, fill)
			}
		}
	}
	return res
}
