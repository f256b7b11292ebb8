// Package visualization exports orthogonal slices of scalar volumes and
// masks as grayscale images for visual inspection of a segmentation run.
package visualization

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"os"
	"path/filepath"

	"meshseg/pkg/filter"
	"meshseg/pkg/volume"
	"meshseg/pkg/voxelize"
)

// ErrAxis is returned for an axis other than x, y or z.
var ErrAxis = errors.New("visualization: invalid axis")

// Viewer extracts slices from a scalar volume. Intensities are mapped
// linearly from the window onto the full 16-bit gray range.
type Viewer struct {
	field  *volume.ScalarField
	window filter.Window
}

// NewViewer creates a viewer for f using its full intensity range.
func NewViewer(f *volume.ScalarField) *Viewer {
	return &Viewer{field: f, window: filter.MinMax(f)}
}

// NewMaskViewer shows mask voxels white on black.
func NewMaskViewer(m *voxelize.Mask) *Viewer {
	return &Viewer{field: m.ToScalarField(), window: filter.Window{Min: 0, Max: 1}}
}

// SetWindow changes the displayed intensity range.
func (v *Viewer) SetWindow(w filter.Window) { v.window = w }

// axisIndex maps "x", "y", "z" (either case) to 0, 1, 2.
func axisIndex(axis string) (int, error) {
	switch axis {
	case "x", "X":
		return 0, nil
	case "y", "Y":
		return 1, nil
	case "z", "Z":
		return 2, nil
	}
	return 0, fmt.Errorf("%q (must be x, y, or z): %w", axis, ErrAxis)
}

func (v *Viewer) gray(val float64) color.Gray16 {
	span := v.window.Max - v.window.Min
	if span <= 0 {
		if val > v.window.Min {
			return color.Gray16{Y: math.MaxUint16}
		}
		return color.Gray16{}
	}
	t := (val - v.window.Min) / span
	return color.Gray16{Y: uint16(math.Round(math.Max(0, math.Min(1, t)) * math.MaxUint16))}
}

// ExtractSlice returns the slice at position along axis. Slices normal to x
// are laid out (z, y), normal to y (x, z) and normal to z (x, y).
func (v *Viewer) ExtractSlice(axis string, position int) (*image.Gray16, error) {
	a, err := axisIndex(axis)
	if err != nil {
		return nil, err
	}
	size := v.field.Size
	if position < 0 || position >= size[a] {
		return nil, fmt.Errorf("position %d outside [0, %d) along %s: %w", position, size[a], axis, volume.ErrOutOfBounds)
	}

	// u and w are the image columns and rows.
	u, w := [3]int{2, 0, 0}[a], [3]int{1, 2, 1}[a]
	img := image.NewGray16(image.Rect(0, 0, size[u], size[w]))
	var idx volume.Index
	idx[a] = position
	for y := 0; y < size[w]; y++ {
		for x := 0; x < size[u]; x++ {
			idx[u], idx[w] = x, y
			img.SetGray16(x, y, v.gray(v.field.At(idx)))
		}
	}
	return img, nil
}

// ExtractRegion copies the box starting at start with the given extents.
func (v *Viewer) ExtractRegion(start volume.Index, size [3]int) (*volume.ScalarField, error) {
	for a := 0; a < 3; a++ {
		if start[a] < 0 || size[a] <= 0 || start[a]+size[a] > v.field.Size[a] {
			return nil, fmt.Errorf("region %v+%v: %w", start, size, volume.ErrOutOfBounds)
		}
	}
	region := volume.NewScalarField(size)
	for k := 0; k < size[2]; k++ {
		for j := 0; j < size[1]; j++ {
			for i := 0; i < size[0]; i++ {
				src := volume.Index{start[0] + i, start[1] + j, start[2] + k}
				region.Set(volume.Index{i, j, k}, v.field.At(src))
			}
		}
	}
	return region, nil
}

// SaveSlice saves an extracted slice as a JPEG image
func SaveSlice(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
}

// SaveSliceSequence extracts and saves every slice along axis into
// outputDir as slice_<axis>_<nnn>.jpg.
func (v *Viewer) SaveSliceSequence(axis string, outputDir string) error {
	a, err := axisIndex(axis)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	for pos := 0; pos < v.field.Size[a]; pos++ {
		img, err := v.ExtractSlice(axis, pos)
		if err != nil {
			return err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.jpg", axis, pos))
		if err := SaveSlice(img, filename); err != nil {
			return err
		}
	}

	return nil
}
