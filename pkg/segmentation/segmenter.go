// Package segmentation ties the volume, filter, voxelize and stl packages
// into the two ends of a surface-based segmentation run: building the
// sampling grid a deformable surface is fitted against, and turning the
// fitted surface into a binary mask with per-slice measurements.
//
// The surface fitting itself happens between those two calls and is owned
// by the caller.
package segmentation

import (
	"errors"
	"fmt"
	"log"
	"time"

	"meshseg/pkg/filter"
	"meshseg/pkg/mesh"
	"meshseg/pkg/stl"
	"meshseg/pkg/volume"
	"meshseg/pkg/voxelize"
)

// ErrNotPrepared is returned by Rasterize when Prepare has not run.
var ErrNotPrepared = errors.New("segmentation: grid not prepared")

// Prepared is the output of Prepare.
type Prepared struct {
	// Grid has the world-frame gradient as primary field and the original,
	// cropped original and gradient magnitude volumes attached.
	Grid *volume.Grid

	// Rescaled is the intensity-windowed image used to initialise the
	// surface.
	Rescaled *volume.ScalarField

	// Window is the median-filtered intensity range used for rescaling.
	Window filter.Window

	// MaxNorm is the largest gradient norm before normalization.
	MaxNorm float64

	// Suppressed counts the gradients zeroed as outliers.
	Suppressed int
}

// Result is the output of Rasterize.
type Result struct {
	Mask   *voxelize.Mask
	Report voxelize.Report

	// Volume is the physical volume of the mask.
	Volume float64

	// CrossSectionalAreas holds the physical mask area of every slice k.
	CrossSectionalAreas []float64

	// Centerline holds the circle fitted to each non-degenerate slice
	// contour, ordered by slice.
	Centerline []SliceCircle
}

// Segmenter runs the grid preparation and rasterization steps.
type Segmenter struct {
	params   *Params
	logger   *log.Logger
	prepared *Prepared
}

// NewSegmenter creates a segmenter. Nil params means DefaultParams.
func NewSegmenter(params *Params) *Segmenter {
	if params == nil {
		params = DefaultParams()
	}
	logger := params.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Segmenter{params: params, logger: logger}
}

func (s *Segmenter) progress(format string, args ...interface{}) {
	if s.params.Verbose {
		fmt.Printf(format+"\n", args...)
	}
}

// Prepare builds the sampling grid for image. The rescale window is measured
// on the median-filtered image and applied to the unfiltered one; the
// gradient is taken on the unfiltered image too.
func (s *Segmenter) Prepare(image *volume.ScalarField, geom volume.Geometry) (*Prepared, error) {
	start := time.Now()
	if image == nil || image.Size != geom.Size() || len(image.Data) != geom.Len() {
		return nil, fmt.Errorf("prepare: image does not match geometry: %w", volume.ErrFieldShape)
	}

	s.progress("Step 1: Median filtering (radius %d)...", s.params.MedianRadius)
	denoised, err := filter.Median(image, s.params.MedianRadius, s.params.NumCores)
	if err != nil {
		return nil, fmt.Errorf("prepare: %w", err)
	}

	s.progress("Step 2: Rescaling intensities...")
	window := filter.MinMax(denoised)
	rescaled, err := filter.RescaleIntensity(image, window, s.params.OutputWindow, s.params.NumCores)
	if err != nil {
		return nil, fmt.Errorf("prepare: %w", err)
	}

	s.progress("Step 3: Computing gradient field...")
	gradient, err := filter.Gradient(image, geom, s.params.NumCores)
	if err != nil {
		return nil, fmt.Errorf("prepare: %w", err)
	}
	magnitude := filter.GradientMagnitude(gradient, s.params.NumCores)

	grid, err := volume.NewGrid(gradient, geom)
	if err != nil {
		return nil, fmt.Errorf("prepare: %w", err)
	}
	grid.SetContrastFactor(s.params.ContrastFactor)

	cropped := image
	if s.params.CropMax != (volume.Index{}) {
		cropped = filter.Crop(image, s.params.CropMin, s.params.CropMax, 0)
	}
	for _, f := range []struct {
		name  volume.FieldName
		field *volume.ScalarField
	}{
		{volume.FieldOriginal, image},
		{volume.FieldCroppedOriginal, cropped},
		{volume.FieldGradientMagnitude, magnitude},
	} {
		if err := grid.AttachScalar(f.name, f.field); err != nil {
			return nil, fmt.Errorf("prepare: %w", err)
		}
	}

	p := &Prepared{Grid: grid, Rescaled: rescaled, Window: window}
	if p.MaxNorm, err = grid.MaxVectorNorm(); err != nil {
		return nil, fmt.Errorf("prepare: %w", err)
	}
	if s.params.Normalize {
		s.progress("Step 4: Normalizing gradient field (max norm %.4g)...", p.MaxNorm)
		if _, err := grid.NormalizeByMaxNorm(); err != nil {
			return nil, fmt.Errorf("prepare: %w", err)
		}
	}
	if s.params.SuppressOutliers {
		if p.Suppressed, err = grid.SuppressOutliers(s.params.OutlierFraction); err != nil {
			return nil, fmt.Errorf("prepare: %w", err)
		}
		s.progress("Step 5: Suppressed %d outlier gradients", p.Suppressed)
	}
	s.progress("Grid prepared in %.2f seconds", time.Since(start).Seconds())

	s.prepared = p
	return p, nil
}

// Rasterize voxelizes the fitted surface against the prepared grid geometry,
// measures it and, when OutputFile is set, saves the surface as STL.
// Degenerate surfaces are logged and still produce a mask.
func (s *Segmenter) Rasterize(surface *mesh.Surface) (*Result, error) {
	if s.prepared == nil {
		return nil, ErrNotPrepared
	}
	return s.RasterizeOn(s.prepared.Grid.Geometry(), surface)
}

// RasterizeOn is Rasterize against an explicit reference geometry. A nil
// surface is rasterized as an empty one.
func (s *Segmenter) RasterizeOn(geom volume.Geometry, surface *mesh.Surface) (*Result, error) {
	if surface == nil {
		surface = &mesh.Surface{}
	}
	v, err := voxelize.NewVoxelizer(geom, voxelize.WithLogger(s.logger))
	if err != nil {
		return nil, fmt.Errorf("rasterize: %w", err)
	}

	s.progress("Voxelizing surface (%d vertices, %d triangles)...", len(surface.Vertices), len(surface.Triangles))
	mask, rep := v.Voxelize(surface)
	res := &Result{
		Mask:                mask,
		Report:              rep,
		Volume:              mask.Volume(geom),
		CrossSectionalAreas: mask.CrossSectionalAreas(geom),
	}
	s.progress("Mask volume: %.3f (%d voxels)", res.Volume, mask.Count())

	res.Centerline, err = FitSliceCircles(mask, geom, s.params.PinvTolerance)
	if err != nil {
		s.progress("Centerline: %v", err)
	}

	if s.params.OutputFile != "" {
		if err := stl.SaveSurface(s.params.OutputFile, surface); err != nil {
			s.logger.Printf("Warning: failed to save surface: %v", err)
		}
	}
	return res, nil
}

// Release drops every field of the prepared grid.
func (s *Segmenter) Release() {
	if s.prepared != nil {
		s.prepared.Grid.Release()
		s.prepared = nil
	}
}
