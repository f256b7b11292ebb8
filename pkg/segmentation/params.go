package segmentation

import (
	"log"
	"runtime"

	"meshseg/pkg/filter"
	"meshseg/pkg/matrix"
	"meshseg/pkg/volume"
)

// Params holds the segmentation parameters.
type Params struct {
	// NumCores specifies how many goroutines the preprocessing filters use.
	NumCores int

	// MedianRadius is the radius of the median filter applied before the
	// intensity window is measured.
	MedianRadius int

	// OutputWindow is the intensity range the rescaled image is mapped onto.
	OutputWindow filter.Window

	// ContrastFactor is +1 when the structure is darker than its
	// surroundings and -1 when it is brighter.
	ContrastFactor float64

	// Normalize rescales the gradient field so its largest norm is 2.
	Normalize bool

	// SuppressOutliers zeroes gradients stronger than OutlierFraction of
	// the maximum norm.
	SuppressOutliers bool

	// OutlierFraction is the SuppressOutliers threshold.
	OutlierFraction float64

	// CropMin and CropMax bound the region kept in the cropped original
	// field. A zero CropMax keeps the whole image.
	CropMin, CropMax volume.Index

	// PinvTolerance is the rank truncation threshold for local fits.
	PinvTolerance float64

	// OutputFile, when set, receives the final surface as binary STL.
	OutputFile string

	// Verbose prints progress for each step.
	Verbose bool

	// Logger receives warnings. Nil means log.Default().
	Logger *log.Logger
}

// DefaultParams returns the parameters used by the reference pipeline.
func DefaultParams() *Params {
	return &Params{
		NumCores:         runtime.NumCPU(),
		MedianRadius:     filter.DefaultMedianRadius,
		OutputWindow:     filter.Window{Min: 0, Max: 1000},
		ContrastFactor:   1,
		Normalize:        true,
		SuppressOutliers: true,
		OutlierFraction:  volume.DefaultOutlierFraction,
		PinvTolerance:    matrix.DefaultTolerance,
	}
}
