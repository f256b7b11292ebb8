package volume

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// NormalizedMaxNorm is the maximum vector norm after NormalizeByMaxNorm.
	NormalizedMaxNorm = 2.0

	// DefaultOutlierFraction is the default SuppressOutliers threshold,
	// relative to the maximum norm.
	DefaultOutlierFraction = 1.0 / 3.0
)

// MaxVectorNorm scans the primary field once and returns the largest
// Euclidean norm. A detached primary field is ErrFieldNotAttached.
func (g *Grid) MaxVectorNorm() (float64, error) {
	if g.primary == nil {
		return 0, fmt.Errorf("max vector norm: %s: %w", FieldPrimary, ErrFieldNotAttached)
	}
	return maxNorm(g.primary.field.Data), nil
}

func maxNorm(data []r3.Vec) float64 {
	var max float64
	for _, v := range data {
		if n := r3.Norm(v); n > max {
			max = n
		}
	}
	return max
}

// NormalizeByMaxNorm rescales every primary vector in place by 2/max so the
// largest norm becomes NormalizedMaxNorm. Directions are unchanged. An
// all-zero field is left untouched. It returns the maximum norm measured
// before rescaling.
func (g *Grid) NormalizeByMaxNorm() (float64, error) {
	max, err := g.MaxVectorNorm()
	if err != nil || max == 0 {
		return max, err
	}
	factor := NormalizedMaxNorm / max
	data := g.primary.field.Data
	for n, v := range data {
		data[n] = r3.Scale(factor, v)
	}
	return max, nil
}

// SuppressOutliers zeroes, in place, every primary vector whose norm is
// strictly greater than fraction times the maximum norm measured before the
// pass. It returns the number of vectors zeroed.
func (g *Grid) SuppressOutliers(fraction float64) (int, error) {
	max, err := g.MaxVectorNorm()
	if err != nil || max == 0 {
		return 0, err
	}
	threshold := max * fraction
	data := g.primary.field.Data
	zeroed := 0
	for n, v := range data {
		if r3.Norm(v) > threshold {
			data[n] = r3.Vec{}
			zeroed++
		}
	}
	return zeroed, nil
}
