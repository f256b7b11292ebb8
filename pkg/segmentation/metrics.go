package segmentation

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"meshseg/pkg/volume"
	"meshseg/pkg/voxelize"
)

// Metrics compares a segmentation mask with a reference mask.
type Metrics struct {
	// Dice is 2|A∩B| / (|A|+|B|), 1 for two empty masks.
	Dice float64

	// Jaccard is |A∩B| / |A∪B|, 1 for two empty masks.
	Jaccard float64

	// VolumeRatio is |A| / |B|, 0 when the reference is empty.
	VolumeRatio float64

	// Correlation is the Pearson correlation of the two 0/1 volumes, 0 when
	// either is constant.
	Correlation float64
}

// Evaluate computes overlap metrics of mask against reference.
func Evaluate(mask, reference *voxelize.Mask) (Metrics, error) {
	if mask.Size != reference.Size || len(mask.Data) != len(reference.Data) {
		return Metrics{}, fmt.Errorf("evaluate: extents %v and %v: %w", mask.Size, reference.Size, volume.ErrFieldShape)
	}

	var a, b, both int
	x := make([]float64, len(mask.Data))
	y := make([]float64, len(reference.Data))
	for n := range mask.Data {
		in, ref := mask.Data[n] != 0, reference.Data[n] != 0
		if in {
			a++
			x[n] = 1
		}
		if ref {
			b++
			y[n] = 1
		}
		if in && ref {
			both++
		}
	}

	m := Metrics{Dice: 1, Jaccard: 1}
	if a+b > 0 {
		m.Dice = 2 * float64(both) / float64(a+b)
		m.Jaccard = float64(both) / float64(a+b-both)
	}
	if b > 0 {
		m.VolumeRatio = float64(a) / float64(b)
	}
	if a > 0 && a < len(x) && b > 0 && b < len(y) {
		m.Correlation = stat.Correlation(x, y, nil)
	}
	return m, nil
}
