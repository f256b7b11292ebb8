package volume

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// FieldName identifies a field attached to a Grid.
type FieldName string

// Well-known fields. Any other name may be attached as well.
const (
	// FieldPrimary is the mandatory vector field, usually the image gradient.
	FieldPrimary FieldName = "primary"
	// FieldOriginal is the original, un-normalized intensity volume.
	FieldOriginal FieldName = "original"
	// FieldCroppedOriginal is the original intensity restricted to the
	// region of interest.
	FieldCroppedOriginal FieldName = "cropped-original"
	// FieldGradientMagnitude is the scalar gradient magnitude volume.
	FieldGradientMagnitude FieldName = "gradient-magnitude"
	// FieldLaplacian is the vector Laplacian volume.
	FieldLaplacian FieldName = "vector-laplacian"
)

// ScalarField is a dense scalar volume stored x-fastest:
// Data[i + nx*(j + ny*k)].
type ScalarField struct {
	Size [3]int
	Data []float64
}

// NewScalarField allocates a zero scalar field with the given extents.
func NewScalarField(size [3]int) *ScalarField {
	return &ScalarField{Size: size, Data: make([]float64, size[0]*size[1]*size[2])}
}

// ScalarFieldFrom wraps data without copying. len(data) must equal the
// voxel count of size.
func ScalarFieldFrom(size [3]int, data []float64) (*ScalarField, error) {
	if err := checkBuffer(size, len(data)); err != nil {
		return nil, err
	}
	return &ScalarField{Size: size, Data: data}, nil
}

// At returns the value at idx. idx must be in range.
func (f *ScalarField) At(idx Index) float64 { return f.Data[offset(f.Size, idx)] }

// Set assigns the value at idx. idx must be in range.
func (f *ScalarField) Set(idx Index, v float64) { f.Data[offset(f.Size, idx)] = v }

// Clone returns a deep copy of f.
func (f *ScalarField) Clone() *ScalarField {
	c := NewScalarField(f.Size)
	copy(c.Data, f.Data)
	return c
}

// VectorField is a dense 3-vector volume with the same layout as ScalarField.
type VectorField struct {
	Size [3]int
	Data []r3.Vec
}

// NewVectorField allocates a zero vector field with the given extents.
func NewVectorField(size [3]int) *VectorField {
	return &VectorField{Size: size, Data: make([]r3.Vec, size[0]*size[1]*size[2])}
}

// VectorFieldFrom wraps data without copying.
func VectorFieldFrom(size [3]int, data []r3.Vec) (*VectorField, error) {
	if err := checkBuffer(size, len(data)); err != nil {
		return nil, err
	}
	return &VectorField{Size: size, Data: data}, nil
}

// VectorFieldFromComponents builds a vector field from an interleaved
// x,y,z buffer of length 3·nx·ny·nz.
func VectorFieldFromComponents(size [3]int, xyz []float64) (*VectorField, error) {
	if len(xyz)%3 != 0 {
		return nil, fmt.Errorf("%d components is not a multiple of 3: %w", len(xyz), ErrFieldShape)
	}
	if err := checkBuffer(size, len(xyz)/3); err != nil {
		return nil, err
	}
	f := NewVectorField(size)
	for n := range f.Data {
		f.Data[n] = r3.Vec{X: xyz[3*n], Y: xyz[3*n+1], Z: xyz[3*n+2]}
	}
	return f, nil
}

// At returns the vector at idx. idx must be in range.
func (f *VectorField) At(idx Index) r3.Vec { return f.Data[offset(f.Size, idx)] }

// Set assigns the vector at idx. idx must be in range.
func (f *VectorField) Set(idx Index, v r3.Vec) { f.Data[offset(f.Size, idx)] = v }

// Clone returns a deep copy of f.
func (f *VectorField) Clone() *VectorField {
	c := NewVectorField(f.Size)
	copy(c.Data, f.Data)
	return c
}

func checkBuffer(size [3]int, n int) error {
	for axis, s := range size {
		if s <= 0 {
			return fmt.Errorf("extent %d along axis %d: %w", s, axis, ErrFieldShape)
		}
	}
	if want := size[0] * size[1] * size[2]; n != want {
		return fmt.Errorf("buffer holds %d samples, extents %v need %d: %w", n, size, want, ErrFieldShape)
	}
	return nil
}
