// Package volume holds co-registered 3-D fields together with the affine
// geometry that maps grid indices to physical coordinates.
//
// A Grid owns one mandatory vector field (typically the image gradient) and
// any number of named auxiliary scalar or vector fields. Fields are attached
// and detached by the orchestrator; sampling a missing field fails with
// ErrFieldNotAttached instead of fabricating data.
//
// A Grid is driven by a single writer. Sampling calls may interleave freely as
// long as no attach, detach, normalization or outlier pass runs concurrently.
package volume

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

type scalarEntry struct {
	field  *ScalarField
	interp *ScalarInterpolator
}

type vectorEntry struct {
	field  *VectorField
	interp *VectorInterpolator
}

// Grid is the volume sampling layer used by the surface fitting loop.
type Grid struct {
	geom     Geometry
	contrast float64

	primary *vectorEntry
	scalars map[FieldName]*scalarEntry
	vectors map[FieldName]*vectorEntry
}

// NewGrid builds a grid around its primary vector field. The field extents
// must match geom, which must come from NewGeometry.
func NewGrid(primary *VectorField, geom Geometry) (*Grid, error) {
	if !geom.Valid() {
		return nil, fmt.Errorf("new grid: %w", ErrGeometry)
	}
	if primary == nil {
		return nil, fmt.Errorf("new grid: nil primary field: %w", ErrFieldShape)
	}
	if err := checkAttach(geom, primary.Size, len(primary.Data)); err != nil {
		return nil, fmt.Errorf("new grid: %w", err)
	}
	return &Grid{
		geom:     geom,
		contrast: 1,
		primary:  &vectorEntry{field: primary, interp: NewVectorInterpolator(primary)},
		scalars:  make(map[FieldName]*scalarEntry),
		vectors:  make(map[FieldName]*vectorEntry),
	}, nil
}

func checkAttach(geom Geometry, size [3]int, n int) error {
	if size != geom.Size() {
		return fmt.Errorf("field extents %v, grid extents %v: %w", size, geom.Size(), ErrFieldShape)
	}
	return checkBuffer(size, n)
}

// Geometry returns the grid geometry shared by every attached field.
func (g *Grid) Geometry() Geometry { return g.geom }

// ContrastFactor returns the image-type factor (+1 when the structure is
// darker than its surroundings, -1 when brighter).
func (g *Grid) ContrastFactor() float64 { return g.contrast }

// SetContrastFactor records the image-type factor used by gradient-driven
// fitting to orient the search.
func (g *Grid) SetContrastFactor(f float64) { g.contrast = f }

// AttachScalar attaches (or replaces) a named scalar field and binds a
// trilinear interpolator to it.
func (g *Grid) AttachScalar(name FieldName, f *ScalarField) error {
	if name == FieldPrimary {
		return fmt.Errorf("attach %q: primary field is a vector field: %w", name, ErrFieldShape)
	}
	if f == nil {
		return fmt.Errorf("attach %q: nil field: %w", name, ErrFieldShape)
	}
	if err := checkAttach(g.geom, f.Size, len(f.Data)); err != nil {
		return fmt.Errorf("attach %q: %w", name, err)
	}
	delete(g.vectors, name)
	g.scalars[name] = &scalarEntry{field: f, interp: NewScalarInterpolator(f)}
	return nil
}

// AttachVector attaches (or replaces) a named vector field. Attaching under
// FieldPrimary replaces the primary field.
func (g *Grid) AttachVector(name FieldName, f *VectorField) error {
	if f == nil {
		return fmt.Errorf("attach %q: nil field: %w", name, ErrFieldShape)
	}
	if err := checkAttach(g.geom, f.Size, len(f.Data)); err != nil {
		return fmt.Errorf("attach %q: %w", name, err)
	}
	e := &vectorEntry{field: f, interp: NewVectorInterpolator(f)}
	if name == FieldPrimary {
		g.primary = e
		return nil
	}
	delete(g.scalars, name)
	g.vectors[name] = e
	return nil
}

// Detach drops a field so its memory can be reclaimed. Detaching a missing
// field is a no-op.
func (g *Grid) Detach(name FieldName) {
	if name == FieldPrimary {
		g.primary = nil
		return
	}
	delete(g.scalars, name)
	delete(g.vectors, name)
}

// Has reports whether a field is attached under name.
func (g *Grid) Has(name FieldName) bool {
	if name == FieldPrimary {
		return g.primary != nil
	}
	_, s := g.scalars[name]
	_, v := g.vectors[name]
	return s || v
}

// Names lists the attached fields in sorted order.
func (g *Grid) Names() []FieldName {
	var names []FieldName
	if g.primary != nil {
		names = append(names, FieldPrimary)
	}
	for n := range g.scalars {
		names = append(names, n)
	}
	for n := range g.vectors {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Release detaches every field, including the primary one. The geometry
// stays usable for coordinate transforms.
func (g *Grid) Release() {
	g.primary = nil
	g.scalars = make(map[FieldName]*scalarEntry)
	g.vectors = make(map[FieldName]*vectorEntry)
}

// ScalarField returns the attached scalar field, for whole-volume consumers.
func (g *Grid) ScalarField(name FieldName) (*ScalarField, error) {
	e, ok := g.scalars[name]
	if !ok {
		return nil, fmt.Errorf("scalar field %q: %w", name, ErrFieldNotAttached)
	}
	return e.field, nil
}

// VectorField returns the attached vector field (FieldPrimary included).
func (g *Grid) VectorField(name FieldName) (*VectorField, error) {
	e, err := g.vectorEntry(name)
	if err != nil {
		return nil, err
	}
	return e.field, nil
}

func (g *Grid) vectorEntry(name FieldName) (*vectorEntry, error) {
	if name == FieldPrimary {
		if g.primary == nil {
			return nil, fmt.Errorf("vector field %q: %w", name, ErrFieldNotAttached)
		}
		return g.primary, nil
	}
	e, ok := g.vectors[name]
	if !ok {
		return nil, fmt.Errorf("vector field %q: %w", name, ErrFieldNotAttached)
	}
	return e, nil
}

// truncate converts a continuous index to a voxel index by truncating each
// component toward zero, then checks it against the extents.
func truncate(size [3]int, ci r3.Vec) (Index, error) {
	var idx Index
	for axis, c := range [3]float64{ci.X, ci.Y, ci.Z} {
		if math.IsNaN(c) || math.Abs(c) > maxIndex {
			return Index{}, fmt.Errorf("continuous index %v: %w", ci, ErrOutOfBounds)
		}
		idx[axis] = int(c)
	}
	if !contains(size, idx) {
		return Index{}, fmt.Errorf("index %v outside %v: %w", idx, size, ErrOutOfBounds)
	}
	return idx, nil
}

// Vector returns the primary field at the voxel addressed by truncating ci
// toward zero.
func (g *Grid) Vector(ci r3.Vec) (r3.Vec, error) {
	return g.AuxVector(FieldPrimary, ci)
}

// VectorLinear returns the trilinearly interpolated primary field at ci.
func (g *Grid) VectorLinear(ci r3.Vec) (r3.Vec, error) {
	return g.AuxVectorLinear(FieldPrimary, ci)
}

// AuxVector returns a named vector field at the voxel addressed by truncating
// ci toward zero.
func (g *Grid) AuxVector(name FieldName, ci r3.Vec) (r3.Vec, error) {
	e, err := g.vectorEntry(name)
	if err != nil {
		return r3.Vec{}, err
	}
	idx, err := truncate(e.field.Size, ci)
	if err != nil {
		return r3.Vec{}, fmt.Errorf("sample %q: %w", name, err)
	}
	return e.field.At(idx), nil
}

// AuxVectorLinear interpolates a named vector field at ci.
func (g *Grid) AuxVectorLinear(name FieldName, ci r3.Vec) (r3.Vec, error) {
	e, err := g.vectorEntry(name)
	if err != nil {
		return r3.Vec{}, err
	}
	v, err := e.interp.Evaluate(ci)
	if err != nil {
		return r3.Vec{}, fmt.Errorf("interpolate %q: %w", name, err)
	}
	return v, nil
}

// Scalar returns a named scalar field at the voxel addressed by truncating ci
// toward zero.
func (g *Grid) Scalar(name FieldName, ci r3.Vec) (float64, error) {
	e, ok := g.scalars[name]
	if !ok {
		return 0, fmt.Errorf("sample %q: %w", name, ErrFieldNotAttached)
	}
	idx, err := truncate(e.field.Size, ci)
	if err != nil {
		return 0, fmt.Errorf("sample %q: %w", name, err)
	}
	return e.field.At(idx), nil
}

// ScalarLinear interpolates a named scalar field at ci with the interpolator
// bound when the field was attached.
func (g *Grid) ScalarLinear(name FieldName, ci r3.Vec) (float64, error) {
	e, ok := g.scalars[name]
	if !ok {
		return 0, fmt.Errorf("interpolate %q: %w", name, ErrFieldNotAttached)
	}
	v, err := e.interp.Evaluate(ci)
	if err != nil {
		return 0, fmt.Errorf("interpolate %q: %w", name, err)
	}
	return v, nil
}

// GradientMagnitudeLinear is shorthand for interpolating
// FieldGradientMagnitude, the hot path of the fitting loop.
func (g *Grid) GradientMagnitudeLinear(ci r3.Vec) (float64, error) {
	return g.ScalarLinear(FieldGradientMagnitude, ci)
}
