package voxelize

import "errors"

// ErrDegenerateMesh is wrapped by Report.Err when voxelization had to skip
// or repair parts of the input. The mask is still produced.
var ErrDegenerateMesh = errors.New("voxelize: degenerate mesh")
