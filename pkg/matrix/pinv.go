package matrix

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// DefaultTolerance is the rank truncation threshold used when callers have no
// better estimate of the noise floor of their system.
const DefaultTolerance = 1e-9

// Pinv computes the Moore–Penrose generalized inverse of a through a
// truncated singular value decomposition.
//
// Tall matrices are reduced to the wide case with A⁺ = ((Aᵗ)⁺)ᵗ. Singular
// values strictly greater than tol are retained; the rest are dropped from the
// reconstruction V_r·Σ_r⁻¹·U_rᵗ rather than zeroed. When no singular value
// survives the result is the zero matrix of shape a.Cols()×a.Rows() together
// with ErrRankDeficient; that result is still a valid answer.
func Pinv(a *Matrix, tol float64) (*Matrix, error) {
	p, _, err := pinv(a, tol)
	return p, err
}

// pinv is Pinv that also reports the number of retained singular values.
func pinv(a *Matrix, tol float64) (*Matrix, int, error) {
	if a.rows > a.cols {
		t, rank, err := pinv(Transpose(a), tol)
		return Transpose(t), rank, err
	}
	if a.IsEmpty() {
		return New(a.cols, a.rows), 0, fmt.Errorf("%s (%d,%d): %w", opPinv, a.rows, a.cols, ErrRankDeficient)
	}

	var svd mat.SVD
	if !svd.Factorize(a.ToDense(), mat.SVDThin) {
		return Empty(), 0, fmt.Errorf("%s (%d,%d): %w", opPinv, a.rows, a.cols, ErrSVDFailed)
	}
	values := svd.Values(nil)

	// Values are sorted in decreasing order, so the retained ones lead.
	rank := 0
	for _, s := range values {
		if s > tol {
			rank++
		}
	}
	if rank == 0 {
		return New(a.cols, a.rows), 0, fmt.Errorf("%s (%d,%d) tol=%g: %w", opPinv, a.rows, a.cols, tol, ErrRankDeficient)
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	ur := New(a.rows, rank)
	for i := 0; i < a.rows; i++ {
		for k := 0; k < rank; k++ {
			ur.Set(i, k, u.At(i, k))
		}
	}
	vr := New(a.cols, rank)
	for i := 0; i < a.cols; i++ {
		for k := 0; k < rank; k++ {
			vr.Set(i, k, v.At(i, k))
		}
	}
	sInv := New(rank, rank)
	for k := 0; k < rank; k++ {
		sInv.Set(k, k, 1/values[k])
	}

	right, err := Mul(sInv, Transpose(ur))
	if err != nil {
		return Empty(), 0, fmt.Errorf("%s: %w", opPinv, err)
	}
	res, err := Mul(vr, right)
	if err != nil {
		return Empty(), 0, fmt.Errorf("%s: %w", opPinv, err)
	}
	return res, rank, nil
}

// Rank returns the number of singular values of a strictly greater than tol.
func Rank(a *Matrix, tol float64) (int, error) {
	if a.IsEmpty() {
		return 0, nil
	}
	var svd mat.SVD
	if !svd.Factorize(a.ToDense(), mat.SVDNone) {
		return 0, fmt.Errorf("Rank (%d,%d): %w", a.rows, a.cols, ErrSVDFailed)
	}
	rank := 0
	for _, s := range svd.Values(nil) {
		if s > tol {
			rank++
		}
	}
	return rank, nil
}

// Solve returns the minimum-norm least-squares solution x of a·x ≈ b, i.e.
// Pinv(a, tol)·b. b must have a.Rows() rows. A rank-deficient system yields
// the zero solution and an error wrapping ErrRankDeficient.
func Solve(a, b *Matrix, tol float64) (*Matrix, error) {
	x, _, err := SolveRank(a, b, tol)
	return x, err
}

// SolveRank is Solve that also returns the rank of a retained by the
// truncation, from the same decomposition.
func SolveRank(a, b *Matrix, tol float64) (*Matrix, int, error) {
	if a.rows != b.rows {
		return Empty(), 0, matrixErrorf(opSolve, a, b, ErrDimensionMismatch)
	}
	inv, rank, pinvErr := pinv(a, tol)
	if inv.IsEmpty() && !a.IsEmpty() {
		return Empty(), 0, fmt.Errorf("%s: %w", opSolve, pinvErr)
	}
	x, err := Mul(inv, b)
	if err != nil {
		return Empty(), 0, fmt.Errorf("%s: %w", opSolve, err)
	}
	if pinvErr != nil {
		return x, rank, fmt.Errorf("%s: %w", opSolve, pinvErr)
	}
	return x, rank, nil
}
