// Package regression implements the estimation engine for returns-based
// style analysis: collinearity diagnostics (VIF), dense exposures via
// ordinary least squares, and sparse exposures via a LARS-lasso
// regularization path with AIC penalty selection.
package regression

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/aristath/stylescope/internal/domain"
	"github.com/aristath/stylescope/internal/modules/returns"
)

// OLSFit holds the result of a dense exposure regression. Exposures are
// keyed by factor name; the intercept is reported separately and never
// appears in the exposure map.
type OLSFit struct {
	Intercept float64
	Exposures map[string]float64
	// Residuals on the fitted sample, in frame row order.
	Residuals []float64
}

// FitOLS regresses an instrument's returns on every column of the design
// matrix plus a prepended constant, solving the least-squares problem with
// a singular value decomposition.
//
// Policy on rank deficiency: an exactly rank-deficient design (after adding
// the constant) returns ErrSingularDesign. No least-norm fallback is
// attempted; coefficients are either well-defined or refused. The result is
// deterministic for identical inputs.
func FitOLS(y []float64, frame *returns.Frame) (*OLSFit, error) {
	n := frame.Rows()
	k := frame.Cols()
	if len(y) != n {
		return nil, fmt.Errorf("returns length %d does not match design matrix rows %d", len(y), n)
	}
	p := k + 1
	if n < p {
		return nil, fmt.Errorf("%w: %d observations for %d coefficients", domain.ErrInsufficientData, n, p)
	}

	// Design matrix with the constant in column 0.
	X := mat.NewDense(n, p, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, 1)
		for j := 0; j < k; j++ {
			X.Set(i, j+1, frame.Data[i][j])
		}
	}

	beta, rank, err := solveLeastSquares(X, y)
	if err != nil {
		return nil, err
	}
	if rank < p {
		return nil, fmt.Errorf("%w: rank %d < %d columns", domain.ErrSingularDesign, rank, p)
	}

	fit := &OLSFit{
		Intercept: beta[0],
		Exposures: make(map[string]float64, k),
		Residuals: make([]float64, n),
	}
	for j, name := range frame.Columns {
		fit.Exposures[name] = beta[j+1]
	}
	for i := 0; i < n; i++ {
		pred := beta[0]
		for j := 0; j < k; j++ {
			pred += beta[j+1] * frame.Data[i][j]
		}
		fit.Residuals[i] = y[i] - pred
	}

	return fit, nil
}

// solveLeastSquares solves min ||y - Xb||^2 via thin SVD and reports the
// numerical rank of X. Singular values below max(n,p)*eps*s_max are treated
// as zero, both for the rank count and the pseudo-inverse, so callers that
// tolerate rank deficiency (the VIF diagnostic) still get the minimum-norm
// solution.
func solveLeastSquares(X *mat.Dense, y []float64) (beta []float64, rank int, err error) {
	n, p := X.Dims()

	var svd mat.SVD
	if ok := svd.Factorize(X, mat.SVDThin); !ok {
		return nil, 0, fmt.Errorf("SVD factorization failed")
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	s := svd.Values(nil)

	tol := float64(max(n, p)) * 2.220446049250313e-16 * s[0]
	for _, sv := range s {
		if sv > tol {
			rank++
		}
	}

	// beta = V * diag(1/s) * U^T y, zeroing reciprocal of negligible values.
	uty := make([]float64, len(s))
	for j := 0; j < len(s); j++ {
		var dot float64
		for i := 0; i < n; i++ {
			dot += u.At(i, j) * y[i]
		}
		if s[j] > tol {
			uty[j] = dot / s[j]
		}
	}
	beta = make([]float64, p)
	for i := 0; i < p; i++ {
		for j := 0; j < len(s); j++ {
			beta[i] += v.At(i, j) * uty[j]
		}
	}

	return beta, rank, nil
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// residualSumOfSquares computes ||y - Xb||^2.
func residualSumOfSquares(X *mat.Dense, y, beta []float64) float64 {
	n, p := X.Dims()
	var rss float64
	for i := 0; i < n; i++ {
		pred := 0.0
		for j := 0; j < p; j++ {
			pred += X.At(i, j) * beta[j]
		}
		r := y[i] - pred
		rss += r * r
	}
	return rss
}
