package regression

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// PathKnot is one breakpoint of the lasso regularization path: the penalty
// strength at the breakpoint, the full coefficient vector there, and the
// count of active (non-zero) coefficients, which is the exact degrees of
// freedom at that point on the path.
type PathKnot struct {
	Alpha  float64
	Coefs  []float64
	Active int
}

// LarsPath computes the full lasso path for the objective
//
//	(1/(2n))·||y − Xβ||² + α·||β||₁
//
// by homotopy in decreasing α, the LARS-with-lasso-modification algorithm.
// Starting from β = 0 at α₀ = max_j |X_jᵀy|/n, the active set grows by the
// predictor whose correlation with the residual catches up to the active
// set's, coefficients move along the piecewise-linear segments defined by
// the active-set KKT conditions, and a predictor leaves the set when its
// coefficient crosses zero. Between consecutive knots the coefficient
// vector is exactly linear in α.
//
// The path is fully deterministic: ties resolve to the lowest column index.
// X and y are used as given; any centering or scaling is the caller's
// responsibility.
func LarsPath(X *mat.Dense, y []float64) ([]PathKnot, error) {
	n, p := X.Dims()
	if len(y) != n {
		return nil, fmt.Errorf("y length %d does not match X rows %d", len(y), n)
	}
	nf := float64(n)

	// Initial correlations and the starting penalty.
	c0 := make([]float64, p)
	for j := 0; j < p; j++ {
		for i := 0; i < n; i++ {
			c0[j] += X.At(i, j) * y[i]
		}
		c0[j] /= nf
	}
	first, alpha0 := -1, 0.0
	for j := 0; j < p; j++ {
		if a := math.Abs(c0[j]); a > alpha0 {
			alpha0 = a
			first = j
		}
	}

	path := []PathKnot{{Alpha: alpha0, Coefs: make([]float64, p), Active: 0}}
	if first < 0 || alpha0 == 0 {
		// Nothing correlates with y (e.g. y is identically zero): the path
		// is the single all-zero knot.
		return path, nil
	}

	active := []int{first}
	signs := []float64{sign(c0[first])}
	cur := alpha0

	// Each iteration adds or removes one predictor; the cap guards against
	// degenerate cycling on near-collinear inputs.
	maxIter := 8*p + 16
	for iter := 0; iter < maxIter; iter++ {
		k := len(active)

		b0, d, ok := activeDirections(X, y, active, signs, n)
		if !ok {
			// The active Gram matrix is numerically singular; the path
			// cannot be extended past the current knot.
			break
		}

		// Next event: the largest α below the current one at which either
		// an inactive predictor's correlation catches up (join) or an
		// active coefficient crosses zero (drop).
		nextAlpha := -1.0
		joinIdx, joinSign := -1, 0.0
		dropPos := -1
		limit := cur * (1 - 1e-12)

		inActive := make(map[int]bool, k)
		for _, a := range active {
			inActive[a] = true
		}
		for j := 0; j < p; j++ {
			if inActive[j] {
				continue
			}
			// Correlation of column j along the segment: c_j(α) = a + α·b.
			var xjXAb0, xjXAd float64
			for idx, col := range active {
				var dot float64
				for i := 0; i < n; i++ {
					dot += X.At(i, j) * X.At(i, col)
				}
				xjXAb0 += dot * b0[idx]
				xjXAd += dot * d[idx]
			}
			a := (dotColumn(X, j, y, n) - xjXAb0) / nf
			b := xjXAd

			for _, s := range []float64{1, -1} {
				den := s - b
				if den == 0 {
					continue
				}
				alpha := a / den
				if alpha > 0 && alpha < limit && alpha > nextAlpha {
					nextAlpha = alpha
					joinIdx, joinSign = j, s
					dropPos = -1
				}
			}
		}
		for idx := range active {
			if d[idx] == 0 {
				continue
			}
			alpha := b0[idx] / (nf * d[idx])
			if alpha > 0 && alpha < limit && alpha > nextAlpha {
				nextAlpha = alpha
				dropPos = idx
				joinIdx = -1
			}
		}

		if nextAlpha < 0 {
			// No further events: the path ends at α = 0 with the OLS
			// solution on the current active set.
			path = append(path, knotAt(p, active, b0, d, 0, nf, -1))
			return path, nil
		}

		path = append(path, knotAt(p, active, b0, d, nextAlpha, nf, dropPos))

		if dropPos >= 0 {
			active = append(active[:dropPos], active[dropPos+1:]...)
			signs = append(signs[:dropPos], signs[dropPos+1:]...)
		} else {
			active = append(active, joinIdx)
			signs = append(signs, joinSign)
		}
		cur = nextAlpha
	}

	return path, nil
}

// activeDirections solves the two active-set systems of the homotopy:
// b0 = G⁻¹·X_Aᵀy (the OLS fit on the active set) and d = G⁻¹·s (the
// direction that keeps active correlations equal), with G = X_AᵀX_A.
func activeDirections(X *mat.Dense, y []float64, active []int, signs []float64, n int) (b0, d []float64, ok bool) {
	k := len(active)
	G := mat.NewSymDense(k, nil)
	xty := mat.NewVecDense(k, nil)
	sv := mat.NewVecDense(k, nil)
	for a := 0; a < k; a++ {
		for b := a; b < k; b++ {
			var dot float64
			for i := 0; i < n; i++ {
				dot += X.At(i, active[a]) * X.At(i, active[b])
			}
			G.SetSym(a, b, dot)
		}
		xty.SetVec(a, dotColumn(X, active[a], y, n))
		sv.SetVec(a, signs[a])
	}

	var chol mat.Cholesky
	if !chol.Factorize(G) {
		return nil, nil, false
	}
	var vb0, vd mat.VecDense
	if err := chol.SolveVecTo(&vb0, xty); err != nil {
		return nil, nil, false
	}
	if err := chol.SolveVecTo(&vd, sv); err != nil {
		return nil, nil, false
	}

	b0 = make([]float64, k)
	d = make([]float64, k)
	for i := 0; i < k; i++ {
		b0[i] = vb0.AtVec(i)
		d[i] = vd.AtVec(i)
	}
	return b0, d, true
}

// knotAt materializes the full coefficient vector on the current segment at
// penalty alpha: β_A(α) = b0 − n·α·d. A coefficient at a drop event is set
// to exactly zero so callers can distinguish "not selected" from "tiny".
func knotAt(p int, active []int, b0, d []float64, alpha, nf float64, dropPos int) PathKnot {
	coefs := make([]float64, p)
	nonzero := 0
	for idx, col := range active {
		v := b0[idx] - nf*alpha*d[idx]
		if idx == dropPos {
			v = 0
		}
		coefs[col] = v
		if v != 0 {
			nonzero++
		}
	}
	return PathKnot{Alpha: alpha, Coefs: coefs, Active: nonzero}
}

// CoefsAtAlpha evaluates the path at an arbitrary penalty strength. The
// lasso path is piecewise linear in α, so linear interpolation between the
// two bracketing knots is exact. Above the first knot the solution is all
// zeros; below the last it is the last knot's coefficients.
func CoefsAtAlpha(path []PathKnot, alpha float64, p int) []float64 {
	if len(path) == 0 || alpha >= path[0].Alpha {
		return make([]float64, p)
	}
	last := path[len(path)-1]
	if alpha <= last.Alpha {
		return append([]float64(nil), last.Coefs...)
	}
	for i := 0; i < len(path)-1; i++ {
		hi, lo := path[i], path[i+1]
		if alpha > lo.Alpha && alpha <= hi.Alpha {
			t := (alpha - lo.Alpha) / (hi.Alpha - lo.Alpha)
			out := make([]float64, p)
			for j := 0; j < p; j++ {
				out[j] = lo.Coefs[j] + (hi.Coefs[j]-lo.Coefs[j])*t
			}
			return out
		}
	}
	return append([]float64(nil), last.Coefs...)
}

func dotColumn(X *mat.Dense, j int, y []float64, n int) float64 {
	var dot float64
	for i := 0; i < n; i++ {
		dot += X.At(i, j) * y[i]
	}
	return dot
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
