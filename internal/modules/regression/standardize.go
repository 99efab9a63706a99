package regression

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Standardizer centers columns to zero mean and scales them to unit
// variance. It is a stateless two-step transform: Fit learns means and
// standard deviations from one sample, Transform applies them to any sample
// with the same column count. The sparse estimator composes it with the
// path fitter for its penalty-selection pass; it is independently testable
// on its own.
type Standardizer struct {
	Means []float64
	Stds  []float64
}

// FitStandardizer learns per-column means and population standard
// deviations from X. Columns with zero variance get a scale of 1 so the
// transform stays finite (the column becomes all zeros after centering).
func FitStandardizer(X *mat.Dense) *Standardizer {
	n, p := X.Dims()
	s := &Standardizer{
		Means: make([]float64, p),
		Stds:  make([]float64, p),
	}
	for j := 0; j < p; j++ {
		var sum float64
		for i := 0; i < n; i++ {
			sum += X.At(i, j)
		}
		mean := sum / float64(n)
		var ss float64
		for i := 0; i < n; i++ {
			d := X.At(i, j) - mean
			ss += d * d
		}
		std := math.Sqrt(ss / float64(n))
		if std == 0 {
			std = 1
		}
		s.Means[j] = mean
		s.Stds[j] = std
	}
	return s
}

// Transform returns a standardized copy of X using the fitted means and
// standard deviations.
func (s *Standardizer) Transform(X *mat.Dense) (*mat.Dense, error) {
	n, p := X.Dims()
	if p != len(s.Means) {
		return nil, fmt.Errorf("standardizer fitted on %d columns, got %d", len(s.Means), p)
	}
	out := mat.NewDense(n, p, nil)
	for j := 0; j < p; j++ {
		for i := 0; i < n; i++ {
			out.Set(i, j, (X.At(i, j)-s.Means[j])/s.Stds[j])
		}
	}
	return out, nil
}
