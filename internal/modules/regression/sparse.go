package regression

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/aristath/stylescope/internal/modules/returns"
)

// SparseFit holds the result of a sparse exposure regression. Exposures are
// keyed by factor name; factors the path did not select are present with a
// coefficient of exactly zero, so callers can distinguish "not selected"
// from "selected but tiny". Alpha and DF describe the knot the information
// criterion chose.
type SparseFit struct {
	Exposures map[string]float64
	Alpha     float64
	DF        int
}

// SparseEstimator fits sparse factor exposures via an L1-regularized path
// with automatic penalty selection by the Akaike information criterion.
type SparseEstimator struct {
	log zerolog.Logger
}

// NewSparseEstimator creates a new sparse exposure estimator.
func NewSparseEstimator(log zerolog.Logger) *SparseEstimator {
	return &SparseEstimator{
		log: log.With().Str("component", "sparse_estimator").Logger(),
	}
}

// Fit runs the two-phase sparse estimation for one instrument.
//
// Phase 1 (penalty selection): columns are standardized in-sample (zero
// mean, unit variance) and y is centered, the full LARS-lasso path is
// computed, and each knot is scored with AIC = n·ln(RSS/n) + 2·df, where df
// is the exact active-coefficient count at that knot. The minimum-AIC knot
// fixes α*; ties go to the smaller df (the more regularized, earlier knot).
//
// Phase 2 (refit): the path is recomputed on the unstandardized design
// matrix (columns scaled to unit norm purely for numerical stability) and
// evaluated exactly at α*, then rescaled back to original units. Only this
// refit is reported; Phase 1 coefficients are discarded once α* is chosen.
//
// The two phases deliberately use different normalization policies
// (standardize vs unit-norm); see DESIGN.md before "unifying" them, since
// that changes which α the criterion selects.
//
// A zero-active optimum (including y identically zero) returns an all-zero
// exposure vector, not an error. The procedure is deterministic for
// identical inputs.
func (e *SparseEstimator) Fit(y []float64, frame *returns.Frame) (*SparseFit, error) {
	n := frame.Rows()
	p := frame.Cols()
	if len(y) != n {
		return nil, fmt.Errorf("returns length %d does not match design matrix rows %d", len(y), n)
	}
	if n < 2 || p == 0 {
		return nil, fmt.Errorf("design matrix too small: %d rows, %d columns", n, p)
	}

	X := mat.NewDense(n, p, frame.Matrix())
	yc, _ := centered(y)

	// Phase 1: standardized path, AIC per knot.
	std := FitStandardizer(X)
	Xstd, err := std.Transform(X)
	if err != nil {
		return nil, err
	}
	path, err := LarsPath(Xstd, yc)
	if err != nil {
		return nil, fmt.Errorf("penalty selection path failed: %w", err)
	}

	bestIdx := 0
	bestAIC := math.Inf(1)
	for i, knot := range path {
		aic := akaike(Xstd, yc, knot)
		if aic < bestAIC || (aic == bestAIC && knot.Active < path[bestIdx].Active) {
			bestAIC = aic
			bestIdx = i
		}
	}
	alphaStar := path[bestIdx].Alpha
	df := path[bestIdx].Active

	if df == 0 {
		// The most regularized knot won: no factor explains the returns
		// better than the intercept alone.
		e.log.Debug().Float64("alpha", alphaStar).Msg("AIC selected the empty model")
		return &SparseFit{Exposures: zeroExposures(frame), Alpha: alphaStar, DF: 0}, nil
	}

	// Phase 2: refit on the raw matrix at the fixed α*. Columns are scaled
	// to unit norm (after centering) as a conditioning device only; the
	// reported coefficients are rescaled back to original units.
	Xc, norms := centerAndNormalize(X)
	refit, err := LarsPath(Xc, yc)
	if err != nil {
		return nil, fmt.Errorf("refit path failed: %w", err)
	}
	scaled := CoefsAtAlpha(refit, alphaStar, p)

	fit := &SparseFit{
		Exposures: make(map[string]float64, p),
		Alpha:     alphaStar,
		DF:        df,
	}
	for j, name := range frame.Columns {
		v := scaled[j]
		if v != 0 {
			v /= norms[j]
		}
		fit.Exposures[name] = v
	}

	e.log.Debug().
		Float64("alpha", alphaStar).
		Int("df", df).
		Int("path_knots", len(path)).
		Msg("Sparse fit completed")

	return fit, nil
}

// akaike scores one path knot: AIC = n·ln(RSS/n) + 2·df. A perfect fit
// (RSS = 0) scores negative infinity and wins outright.
func akaike(X *mat.Dense, y []float64, knot PathKnot) float64 {
	n, p := X.Dims()
	var rss float64
	for i := 0; i < n; i++ {
		pred := 0.0
		for j := 0; j < p; j++ {
			pred += X.At(i, j) * knot.Coefs[j]
		}
		r := y[i] - pred
		rss += r * r
	}
	if rss <= 0 {
		return math.Inf(-1)
	}
	nf := float64(n)
	return nf*math.Log(rss/nf) + 2*float64(knot.Active)
}

// centered returns a zero-mean copy of v and the subtracted mean.
func centered(v []float64) ([]float64, float64) {
	var mean float64
	for _, x := range v {
		mean += x
	}
	mean /= float64(len(v))
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x - mean
	}
	return out, mean
}

// centerAndNormalize centers each column of X and scales it to unit L2
// norm, returning the scaled copy and the per-column norms used. Zero-norm
// columns keep a scale of 1.
func centerAndNormalize(X *mat.Dense) (*mat.Dense, []float64) {
	n, p := X.Dims()
	out := mat.NewDense(n, p, nil)
	norms := make([]float64, p)
	for j := 0; j < p; j++ {
		var mean float64
		for i := 0; i < n; i++ {
			mean += X.At(i, j)
		}
		mean /= float64(n)
		var ss float64
		for i := 0; i < n; i++ {
			d := X.At(i, j) - mean
			ss += d * d
		}
		norm := math.Sqrt(ss)
		if norm == 0 {
			norm = 1
		}
		norms[j] = norm
		for i := 0; i < n; i++ {
			out.Set(i, j, (X.At(i, j)-mean)/norm)
		}
	}
	return out, norms
}

func zeroExposures(frame *returns.Frame) map[string]float64 {
	out := make(map[string]float64, frame.Cols())
	for _, name := range frame.Columns {
		out[name] = 0
	}
	return out
}
