package regression

import (
	"encoding/json"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/aristath/stylescope/internal/modules/returns"
)

// ConstColumn is the reserved name under which the prepended constant
// appears in the VIF table. Factor names never collide with it because the
// universe loader rejects it.
const ConstColumn = "const"

// VIFEntry is one row of the collinearity diagnostic: a column name and its
// variance inflation factor. Exact linear dependence is reported as
// math.Inf(1) rather than an error; the diagnostic is advisory and must
// never halt estimation. Values above 5 are the conventional rule of thumb
// for problematic redundancy.
type VIFEntry struct {
	Column string  `json:"column"`
	VIF    float64 `json:"vif"`
}

// MarshalJSON renders non-finite VIF values as null; JSON has no spelling
// for infinity and encoding/json refuses to emit it.
func (e VIFEntry) MarshalJSON() ([]byte, error) {
	out := struct {
		Column string   `json:"column"`
		VIF    *float64 `json:"vif"`
	}{Column: e.Column}
	if !math.IsInf(e.VIF, 0) && !math.IsNaN(e.VIF) {
		out.VIF = &e.VIF
	}
	return json.Marshal(out)
}

// VIF computes variance inflation factors for every column of the design
// matrix, including a prepended constant.
//
// For each column i the remaining columns are regressed on it by least
// squares and VIF_i = 1/(1-R²_i). R² is centered when the auxiliary
// regressors include the constant (every factor column) and uncentered when
// the constant itself is the target, so the intercept row measures how well
// the factors alone reproduce a constant. Output order is input column order
// with the constant first.
func VIF(frame *returns.Frame) ([]VIFEntry, error) {
	n := frame.Rows()
	k := frame.Cols()
	if n == 0 || k == 0 {
		return nil, fmt.Errorf("empty design matrix")
	}
	p := k + 1

	// Augmented matrix with the constant in column 0.
	cols := make([][]float64, p)
	names := make([]string, p)
	names[0] = ConstColumn
	cols[0] = make([]float64, n)
	for i := range cols[0] {
		cols[0][i] = 1
	}
	for j := 0; j < k; j++ {
		names[j+1] = frame.Columns[j]
		cols[j+1] = make([]float64, n)
		for i := 0; i < n; i++ {
			cols[j+1][i] = frame.Data[i][j]
		}
	}

	entries := make([]VIFEntry, p)
	for target := 0; target < p; target++ {
		r2 := auxiliaryRSquared(cols, target, n)
		entries[target] = VIFEntry{Column: names[target], VIF: vifFromR2(r2)}
	}

	return entries, nil
}

// auxiliaryRSquared regresses column target on all other columns and
// returns the R² of that fit.
func auxiliaryRSquared(cols [][]float64, target, n int) float64 {
	p := len(cols)
	X := mat.NewDense(n, p-1, nil)
	j := 0
	hasConst := false
	for c := 0; c < p; c++ {
		if c == target {
			continue
		}
		if c == 0 {
			hasConst = true
		}
		for i := 0; i < n; i++ {
			X.Set(i, j, cols[c][i])
		}
		j++
	}
	y := cols[target]

	// The auxiliary fit tolerates rank deficiency: solveLeastSquares gives
	// the minimum-norm solution and the resulting R² of 1 becomes the
	// infinity sentinel downstream.
	beta, _, err := solveLeastSquares(X, y)
	if err != nil {
		return math.NaN()
	}
	rss := residualSumOfSquares(X, y, beta)

	var tss float64
	if hasConst {
		var mean float64
		for _, v := range y {
			mean += v
		}
		mean /= float64(n)
		for _, v := range y {
			tss += (v - mean) * (v - mean)
		}
	} else {
		for _, v := range y {
			tss += v * v
		}
	}

	if tss == 0 {
		return 1
	}
	return 1 - rss/tss
}

// vifFromR2 converts an auxiliary R² into a VIF, mapping exact linear
// dependence to the infinity sentinel.
func vifFromR2(r2 float64) float64 {
	if math.IsNaN(r2) {
		return math.NaN()
	}
	if r2 >= 1-1e-12 {
		return math.Inf(1)
	}
	return 1 / (1 - r2)
}
