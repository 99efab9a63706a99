package regression

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/stylescope/internal/domain"
	"github.com/aristath/stylescope/internal/modules/returns"
)

// testFrame builds a Frame directly from columns. Dates are synthetic; the
// estimators never look at them.
func testFrame(names []string, cols ...[]float64) *returns.Frame {
	n := len(cols[0])
	f := &returns.Frame{Columns: names}
	base := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		row := make([]float64, len(cols))
		for j := range cols {
			row[j] = cols[j][i]
		}
		f.Dates = append(f.Dates, base.AddDate(0, 0, i))
		f.Data = append(f.Data, row)
	}
	return f
}

func TestFitOLS_RecoversExactCoefficients(t *testing.T) {
	x1 := []float64{0.1, -0.2, 0.3, 0.05, -0.15, 0.25, -0.05, 0.12}
	x2 := []float64{0.02, 0.07, -0.01, 0.04, 0.03, -0.06, 0.09, 0.01}
	frame := testFrame([]string{"growth", "value"}, x1, x2)

	y := make([]float64, len(x1))
	for i := range y {
		y[i] = 1 + 2*x1[i] - 3*x2[i]
	}

	fit, err := FitOLS(y, frame)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, fit.Intercept, 1e-9)
	assert.InDelta(t, 2.0, fit.Exposures["growth"], 1e-9)
	assert.InDelta(t, -3.0, fit.Exposures["value"], 1e-9)
	for _, r := range fit.Residuals {
		assert.InDelta(t, 0.0, r, 1e-9)
	}
}

func TestFitOLS_ResidualOrthogonality(t *testing.T) {
	x1 := []float64{0.1, -0.2, 0.3, 0.05, -0.15, 0.25, -0.05, 0.12, 0.08, -0.11}
	x2 := []float64{0.02, 0.07, -0.01, 0.04, 0.03, -0.06, 0.09, 0.01, -0.03, 0.05}
	frame := testFrame([]string{"a", "b"}, x1, x2)

	// y not in the span of the regressors.
	y := make([]float64, len(x1))
	for i := range y {
		y[i] = 0.5*x1[i] + 0.1*x2[i] + math.Sin(float64(i))*0.01
	}

	fit, err := FitOLS(y, frame)
	require.NoError(t, err)

	// Residuals are orthogonal to the constant and to every regressor.
	var sum, d1, d2 float64
	for i, r := range fit.Residuals {
		sum += r
		d1 += r * x1[i]
		d2 += r * x2[i]
	}
	assert.InDelta(t, 0.0, sum, 1e-10)
	assert.InDelta(t, 0.0, d1, 1e-10)
	assert.InDelta(t, 0.0, d2, 1e-10)
}

func TestFitOLS_SingularDesign(t *testing.T) {
	x1 := []float64{0.1, -0.2, 0.3, 0.05, -0.15}
	x2 := make([]float64, len(x1))
	for i, v := range x1 {
		x2[i] = 2 * v // exact linear dependence
	}
	frame := testFrame([]string{"a", "a2"}, x1, x2)

	y := []float64{0.1, 0.2, 0.3, 0.4, 0.5}

	_, err := FitOLS(y, frame)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSingularDesign)
}

func TestFitOLS_TooFewObservations(t *testing.T) {
	frame := testFrame([]string{"a", "b"}, []float64{0.1, 0.2}, []float64{0.3, 0.4})

	_, err := FitOLS([]float64{0.1, 0.2}, frame)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
}

func TestFitOLS_LengthMismatch(t *testing.T) {
	frame := testFrame([]string{"a"}, []float64{0.1, 0.2, 0.3})

	_, err := FitOLS([]float64{0.1, 0.2}, frame)
	require.Error(t, err)
}
