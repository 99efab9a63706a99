// Package analysis orchestrates a full style-analysis run: factor and
// instrument price retrieval, return calculation, alignment, collinearity
// diagnostics, and dense plus sparse exposure estimation.
package analysis

import (
	"time"

	"github.com/aristath/stylescope/internal/domain"
	"github.com/aristath/stylescope/internal/modules/regression"
)

// Request describes one analysis run: which factors span the style space,
// which instruments to decompose, over what window and at what frequency.
type Request struct {
	Factors     domain.FactorUniverse
	Instruments []string
	Start       time.Time
	End         time.Time
	Frequency   domain.Frequency
}

// InstrumentResult holds both exposure estimates for one instrument.
// Dense and Sparse are keyed by factor name and always contain every
// factor; unselected factors appear in Sparse with an exact zero.
type InstrumentResult struct {
	Instrument   string             `json:"instrument"`
	Observations int                `json:"observations"`
	Intercept    float64            `json:"intercept"`
	Dense        map[string]float64 `json:"dense"`
	Sparse       map[string]float64 `json:"sparse"`
	SparseAlpha  float64            `json:"sparse_alpha"`
	SparseDF     int                `json:"sparse_df"`
}

// Result is the complete output of one analysis run. Instruments that
// failed (price retrieval, insufficient overlap, singular design) are
// reported in Errors keyed by instrument; the run itself still succeeds as
// long as the factor frame could be built.
type Result struct {
	RunID        string                `json:"run_id"`
	StartedAt    time.Time             `json:"started_at"`
	CompletedAt  time.Time             `json:"completed_at"`
	Frequency    string                `json:"frequency"`
	WindowStart  string                `json:"window_start"`
	WindowEnd    string                `json:"window_end"`
	Observations int                   `json:"observations"`
	Factors      []string              `json:"factors"`
	VIF          []regression.VIFEntry `json:"vif"`
	Instruments  []InstrumentResult    `json:"instruments"`
	Errors       map[string]string     `json:"errors,omitempty"`
}
