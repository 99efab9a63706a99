package returns

import (
	"time"
)

// Frame is a date-aligned table of return observations: one column per
// named series, one row per date, no missing cells. It is the design matrix
// consumed by the regression module. Once built by Align it is read-only;
// estimators that run concurrently across instruments may share it without
// locking.
type Frame struct {
	Dates   []time.Time
	Columns []string
	// Data is row-major: Data[i][j] is the value of Columns[j] at Dates[i].
	Data [][]float64
}

// Rows returns the number of dates in the frame.
func (f *Frame) Rows() int { return len(f.Dates) }

// Cols returns the number of columns in the frame.
func (f *Frame) Cols() int { return len(f.Columns) }

// Column returns a copy of the values of the named column, and whether the
// column exists.
func (f *Frame) Column(name string) ([]float64, bool) {
	for j, c := range f.Columns {
		if c != name {
			continue
		}
		out := make([]float64, f.Rows())
		for i := range f.Data {
			out[i] = f.Data[i][j]
		}
		return out, true
	}
	return nil, false
}

// Matrix returns the frame contents as a dense row-major slice suitable for
// gonum (rows*cols, row-major).
func (f *Frame) Matrix() []float64 {
	out := make([]float64, 0, f.Rows()*f.Cols())
	for i := range f.Data {
		out = append(out, f.Data[i]...)
	}
	return out
}
