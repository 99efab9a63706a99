package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/aristath/stylescope/internal/modules/regression"
)

// RenderText formats a run result as three plain-text tables: the
// collinearity diagnostic, dense exposures and sparse exposures. Exposure
// tables have one row per factor and one column per instrument; the dense
// table carries an extra intercept row, the sparse one alpha and df rows.
func RenderText(r *Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Style analysis run %s\n", r.RunID)
	fmt.Fprintf(&b, "Window %s to %s, %d %s observations\n\n",
		r.WindowStart, r.WindowEnd, r.Observations, r.Frequency)

	b.WriteString(vifTable(r).Render())
	b.WriteString("\n\n")
	b.WriteString(denseTable(r).Render())
	b.WriteString("\n\n")
	b.WriteString(sparseTable(r).Render())
	b.WriteString("\n")

	if len(r.Errors) > 0 {
		b.WriteString("\nFailed instruments:\n")
		for inst, msg := range r.Errors {
			fmt.Fprintf(&b, "  %s: %s\n", inst, msg)
		}
	}

	return b.String()
}

func vifTable(r *Result) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.SetTitle("Variance inflation factors")
	t.AppendHeader(table.Row{"Column", "VIF"})
	for _, e := range r.VIF {
		t.AppendRow(table.Row{e.Column, formatVIF(e.VIF)})
	}
	return t
}

func denseTable(r *Result) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.SetTitle("Dense exposures (OLS)")
	t.AppendHeader(exposureHeader(r))

	for _, f := range r.Factors {
		row := table.Row{f}
		for _, ir := range r.Instruments {
			row = append(row, formatCoef(ir.Dense[f]))
		}
		t.AppendRow(row)
	}

	icept := table.Row{regression.ConstColumn}
	for _, ir := range r.Instruments {
		icept = append(icept, formatCoef(ir.Intercept))
	}
	t.AppendFooter(icept)

	return t
}

func sparseTable(r *Result) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.SetTitle("Sparse exposures (lasso, AIC)")
	t.AppendHeader(exposureHeader(r))

	for _, f := range r.Factors {
		row := table.Row{f}
		for _, ir := range r.Instruments {
			row = append(row, formatCoef(ir.Sparse[f]))
		}
		t.AppendRow(row)
	}

	alpha := table.Row{"alpha"}
	df := table.Row{"df"}
	for _, ir := range r.Instruments {
		alpha = append(alpha, fmt.Sprintf("%.6g", ir.SparseAlpha))
		df = append(df, ir.SparseDF)
	}
	t.AppendFooter(alpha)
	t.AppendFooter(df)

	return t
}

func exposureHeader(r *Result) table.Row {
	header := table.Row{"Factor"}
	for _, ir := range r.Instruments {
		header = append(header, ir.Instrument)
	}
	return header
}

func formatCoef(v float64) string {
	return fmt.Sprintf("%.4f", v)
}

func formatVIF(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	if math.IsNaN(v) {
		return "nan"
	}
	return fmt.Sprintf("%.2f", v)
}
