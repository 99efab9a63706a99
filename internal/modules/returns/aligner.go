package returns

import (
	"fmt"
	"sort"
	"time"

	"github.com/aristath/stylescope/internal/domain"
)

// Align merges named return series on their date index into a Frame.
//
// The merge is an outer union of all date indices, truncated to the window
// that every series covers: it starts at the latest "first available date"
// and ends at the earliest "last available date". Inside that window any
// row still missing a value for some column is dropped (series with gaps do
// not get interpolated or forward-filled). Column order in the result is
// the order of names, never the order the data happened to arrive in.
//
// An empty aligned window yields ErrInsufficientData.
func Align(names []string, series map[string]domain.ReturnSeries) (*Frame, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("no series to align")
	}
	for _, name := range names {
		if _, ok := series[name]; !ok {
			return nil, fmt.Errorf("series %q missing from input", name)
		}
	}

	// Window common to all series: [max(first date), min(last date)].
	var start, end time.Time
	for i, name := range names {
		s := series[name]
		if s.Len() == 0 {
			return nil, fmt.Errorf("%w: series %q is empty", domain.ErrInsufficientData, name)
		}
		first, last := s.Dates[0], s.Dates[s.Len()-1]
		if i == 0 || first.After(start) {
			start = first
		}
		if i == 0 || last.Before(end) {
			end = last
		}
	}

	// Outer union of dates inside the window.
	dateSet := make(map[time.Time]bool)
	for _, name := range names {
		s := series[name]
		for _, d := range s.Dates {
			if !d.Before(start) && !d.After(end) {
				dateSet[d] = true
			}
		}
	}
	dates := make([]time.Time, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	// Per-series lookup, then keep only complete rows.
	lookups := make([]map[time.Time]float64, len(names))
	for j, name := range names {
		s := series[name]
		m := make(map[time.Time]float64, s.Len())
		for i, d := range s.Dates {
			m[d] = s.Returns[i]
		}
		lookups[j] = m
	}

	frame := &Frame{Columns: append([]string(nil), names...)}
	for _, d := range dates {
		row := make([]float64, len(names))
		complete := true
		for j := range names {
			v, ok := lookups[j][d]
			if !ok {
				complete = false
				break
			}
			row[j] = v
		}
		if complete {
			frame.Dates = append(frame.Dates, d)
			frame.Data = append(frame.Data, row)
		}
	}

	if frame.Rows() == 0 {
		return nil, fmt.Errorf("%w: aligned window is empty", domain.ErrInsufficientData)
	}

	return frame, nil
}

// AlignTo restricts one instrument's return series to the dates of an
// already-built design matrix, returning the matching frame rows and return
// vector on the exact same index. Rows of the frame with no instrument
// observation are dropped symmetrically, so regression inputs always share
// one index.
func AlignTo(frame *Frame, y domain.ReturnSeries) (*Frame, []float64, error) {
	if y.Len() == 0 {
		return nil, nil, fmt.Errorf("%w: instrument return series is empty", domain.ErrInsufficientData)
	}

	lookup := make(map[time.Time]float64, y.Len())
	for i, d := range y.Dates {
		lookup[d] = y.Returns[i]
	}

	sub := &Frame{Columns: append([]string(nil), frame.Columns...)}
	var vec []float64
	for i, d := range frame.Dates {
		v, ok := lookup[d]
		if !ok {
			continue
		}
		sub.Dates = append(sub.Dates, d)
		sub.Data = append(sub.Data, append([]float64(nil), frame.Data[i]...))
		vec = append(vec, v)
	}

	if sub.Rows() == 0 {
		return nil, nil, fmt.Errorf("%w: no overlap between instrument returns and factor window", domain.ErrInsufficientData)
	}

	return sub, vec, nil
}
