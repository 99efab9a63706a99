// Package returns converts price series into periodic return series and
// aligns named return series onto a shared date index for regression.
package returns

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/stylescope/internal/domain"
)

// Calculator converts price series into percentage return series.
type Calculator struct {
	log zerolog.Logger
}

// NewCalculator creates a new returns calculator.
func NewCalculator(log zerolog.Logger) *Calculator {
	return &Calculator{
		log: log.With().Str("component", "returns_calculator").Logger(),
	}
}

// Compute derives a return series from a price series at the requested
// frequency.
//
// Daily: return[t] = price[t]/price[t-1] - 1 over consecutive observed
// dates, with no gap filling. Monthly: the series is first resampled to the
// last observed price of each calendar month, then the same formula is
// applied across consecutive months. Monthly observations are labeled at
// the calendar month-end, not at the last trading date, so series from
// exchanges with different holiday calendars share one date index.
//
// The first observation has no prior reference, so the result is always
// exactly one entry shorter than the (resampled) input. Fewer than two
// observations cannot form a single return and yield ErrInsufficientData.
func (c *Calculator) Compute(prices domain.PriceSeries, freq domain.Frequency) (domain.ReturnSeries, error) {
	if err := prices.Validate(); err != nil {
		return domain.ReturnSeries{}, fmt.Errorf("invalid price series: %w", err)
	}

	sampled := prices
	if freq == domain.FrequencyMonthly {
		sampled = resampleMonthly(prices)
	}

	if sampled.Len() < 2 {
		return domain.ReturnSeries{}, fmt.Errorf("%w: %d observations at %s frequency, need at least 2",
			domain.ErrInsufficientData, sampled.Len(), freq)
	}

	n := sampled.Len() - 1
	out := domain.ReturnSeries{
		Dates:   make([]time.Time, n),
		Returns: make([]float64, n),
	}
	for i := 1; i < sampled.Len(); i++ {
		out.Dates[i-1] = sampled.Dates[i]
		out.Returns[i-1] = sampled.Prices[i]/sampled.Prices[i-1] - 1
	}

	c.log.Debug().
		Int("observations", prices.Len()).
		Int("returns", out.Len()).
		Str("frequency", freq.String()).
		Msg("Computed returns")

	return out, nil
}

// resampleMonthly keeps the last observation of each calendar month and
// labels it at the calendar month-end. The label is canonical: whether a
// market last traded on the 30th or the 31st, the row's date is the same,
// so monthly series from different exchanges align month by month. The
// input is already date-ordered (Validate ran), so a single pass suffices.
func resampleMonthly(prices domain.PriceSeries) domain.PriceSeries {
	out := domain.PriceSeries{}
	for i := 0; i < prices.Len(); i++ {
		last := i == prices.Len()-1 || !sameMonth(prices.Dates[i], prices.Dates[i+1])
		if last {
			out.Dates = append(out.Dates, monthEnd(prices.Dates[i]))
			out.Prices = append(out.Prices, prices.Prices[i])
		}
	}
	return out
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// monthEnd returns midnight UTC on the last calendar day of d's month.
func monthEnd(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month()+1, 0, 0, 0, 0, 0, time.UTC)
}
