// Package domain contains the core types for returns-based style analysis.
// The domain layer is pure: no infrastructure dependencies, no package-level
// mutable state, safe to instantiate many times in one process.
package domain

import (
	"fmt"
	"time"
)

// Frequency selects the sampling frequency for return calculations.
// It is an explicit two-case enumeration rather than a string tag so that
// dispatch on it is exhaustive and typo-proof.
type Frequency int

const (
	// FrequencyDaily computes returns over consecutive observed dates.
	FrequencyDaily Frequency = iota
	// FrequencyMonthly resamples to the last observation of each calendar
	// month before computing returns.
	FrequencyMonthly
)

// String returns the config-file spelling of the frequency.
func (f Frequency) String() string {
	switch f {
	case FrequencyMonthly:
		return "monthly"
	default:
		return "daily"
	}
}

// ParseFrequency converts a config string ("daily" or "monthly") to a Frequency.
func ParseFrequency(s string) (Frequency, error) {
	switch s {
	case "daily", "d":
		return FrequencyDaily, nil
	case "monthly", "m":
		return FrequencyMonthly, nil
	default:
		return FrequencyDaily, fmt.Errorf("unknown frequency %q (want daily or monthly)", s)
	}
}

// PriceSeries is an ordered sequence of dated price observations for one
// instrument. Dates are strictly increasing with no duplicates; Validate
// enforces the invariant before the series enters any calculation.
type PriceSeries struct {
	Dates  []time.Time
	Prices []float64
}

// Len returns the number of observations.
func (p PriceSeries) Len() int { return len(p.Dates) }

// Validate checks the series invariants: matching lengths and strictly
// increasing dates.
func (p PriceSeries) Validate() error {
	if len(p.Dates) != len(p.Prices) {
		return fmt.Errorf("price series has %d dates but %d prices", len(p.Dates), len(p.Prices))
	}
	for i := 1; i < len(p.Dates); i++ {
		if !p.Dates[i].After(p.Dates[i-1]) {
			return fmt.Errorf("price series dates not strictly increasing at index %d (%s >= %s)",
				i, p.Dates[i-1].Format("2006-01-02"), p.Dates[i].Format("2006-01-02"))
		}
	}
	return nil
}

// ReturnSeries is a dated sequence of periodic percentage returns derived
// from a PriceSeries. It is always exactly one observation shorter than the
// (possibly resampled) price series it came from: the first observation has
// no prior reference and is dropped.
type ReturnSeries struct {
	Dates   []time.Time
	Returns []float64
}

// Len returns the number of return observations.
func (r ReturnSeries) Len() int { return len(r.Dates) }

// Factor pairs a stable display name with the provider ticker used to fetch
// its benchmark prices. The name is the identity carried into every output
// table; the ticker never leaves the data-retrieval layer.
type Factor struct {
	Name   string `yaml:"name"`
	Ticker string `yaml:"ticker"`
}

// FactorUniverse is an ordered set of factors. Order is load order from
// configuration and is preserved end-to-end into result tables.
type FactorUniverse []Factor

// Names returns the factor names in universe order.
func (u FactorUniverse) Names() []string {
	names := make([]string, len(u))
	for i, f := range u {
		names[i] = f.Name
	}
	return names
}

// Validate checks that the universe is non-empty and free of duplicate names.
func (u FactorUniverse) Validate() error {
	if len(u) == 0 {
		return fmt.Errorf("factor universe is empty")
	}
	seen := make(map[string]bool, len(u))
	for _, f := range u {
		if f.Name == "" || f.Ticker == "" {
			return fmt.Errorf("factor with empty name or ticker: %+v", f)
		}
		if seen[f.Name] {
			return fmt.Errorf("duplicate factor name %q", f.Name)
		}
		seen[f.Name] = true
	}
	return nil
}
