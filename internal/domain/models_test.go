package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrequency(t *testing.T) {
	for spelling, want := range map[string]Frequency{
		"daily":   FrequencyDaily,
		"d":       FrequencyDaily,
		"monthly": FrequencyMonthly,
		"m":       FrequencyMonthly,
	} {
		got, err := ParseFrequency(spelling)
		require.NoError(t, err, spelling)
		assert.Equal(t, want, got)
	}

	_, err := ParseFrequency("weekly")
	require.Error(t, err)
}

func TestPriceSeries_Validate(t *testing.T) {
	d1 := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)

	ok := PriceSeries{Dates: []time.Time{d1, d2}, Prices: []float64{1, 2}}
	require.NoError(t, ok.Validate())

	mismatch := PriceSeries{Dates: []time.Time{d1, d2}, Prices: []float64{1}}
	require.Error(t, mismatch.Validate())

	duplicate := PriceSeries{Dates: []time.Time{d1, d1}, Prices: []float64{1, 2}}
	require.Error(t, duplicate.Validate())

	backwards := PriceSeries{Dates: []time.Time{d2, d1}, Prices: []float64{1, 2}}
	require.Error(t, backwards.Validate())
}

func TestFactorUniverse_Validate(t *testing.T) {
	ok := FactorUniverse{{Name: "Growth", Ticker: "VUG"}, {Name: "Value", Ticker: "VTV"}}
	require.NoError(t, ok.Validate())
	assert.Equal(t, []string{"Growth", "Value"}, ok.Names())

	require.Error(t, FactorUniverse{}.Validate())
	require.Error(t, FactorUniverse{{Name: "", Ticker: "VUG"}}.Validate())
	require.Error(t, FactorUniverse{{Name: "A", Ticker: ""}}.Validate())
	require.Error(t, FactorUniverse{{Name: "A", Ticker: "X"}, {Name: "A", Ticker: "Y"}}.Validate())
}

func TestPriceRetrievalError(t *testing.T) {
	inner := assert.AnError
	err := &PriceRetrievalError{Ticker: "VTI", Err: inner}

	assert.Contains(t, err.Error(), "VTI")
	assert.ErrorIs(t, err, inner)
}
