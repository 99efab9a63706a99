package returns

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/stylescope/internal/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCalculator_DailyReturns(t *testing.T) {
	calc := NewCalculator(zerolog.Nop())

	prices := domain.PriceSeries{
		Dates:  []time.Time{day(2023, 1, 2), day(2023, 1, 3), day(2023, 1, 4)},
		Prices: []float64{100, 110, 99},
	}

	ret, err := calc.Compute(prices, domain.FrequencyDaily)
	require.NoError(t, err)
	require.Equal(t, 2, ret.Len())

	// Always one shorter than the input, dated at the later observation.
	assert.Equal(t, day(2023, 1, 3), ret.Dates[0])
	assert.Equal(t, day(2023, 1, 4), ret.Dates[1])
	assert.InDelta(t, 0.10, ret.Returns[0], 1e-12)
	assert.InDelta(t, -0.10, ret.Returns[1], 1e-12)
}

func TestCalculator_ConstantPricesGiveZeroReturns(t *testing.T) {
	calc := NewCalculator(zerolog.Nop())

	prices := domain.PriceSeries{}
	for i := 0; i < 10; i++ {
		prices.Dates = append(prices.Dates, day(2023, 1, 2).AddDate(0, 0, i))
		prices.Prices = append(prices.Prices, 42.0)
	}

	ret, err := calc.Compute(prices, domain.FrequencyDaily)
	require.NoError(t, err)
	require.Equal(t, 9, ret.Len())
	for _, r := range ret.Returns {
		assert.Zero(t, r)
	}
}

func TestCalculator_MonthlyResampling(t *testing.T) {
	calc := NewCalculator(zerolog.Nop())

	// Several observations per month; only the last of each month counts.
	prices := domain.PriceSeries{
		Dates: []time.Time{
			day(2023, 1, 5), day(2023, 1, 20), day(2023, 1, 31),
			day(2023, 2, 10), day(2023, 2, 28),
			day(2023, 3, 1), day(2023, 3, 15),
		},
		Prices: []float64{95, 98, 100, 105, 110, 111, 121},
	}

	ret, err := calc.Compute(prices, domain.FrequencyMonthly)
	require.NoError(t, err)
	require.Equal(t, 2, ret.Len())

	// Month-end 100 -> 110 -> 121, labeled at the calendar month-end even
	// when the last trade fell earlier in the month.
	assert.Equal(t, day(2023, 2, 28), ret.Dates[0])
	assert.Equal(t, day(2023, 3, 31), ret.Dates[1])
	assert.InDelta(t, 0.10, ret.Returns[0], 1e-12)
	assert.InDelta(t, 0.10, ret.Returns[1], 1e-12)
}

func TestCalculator_MonthlyLabelsJoinAcrossRaggedMonthEnds(t *testing.T) {
	calc := NewCalculator(zerolog.Nop())

	// Two markets close the same months on different days: a US fund trades
	// through March 31, a Toronto listing last prints on March 30. The
	// monthly labels must still coincide so the March return survives
	// alignment.
	us := domain.PriceSeries{
		Dates:  []time.Time{day(2023, 1, 31), day(2023, 2, 28), day(2023, 3, 31)},
		Prices: []float64{100, 102, 105},
	}
	toronto := domain.PriceSeries{
		Dates:  []time.Time{day(2023, 1, 31), day(2023, 2, 28), day(2023, 3, 30)},
		Prices: []float64{50, 51, 53},
	}

	retUS, err := calc.Compute(us, domain.FrequencyMonthly)
	require.NoError(t, err)
	retTO, err := calc.Compute(toronto, domain.FrequencyMonthly)
	require.NoError(t, err)

	frame, err := Align([]string{"us", "to"}, map[string]domain.ReturnSeries{
		"us": retUS,
		"to": retTO,
	})
	require.NoError(t, err)

	require.Equal(t, 2, frame.Rows())
	assert.Equal(t, day(2023, 2, 28), frame.Dates[0])
	assert.Equal(t, day(2023, 3, 31), frame.Dates[1])

	to, ok := frame.Column("to")
	require.True(t, ok)
	assert.InDelta(t, 53.0/51.0-1, to[1], 1e-12)
}

func TestCalculator_DecemberMonthEndRollsToNewYear(t *testing.T) {
	calc := NewCalculator(zerolog.Nop())

	prices := domain.PriceSeries{
		Dates:  []time.Time{day(2022, 11, 30), day(2022, 12, 30), day(2023, 1, 31)},
		Prices: []float64{100, 104, 106},
	}

	ret, err := calc.Compute(prices, domain.FrequencyMonthly)
	require.NoError(t, err)
	require.Equal(t, 2, ret.Len())
	assert.Equal(t, day(2022, 12, 31), ret.Dates[0])
	assert.Equal(t, day(2023, 1, 31), ret.Dates[1])
}

func TestCalculator_MonthlyNeedsTwoMonths(t *testing.T) {
	calc := NewCalculator(zerolog.Nop())

	// Plenty of daily observations but all inside one calendar month.
	prices := domain.PriceSeries{}
	for i := 0; i < 15; i++ {
		prices.Dates = append(prices.Dates, day(2023, 1, 2).AddDate(0, 0, i))
		prices.Prices = append(prices.Prices, 100+float64(i))
	}

	_, err := calc.Compute(prices, domain.FrequencyMonthly)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
}

func TestCalculator_SingleObservation(t *testing.T) {
	calc := NewCalculator(zerolog.Nop())

	prices := domain.PriceSeries{
		Dates:  []time.Time{day(2023, 1, 2)},
		Prices: []float64{100},
	}

	_, err := calc.Compute(prices, domain.FrequencyDaily)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
}

func TestCalculator_RejectsUnorderedSeries(t *testing.T) {
	calc := NewCalculator(zerolog.Nop())

	prices := domain.PriceSeries{
		Dates:  []time.Time{day(2023, 1, 3), day(2023, 1, 2)},
		Prices: []float64{100, 101},
	}

	_, err := calc.Compute(prices, domain.FrequencyDaily)
	require.Error(t, err)
}
