package calculator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockSync/internal/model"
)

func series(start time.Time, closes ...float64) model.Series {
	s := make(model.Series, len(closes))
	for i, c := range closes {
		s[i] = model.OHLCV{Date: start.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c}
	}
	return s
}

func at(y int, m time.Month, d int, c float64) model.OHLCV {
	return model.OHLCV{Date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Close: c}
}

func TestQuarterMedians(t *testing.T) {
	s := model.Series{
		at(2023, 12, 29, 1000),
		at(2024, 1, 2, 10), at(2024, 2, 1, 20), at(2024, 3, 28, 30),
		at(2024, 8, 1, 5),
		at(2024, 10, 1, 1), at(2024, 12, 31, 2),
		at(2025, 1, 2, 1000),
	}
	r := QuarterMedians(s, 2024)

	require.NotNil(t, r.Quarter(1))
	assert.Equal(t, 20.0, *r.Quarter(1))
	assert.Nil(t, r.Quarter(2))
	assert.Equal(t, 5.0, *r.Quarter(3))
	assert.Equal(t, 1.5, *r.Quarter(4))
	require.NotNil(t, r.YearAvg)
	assert.Equal(t, 8.83, *r.YearAvg)
	assert.Nil(t, r.Quarter(5))
}

func TestQuarterMedians_NoData(t *testing.T) {
	r := QuarterMedians(nil, 2024)
	for q := 1; q <= 4; q++ {
		assert.Nil(t, r.Quarter(q))
	}
	assert.Nil(t, r.YearAvg)
}

func TestMedian(t *testing.T) {
	in := []float64{3, 1, 2}
	assert.Equal(t, 2.0, Median(in))
	assert.Equal(t, []float64{3, 1, 2}, in)
	assert.Equal(t, 2.5, Median([]float64{4, 1, 2, 3}))
	assert.Zero(t, Median(nil))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 8.83, Round2(26.5/3))
	assert.Equal(t, 139.57, Round2(139.5678))
	assert.Equal(t, -1.25, Round2(-1.2549))
}

func TestMovingAverages(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = float64(i + 1)
	}
	s := series(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), closes...)
	mas := MovingAverages(s, 20, 50, 200)

	assert.Equal(t, 50.5, mas[20])
	assert.Equal(t, 35.5, mas[50])
	_, ok := mas[200]
	assert.False(t, ok)

	sma := RollingSMA(s, 20)
	require.Len(t, sma, 60)
	assert.Equal(t, 10.5, sma[19])
	assert.Nil(t, RollingSMA(s, 61))
}

func TestRanges(t *testing.T) {
	s := series(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 10, 50, 20, 30)
	high, low, err := Calculate52WeekRange(s)
	require.NoError(t, err)
	assert.Equal(t, 51.0, high)
	assert.Equal(t, 9.0, low)

	pos, err := Calculate52WeekPosition(30, high, low)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, pos, 1e-9)

	pos, _ = Calculate52WeekPosition(100, high, low)
	assert.Equal(t, 1.0, pos)

	// Only the last 22 bars count: 8 old bars at 1, then closes 100..121.
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 1
		if i >= 8 {
			closes[i] = float64(92 + i)
		}
	}
	high, low, err = Calculate30DayRange(series(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), closes...))
	require.NoError(t, err)
	assert.Equal(t, 122.0, high)
	assert.Equal(t, 99.0, low)

	_, _, err = Calculate30DayRange(nil)
	assert.Error(t, err)
}

func TestCalculateRSI(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rising := series(start, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16)
	rsi, err := CalculateRSI(rising, 14)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, rsi, 1e-9)

	rsi, err = CalculateRSI(series(start, 1, 2), 14)
	require.NoError(t, err)
	assert.Equal(t, 50.0, rsi)
}

func TestAnnualizedStats(t *testing.T) {
	closes := []float64{100, 110, 99}

	std, err := AnnualizedStdDev(closes)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(0.02)*math.Sqrt(252), std, 1e-9)

	ret, err := AnnualizedReturn(closes)
	require.NoError(t, err)
	assert.InDelta(t, 0, ret, 1e-9)

	sharpe, err := SharpeRatio(closes, 0.03)
	require.NoError(t, err)
	assert.InDelta(t, -0.03/std, sharpe, 1e-9)
}

func TestAnnualizedStats_Errors(t *testing.T) {
	_, err := AnnualizedStdDev([]float64{1, 2})
	assert.Error(t, err)
	_, err = SharpeRatio([]float64{1, 1, 1}, 0.03)
	assert.Error(t, err)
}

func TestDailyReturns(t *testing.T) {
	r, err := DailyReturns([]float64{1})
	require.NoError(t, err)
	assert.Nil(t, r)

	r, err = DailyReturns([]float64{100, 50, 75, 0})
	require.NoError(t, err)
	assert.Equal(t, []float64{-0.5, 0.5, -1}, r)

	_, err = DailyReturns([]float64{100, 0, 50, 75})
	assert.ErrorIs(t, err, ErrZeroClose)
	_, err = AnnualizedStdDev([]float64{100, 0, 50, 75})
	assert.ErrorIs(t, err, ErrZeroClose)
	_, err = SharpeRatio([]float64{100, 0, 50, 75}, 0)
	assert.ErrorIs(t, err, ErrZeroClose)
}
