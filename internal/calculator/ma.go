package calculator

import (
	"github.com/markcheno/go-talib"

	"StockSync/internal/model"
)

// RollingSMA returns the n-day simple moving average aligned with series.
// The first n-1 entries are zero. It returns nil when the series is shorter
// than n.
func RollingSMA(series model.Series, n int) []float64 {
	if n <= 0 || len(series) < n {
		return nil
	}
	return talib.Sma(series.Closes(), n)
}

// MovingAverages returns the latest SMA of closes for each window. Windows
// longer than the series are left out of the result.
func MovingAverages(series model.Series, windows ...int) map[int]float64 {
	out := make(map[int]float64, len(windows))
	for _, w := range windows {
		if sma := RollingSMA(series, w); len(sma) > 0 {
			out[w] = sma[len(sma)-1]
		}
	}
	return out
}
