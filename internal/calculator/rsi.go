package calculator

import (
	"errors"
	"math"

	"github.com/markcheno/go-talib"

	"StockSync/internal/model"
)

// CalculateRSI returns the latest Wilder RSI of the closes. With fewer than
// period+1 bars the neutral value 50 is returned.
func CalculateRSI(bars model.Series, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(bars) < period+1 {
		return 50.0, nil
	}
	out := talib.Rsi(bars.Closes(), period)
	v := out[len(out)-1]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 50.0, nil
	}
	return v, nil
}
