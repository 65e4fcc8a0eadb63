package collector

import (
	"math"

	"StockSync/internal/model"
)

// FrameFromSeries lays bars out as a single-level OHLCV frame.
func FrameFromSeries(bars model.Series) *model.RawFrame {
	f := &model.RawFrame{Dates: make([]string, len(bars))}
	cols := [5][]float64{}
	for i := range cols {
		cols[i] = make([]float64, len(bars))
	}
	for i, b := range bars {
		f.Dates[i] = b.Date.Format(model.DateLayout)
		cols[0][i], cols[1][i], cols[2][i], cols[3][i], cols[4][i] = b.Open, b.High, b.Low, b.Close, b.Volume
	}
	for i, name := range []string{"Open", "High", "Low", "Close", "Volume"} {
		f.Columns = append(f.Columns, model.Column{Label: []string{name}, Values: cols[i]})
	}
	return f
}

// nullable converts a JSON number that may be null.
func nullable(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
