package calculator

import (
	"sort"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"StockSync/internal/model"
)

// QuarterReport holds the median close of each calendar quarter of a year
// and their average. Quarters without data are nil and do not count toward
// YearAvg.
type QuarterReport struct {
	Year     int
	Quarters [4]*float64
	YearAvg  *float64
}

// Quarter returns the median for quarter q (1-4).
func (r QuarterReport) Quarter(q int) *float64 {
	if q < 1 || q > 4 {
		return nil
	}
	return r.Quarters[q-1]
}

// QuarterMedians groups the bars of year by calendar quarter. Each median
// and the year average are rounded to two decimals.
func QuarterMedians(series model.Series, year int) QuarterReport {
	var byQuarter [4][]float64
	for _, b := range series {
		if b.Date.Year() != year {
			continue
		}
		q := (int(b.Date.Month()) - 1) / 3
		byQuarter[q] = append(byQuarter[q], b.Close)
	}

	report := QuarterReport{Year: year}
	var medians []float64
	for q, closes := range byQuarter {
		if len(closes) == 0 {
			continue
		}
		m := Round2(Median(closes))
		report.Quarters[q] = &m
		medians = append(medians, m)
	}
	if len(medians) > 0 {
		avg := Round2(stat.Mean(medians, nil))
		report.YearAvg = &avg
	}
	return report
}

// Median returns the middle value of xs, averaging the two middle values for
// an even count. xs is not modified. It returns 0 for no input.
func Median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}

// Round2 rounds x to two decimal places.
func Round2(x float64) float64 {
	return decimal.NewFromFloat(x).Round(2).InexactFloat64()
}
