package calculator

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// TradingDays is the number of trading sessions used to annualize daily figures.
const TradingDays = 252

// ErrZeroClose is returned when a close of zero would be divided by.
var ErrZeroClose = errors.New("zero close in series")

// DailyReturns converts closes to simple returns: r[i] = c[i+1]/c[i] - 1.
// A zero close anywhere but the last position fails with ErrZeroClose.
func DailyReturns(closes []float64) ([]float64, error) {
	if len(closes) < 2 {
		return nil, nil
	}
	returns := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			return nil, fmt.Errorf("%w at index %d", ErrZeroClose, i-1)
		}
		returns[i-1] = closes[i]/closes[i-1] - 1
	}
	return returns, nil
}

var errTooFewReturns = errors.New("need at least three closes")

// AnnualizedStdDev is the sample standard deviation of daily returns scaled by sqrt(252).
func AnnualizedStdDev(closes []float64) (float64, error) {
	r, err := DailyReturns(closes)
	if err != nil {
		return 0, err
	}
	if len(r) < 2 {
		return 0, errTooFewReturns
	}
	return stat.StdDev(r, nil) * math.Sqrt(TradingDays), nil
}

// AnnualizedReturn is the arithmetic mean daily return times 252.
func AnnualizedReturn(closes []float64) (float64, error) {
	r, err := DailyReturns(closes)
	if err != nil {
		return 0, err
	}
	if len(r) < 2 {
		return 0, errTooFewReturns
	}
	return stat.Mean(r, nil) * TradingDays, nil
}

// SharpeRatio is (annualized return - riskFree) / annualized std-dev.
// riskFree is an annual rate, e.g. 0.03 for 3%.
func SharpeRatio(closes []float64, riskFree float64) (float64, error) {
	ret, err := AnnualizedReturn(closes)
	if err != nil {
		return 0, err
	}
	std, err := AnnualizedStdDev(closes)
	if err != nil {
		return 0, err
	}
	if std == 0 {
		return 0, errors.New("zero volatility")
	}
	return (ret - riskFree) / std, nil
}
