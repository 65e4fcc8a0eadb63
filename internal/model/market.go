package model

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the storage and display format of a trading day.
const DateLayout = "2006-01-02"

// OHLCV is one daily bar. Date is a calendar day at UTC midnight.
type OHLCV struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Series is a ticker's bars in ascending date order with no duplicate dates.
type Series []OHLCV

// Closes returns the close prices in series order.
func (s Series) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, b := range s {
		closes[i] = b.Close
	}
	return closes
}

// Last returns the most recent bar.
func (s Series) Last() (OHLCV, bool) {
	if len(s) == 0 {
		return OHLCV{}, false
	}
	return s[len(s)-1], true
}

// Between returns the bars whose date falls in [start, end]. A zero start is unbounded.
func (s Series) Between(start, end time.Time) Series {
	out := make(Series, 0, len(s))
	for _, b := range s {
		if !start.IsZero() && b.Date.Before(start) {
			continue
		}
		if b.Date.After(end) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// Day truncates t to its calendar day in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NormalizeTicker trims and upper-cases a ticker and checks its character set.
// Allowed characters are A-Z, 0-9 and . - ^ =
func NormalizeTicker(raw string) (string, error) {
	t := strings.ToUpper(strings.TrimSpace(raw))
	if t == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidTicker)
	}
	for _, r := range t {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.', r == '-', r == '^', r == '=':
		default:
			return "", fmt.Errorf("%w: %q", ErrInvalidTicker, raw)
		}
	}
	return t, nil
}

// SplitTickers parses a comma-separated ticker list, upper-casing entries and
// dropping blanks. Entries are not validated.
func SplitTickers(list string) []string {
	var out []string
	for _, s := range strings.Split(list, ",") {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Column is one column of a raw frame. Label may have several levels,
// e.g. ["Close", "GOOG"] for a per-symbol download.
type Column struct {
	Label  []string
	Values []float64
}

// RawFrame is an un-normalized price table as returned by a remote source.
type RawFrame struct {
	Dates   []string
	Columns []Column
}

// Empty reports whether the frame carries no rows.
func (f *RawFrame) Empty() bool {
	return f == nil || len(f.Dates) == 0
}
