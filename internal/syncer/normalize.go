package syncer

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"StockSync/internal/model"
)

var requiredFields = []string{"Open", "High", "Low", "Close", "Volume"}

var dateLayouts = []string{
	model.DateLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05-07:00",
}

// fieldOf flattens a possibly multi-level column label to its OHLCV field
// name. The first level naming a field wins.
func fieldOf(label []string) (string, bool) {
	for _, level := range label {
		level = strings.TrimSpace(level)
		for _, f := range requiredFields {
			if strings.EqualFold(level, f) {
				return f, true
			}
		}
	}
	return "", false
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n > 1e11 { // milliseconds
			return model.Day(time.UnixMilli(n).UTC()), nil
		}
		return model.Day(time.Unix(n, 0).UTC()), nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return model.Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

// Normalize converts a raw frame into a Series: column labels are flattened
// to Open/High/Low/Close/Volume, dates parsed to calendar days, rows with a
// missing price dropped, duplicates resolved to the last occurrence and the
// result sorted ascending.
func Normalize(ticker string, f *model.RawFrame) (model.Series, error) {
	if f.Empty() {
		return model.Series{}, nil
	}
	cols := make(map[string][]float64, len(requiredFields))
	for _, c := range f.Columns {
		field, ok := fieldOf(c.Label)
		if !ok {
			continue
		}
		if _, dup := cols[field]; dup {
			return nil, &model.DataShapeError{Ticker: ticker, Reason: fmt.Sprintf("ambiguous column %s", field)}
		}
		if len(c.Values) != len(f.Dates) {
			return nil, &model.DataShapeError{Ticker: ticker,
				Reason: fmt.Sprintf("column %s has %d values for %d dates", field, len(c.Values), len(f.Dates))}
		}
		cols[field] = c.Values
	}
	var missing []string
	for _, field := range requiredFields {
		if _, ok := cols[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, &model.DataShapeError{Ticker: ticker, Reason: "missing columns " + strings.Join(missing, ", ")}
	}

	byDate := make(map[time.Time]model.OHLCV, len(f.Dates))
	for i, raw := range f.Dates {
		d, err := parseDate(raw)
		if err != nil {
			return nil, &model.DataShapeError{Ticker: ticker, Reason: err.Error()}
		}
		b := model.OHLCV{
			Date:   d,
			Open:   cols["Open"][i],
			High:   cols["High"][i],
			Low:    cols["Low"][i],
			Close:  cols["Close"][i],
			Volume: cols["Volume"][i],
		}
		if math.IsNaN(b.Open) || math.IsNaN(b.High) || math.IsNaN(b.Low) || math.IsNaN(b.Close) {
			continue // holiday or suspended session
		}
		if math.IsNaN(b.Volume) {
			b.Volume = 0
		}
		byDate[d] = b
	}

	series := make(model.Series, 0, len(byDate))
	for _, b := range byDate {
		series = append(series, b)
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })
	return series, nil
}
