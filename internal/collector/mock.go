package collector

import (
	"context"
	"sync"
	"time"

	"StockSync/internal/model"
	"StockSync/internal/period"
)

// MockFetcher returns controllable fixed data for development and testing.
// Tickers without a configured frame get synthetic bars around Price.
type MockFetcher struct {
	Price  float64
	Frames map[string]*model.RawFrame
	Err    error

	mu       sync.Mutex
	requests []period.Window
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchHistory(_ context.Context, ticker string, w period.Window) (*model.RawFrame, error) {
	m.mu.Lock()
	m.requests = append(m.requests, w)
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	if m.Frames != nil {
		if f, ok := m.Frames[ticker]; ok {
			return f, nil
		}
		return &model.RawFrame{}, nil
	}
	return FrameFromSeries(generateMockBars(m.Price, w)), nil
}

// Calls returns how many fetches were made.
func (m *MockFetcher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Requests returns the windows that were asked for, in order.
func (m *MockFetcher) Requests() []period.Window {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]period.Window(nil), m.requests...)
}

// generateMockBars emits one bar per weekday in w. Unbounded windows cover
// the last 420 days.
func generateMockBars(basePrice float64, w period.Window) model.Series {
	start := w.Start
	if w.Unbounded() {
		start = w.End.AddDate(0, 0, -420)
	}
	var bars model.Series
	i := 0
	for d := start; !d.After(w.End); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		p := basePrice * (1 + float64(i%40-20)*0.001)
		bars = append(bars, model.OHLCV{
			Date:   d,
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		})
		i++
	}
	return bars
}
