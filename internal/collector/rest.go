package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"StockSync/internal/httpclient"
	"StockSync/internal/model"
	"StockSync/internal/period"
)

// RESTFetcher implements Fetcher against a JSON daily-bar endpoint:
// GET {BaseURL}/api/v1/bars/daily?symbol=S&start=YYYY-MM-DD&end=YYYY-MM-DD
type RESTFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewRESTFetcher creates a new fetcher with optional proxy support.
func NewRESTFetcher(baseURL, apiKey, proxyURL string, timeout time.Duration) *RESTFetcher {
	return &RESTFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  httpclient.New(proxyURL, timeout),
	}
}

func (f *RESTFetcher) Name() string { return "rest" }

// restBar is the expected JSON shape from the bar API.
type restBar struct {
	Timestamp int64    `json:"timestamp"`
	Open      *float64 `json:"open"`
	High      *float64 `json:"high"`
	Low       *float64 `json:"low"`
	Close     *float64 `json:"close"`
	Volume    *float64 `json:"volume"`
}

func (f *RESTFetcher) FetchHistory(ctx context.Context, symbol string, w period.Window) (*model.RawFrame, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("end", w.End.Format(model.DateLayout))
	if !w.Unbounded() {
		q.Set("start", w.Start.Format(model.DateLayout))
	}
	endpoint := fmt.Sprintf("%s/api/v1/bars/daily?%s", f.BaseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, permanent(err)
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return &model.RawFrame{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &StatusError{Code: resp.StatusCode, Body: truncate(string(body), 200)}
	}

	var bars []restBar
	if err := json.NewDecoder(resp.Body).Decode(&bars); err != nil {
		return nil, permanent(fmt.Errorf("decode bars: %w", err))
	}

	// Dates stay as epoch seconds; normalization parses them.
	frame := &model.RawFrame{Dates: make([]string, len(bars))}
	cols := make([][]float64, 5)
	for i := range cols {
		cols[i] = make([]float64, len(bars))
	}
	for i, b := range bars {
		frame.Dates[i] = strconv.FormatInt(b.Timestamp, 10)
		cols[0][i] = nullable(b.Open)
		cols[1][i] = nullable(b.High)
		cols[2][i] = nullable(b.Low)
		cols[3][i] = nullable(b.Close)
		cols[4][i] = nullable(b.Volume)
	}
	for i, name := range []string{"open", "high", "low", "close", "volume"} {
		frame.Columns = append(frame.Columns, model.Column{Label: []string{name}, Values: cols[i]})
	}
	return frame, nil
}
