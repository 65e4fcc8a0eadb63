package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"StockSync/internal/httpclient"
	"StockSync/internal/model"
	"StockSync/internal/period"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements Fetcher using the Yahoo Finance chart API.
type YahooFetcher struct {
	BaseURL   string
	Client    *http.Client
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahooFetcher creates a Yahoo Finance fetcher with a bounded timeout and
// optional proxy.
func NewYahooFetcher(proxyURL string, timeout time.Duration) *YahooFetcher {
	return &YahooFetcher{
		BaseURL: yahooBaseURL,
		Client:  httpclient.New(proxyURL, timeout),
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// yahooChart is the response structure from the Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol    string `json:"symbol"`
				GMTOffset int64  `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"chart"`
}

func (f *YahooFetcher) chartURL(symbol string, w period.Window) string {
	q := url.Values{}
	q.Set("interval", "1d")
	q.Set("events", "history")
	if w.Unbounded() {
		q.Set("range", "max")
	} else {
		q.Set("period1", strconv.FormatInt(w.Start.Unix(), 10))
		q.Set("period2", strconv.FormatInt(w.End.AddDate(0, 0, 1).Unix(), 10))
	}
	return fmt.Sprintf("%s/v8/finance/chart/%s?%s", f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)), q.Encode())
}

// FetchHistory downloads daily bars in w. Columns carry two-level labels
// [field, symbol]; dates are exchange-local trading days.
func (f *YahooFetcher) FetchHistory(ctx context.Context, symbol string, w period.Window) (*model.RawFrame, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.chartURL(symbol, w), nil)
	if err != nil {
		return nil, permanent(err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}

	var chart yahooChart
	decodeErr := json.Unmarshal(body, &chart)
	if decodeErr == nil && emptyWindow(chart.Chart.Error) {
		return &model.RawFrame{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Body: truncate(string(body), 200)}
	}
	if decodeErr != nil {
		return nil, permanent(fmt.Errorf("yahoo decode: %w", decodeErr))
	}
	if chart.Chart.Error != nil {
		return nil, permanent(fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description))
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return &model.RawFrame{}, nil
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, permanent(fmt.Errorf("yahoo: no quote indicators"))
	}
	quote := result.Indicators.Quote[0]
	sym := result.Meta.Symbol
	if sym == "" {
		sym = symbol
	}

	n := len(result.Timestamp)
	frame := &model.RawFrame{Dates: make([]string, n)}
	for i, ts := range result.Timestamp {
		frame.Dates[i] = time.Unix(ts+result.Meta.GMTOffset, 0).UTC().Format(model.DateLayout)
	}
	add := func(name string, vals []*float64) {
		if vals == nil {
			return
		}
		col := make([]float64, len(vals))
		for i, v := range vals {
			col[i] = nullable(v)
		}
		frame.Columns = append(frame.Columns, model.Column{Label: []string{name, sym}, Values: col})
	}
	add("Open", quote.Open)
	add("High", quote.High)
	add("Low", quote.Low)
	add("Close", quote.Close)
	if len(result.Indicators.AdjClose) > 0 {
		add("Adj Close", result.Indicators.AdjClose[0].AdjClose)
	}
	add("Volume", quote.Volume)
	return frame, nil
}

// emptyWindow reports whether a chart error only means there are no bars:
// unknown symbols come back as "Not Found", and windows without a trading
// session (weekends, holidays) as a 400 "Data doesn't exist for ...".
func emptyWindow(e *yahooError) bool {
	if e == nil {
		return false
	}
	return e.Code == "Not Found" || strings.HasPrefix(e.Description, "Data doesn't exist")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
