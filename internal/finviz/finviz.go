// Package finviz scrapes the fundamentals snapshot table from finviz.com.
package finviz

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"StockSync/internal/httpclient"
)

// DefaultBaseURL is the quote page host.
const DefaultBaseURL = "https://finviz.com"

// ErrNoSnapshot is returned when the page has no snapshot table.
var ErrNoSnapshot = errors.New("finviz: snapshot table not found")

// SummaryKeys are the fields shown by the market command, in display order.
var SummaryKeys = []string{"EPS (ttm)", "ROE", "Gross Margin", "Debt/Eq", "P/E", "Forward P/E"}

// Client fetches quote pages.
type Client struct {
	BaseURL   string
	UserAgent string
	HTTP      *http.Client
}

// NewClient creates a client with optional proxy support.
func NewClient(proxyURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL:   DefaultBaseURL,
		UserAgent: "Mozilla/5.0",
		HTTP:      httpclient.New(proxyURL, timeout),
	}
}

// Snapshot returns the key/value pairs of the quote page's snapshot table.
func (c *Client) Snapshot(ctx context.Context, ticker string) (map[string]string, error) {
	u := fmt.Sprintf("%s/quote.ashx?t=%s", c.BaseURL, url.QueryEscape(strings.ToUpper(ticker)))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ticker, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", ticker, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", ticker, err)
	}
	return parseSnapshot(doc)
}

// parseSnapshot reads each row of table.snapshot-table2 as alternating
// label and value cells.
func parseSnapshot(doc *goquery.Document) (map[string]string, error) {
	table := doc.Find("table.snapshot-table2").First()
	if table.Length() == 0 {
		return nil, ErrNoSnapshot
	}
	data := make(map[string]string)
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		for i := 0; i+1 < cells.Length(); i += 2 {
			key := strings.TrimSpace(cells.Eq(i).Text())
			if key == "" {
				continue
			}
			data[key] = strings.TrimSpace(cells.Eq(i + 1).Text())
		}
	})
	return data, nil
}
