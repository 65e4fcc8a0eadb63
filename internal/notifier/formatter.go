package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"StockSync/internal/syncer"
)

// FormatRefreshReport formats the outcome of a scheduled refresh.
func FormatRefreshReport(now time.Time, results []syncer.Result) string {
	var b strings.Builder

	failed := syncer.Failed(results)
	b.WriteString(fmt.Sprintf("📊 <b>StockSync refresh</b> | %s\n\n", now.Format("2006-01-02")))
	if len(results) == 0 {
		b.WriteString("No stored tickers.\n")
		return b.String()
	}

	added := 0
	for _, r := range results {
		if r.Err != nil {
			b.WriteString(fmt.Sprintf("❌ %s: %s\n", r.Ticker, html.EscapeString(r.Err.Error())))
			continue
		}
		added += r.Rows
		b.WriteString(fmt.Sprintf("✅ %s: +%d\n", r.Ticker, r.Rows))
	}
	b.WriteString(fmt.Sprintf("\n%d tickers, %d new rows, %d failed", len(results), added, failed))
	return b.String()
}

// FormatTickerList formats the stored tickers as a chat reply.
func FormatTickerList(tickers []string) string {
	if len(tickers) == 0 {
		return "📦 No stored tickers."
	}
	return fmt.Sprintf("📦 <b>%d stored tickers</b>\n%s", len(tickers), strings.Join(tickers, ", "))
}
