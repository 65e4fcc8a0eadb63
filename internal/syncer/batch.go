package syncer

import (
	"context"

	"StockSync/internal/period"
	"StockSync/internal/store"
)

// Result is the outcome of one ticker in a batch.
type Result struct {
	Ticker string
	Rows   int
	Err    error
}

// Failed counts the results carrying an error.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// DownloadAll runs GetOrFetch for each ticker in turn. A failing ticker does
// not stop the batch; cancellation is honoured between tickers.
func (e *Engine) DownloadAll(ctx context.Context, tickers []string, p period.Spec) []Result {
	results := make([]Result, 0, len(tickers))
	for _, t := range tickers {
		if ctx.Err() != nil {
			break
		}
		series, err := e.GetOrFetch(ctx, t, p)
		if err != nil {
			e.log.Error().Err(err).Str("ticker", t).Msg("download failed")
		}
		results = append(results, Result{Ticker: t, Rows: len(series), Err: err})
	}
	return results
}

// UpdateEach runs IncrementalUpdate for each ticker in turn, with the same
// failure isolation as DownloadAll. The download marker is left alone.
func (e *Engine) UpdateEach(ctx context.Context, tickers []string) []Result {
	results := make([]Result, 0, len(tickers))
	for _, t := range tickers {
		if ctx.Err() != nil {
			break
		}
		n, err := e.IncrementalUpdate(ctx, t)
		if err != nil {
			e.log.Error().Err(err).Str("ticker", t).Msg("update failed")
		}
		results = append(results, Result{Ticker: t, Rows: n, Err: err})
	}
	return results
}

// UpdateAll is UpdateEach over a full ticker list. When every ticker
// succeeds the store's download marker is set to today.
func (e *Engine) UpdateAll(ctx context.Context, tickers []string) []Result {
	results := e.UpdateEach(ctx, tickers)
	if len(results) == len(tickers) && Failed(results) == 0 {
		if err := store.MarkDownloaded(ctx, e.Store, e.Now()); err != nil {
			e.log.Error().Err(err).Msg("record download date")
		}
	}
	return results
}
