// Package syncer keeps the local price store in step with a remote source.
package syncer

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"StockSync/internal/collector"
	"StockSync/internal/model"
	"StockSync/internal/period"
	"StockSync/internal/store"
)

// Engine reconciles stored history with a remote source. It keeps no state
// of its own; the store handle is owned and closed by the caller.
type Engine struct {
	Store   store.Store
	Fetcher collector.Fetcher
	Now     func() time.Time
	log     zerolog.Logger
}

// NewEngine creates an Engine using the wall clock.
func NewEngine(s store.Store, f collector.Fetcher, log zerolog.Logger) *Engine {
	return &Engine{
		Store:   s,
		Fetcher: f,
		Now:     time.Now,
		log:     log.With().Str("component", "sync").Logger(),
	}
}

// GetOrFetch returns the stored series for p. Only when nothing is stored for
// the window is the whole window fetched, normalized and persisted. Stored
// data is never re-validated here; use IncrementalUpdate to refresh.
func (e *Engine) GetOrFetch(ctx context.Context, ticker string, p period.Spec) (model.Series, error) {
	t, err := model.NormalizeTicker(ticker)
	if err != nil {
		return model.Series{}, err
	}
	w := p.Resolve(e.Now())

	local, err := e.Store.ReadRange(ctx, t, w)
	if err != nil {
		return model.Series{}, err
	}
	if len(local) > 0 {
		e.log.Debug().Str("ticker", t).Str("window", w.String()).Int("rows", len(local)).Msg("serving from store")
		return local, nil
	}

	e.log.Info().Str("ticker", t).Str("period", p.String()).Str("source", e.Fetcher.Name()).Msg("downloading")
	frame, err := e.Fetcher.FetchHistory(ctx, t, w)
	if err != nil {
		return model.Series{}, &model.RemoteFetchError{Ticker: t, Source: e.Fetcher.Name(), Err: err}
	}
	if frame.Empty() {
		e.log.Warn().Str("ticker", t).Str("window", w.String()).Msg("source returned no rows")
		return model.Series{}, nil
	}
	rows, err := Normalize(t, frame)
	if err != nil {
		return model.Series{}, err
	}
	// Clip so that a second call reads back exactly what this one returned.
	rows = rows.Between(w.Start, w.End)
	if len(rows) == 0 {
		return model.Series{}, nil
	}

	n, err := e.Store.Append(ctx, t, rows)
	if err != nil {
		return model.Series{}, err
	}
	e.log.Info().Str("ticker", t).Int("rows", n).Msg("stored")
	return rows, nil
}

// IncrementalUpdate extends the stored series up to today and returns the
// number of new rows. It fails with *model.NoLocalDataError when nothing is
// stored yet; it never performs an initial download.
func (e *Engine) IncrementalUpdate(ctx context.Context, ticker string) (int, error) {
	t, err := model.NormalizeTicker(ticker)
	if err != nil {
		return 0, err
	}
	now := e.Now()
	local, err := e.Store.ReadRange(ctx, t, period.Max().Resolve(now))
	if err != nil {
		return 0, err
	}
	last, ok := local.Last()
	if !ok {
		return 0, &model.NoLocalDataError{Ticker: t}
	}
	latest := last.Date
	today := model.Day(now)
	if !latest.Before(today) {
		e.log.Debug().Str("ticker", t).Str("latest", latest.Format(model.DateLayout)).Msg("already current")
		return 0, nil
	}

	w := period.Window{Start: latest.AddDate(0, 0, 1), End: today}
	e.log.Info().Str("ticker", t).Str("window", w.String()).Msg("updating")
	frame, err := e.Fetcher.FetchHistory(ctx, t, w)
	if err != nil {
		return 0, &model.RemoteFetchError{Ticker: t, Source: e.Fetcher.Name(), Err: err}
	}
	if frame.Empty() {
		return 0, nil
	}
	rows, err := Normalize(t, frame)
	if err != nil {
		return 0, err
	}

	fresh := make(model.Series, 0, len(rows))
	for _, b := range rows {
		if b.Date.After(latest) {
			fresh = append(fresh, b)
		}
	}
	n, err := e.Store.Append(ctx, t, fresh)
	if err != nil {
		return 0, err
	}
	e.log.Info().Str("ticker", t).Int("rows", n).Msg("updated")
	return n, nil
}
