package model

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTicker is returned for tickers outside the allowed character set.
	ErrInvalidTicker = errors.New("invalid ticker")
	// ErrClosed is returned by a store that has been closed.
	ErrClosed = errors.New("store is closed")
)

// RemoteFetchError reports a network or status failure reaching the price source.
type RemoteFetchError struct {
	Ticker string
	Source string
	Err    error
}

func (e *RemoteFetchError) Error() string {
	return fmt.Sprintf("fetch %s from %s: %v", e.Ticker, e.Source, e.Err)
}

func (e *RemoteFetchError) Unwrap() error { return e.Err }

// DataShapeError reports fetched data that lacks required columns or cannot be parsed.
type DataShapeError struct {
	Ticker string
	Reason string
}

func (e *DataShapeError) Error() string {
	return fmt.Sprintf("bad data shape for %s: %s", e.Ticker, e.Reason)
}

// NoLocalDataError is returned when an incremental update has nothing to extend.
type NoLocalDataError struct {
	Ticker string
}

func (e *NoLocalDataError) Error() string {
	return fmt.Sprintf("no local data for %s, download it first", e.Ticker)
}

// StorageError wraps a persistence layer failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// TickerNotFoundError is returned when a ticker has no materialized table.
type TickerNotFoundError struct {
	Ticker string
}

func (e *TickerNotFoundError) Error() string {
	return fmt.Sprintf("ticker %s not found in store", e.Ticker)
}
