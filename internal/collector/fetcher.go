package collector

import (
	"context"

	"StockSync/internal/model"
	"StockSync/internal/period"
)

// Fetcher retrieves raw daily history for a ticker from a remote source.
// An empty frame with a nil error means the source has no rows for the window.
type Fetcher interface {
	FetchHistory(ctx context.Context, ticker string, w period.Window) (*model.RawFrame, error)
	Name() string
}
