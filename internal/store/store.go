package store

import (
	"context"
	"fmt"
	"time"

	"StockSync/internal/model"
	"StockSync/internal/period"
)

const (
	// DownloadDateKey records the day of the last complete refresh.
	DownloadDateKey = "download_date"
	// DefaultDownloadDate is seeded when the metadata table is created.
	DefaultDownloadDate = "1970-01-01"
)

// Store is durable, duplicate-safe storage of per-ticker daily bars.
type Store interface {
	EnsureSchema(ctx context.Context, ticker string) error
	ReadRange(ctx context.Context, ticker string, w period.Window) (model.Series, error)
	Lookup(ctx context.Context, ticker string, w period.Window) (model.Series, error)
	Append(ctx context.Context, ticker string, bars model.Series) (int, error)
	ListTickers(ctx context.Context) ([]string, error)
	GetMetadata(ctx context.Context, key string) (string, bool, error)
	SetMetadata(ctx context.Context, key, value string) error
	Close() error
}

// HasDownloadedToday reports whether the download marker equals now's date.
func HasDownloadedToday(ctx context.Context, s Store, now time.Time) (bool, error) {
	v, ok, err := s.GetMetadata(ctx, DownloadDateKey)
	if err != nil || !ok {
		return false, err
	}
	last, err := time.Parse(model.DateLayout, v)
	if err != nil {
		return false, &model.StorageError{Op: "get metadata", Err: fmt.Errorf("%s=%q: %w", DownloadDateKey, v, err)}
	}
	return last.Equal(model.Day(now)), nil
}

// MarkDownloaded sets the download marker to now's date.
func MarkDownloaded(ctx context.Context, s Store, now time.Time) error {
	return s.SetMetadata(ctx, DownloadDateKey, model.Day(now).Format(model.DateLayout))
}
