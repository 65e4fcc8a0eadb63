package cli

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"StockSync/internal/logger"
	"StockSync/internal/model"
	"StockSync/internal/store"
)

func offline(t *testing.T) string {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("STOCKSYNC_PROVIDER", "mock")
	t.Setenv("STOCKSYNC_DB", "")
	t.Setenv("LOG_LEVEL", "error")
	return filepath.Join(t.TempDir(), "stock_db.db")
}

func run(t *testing.T, db string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--db", db}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestDownloadListUpdate(t *testing.T) {
	db := offline(t)

	out, err := run(t, db, "download", "aapl, 2330.tw", "--period", "3m")
	require.NoError(t, err)
	assert.Contains(t, out, "Downloading AAPL, 2330.TW (period 3m)")
	assert.Contains(t, out, "✓ AAPL:")
	assert.Contains(t, out, "✓ 2330.TW:")

	out, err = run(t, db, "list")
	require.NoError(t, err)
	assert.Equal(t, "2330.TW\nAAPL\n", out)

	out, err = run(t, db, "update", "AAPL")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ AAPL:")

	out, err = run(t, db, "update")
	require.NoError(t, err)
	assert.Contains(t, out, "Updating 2330.TW, AAPL")

	st, err := store.Open(db, logger.Nop())
	require.NoError(t, err)
	defer st.Close()
	v, ok, err := st.GetMetadata(context.Background(), store.DownloadDateKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEqual(t, store.DefaultDownloadDate, v)
}

func TestUpdate_ReportsFailuresWithoutAborting(t *testing.T) {
	db := offline(t)
	_, err := run(t, db, "download", "AAPL", "--period", "1m")
	require.NoError(t, err)

	out, err := run(t, db, "update", "NEW,AAPL")
	require.Error(t, err)
	assert.Contains(t, out, "✗ NEW: not stored yet, run download first")
	assert.Contains(t, out, "✓ AAPL:")
	assert.EqualError(t, err, "1 of 2 tickers failed")
}

func TestList_Empty(t *testing.T) {
	db := offline(t)
	out, err := run(t, db, "list")
	require.NoError(t, err)
	assert.Equal(t, "No tickers stored.\n", out)
}

func TestIndexAndStats(t *testing.T) {
	db := offline(t)

	out, err := run(t, db, "index", "goog", "--year", "2020")
	require.NoError(t, err)
	assert.Contains(t, out, "📊 GOOG")
	assert.Contains(t, out, "MA20 ")
	assert.Contains(t, out, "MA200")
	assert.Contains(t, out, "30d range")
	assert.Contains(t, out, "2020 Q1: None")
	assert.Contains(t, out, "2020 year avg: None")

	out, err = run(t, db, "stats", "goog", "--period", "1y", "--risk-free", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "📊 GOOG over")
	assert.Contains(t, out, "Annualized volatility")
	assert.Contains(t, out, "Sharpe ratio (rf 0.00%)")
}

func TestAutofill(t *testing.T) {
	db := offline(t)
	path := filepath.Join(t.TempDir(), "book.xlsx")
	wb := excelize.NewFile()
	require.NoError(t, wb.SetSheetName("Sheet1", "MSFT"))
	require.NoError(t, wb.SaveAs(path))
	require.NoError(t, wb.Close())

	out, err := run(t, db, "autofill", path)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ MSFT")

	wb, err = excelize.OpenFile(path)
	require.NoError(t, err)
	defer wb.Close()
	v, err := wb.GetCellValue("MSFT", "B1")
	require.NoError(t, err)
	assert.Equal(t, "最新股價", v)
	v, err = wb.GetCellValue("MSFT", "B2")
	require.NoError(t, err)
	assert.NotEmpty(t, v)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "not stored yet, run download first", describe(&model.TickerNotFoundError{Ticker: "GOOG"}))
	assert.Equal(t, "not stored yet, run download first", describe(&model.NoLocalDataError{Ticker: "GOOG"}))
	assert.Equal(t, "unexpected data: no Close column", describe(&model.DataShapeError{Ticker: "GOOG", Reason: "no Close column"}))
	assert.Equal(t, "boom", describe(errors.New("boom")))
}

func TestInvalidProvider(t *testing.T) {
	db := offline(t)
	t.Setenv("STOCKSYNC_PROVIDER", "bloomberg")
	_, err := run(t, db, "list")
	assert.ErrorContains(t, err, "config validation")
}
