package collector

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockSync/internal/logger"
	"StockSync/internal/model"
	"StockSync/internal/period"
)

var window = period.Window{
	Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	End:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
}

const chartBody = `{"chart":{"result":[{
	"meta":{"symbol":"GOOG","gmtoffset":-18000},
	"timestamp":[1704205800,1704292200,1704378600],
	"indicators":{
		"quote":[{"open":[139.6,138.6,null],"high":[140.6,141.1,null],"low":[137.7,138.4,null],
		          "close":[139.56,140.36,null],"volume":[20071900,18974300,null]}],
		"adjclose":[{"adjclose":[139.4,140.2,null]}]}}],"error":null}}`

func TestYahooFetcher_FetchHistory(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/GOOG", r.URL.Path)
		gotQuery = r.URL.RawQuery
		w.Write([]byte(chartBody))
	}))
	defer srv.Close()

	f := NewYahooFetcher("", 5*time.Second)
	f.BaseURL = srv.URL
	frame, err := f.FetchHistory(context.Background(), "GOOG", window)
	require.NoError(t, err)

	assert.Contains(t, gotQuery, "period1=1704067200")
	assert.Contains(t, gotQuery, "period2=1706745600")
	assert.Equal(t, []string{"2024-01-02", "2024-01-03", "2024-01-04"}, frame.Dates)
	require.Len(t, frame.Columns, 6)
	assert.Equal(t, []string{"Close", "GOOG"}, frame.Columns[3].Label)
	assert.Equal(t, 139.56, frame.Columns[3].Values[0])
	assert.True(t, math.IsNaN(frame.Columns[3].Values[2]))
}

func TestYahooFetcher_UnboundedUsesRangeMax(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "max", r.URL.Query().Get("range"))
		assert.Empty(t, r.URL.Query().Get("period1"))
		w.Write([]byte(chartBody))
	}))
	defer srv.Close()

	f := NewYahooFetcher("", 5*time.Second)
	f.BaseURL = srv.URL
	_, err := f.FetchHistory(context.Background(), "GOOG", period.Window{End: window.End})
	require.NoError(t, err)
}

func TestYahooFetcher_NotFoundIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	}))
	defer srv.Close()

	f := NewYahooFetcher("", 5*time.Second)
	f.BaseURL = srv.URL
	frame, err := f.FetchHistory(context.Background(), "UNKNOWN", window)
	require.NoError(t, err)
	assert.True(t, frame.Empty())
}

func TestYahooFetcher_NoSessionInWindowIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Bad Request","description":"Data doesn't exist for startDate = 1719619200, endDate = 1719705600"}}}`))
	}))
	defer srv.Close()

	f := NewYahooFetcher("", 5*time.Second)
	f.BaseURL = srv.URL
	frame, err := f.FetchHistory(context.Background(), "GOOG", window)
	require.NoError(t, err)
	assert.True(t, frame.Empty())
}

func TestYahooFetcher_OtherBadRequestFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Bad Request","description":"Invalid input - interval=1x is not supported"}}}`))
	}))
	defer srv.Close()

	f := NewYahooFetcher("", 5*time.Second)
	f.BaseURL = srv.URL
	_, err := f.FetchHistory(context.Background(), "GOOG", window)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.Code)
}

func TestYahooFetcher_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := NewYahooFetcher("", 5*time.Second)
	f.BaseURL = srv.URL
	_, err := f.FetchHistory(context.Background(), "GOOG", window)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.Code)
	assert.True(t, Retryable(err))
}

func TestYahooFetcher_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(chartBody))
	}))
	defer srv.Close()

	f := NewYahooFetcher("", 20*time.Millisecond)
	f.BaseURL = srv.URL
	_, err := f.FetchHistory(context.Background(), "GOOG", window)
	assert.Error(t, err)
}

func TestRESTFetcher_FetchHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/bars/daily", r.URL.Path)
		assert.Equal(t, "2330.TW", r.URL.Query().Get("symbol"))
		assert.Equal(t, "2024-01-01", r.URL.Query().Get("start"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Write([]byte(`[{"timestamp":1704153600,"open":590,"high":593,"low":589,"close":593,"volume":26059058}]`))
	}))
	defer srv.Close()

	f := NewRESTFetcher(srv.URL, "secret", "", 5*time.Second)
	frame, err := f.FetchHistory(context.Background(), "2330.TW", window)
	require.NoError(t, err)
	assert.Equal(t, []string{"1704153600"}, frame.Dates)
	require.Len(t, frame.Columns, 5)
	assert.Equal(t, []string{"close"}, frame.Columns[3].Label)
	assert.Equal(t, 593.0, frame.Columns[3].Values[0])
}

func TestRESTFetcher_BadBodyNotRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>`))
	}))
	defer srv.Close()

	f := NewRESTFetcher(srv.URL, "", "", 5*time.Second)
	_, err := f.FetchHistory(context.Background(), "GOOG", window)
	require.Error(t, err)
	assert.False(t, Retryable(err))
}

type flakyFetcher struct {
	failures int32
	err      error
	calls    int32
}

func (f *flakyFetcher) Name() string { return "flaky" }

func (f *flakyFetcher) FetchHistory(context.Context, string, period.Window) (*model.RawFrame, error) {
	n := atomic.AddInt32(&f.calls, 1)
	if n <= f.failures {
		return nil, f.err
	}
	return &model.RawFrame{Dates: []string{"2024-01-02"}}, nil
}

func TestRetryingFetcher_RecoversFromTransientErrors(t *testing.T) {
	inner := &flakyFetcher{failures: 2, err: &StatusError{Code: 503}}
	r := NewRetryingFetcher(inner, 3, time.Millisecond, logger.Nop())

	frame, err := r.FetchHistory(context.Background(), "GOOG", window)
	require.NoError(t, err)
	assert.False(t, frame.Empty())
	assert.EqualValues(t, 3, inner.calls)
}

func TestRetryingFetcher_GivesUp(t *testing.T) {
	inner := &flakyFetcher{failures: 10, err: errors.New("connection reset")}
	r := NewRetryingFetcher(inner, 3, time.Millisecond, logger.Nop())

	_, err := r.FetchHistory(context.Background(), "GOOG", window)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 3 attempts failed")
	assert.EqualValues(t, 3, inner.calls)
}

func TestRetryingFetcher_DoesNotRetryClientErrors(t *testing.T) {
	inner := &flakyFetcher{failures: 10, err: &StatusError{Code: 401}}
	r := NewRetryingFetcher(inner, 3, time.Millisecond, logger.Nop())

	_, err := r.FetchHistory(context.Background(), "GOOG", window)
	require.Error(t, err)
	assert.EqualValues(t, 1, inner.calls)
}

func TestRetryingFetcher_StopsOnCancel(t *testing.T) {
	inner := &flakyFetcher{failures: 10, err: &StatusError{Code: 500}}
	r := NewRetryingFetcher(inner, 3, time.Hour, logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := r.FetchHistory(ctx, "GOOG", window)
	assert.ErrorIs(t, err, context.Canceled)
	assert.EqualValues(t, 1, inner.calls)
}

func TestMockFetcher_Synthetic(t *testing.T) {
	m := &MockFetcher{Price: 100}
	frame, err := m.FetchHistory(context.Background(), "GOOG", window)
	require.NoError(t, err)
	// January 2024 has 23 weekdays.
	assert.Len(t, frame.Dates, 23)
	assert.Equal(t, 1, m.Calls())
	assert.Equal(t, []period.Window{window}, m.Requests())
}

func TestMockFetcher_ConfiguredFrames(t *testing.T) {
	m := &MockFetcher{Frames: map[string]*model.RawFrame{}}
	frame, err := m.FetchHistory(context.Background(), "GOOG", window)
	require.NoError(t, err)
	assert.True(t, frame.Empty())
}
