package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"StockSync/internal/model"
	"StockSync/internal/period"
)

// SQLiteStore persists per-ticker daily bars and metadata in a SQLite database.
// It is meant for a single process performing sequential operations.
type SQLiteStore struct {
	mu     sync.Mutex
	db     *sql.DB
	path   string
	log    zerolog.Logger
	closed bool
}

// Open opens (or creates) the database at path and seeds the metadata table.
// The caller must Close the store.
func Open(path string, log zerolog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &model.StorageError{Op: "open", Err: err}
	}
	// One connection: a :memory: database lives per connection, and writes
	// are serialized anyway.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, path: path, log: log.With().Str("component", "store").Logger()}
	ctx := context.Background()
	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, &model.StorageError{Op: "open", Err: fmt.Errorf("%s: %w", pragma, err)}
		}
	}
	if err := s.ensureMetadata(ctx); err != nil {
		db.Close()
		return nil, &model.StorageError{Op: "open", Err: err}
	}

	s.log.Debug().Str("path", path).Msg("sqlite store opened")
	return s, nil
}

// Path returns the database location.
func (s *SQLiteStore) Path() string { return s.path }

// acquire locks the store and fails once it is closed. Callers must unlock.
func (s *SQLiteStore) acquire(op string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return &model.StorageError{Op: op, Err: model.ErrClosed}
	}
	return nil
}

func (s *SQLiteStore) ensureMetadata(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS metadata (
			param TEXT PRIMARY KEY,
			value TEXT
		)`); err != nil {
		return fmt.Errorf("create metadata: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO metadata (param, value) VALUES (?, ?)`,
		DownloadDateKey, DefaultDownloadDate)
	if err != nil {
		return fmt.Errorf("seed metadata: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		s.log.Info().Str("param", DownloadDateKey).Str("value", DefaultDownloadDate).Msg("metadata initialized")
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func ensureTable(ctx context.Context, db execer, table string) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+quote(table)+` (
			Date   TEXT UNIQUE,
			Open   REAL,
			High   REAL,
			Low    REAL,
			Close  REAL,
			Volume REAL
		)`)
	if err != nil {
		return fmt.Errorf("create %s: %w", table, err)
	}
	return nil
}

func (s *SQLiteStore) tableExists(ctx context.Context, table string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// EnsureSchema creates the ticker table and the metadata table if absent.
func (s *SQLiteStore) EnsureSchema(ctx context.Context, ticker string) error {
	table, err := TableName(ticker)
	if err != nil {
		return err
	}
	if err := s.acquire("ensure schema"); err != nil {
		return err
	}
	defer s.mu.Unlock()

	if err := ensureTable(ctx, s.db, table); err != nil {
		return &model.StorageError{Op: "ensure schema", Err: err}
	}
	if err := s.ensureMetadata(ctx); err != nil {
		return &model.StorageError{Op: "ensure schema", Err: err}
	}
	return nil
}

// ReadRange returns the bars inside w in ascending date order. A ticker
// without a table yields an empty series and no error.
func (s *SQLiteStore) ReadRange(ctx context.Context, ticker string, w period.Window) (model.Series, error) {
	series, _, err := s.read(ctx, "read range", ticker, w)
	return series, err
}

// Lookup is ReadRange for callers that need to tell an unknown ticker apart:
// it returns *model.TickerNotFoundError when the ticker has no table.
func (s *SQLiteStore) Lookup(ctx context.Context, ticker string, w period.Window) (model.Series, error) {
	series, found, err := s.read(ctx, "lookup", ticker, w)
	if err != nil {
		return nil, err
	}
	if !found {
		norm, _ := model.NormalizeTicker(ticker)
		return nil, &model.TickerNotFoundError{Ticker: norm}
	}
	return series, nil
}

func (s *SQLiteStore) read(ctx context.Context, op, ticker string, w period.Window) (model.Series, bool, error) {
	table, err := TableName(ticker)
	if err != nil {
		return nil, false, err
	}
	if err := s.acquire(op); err != nil {
		return nil, false, err
	}
	defer s.mu.Unlock()

	exists, err := s.tableExists(ctx, table)
	if err != nil {
		return nil, false, &model.StorageError{Op: op, Err: err}
	}
	if !exists {
		return model.Series{}, false, nil
	}

	// Upper bound is exclusive on the next day so that legacy rows stored as
	// "YYYY-MM-DD HH:MM:SS" on the last day still match.
	query := `SELECT Date, Open, High, Low, Close, Volume FROM ` + quote(table) + ` WHERE Date < ?`
	args := []any{w.End.AddDate(0, 0, 1).Format(model.DateLayout)}
	if !w.Unbounded() {
		query += ` AND Date >= ?`
		args = append(args, w.Start.Format(model.DateLayout))
	}
	query += ` ORDER BY Date ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, true, &model.StorageError{Op: op, Err: err}
	}
	defer rows.Close()

	series := model.Series{}
	seen := make(map[time.Time]bool)
	for rows.Next() {
		var (
			date          string
			o, h, l, c, v sql.NullFloat64
		)
		if err := rows.Scan(&date, &o, &h, &l, &c, &v); err != nil {
			return nil, true, &model.StorageError{Op: op, Err: err}
		}
		d, err := parseStoredDate(date)
		if err != nil {
			return nil, true, &model.StorageError{Op: op, Err: fmt.Errorf("%s: %w", table, err)}
		}
		if seen[d] {
			continue
		}
		seen[d] = true
		series = append(series, model.OHLCV{
			Date:   d,
			Open:   o.Float64,
			High:   h.Float64,
			Low:    l.Float64,
			Close:  c.Float64,
			Volume: v.Float64,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, true, &model.StorageError{Op: op, Err: err}
	}
	sort.SliceStable(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })
	return series, true, nil
}

func parseStoredDate(s string) (time.Time, error) {
	if len(s) < len(model.DateLayout) {
		return time.Time{}, fmt.Errorf("bad date %q", s)
	}
	d, err := time.Parse(model.DateLayout, s[:len(model.DateLayout)])
	if err != nil {
		return time.Time{}, fmt.Errorf("bad date %q: %w", s, err)
	}
	return d, nil
}

// Append inserts the bars whose date is not stored yet and returns how many
// were inserted. Existing dates are skipped, never overwritten. The whole call
// is one transaction. An empty input touches nothing.
func (s *SQLiteStore) Append(ctx context.Context, ticker string, bars model.Series) (int, error) {
	if len(bars) == 0 {
		return 0, nil
	}
	table, err := TableName(ticker)
	if err != nil {
		return 0, err
	}
	if err := s.acquire("append"); err != nil {
		return 0, err
	}
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &model.StorageError{Op: "append", Err: err}
	}
	defer tx.Rollback()

	if err := ensureTable(ctx, tx, table); err != nil {
		return 0, &model.StorageError{Op: "append", Err: err}
	}

	// The [day, next day) range also catches legacy "YYYY-MM-DD HH:MM:SS" keys
	// and stays on the Date index.
	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO `+quote(table)+`
		(Date, Open, High, Low, Close, Volume)
		SELECT ?, ?, ?, ?, ?, ?
		WHERE NOT EXISTS (SELECT 1 FROM `+quote(table)+` WHERE Date >= ? AND Date < ?)`)
	if err != nil {
		return 0, &model.StorageError{Op: "append", Err: err}
	}
	defer stmt.Close()

	inserted := 0
	for _, b := range bars {
		date := b.Date.Format(model.DateLayout)
		next := b.Date.AddDate(0, 0, 1).Format(model.DateLayout)
		res, err := stmt.ExecContext(ctx, date, b.Open, b.High, b.Low, b.Close, b.Volume, date, next)
		if err != nil {
			return 0, &model.StorageError{Op: "append", Err: fmt.Errorf("%s %s: %w", table, date, err)}
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, &model.StorageError{Op: "append", Err: err}
		}
		inserted += int(n)
	}
	if err := tx.Commit(); err != nil {
		return 0, &model.StorageError{Op: "append", Err: err}
	}

	s.log.Debug().Str("table", table).Int("offered", len(bars)).Int("inserted", inserted).Msg("append")
	return inserted, nil
}

// ListTickers returns the tickers that have a table, sorted.
func (s *SQLiteStore) ListTickers(ctx context.Context) ([]string, error) {
	if err := s.acquire("list tickers"); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name LIKE 't\_%' ESCAPE '\'`)
	if err != nil {
		return nil, &model.StorageError{Op: "list tickers", Err: err}
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, &model.StorageError{Op: "list tickers", Err: err}
		}
		if t, ok := TickerFromTable(name); ok {
			tickers = append(tickers, t)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, &model.StorageError{Op: "list tickers", Err: err}
	}
	sort.Strings(tickers)
	return tickers, nil
}

// GetMetadata returns the value stored under key.
func (s *SQLiteStore) GetMetadata(ctx context.Context, key string) (string, bool, error) {
	if err := s.acquire("get metadata"); err != nil {
		return "", false, err
	}
	defer s.mu.Unlock()

	var value sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE param = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &model.StorageError{Op: "get metadata", Err: err}
	}
	return value.String, true, nil
}

// SetMetadata stores value under key, replacing any previous value.
func (s *SQLiteStore) SetMetadata(ctx context.Context, key, value string) error {
	if err := s.acquire("set metadata"); err != nil {
		return err
	}
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `INSERT INTO metadata (param, value) VALUES (?, ?)
		ON CONFLICT(param) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return &model.StorageError{Op: "set metadata", Err: err}
	}
	return nil
}

// Close releases the database. Later calls fail with model.ErrClosed; closing
// twice is a no-op.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.log.Debug().Str("path", s.path).Msg("closing sqlite store")
	if err := s.db.Close(); err != nil {
		return &model.StorageError{Op: "close", Err: err}
	}
	return nil
}
