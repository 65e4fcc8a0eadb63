package cli

import (
	"fmt"

	"github.com/rs/zerolog"

	"StockSync/internal/collector"
	"StockSync/internal/config"
	"StockSync/internal/logger"
	"StockSync/internal/store"
	"StockSync/internal/syncer"
)

// env is the per-invocation wiring shared by the commands.
type env struct {
	cfg    *config.Config
	log    zerolog.Logger
	store  *store.SQLiteStore
	engine *syncer.Engine
}

func (o *rootOptions) loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}
	if o.dbPath != "" {
		cfg.Database.SQLitePath = o.dbPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("config validation: %w", err)
	}
	return cfg, logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty}), nil
}

// open loads config and opens the store. Callers must Close the env.
func (o *rootOptions) open() (*env, error) {
	cfg, log, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(cfg.Database.SQLitePath, log)
	if err != nil {
		return nil, err
	}
	f := collector.NewRetryingFetcher(newFetcher(cfg), cfg.DataSource.MaxRetries, cfg.DataSource.Backoff, log)
	log.Debug().Str("db", st.Path()).Str("source", f.Name()).Msg("environment ready")
	return &env{
		cfg:    cfg,
		log:    log,
		store:  st,
		engine: syncer.NewEngine(st, f, log),
	}, nil
}

func (e *env) Close() error {
	return e.store.Close()
}

func newFetcher(cfg *config.Config) collector.Fetcher {
	ds := cfg.DataSource
	switch ds.Provider {
	case "mock":
		return &collector.MockFetcher{Price: ds.MockPrice}
	case "rest":
		return collector.NewRESTFetcher(ds.BaseURL, ds.APIKey, cfg.Proxy, ds.Timeout)
	default:
		return collector.NewYahooFetcher(cfg.Proxy, ds.Timeout)
	}
}
