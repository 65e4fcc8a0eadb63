// Package scheduler runs the periodic refresh of every stored ticker.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"StockSync/internal/notifier"
	"StockSync/internal/store"
	"StockSync/internal/syncer"
)

// Scheduler manages the refresh cron job.
type Scheduler struct {
	Cron     *cron.Cron
	Engine   *syncer.Engine
	Notifier notifier.Notifier // optional
	Ctx      context.Context

	mu  sync.Mutex // one refresh at a time
	wg  sync.WaitGroup
	log zerolog.Logger
}

// NewScheduler creates a new Scheduler. n may be nil.
func NewScheduler(ctx context.Context, e *syncer.Engine, n notifier.Notifier, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Engine:   e,
		Notifier: n,
		Ctx:      ctx,
		log:      log.With().Str("component", "scheduler").Logger(),
	}
}

// Register adds the refresh job on the given six-field cron spec.
func (s *Scheduler) Register(refreshCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, func() { s.Refresh(s.Ctx, false) }); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info().Int("jobs", len(s.Cron.Entries())).Msg("scheduler started")
}

// Go runs fn with the scheduler's context in the background. Stop waits for
// it to return.
func (s *Scheduler) Go(fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(s.Ctx)
	}()
}

// Stop stops the cron scheduler and waits for running jobs, background work
// started with Go and any in-flight refresh to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.wg.Wait()
	s.mu.Lock()
	s.mu.Unlock()
	s.log.Info().Msg("scheduler stopped")
}

// Refresh runs UpdateAll over every stored ticker. Unless force is set it
// does nothing when a complete refresh already happened today. It returns
// nil results when skipped.
func (s *Scheduler) Refresh(ctx context.Context, force bool) ([]syncer.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := s.Engine.Now()
	if !force {
		done, err := store.HasDownloadedToday(ctx, s.Engine.Store, now)
		if err != nil {
			s.log.Error().Err(err).Msg("read download marker")
			return nil, err
		}
		if done {
			s.log.Info().Msg("already refreshed today, skipping")
			return nil, nil
		}
	}

	tickers, err := s.Engine.Store.ListTickers(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("list tickers")
		s.trySend(ctx, fmt.Sprintf("❌ refresh failed: %v", err))
		return nil, err
	}
	s.log.Info().Int("tickers", len(tickers)).Msg("running refresh")
	results := s.Engine.UpdateAll(ctx, tickers)
	s.log.Info().Int("tickers", len(results)).Int("failed", syncer.Failed(results)).Msg("refresh finished")

	s.trySend(ctx, notifier.FormatRefreshReport(now, results))
	return results, nil
}

// HandleCommand answers a chat command and returns the reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	name := ""
	if f := strings.Fields(command); len(f) > 0 {
		name = strings.ToLower(f[0])
	}
	switch name {
	case "/refresh":
		// Refresh sends its own report.
		if _, err := s.Refresh(ctx, true); err != nil {
			return fmt.Sprintf("❌ refresh failed: %v", err)
		}
		return ""
	case "/list":
		tickers, err := s.Engine.Store.ListTickers(ctx)
		if err != nil {
			return fmt.Sprintf("❌ list failed: %v", err)
		}
		return notifier.FormatTickerList(tickers)
	default:
		return "Available commands:\n• /refresh\n• /list"
	}
}

func (s *Scheduler) trySend(ctx context.Context, text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(ctx, text, 3); err != nil {
		s.log.Error().Err(err).Msg("send notification")
	}
}
