package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"StockSync/internal/finviz"
	"StockSync/internal/notifier"
	"StockSync/internal/scheduler"
	"StockSync/internal/workbook"
)

func newAutofillCmd(opts *rootOptions) *cobra.Command {
	var wopts workbook.Options
	cmd := &cobra.Command{
		Use:   "autofill FILE",
		Short: "Fill latest prices and quarter medians into an xlsx workbook",
		Long: `Each sheet is named after a ticker. Row 1-2 receive the latest close and
MA20/50/200. Every row from 3 down marked "Y" in column B with a year in
column A receives the year average in column F and the Q4..Q1 medians in
the four rows below. The file is saved in place.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open()
			if err != nil {
				return err
			}
			defer e.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "🚀 Processing %s\n", args[0])
			reports, err := workbook.NewFiller(e.engine, e.store, e.log).Fill(cmd.Context(), args[0], wopts)
			for _, r := range reports {
				switch {
				case r.Err != nil:
					fmt.Fprintf(out, "  ✗ %s: %s\n", r.Sheet, describe(r.Err))
				case r.Skipped:
					fmt.Fprintf(out, "  ⚠️ %s: no data, skipped\n", r.Sheet)
				default:
					fmt.Fprintf(out, "  ✓ %s: years %v\n", r.Sheet, r.Years)
				}
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "✅ Saved %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&wopts.Stock, "stock", "", "only fill the sheet of this ticker")
	cmd.Flags().IntVar(&wopts.Year, "year", 0, "only fill this year's rows")
	return cmd
}

func newMarketCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "market STOCK",
		Short: "Show a fundamentals summary scraped from finviz",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := opts.loadConfig()
			if err != nil {
				return err
			}
			data, err := finviz.NewClient(cfg.Proxy, cfg.DataSource.Timeout).Snapshot(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "📊 %s fundamentals:\n", args[0])
			for _, k := range finviz.SummaryKeys {
				v, ok := data[k]
				if !ok {
					v = "n/a"
				}
				fmt.Fprintf(out, "%s: %s\n", k, v)
			}
			return nil
		},
	}
}

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var (
		cronSpec string
		runNow   bool
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Refresh every stored ticker on a cron schedule",
		Long: `Run until interrupted, updating every stored ticker on the six-field cron
schedule (seconds first). When Telegram is configured a summary is sent after
each refresh and /refresh and /list chat commands are answered.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open()
			if err != nil {
				return err
			}
			defer e.Close()

			if cronSpec == "" {
				cronSpec = e.cfg.Schedule.RefreshCron
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var tn *notifier.TelegramNotifier
			sched := scheduler.NewScheduler(ctx, e.engine, nil, e.log)
			if e.cfg.TelegramEnabled() {
				tn = notifier.NewTelegramNotifier(e.cfg.Telegram.BotToken, e.cfg.Telegram.ChatID, e.cfg.Proxy, e.log)
				sched.Notifier = tn
			}
			if err := sched.Register(cronSpec); err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()

			// Stop joins these before the store is closed.
			if tn != nil {
				sched.Go(func(ctx context.Context) { tn.StartPolling(ctx, sched.HandleCommand) })
			}
			if runNow {
				sched.Go(func(ctx context.Context) {
					if _, err := sched.Refresh(ctx, false); err != nil && !errors.Is(err, context.Canceled) {
						e.log.Error().Err(err).Msg("initial refresh")
					}
				})
			}

			e.log.Info().Str("cron", cronSpec).Msg("watching, press Ctrl+C to stop")
			<-ctx.Done()
			e.log.Info().Msg("shutdown signal received, stopping")
			return nil
		},
	}
	cmd.Flags().StringVar(&cronSpec, "cron", "", "refresh schedule (default from config)")
	cmd.Flags().BoolVar(&runNow, "now", false, "also refresh once at start")
	return cmd
}
