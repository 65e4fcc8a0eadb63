package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"StockSync/internal/model"
	"StockSync/internal/period"
	"StockSync/internal/syncer"
)

func newDownloadCmd(opts *rootOptions) *cobra.Command {
	var periodFlag string
	cmd := &cobra.Command{
		Use:   "download STOCKS",
		Short: "Download history for comma-separated tickers into the database",
		Long: `Download daily history for each ticker, e.g. "2330.TW,2412.TW,00675L.TW,GOOG".
Tickers already stored for the period are served from the database.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open()
			if err != nil {
				return err
			}
			defer e.Close()

			tickers := model.SplitTickers(args[0])
			p := period.Parse(periodFlag)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Downloading %s (period %s)\n", strings.Join(tickers, ", "), p)
			results := e.engine.DownloadAll(cmd.Context(), tickers, p)
			return report(out, results, len(tickers), func(r syncer.Result) string {
				if r.Rows == 0 {
					return "no data returned, check the ticker"
				}
				return fmt.Sprintf("%d rows loaded", r.Rows)
			})
		},
	}
	cmd.Flags().StringVarP(&periodFlag, "period", "p", period.Default.String(), "history period: Ny, Nm, Nd, max or START:END")
	return cmd
}

func newUpdateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "update [STOCKS]",
		Short: "Append the newest rows for stored tickers",
		Long: `Extend each ticker's stored history up to today. Without arguments every
stored ticker is updated and the download date is recorded on success.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open()
			if err != nil {
				return err
			}
			defer e.Close()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			all := len(args) == 0
			var tickers []string
			if all {
				if tickers, err = e.store.ListTickers(ctx); err != nil {
					return err
				}
			} else {
				tickers = model.SplitTickers(args[0])
			}
			fmt.Fprintf(out, "Updating %s\n", strings.Join(tickers, ", "))

			var results []syncer.Result
			if all {
				results = e.engine.UpdateAll(ctx, tickers)
			} else {
				results = e.engine.UpdateEach(ctx, tickers)
			}
			return report(out, results, len(tickers), func(r syncer.Result) string {
				return fmt.Sprintf("%d new rows", r.Rows)
			})
		},
	}
}

func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tickers stored in the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open()
			if err != nil {
				return err
			}
			defer e.Close()

			tickers, err := e.store.ListTickers(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(tickers) == 0 {
				fmt.Fprintln(out, "No tickers stored.")
				return nil
			}
			for _, t := range tickers {
				fmt.Fprintln(out, t)
			}
			return nil
		},
	}
}

// report prints one line per result and fails when any ticker failed or the
// batch stopped early.
func report(out io.Writer, results []syncer.Result, want int, ok func(syncer.Result) string) error {
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(out, "  ✗ %s: %s\n", r.Ticker, describe(r.Err))
			continue
		}
		fmt.Fprintf(out, "  ✓ %s: %s\n", r.Ticker, ok(r))
	}
	failed := syncer.Failed(results)
	switch {
	case len(results) < want:
		return fmt.Errorf("interrupted after %d of %d tickers", len(results), want)
	case failed > 0:
		return fmt.Errorf("%d of %d tickers failed", failed, want)
	}
	fmt.Fprintln(out, "Done.")
	return nil
}

// describe turns known error kinds into a short hint for the user.
func describe(err error) string {
	var nld *model.NoLocalDataError
	var rfe *model.RemoteFetchError
	var dse *model.DataShapeError
	var tnf *model.TickerNotFoundError
	switch {
	case errors.As(err, &nld), errors.As(err, &tnf):
		return "not stored yet, run download first"
	case errors.Is(err, model.ErrInvalidTicker):
		return err.Error()
	case errors.As(err, &rfe):
		return fmt.Sprintf("remote source failed: %v", rfe.Err)
	case errors.As(err, &dse):
		return fmt.Sprintf("unexpected data: %s", dse.Reason)
	}
	return err.Error()
}
