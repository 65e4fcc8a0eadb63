package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"StockSync/internal/calculator"
	"StockSync/internal/model"
	"StockSync/internal/period"
)

func newIndexCmd(opts *rootOptions) *cobra.Command {
	var (
		periodFlag string
		year       int
	)
	cmd := &cobra.Command{
		Use:   "index STOCK",
		Short: "Show the latest close, moving averages and quarter medians",
		Long: `Show the latest close, MA20/50/200, RSI14, the 52-week and 30-day
ranges and the quarter median closes of a year. Missing history is downloaded first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open()
			if err != nil {
				return err
			}
			defer e.Close()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			ticker, err := model.NormalizeTicker(args[0])
			if err != nil {
				return err
			}
			series, err := e.engine.GetOrFetch(ctx, ticker, period.Parse(periodFlag))
			if err != nil {
				return err
			}
			last, ok := series.Last()
			if !ok {
				fmt.Fprintln(out, "⚠️ No data, check the ticker or the network connection.")
				return nil
			}

			fmt.Fprintf(out, "\n📊 %s (as of %s)\n", ticker, last.Date.Format(model.DateLayout))
			fmt.Fprintf(out, "Latest close: %.2f\n", last.Close)
			mas := calculator.MovingAverages(series, 20, 50, 200)
			for _, n := range []int{20, 50, 200} {
				fmt.Fprintf(out, "MA%-3d        %s\n", n, optional(mas, n))
			}
			if rsi, err := calculator.CalculateRSI(series, 14); err == nil {
				fmt.Fprintf(out, "RSI14        %.1f\n", rsi)
			}
			if high, low, err := calculator.Calculate52WeekRange(series); err == nil {
				pos, _ := calculator.Calculate52WeekPosition(last.Close, high, low)
				fmt.Fprintf(out, "52w range    %.2f - %.2f (%.0f%%)\n", low, high, pos*100)
			}
			if high, low, err := calculator.Calculate30DayRange(series); err == nil {
				fmt.Fprintf(out, "30d range    %.2f - %.2f\n", low, high)
			}

			if year == 0 {
				year = e.engine.Now().Year()
			}
			bars, err := e.store.Lookup(ctx, ticker, period.Year(year).Resolve(e.engine.Now()))
			if err != nil {
				return fmt.Errorf("%s: %s", ticker, describe(err))
			}
			printQuarters(out, calculator.QuarterMedians(bars, year))
			return nil
		},
	}
	cmd.Flags().StringVarP(&periodFlag, "period", "p", "1y", "history period used for the averages")
	cmd.Flags().IntVar(&year, "year", 0, "year of the quarter medians (default current year)")
	return cmd
}

func printQuarters(out io.Writer, r calculator.QuarterReport) {
	fmt.Fprintln(out, "#########################################################")
	fmt.Fprintln(out, "📈 Median pricing:")
	for q := 1; q <= 4; q++ {
		fmt.Fprintf(out, " %d Q%d: %s\n", r.Year, q, orNone(r.Quarter(q)))
	}
	fmt.Fprintf(out, " %d year avg: %s\n", r.Year, orNone(r.YearAvg))
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	var (
		periodFlag string
		riskFree   float64
	)
	cmd := &cobra.Command{
		Use:   "stats STOCK",
		Short: "Show annualized volatility, return and Sharpe ratio",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open()
			if err != nil {
				return err
			}
			defer e.Close()

			if !cmd.Flags().Changed("risk-free") {
				riskFree = e.cfg.Analytics.RiskFreeRate
			}
			ticker, err := model.NormalizeTicker(args[0])
			if err != nil {
				return err
			}
			series, err := e.engine.GetOrFetch(cmd.Context(), ticker, period.Parse(periodFlag))
			if err != nil {
				return err
			}
			closes := series.Closes()
			std, err := calculator.AnnualizedStdDev(closes)
			if err != nil {
				return fmt.Errorf("%s: %w", ticker, err)
			}
			ret, err := calculator.AnnualizedReturn(closes)
			if err != nil {
				return fmt.Errorf("%s: %w", ticker, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "📊 %s over %d trading days (%s to %s)\n", ticker, len(series),
				series[0].Date.Format(model.DateLayout), series[len(series)-1].Date.Format(model.DateLayout))
			fmt.Fprintf(out, "Annualized volatility: %.2f%%\n", std*100)
			fmt.Fprintf(out, "Annualized return:     %.2f%%\n", ret*100)
			if sharpe, err := calculator.SharpeRatio(closes, riskFree); err == nil {
				fmt.Fprintf(out, "Sharpe ratio (rf %.2f%%): %.2f\n", riskFree*100, sharpe)
			} else {
				fmt.Fprintf(out, "Sharpe ratio: n/a (%v)\n", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&periodFlag, "period", "p", period.Default.String(), "history period")
	cmd.Flags().Float64Var(&riskFree, "risk-free", 0.03, "annual risk-free rate (default from config)")
	return cmd
}

func optional(m map[int]float64, k int) string {
	if v, ok := m[k]; ok {
		return fmt.Sprintf("%.2f", v)
	}
	return "n/a"
}

func orNone(v *float64) string {
	if v == nil {
		return "None"
	}
	return fmt.Sprintf("%.2f", *v)
}
