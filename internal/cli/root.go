// Package cli implements the stocksync command line.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	dbPath     string
}

// NewRootCmd builds the stocksync command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "stocksync",
		Short: "Local daily stock price store kept in sync with a remote source",
		Long: `stocksync downloads daily OHLCV history into a local SQLite database,
keeps it current with incremental updates and derives moving averages,
quarter medians and risk statistics from the stored data.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "configs/config.yaml", "path to the YAML config file")
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "SQLite database path (overrides config)")

	root.AddCommand(
		newDownloadCmd(opts),
		newUpdateCmd(opts),
		newListCmd(opts),
		newIndexCmd(opts),
		newStatsCmd(opts),
		newAutofillCmd(opts),
		newMarketCmd(opts),
		newWatchCmd(opts),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
