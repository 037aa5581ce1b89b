package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/flightdash/internal/config"
	"github.com/KaramelBytes/flightdash/internal/table"
)

var (
	// Global flags
	cfgFile  string
	debug    bool
	flagData string

	// Loaded configuration
	cfg    *cfgpkg.Global
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "flightdash",
	Short: "flightdash: overview and interactive charts for a flight-records file",
	Long: `flightdash loads a flight-records CSV/TSV/XLSX once and serves an overview page
and a dashboard of five fixed charts, each with month/day and carrier or origin filters.
The same summaries are available from the command line.`,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.flightdash/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&flagData, "data", "", "flight-records file (overrides data_path)")
}

func loadConfig() {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = cfgpkg.Default()
	}
	cfg = c

	if rootCmd.PersistentFlags().Changed("data") && flagData != "" {
		cfg.DataPath = flagData
	}
	logger.Debug("config loaded", "data_path", cfg.DataPath, "config", cfgFile)
}

func tableOptions() table.Options {
	return table.Options{Delimiter: cfg.DelimiterRune(), SheetName: cfg.SheetName}
}
