package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/flightdash/internal/render"
	"github.com/KaramelBytes/flightdash/internal/table"
	"github.com/KaramelBytes/flightdash/internal/web"
)

var (
	srvAddr  string
	srvWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the overview page and the interactive dashboard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := cfg.ListenAddr
		if cmd.Flags().Changed("addr") {
			addr = srvAddr
		}
		watch := cfg.Watch
		if cmd.Flags().Changed("watch") {
			watch = srvWatch
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cache := table.NewCache(tableOptions())
		srv, err := web.New(cache, web.Options{
			DataPath:    cfg.DataPath,
			PreviewRows: cfg.PreviewRows,
			Render:      render.Options{Width: cfg.ChartWidth, Height: cfg.ChartHeight},
		}, logger)
		if err != nil {
			return err
		}
		logger.Debug("table loaded", "path", cfg.DataPath, "reads", cache.Reads())
		if watch {
			if err := cache.Watch(ctx, cfg.DataPath, logger); err != nil {
				fmt.Fprintf(os.Stderr, "⚠ Warning: file watch disabled: %v\n", err)
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Serving %s on http://%s\n", cfg.DataPath, displayAddr(addr))
		return srv.ListenAndServe(ctx, addr)
	},
}

func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&srvAddr, "addr", "", "listen address (default from config, :8501)")
	serveCmd.Flags().BoolVar(&srvWatch, "watch", false, "reload the data file when it changes on disk")
}
