package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"pbb/internal/config"
	"pbb/internal/server"
	"pbb/internal/store"

	"github.com/spf13/cobra"
)

var flagAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis pipeline over HTTP",
	Long:  "Expose POST /v1/analyze for batch integrations that upload tables instead of running the CLI.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "127.0.0.1:8080", "Listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	params, err := analysisParams(cmd)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	var history *store.History
	if !flagNoHistory {
		history, err = store.Open(config.HistoryPath())
		if err != nil {
			logger.Warn("run history unavailable", "error", err)
		} else {
			defer func() { _ = history.Close() }()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(flagAddr, params, history, logger)
	return srv.ListenAndServe(ctx)
}
