package main

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/mokshitpuri/pharmalist-dbversion/pkg/log"
	"github.com/mokshitpuri/pharmalist-dbversion/pkg/srv"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the pharmalist HTTP service",
	Long:  `Initializes the database pool, the completion provider and the chat pipeline, then serves HTTP until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		logger := log.FromCtx(ctx)
		logger.Info().Msg("starting pharmalist")

		services := NewServices(ctx)

		srv.StartServices(ctx, services)

		srv.ShutdownServices(ctx, services)
		logger.Info().Msg("pharmalist has been shut down gracefully")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
