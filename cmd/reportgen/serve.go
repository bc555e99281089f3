package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sandevgo/reportgen/pkg/log"
	"github.com/sandevgo/reportgen/pkg/srv"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the report services",
	Long:  `Initializes and starts all configured services (HTTP API, Telegram) and the session janitor.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// logger setup
		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		logger := log.FromCtx(ctx)
		logger.Info().Msg("starting reportgen")

		services := NewServices(ctx)

		// Blocks until a signal arrives or a service fails to start
		if err := srv.Run(ctx, srv.DefaultShutdownTimeout, services...); err != nil {
			logger.Error().Err(err).Msg("reportgen stopped with errors")
			return err
		}
		logger.Info().Msg("reportgen has been shut down gracefully")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
