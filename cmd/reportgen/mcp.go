package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sandevgo/reportgen/internal/config"
	"github.com/sandevgo/reportgen/internal/transport/mcpserver"
	"github.com/sandevgo/reportgen/pkg/log"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:          "mcp",
	Short:        "Serve company records and report tools over MCP stdio",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// stdout carries the protocol
		var flushLog func()
		ctx, flushLog = log.NewContextWithWriter(ctx, os.Stderr, debug || config.IsDebug())
		defer flushLog()

		c := newStorage(ctx)
		defer c.db.Close()

		server := mcpserver.New(c.directory, c.store, c.tools, os.Stdin, os.Stdout)
		return server.Start(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
