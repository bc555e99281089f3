package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sandevgo/reportgen/internal/config"
	"github.com/sandevgo/reportgen/internal/service/command"
	"github.com/sandevgo/reportgen/internal/transport/cli"
	"github.com/sandevgo/reportgen/pkg/log"
	"github.com/sandevgo/reportgen/pkg/srv"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:          "chat",
	Short:        "Start an interactive report session in the terminal",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// the terminal belongs to the chat, logs go to a file
		runtimePath := config.GetRuntimePath()
		if err := os.MkdirAll(runtimePath, 0o755); err != nil {
			return fmt.Errorf("create runtime dir: %w", err)
		}
		logFile, err := os.OpenFile(filepath.Join(runtimePath, "chat.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("open chat log: %w", err)
		}
		defer logFile.Close()

		var flushLog func()
		ctx, flushLog = log.NewContextWithWriter(ctx, logFile, debug || config.IsDebug())
		defer flushLog()

		c := newStorage(ctx)
		defer c.db.Close()

		orch := newOrchestrator(ctx, c)

		// the janitor runs until the chat ends
		bgCtx, cancelBg := context.WithCancel(ctx)
		bgDone := make(chan error, 1)
		go func() { bgDone <- srv.Run(bgCtx, srv.DefaultShutdownTimeout, newJanitor(c)) }()
		defer func() {
			cancelBg()
			<-bgDone
		}()

		router := command.New(command.NewCommands(orch, c.directory))
		return cli.NewChat(orch, router).Start(ctx)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
