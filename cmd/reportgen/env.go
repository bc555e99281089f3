package main

import (
	"fmt"

	"github.com/sandevgo/reportgen/internal/config"
	"github.com/sandevgo/reportgen/pkg/env"
	"github.com/spf13/cobra"
)

var envCmd = &cobra.Command{
	Use:          "env",
	Short:        "Print the effective configuration as dotenv lines",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
			return err
		}

		appCfg, err := config.ParseAppConfig()
		if err != nil {
			return err
		}
		llmCfg, err := config.ParseLLMConfig()
		if err != nil {
			return err
		}

		var opts []env.Option
		if reveal {
			opts = append(opts, env.RevealSecrets())
		}
		out, err := env.MarshalEnv([]any{appCfg, llmCfg}, opts...)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

var reveal bool

func init() {
	envCmd.Flags().BoolVar(&reveal, "reveal", false, "Print secrets in clear text")
	rootCmd.AddCommand(envCmd)
}
