package main

import (
	"fmt"

	"github.com/sandevgo/reportgen/internal/config"
	"github.com/sandevgo/reportgen/internal/service/installer"
	"github.com/sandevgo/reportgen/internal/service/ui"
	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:          "install",
	Short:        "Configure the LLM provider and transports interactively",
	Long:         `Walks through provider credentials and transport selection, then writes them to the runtime .env file.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		runtimePath := config.GetRuntimePath()

		if _, err := installer.RunWizard(runtimePath); err != nil {
			return err
		}

		fmt.Println(ui.TitleStyle.Render("Configuration saved to " + runtimePath))
		fmt.Println(ui.DescStyle.Render("Run `reportgen serve` to start the services."))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(installCmd)
}
